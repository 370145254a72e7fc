// Package sites manages the blogs a user publishes posts under.
package sites

import (
	"context"

	"github.com/killallgit/blog-api/internal/models"
)

// CreateInput is a new site request
type CreateInput struct {
	Name         string `json:"name" binding:"required"`
	Description  string `json:"description"`
	Subdirectory string `json:"subdirectory" binding:"required"`
	ImageURL     string `json:"imageUrl"`
}

// SiteRepository defines the interface for site data persistence
type SiteRepository interface {
	CreateSite(ctx context.Context, site *models.Site) error
	GetSiteByID(ctx context.Context, id string) (*models.Site, error)
	GetSiteBySubdirectory(ctx context.Context, subdirectory string) (*models.Site, error)
	GetLatestSite(ctx context.Context, userID string) (*models.Site, error)
	ListSitesByUser(ctx context.Context, userID string) ([]models.Site, error)
	CountSitesByUser(ctx context.Context, userID string) (int64, error)
	DeleteSite(ctx context.Context, id string) error
}

// SubscriptionChecker reports a user's active subscription, nil when none
type SubscriptionChecker interface {
	ActiveSubscription(ctx context.Context, userID string) (*models.Subscription, error)
}

// SiteService defines the interface for site operations
type SiteService interface {
	// CreateSite creates a site, enforcing the free plan site limit
	CreateSite(ctx context.Context, userID string, input CreateInput) (*models.Site, error)

	// GetSite retrieves a site by ID
	GetSite(ctx context.Context, id string) (*models.Site, error)

	// GetSiteBySubdirectory retrieves a site by its public subdirectory
	GetSiteBySubdirectory(ctx context.Context, subdirectory string) (*models.Site, error)

	// ListSites returns the user's sites, newest first
	ListSites(ctx context.Context, userID string) ([]models.Site, error)

	// CurrentSite returns the user's newest site, creating a default one if needed
	CurrentSite(ctx context.Context, userID string) (*models.Site, error)

	// CurrentSiteID returns the newest site's ID or "" when the user has none
	CurrentSiteID(ctx context.Context, userID string) (string, error)

	// DeleteSite removes a site owned by userID
	DeleteSite(ctx context.Context, id, userID string) error
}
