// Package users keeps the local copy of identities from the auth
// provider and derives plan entitlements from their subscription.
package users

import (
	"context"

	"github.com/killallgit/blog-api/internal/models"
)

// Profile is the identity data carried by an access token
type Profile struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	ProfileImage string
}

// PlanInfo summarizes what the user's subscription allows
type PlanInfo struct {
	PlanTypeName     string `json:"planTypeName"`
	IsProPlan        bool   `json:"isProPlan"`
	IsBasicPlan      bool   `json:"isBasicPlan"`
	HasUserCancelled bool   `json:"hasUserCancelled"`
	IsValidBasicPlan bool   `json:"isValidBasicPlan"`
	PostsCount       int64  `json:"postsCount"`
	PostLimit        int    `json:"postLimit,omitempty"`
}

// CanGenerate reports whether another post may be generated. Only the
// Basic plan carries a post quota.
func (p *PlanInfo) CanGenerate() bool {
	if p.IsBasicPlan {
		return p.IsValidBasicPlan
	}
	return true
}

// UserRepository defines the interface for user data persistence
type UserRepository interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	GetSubscription(ctx context.Context, userID string) (*models.Subscription, error)
}

// PostCounter counts a user's posts
type PostCounter interface {
	CountUserPosts(ctx context.Context, userID string) (int64, error)
}

// UserService defines the interface for user operations
type UserService interface {
	// SyncUser creates or refreshes the local user from token claims
	SyncUser(ctx context.Context, profile Profile) (*models.User, error)

	// GetUser retrieves a user by ID
	GetUser(ctx context.Context, id string) (*models.User, error)

	// ActiveSubscription returns the user's subscription when it is active, nil otherwise
	ActiveSubscription(ctx context.Context, userID string) (*models.Subscription, error)

	// GetPlanInfo derives plan entitlements for the user
	GetPlanInfo(ctx context.Context, userID string) (*PlanInfo, error)
}
