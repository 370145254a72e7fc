package sites

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/killallgit/blog-api/internal/models"
	apperrors "github.com/killallgit/blog-api/pkg/errors"
)

const (
	DefaultSiteName        = "Default Site"
	DefaultSiteDescription = "This is your default site"
	DefaultFreeSiteLimit   = 1

	maxNameLength        = 35
	maxDescriptionLength = 150
)

var subdirectoryPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,39}$`)

// DefaultSubdirectory is the subdirectory given to an auto-created site
func DefaultSubdirectory(userID string) string {
	return fmt.Sprintf("user-%s-default", userID)
}

// Service implements the SiteService interface
type Service struct {
	repo          SiteRepository
	subscriptions SubscriptionChecker
	freeSiteLimit int
}

// NewService creates a new site service
func NewService(repo SiteRepository, subscriptions SubscriptionChecker, freeSiteLimit int) SiteService {
	if freeSiteLimit <= 0 {
		freeSiteLimit = DefaultFreeSiteLimit
	}
	return &Service{repo: repo, subscriptions: subscriptions, freeSiteLimit: freeSiteLimit}
}

func (s *Service) CreateSite(ctx context.Context, userID string, input CreateInput) (*models.Site, error) {
	site := &models.Site{
		Name:         strings.TrimSpace(input.Name),
		Description:  strings.TrimSpace(input.Description),
		Subdirectory: strings.ToLower(strings.TrimSpace(input.Subdirectory)),
		ImageURL:     strings.TrimSpace(input.ImageURL),
		UserID:       userID,
	}
	if err := validate(site); err != nil {
		return nil, err
	}

	sub, err := s.subscriptions.ActiveSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		count, err := s.repo.CountSitesByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		if count >= int64(s.freeSiteLimit) {
			return nil, apperrors.PlanLimitError("free", s.freeSiteLimit, "sites")
		}
	}

	if _, err := s.repo.GetSiteBySubdirectory(ctx, site.Subdirectory); err == nil {
		return nil, apperrors.New(apperrors.ErrCodeConflict, "subdirectory already in use").
			WithDetail("subdirectory", site.Subdirectory)
	} else if !apperrors.Is(err, apperrors.ErrCodeNotFound) {
		return nil, err
	}

	if err := s.repo.CreateSite(ctx, site); err != nil {
		return nil, err
	}
	log.Info("created site", "site_id", site.ID, "user_id", userID, "subdirectory", site.Subdirectory)
	return site, nil
}

func validate(site *models.Site) error {
	if site.Name == "" {
		return apperrors.MissingFieldError("name")
	}
	if utf8.RuneCountInString(site.Name) > maxNameLength {
		return apperrors.ValidationError("name", fmt.Sprintf("must be at most %d characters", maxNameLength))
	}
	if utf8.RuneCountInString(site.Description) > maxDescriptionLength {
		return apperrors.ValidationError("description", fmt.Sprintf("must be at most %d characters", maxDescriptionLength))
	}
	if site.Subdirectory == "" {
		return apperrors.MissingFieldError("subdirectory")
	}
	if !subdirectoryPattern.MatchString(site.Subdirectory) {
		return apperrors.ValidationError("subdirectory", "only lowercase letters, digits and hyphens, up to 40 characters")
	}
	return nil
}

func (s *Service) GetSite(ctx context.Context, id string) (*models.Site, error) {
	return s.repo.GetSiteByID(ctx, id)
}

func (s *Service) GetSiteBySubdirectory(ctx context.Context, subdirectory string) (*models.Site, error) {
	return s.repo.GetSiteBySubdirectory(ctx, strings.ToLower(subdirectory))
}

func (s *Service) ListSites(ctx context.Context, userID string) ([]models.Site, error) {
	return s.repo.ListSitesByUser(ctx, userID)
}

func (s *Service) CurrentSite(ctx context.Context, userID string) (*models.Site, error) {
	site, err := s.repo.GetLatestSite(ctx, userID)
	if err == nil {
		return site, nil
	}
	if !apperrors.Is(err, apperrors.ErrCodeNotFound) {
		return nil, err
	}

	site = &models.Site{
		Name:         DefaultSiteName,
		Description:  DefaultSiteDescription,
		Subdirectory: DefaultSubdirectory(userID),
		UserID:       userID,
	}
	if err := s.repo.CreateSite(ctx, site); err != nil {
		return nil, err
	}
	log.Info("created default site", "site_id", site.ID, "user_id", userID)
	return site, nil
}

func (s *Service) CurrentSiteID(ctx context.Context, userID string) (string, error) {
	site, err := s.repo.GetLatestSite(ctx, userID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrCodeNotFound) {
			return "", nil
		}
		return "", err
	}
	return site.ID, nil
}

func (s *Service) DeleteSite(ctx context.Context, id, userID string) error {
	site, err := s.repo.GetSiteByID(ctx, id)
	if err != nil {
		return err
	}
	if site.UserID != userID {
		return apperrors.Forbidden("site", "delete")
	}
	return s.repo.DeleteSite(ctx, id)
}
