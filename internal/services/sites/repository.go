package sites

import (
	"context"
	"errors"

	"github.com/killallgit/blog-api/internal/models"
	apperrors "github.com/killallgit/blog-api/pkg/errors"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

var _ SiteRepository = (*Repository)(nil)

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateSite(ctx context.Context, site *models.Site) error {
	if err := r.db.WithContext(ctx).Create(site).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.New(apperrors.ErrCodeConflict, "subdirectory already in use").
				WithDetail("subdirectory", site.Subdirectory)
		}
		return apperrors.DatabaseError("create site", err)
	}
	return nil
}

func (r *Repository) GetSiteByID(ctx context.Context, id string) (*models.Site, error) {
	return r.first(ctx, "get site", id, "id = ?", id)
}

func (r *Repository) GetSiteBySubdirectory(ctx context.Context, subdirectory string) (*models.Site, error) {
	return r.first(ctx, "get site by subdirectory", subdirectory, "subdirectory = ?", subdirectory)
}

func (r *Repository) GetLatestSite(ctx context.Context, userID string) (*models.Site, error) {
	return r.first(ctx, "get latest site", userID, "user_id = ?", userID)
}

func (r *Repository) first(ctx context.Context, op string, key any, query string, args ...any) (*models.Site, error) {
	var site models.Site
	if err := r.db.WithContext(ctx).
		Where(query, args...).
		Order("created_at DESC").
		First(&site).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("site", key)
		}
		return nil, apperrors.DatabaseError(op, err)
	}
	return &site, nil
}

func (r *Repository) ListSitesByUser(ctx context.Context, userID string) ([]models.Site, error) {
	var sites []models.Site
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&sites).Error; err != nil {
		return nil, apperrors.DatabaseError("list sites", err)
	}
	return sites, nil
}

func (r *Repository) CountSitesByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Site{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, apperrors.DatabaseError("count sites", err)
	}
	return count, nil
}

// DeleteSite removes the site and detaches its posts
func (r *Repository) DeleteSite(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Site{}, "id = ?", id)
		if result.Error != nil {
			return apperrors.DatabaseError("delete site", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.NotFound("site", id)
		}
		if err := tx.Model(&models.Post{}).Where("site_id = ?", id).Update("site_id", nil).Error; err != nil {
			return apperrors.DatabaseError("detach posts", err)
		}
		return nil
	})
}
