package posts

import (
	"context"
	"errors"
	"fmt"

	"github.com/killallgit/blog-api/internal/models"
	apperrors "github.com/killallgit/blog-api/pkg/errors"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Repository struct {
	db *gorm.DB
}

// Ensure Repository implements PostRepository interface
var _ PostRepository = (*Repository)(nil)

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreatePost(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return apperrors.DatabaseError("create post", err)
	}
	return nil
}

func (r *Repository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("post", id)
		}
		return nil, apperrors.DatabaseError("get post", err)
	}
	return &post, nil
}

// GetLatestPostBySlug returns the newest match since slugs are not unique
func (r *Repository) GetLatestPostBySlug(ctx context.Context, slug string) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).
		Where("slug = ?", slug).
		Order("created_at DESC").
		First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("post", slug)
		}
		return nil, apperrors.DatabaseError("get post by slug", err)
	}
	return &post, nil
}

func (r *Repository) ListPosts(ctx context.Context, filter ListFilter) ([]models.Post, int64, error) {
	var posts []models.Post
	var total int64

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}

	query := r.db.WithContext(ctx).Model(&models.Post{})
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.SiteID != "" {
		query = query.Where("site_id = ?", filter.SiteID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.DatabaseError("count posts", err)
	}

	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&posts).Error; err != nil {
		return nil, 0, apperrors.DatabaseError("list posts", err)
	}

	return posts, total, nil
}

func (r *Repository) UpdatePost(ctx context.Context, post *models.Post) error {
	result := r.db.WithContext(ctx).Save(post)
	if result.Error != nil {
		return apperrors.DatabaseError("update post", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("post", post.ID)
	}
	return nil
}

func (r *Repository) DeletePost(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Post{}, "id = ?", id)
		if result.Error != nil {
			return apperrors.DatabaseError("delete post", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.NotFound("post", id)
		}

		// Foreign keys are not enforced, so dependent rows go by hand
		commentIDs := tx.Model(&models.Comment{}).Select("id").Where("post_id = ?", id)
		if err := tx.Where("comment_id IN (?)", commentIDs).Delete(&models.CommentLike{}).Error; err != nil {
			return apperrors.DatabaseError("delete comment likes", err)
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return apperrors.DatabaseError("delete comments", err)
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Reaction{}).Error; err != nil {
			return apperrors.DatabaseError("delete reactions", err)
		}
		return nil
	})
}

// IncrementCounter atomically bumps likes or views and returns the new value
func (r *Repository) IncrementCounter(ctx context.Context, id string, column string) (int, error) {
	if column != "likes" && column != "views" {
		return 0, fmt.Errorf("unsupported counter %q", column)
	}

	var value int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Post{}).
			Where("id = ?", id).
			UpdateColumn(column, gorm.Expr(column+" + ?", 1))
		if result.Error != nil {
			return apperrors.DatabaseError("increment "+column, result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.NotFound("post", id)
		}
		var values []int
		if err := tx.Model(&models.Post{}).Where("id = ?", id).Pluck(column, &values).Error; err != nil {
			return apperrors.DatabaseError("read "+column, err)
		}
		if len(values) > 0 {
			value = values[0]
		}
		return nil
	})
	return value, err
}

func (r *Repository) CountPostsByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, apperrors.DatabaseError("count posts", err)
	}
	return count, nil
}
