package comments

import (
	"context"
	"errors"

	"github.com/killallgit/blog-api/internal/models"
	apperrors "github.com/killallgit/blog-api/pkg/errors"
	"gorm.io/gorm"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

type Repository struct {
	db *gorm.DB
}

var _ CommentRepository = (*Repository)(nil)

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) PostExists(ctx context.Context, postID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", postID).Count(&count).Error; err != nil {
		return false, apperrors.DatabaseError("check post", err)
	}
	return count > 0, nil
}

func (r *Repository) CreateComment(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Omit("User", "Replies").Create(comment).Error; err != nil {
		return apperrors.DatabaseError("create comment", err)
	}
	return nil
}

func (r *Repository) GetCommentByID(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("User").First(&comment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("comment", id)
		}
		return nil, apperrors.DatabaseError("get comment", err)
	}
	return &comment, nil
}

func (r *Repository) ListTopLevel(ctx context.Context, postID string, opts ListOptions) ([]models.Comment, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	query := r.db.WithContext(ctx).
		Preload("User").
		Preload("Replies", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Replies.User").
		Where("post_id = ? AND parent_id IS NULL", postID)

	switch opts.SortBy {
	case SortOldest:
		query = query.Order("created_at ASC")
	case SortMostLikes:
		query = query.
			Order("(SELECT COUNT(*) FROM comment_likes WHERE comment_likes.comment_id = comments.id) DESC").
			Order("created_at DESC")
	default:
		query = query.Order("created_at DESC")
	}

	var comments []models.Comment
	if err := query.Limit(limit).Find(&comments).Error; err != nil {
		return nil, apperrors.DatabaseError("list comments", err)
	}
	return comments, nil
}

func (r *Repository) CountReplies(ctx context.Context, id string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Comment{}).Where("parent_id = ?", id).Count(&count).Error; err != nil {
		return 0, apperrors.DatabaseError("count replies", err)
	}
	return count, nil
}

func (r *Repository) UpdateContent(ctx context.Context, id, content string) error {
	result := r.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id).Update("content", content)
	if result.Error != nil {
		return apperrors.DatabaseError("update comment", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("comment", id)
	}
	return nil
}

// DeleteComment removes the comment and its likes
func (r *Repository) DeleteComment(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("comment_id = ?", id).Delete(&models.CommentLike{}).Error; err != nil {
			return apperrors.DatabaseError("delete comment likes", err)
		}
		result := tx.Delete(&models.Comment{}, "id = ?", id)
		if result.Error != nil {
			return apperrors.DatabaseError("delete comment", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.NotFound("comment", id)
		}
		return nil
	})
}

func (r *Repository) LikeCounts(ctx context.Context, ids []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}

	var rows []struct {
		CommentID string
		Count     int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.CommentLike{}).
		Select("comment_id, COUNT(*) AS count").
		Where("comment_id IN ?", ids).
		Group("comment_id").
		Scan(&rows).Error; err != nil {
		return nil, apperrors.DatabaseError("count comment likes", err)
	}
	for _, row := range rows {
		counts[row.CommentID] = row.Count
	}
	return counts, nil
}

// ToggleLike flips the user's like inside one transaction
func (r *Repository) ToggleLike(ctx context.Context, commentID, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("comment_id = ? AND user_id = ?", commentID, userID).Delete(&models.CommentLike{})
		if result.Error != nil {
			return apperrors.DatabaseError("unlike comment", result.Error)
		}
		if result.RowsAffected == 0 {
			if err := tx.Create(&models.CommentLike{CommentID: commentID, UserID: userID}).Error; err != nil {
				return apperrors.DatabaseError("like comment", err)
			}
		}
		if err := tx.Model(&models.CommentLike{}).Where("comment_id = ?", commentID).Count(&count).Error; err != nil {
			return apperrors.DatabaseError("count comment likes", err)
		}
		return nil
	})
	return count, err
}
