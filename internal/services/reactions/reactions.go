// Package reactions stores one emoji reaction per user and post and
// serves cached per-post summaries.
package reactions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/killallgit/blog-api/internal/models"
	"github.com/killallgit/blog-api/internal/services/cache"
	apperrors "github.com/killallgit/blog-api/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultSummaryTTL = time.Minute

// Summary is the per-type count for a post plus the caller's reaction
type Summary struct {
	Reactions    map[models.ReactionType]int64 `json:"reactions"`
	UserReaction *models.ReactionType          `json:"userReaction"`
}

// Service toggles reactions and reads summaries
type Service struct {
	db    *gorm.DB
	cache cache.Cache
	ttl   time.Duration
}

// NewService creates a reaction service; cache may be nil
func NewService(db *gorm.DB, c cache.Cache, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = defaultSummaryTTL
	}
	return &Service{db: db, cache: c, ttl: ttl}
}

func countsKey(postID string) string {
	return fmt.Sprintf("reactions:%s:counts", postID)
}

// Summary returns the counts for postID and userID's reaction, if any
func (s *Service) Summary(ctx context.Context, postID, userID string) (*Summary, error) {
	return s.summary(ctx, postID, userID, false)
}

// summary reads counts from the cache unless fresh is set. Fresh counts
// are written back, replacing whatever was cached.
func (s *Service) summary(ctx context.Context, postID, userID string, fresh bool) (*Summary, error) {
	counts, err := s.counts(ctx, postID, fresh)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Reactions: counts}
	if userID == "" {
		return summary, nil
	}

	var reaction models.Reaction
	err = s.db.WithContext(ctx).Where("post_id = ? AND user_id = ?", postID, userID).First(&reaction).Error
	switch {
	case err == nil:
		summary.UserReaction = &reaction.Type
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apperrors.DatabaseError("get reaction", err)
	}
	return summary, nil
}

func (s *Service) counts(ctx context.Context, postID string, fresh bool) (map[models.ReactionType]int64, error) {
	counts := make(map[models.ReactionType]int64, len(models.ReactionTypes))
	if s.cache != nil && !fresh && cache.GetJSON(ctx, s.cache, countsKey(postID), &counts) {
		return counts, nil
	}

	for _, t := range models.ReactionTypes {
		counts[t] = 0
	}

	var rows []struct {
		Type  models.ReactionType
		Count int64
	}
	if err := s.db.WithContext(ctx).
		Model(&models.Reaction{}).
		Select("type, COUNT(*) AS count").
		Where("post_id = ?", postID).
		Group("type").
		Scan(&rows).Error; err != nil {
		return nil, apperrors.DatabaseError("count reactions", err)
	}
	for _, row := range rows {
		if row.Type.Valid() {
			counts[row.Type] = row.Count
		}
	}

	if s.cache != nil {
		if err := cache.SetJSON(ctx, s.cache, countsKey(postID), counts, s.ttl); err != nil {
			log.Debug("failed to cache reaction counts", "post_id", postID, "error", err)
		}
	}
	return counts, nil
}

// Toggle applies reactionType for the user: the same type again removes
// it, a different type replaces it.
func (s *Service) Toggle(ctx context.Context, postID, userID string, reactionType models.ReactionType) (*Summary, error) {
	if !reactionType.Valid() {
		return nil, apperrors.ValidationError("type", "must be one of like, love, clap, fire, rocket")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Post{}).Where("id = ?", postID).Count(&count).Error; err != nil {
			return apperrors.DatabaseError("check post", err)
		}
		if count == 0 {
			return apperrors.NotFound("post", postID)
		}

		var existing models.Reaction
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("post_id = ? AND user_id = ?", postID, userID).
			First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(&models.Reaction{PostID: postID, UserID: userID, Type: reactionType}).Error; err != nil {
				return apperrors.DatabaseError("create reaction", err)
			}
		case err != nil:
			return apperrors.DatabaseError("get reaction", err)
		case existing.Type == reactionType:
			if err := tx.Delete(&existing).Error; err != nil {
				return apperrors.DatabaseError("delete reaction", err)
			}
		default:
			if err := tx.Model(&existing).Update("type", reactionType).Error; err != nil {
				return apperrors.DatabaseError("update reaction", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, countsKey(postID)); err != nil {
			log.Warn("failed to invalidate reaction counts", "post_id", postID, "error", err)
			return s.summary(ctx, postID, userID, true)
		}
	}
	return s.Summary(ctx, postID, userID)
}
