package reactions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/killallgit/blog-api/internal/models"
	"github.com/killallgit/blog-api/internal/services/cache"
	"github.com/killallgit/blog-api/internal/testsupport"
	apperrors "github.com/killallgit/blog-api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleAndSummary(t *testing.T) {
	db := testsupport.MustOpenDB(t)
	mc := cache.NewMemoryCache(0, time.Hour)
	defer mc.Stop()
	svc := NewService(db.DB, mc, time.Minute)
	ctx := context.Background()

	post := testsupport.MustCreatePost(t, db, "author", "reacted")

	summary, err := svc.Summary(ctx, post.ID, "u1")
	require.NoError(t, err)
	assert.Len(t, summary.Reactions, 5)
	assert.Nil(t, summary.UserReaction)

	summary, err = svc.Toggle(ctx, post.ID, "u1", models.ReactionFire)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Reactions[models.ReactionFire])
	require.NotNil(t, summary.UserReaction)
	assert.Equal(t, models.ReactionFire, *summary.UserReaction)

	_, err = svc.Toggle(ctx, post.ID, "u2", models.ReactionFire)
	require.NoError(t, err)

	summary, err = svc.Toggle(ctx, post.ID, "u1", models.ReactionRocket)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Reactions[models.ReactionFire])
	assert.Equal(t, int64(1), summary.Reactions[models.ReactionRocket])
	assert.Equal(t, models.ReactionRocket, *summary.UserReaction)

	summary, err = svc.Toggle(ctx, post.ID, "u1", models.ReactionRocket)
	require.NoError(t, err)
	assert.Zero(t, summary.Reactions[models.ReactionRocket])
	assert.Nil(t, summary.UserReaction)

	anon, err := svc.Summary(ctx, post.ID, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), anon.Reactions[models.ReactionFire])
}

func TestSummaryIsCached(t *testing.T) {
	db := testsupport.MustOpenDB(t)
	mc := cache.NewMemoryCache(0, time.Hour)
	defer mc.Stop()
	svc := NewService(db.DB, mc, time.Minute)
	ctx := context.Background()

	post := testsupport.MustCreatePost(t, db, "author", "cached")
	_, err := svc.Summary(ctx, post.ID, "")
	require.NoError(t, err)

	// Written behind the service's back, so only visible after invalidation
	require.NoError(t, db.Create(&models.Reaction{PostID: post.ID, UserID: "u9", Type: models.ReactionClap}).Error)

	summary, err := svc.Summary(ctx, post.ID, "")
	require.NoError(t, err)
	assert.Zero(t, summary.Reactions[models.ReactionClap])

	summary, err = svc.Toggle(ctx, post.ID, "u1", models.ReactionClap)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.Reactions[models.ReactionClap])
}

// stickyCache refuses to delete entries
type stickyCache struct {
	*cache.MemoryCache
}

func (stickyCache) Delete(context.Context, string) error {
	return errors.New("delete unsupported")
}

func TestToggleRefreshesCountsWhenInvalidationFails(t *testing.T) {
	db := testsupport.MustOpenDB(t)
	mc := cache.NewMemoryCache(0, time.Hour)
	defer mc.Stop()
	svc := NewService(db.DB, stickyCache{mc}, time.Minute)
	ctx := context.Background()

	post := testsupport.MustCreatePost(t, db, "author", "sticky")
	summary, err := svc.Summary(ctx, post.ID, "")
	require.NoError(t, err)
	assert.Zero(t, summary.Reactions[models.ReactionLove])

	summary, err = svc.Toggle(ctx, post.ID, "u1", models.ReactionLove)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Reactions[models.ReactionLove])

	// the cached entry was replaced, so later reads are current too
	anon, err := svc.Summary(ctx, post.ID, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), anon.Reactions[models.ReactionLove])
}

func TestToggleErrors(t *testing.T) {
	db := testsupport.MustOpenDB(t)
	svc := NewService(db.DB, nil, 0)
	ctx := context.Background()

	_, err := svc.Toggle(ctx, "missing", "u1", models.ReactionLike)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotFound))

	post := testsupport.MustCreatePost(t, db, "author", "x")
	_, err = svc.Toggle(ctx, post.ID, "u1", models.ReactionType("sad"))
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidation))
}
