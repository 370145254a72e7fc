package sites

import (
	"context"
	"testing"
	"time"

	"github.com/killallgit/blog-api/internal/models"
	"github.com/killallgit/blog-api/internal/testsupport"
	apperrors "github.com/killallgit/blog-api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSubscriptionChecker struct {
	mock.Mock
}

func (m *MockSubscriptionChecker) ActiveSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func setup(t *testing.T, sub *models.Subscription) (SiteService, *MockSubscriptionChecker) {
	t.Helper()
	db := testsupport.MustOpenDB(t)
	checker := &MockSubscriptionChecker{}
	if sub != nil {
		checker.On("ActiveSubscription", mock.Anything, mock.Anything).Return(sub, nil)
	} else {
		checker.On("ActiveSubscription", mock.Anything, mock.Anything).Return(nil, nil)
	}
	return NewService(NewRepository(db.DB), checker, 1), checker
}

func TestService_CreateSite_FreeLimit(t *testing.T) {
	svc, _ := setup(t, nil)
	ctx := context.Background()

	site, err := svc.CreateSite(ctx, "u1", CreateInput{Name: "Gopher Notes", Subdirectory: "Gopher-Notes"})
	require.NoError(t, err)
	assert.Equal(t, "gopher-notes", site.Subdirectory)
	assert.NotEmpty(t, site.ID)

	_, err = svc.CreateSite(ctx, "u1", CreateInput{Name: "Second", Subdirectory: "second"})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodePlanLimit))
	assert.Equal(t, 403, apperrors.GetHTTPCode(err))
}

func TestService_CreateSite_Subscribed(t *testing.T) {
	svc, _ := setup(t, &models.Subscription{UserID: "u1", Status: models.SubscriptionActive})
	ctx := context.Background()

	for _, sub := range []string{"one", "two", "three"} {
		_, err := svc.CreateSite(ctx, "u1", CreateInput{Name: sub, Subdirectory: sub})
		require.NoError(t, err)
	}

	_, err := svc.CreateSite(ctx, "u2", CreateInput{Name: "Taken", Subdirectory: "one"})
	require.Error(t, err)
	assert.Equal(t, 409, apperrors.GetHTTPCode(err))
}

func TestService_CreateSite_Validation(t *testing.T) {
	svc, _ := setup(t, nil)

	tests := []struct {
		name  string
		input CreateInput
		code  apperrors.ErrorCode
	}{
		{name: "missing name", input: CreateInput{Subdirectory: "x"}, code: apperrors.ErrCodeMissingField},
		{name: "missing subdirectory", input: CreateInput{Name: "x"}, code: apperrors.ErrCodeMissingField},
		{name: "bad subdirectory", input: CreateInput{Name: "x", Subdirectory: "has space"}, code: apperrors.ErrCodeValidation},
		{name: "long name", input: CreateInput{Name: "this name is definitely far too long for a site", Subdirectory: "x"}, code: apperrors.ErrCodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateSite(context.Background(), "u1", tt.input)
			assert.True(t, apperrors.Is(err, tt.code), "got %v", err)
		})
	}
}

func TestService_CurrentSite(t *testing.T) {
	svc, _ := setup(t, &models.Subscription{Status: models.SubscriptionActive})
	ctx := context.Background()

	id, err := svc.CurrentSiteID(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, id)

	site, err := svc.CurrentSite(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, DefaultSiteName, site.Name)
	assert.Equal(t, "user-u1-default", site.Subdirectory)

	again, err := svc.CurrentSite(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, site.ID, again.ID)

	time.Sleep(5 * time.Millisecond)
	newer, err := svc.CreateSite(ctx, "u1", CreateInput{Name: "Newer", Subdirectory: "newer"})
	require.NoError(t, err)

	id, err = svc.CurrentSiteID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, id)

	list, err := svc.ListSites(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
}

func TestService_DeleteSite(t *testing.T) {
	db := testsupport.MustOpenDB(t)
	checker := &MockSubscriptionChecker{}
	checker.On("ActiveSubscription", mock.Anything, mock.Anything).Return(nil, nil)
	svc := NewService(NewRepository(db.DB), checker, 1)
	ctx := context.Background()

	site, err := svc.CreateSite(ctx, "u1", CreateInput{Name: "Mine", Subdirectory: "mine"})
	require.NoError(t, err)

	post := testsupport.MustCreatePost(t, db, "u1", "attached")
	require.NoError(t, db.Model(post).Update("site_id", site.ID).Error)

	err = svc.DeleteSite(ctx, site.ID, "u2")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeForbidden))

	require.NoError(t, svc.DeleteSite(ctx, site.ID, "u1"))

	var reloaded models.Post
	require.NoError(t, db.First(&reloaded, "id = ?", post.ID).Error)
	assert.Nil(t, reloaded.SiteID)

	_, err = svc.GetSite(ctx, site.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotFound))
}
