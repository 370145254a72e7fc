package users

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/killallgit/blog-api/internal/models"
	apperrors "github.com/killallgit/blog-api/pkg/errors"
)

// DefaultBasicPostLimit is the number of posts a Basic subscriber may generate
const DefaultBasicPostLimit = 3

// Service implements the UserService interface
type Service struct {
	repo           UserRepository
	posts          PostCounter
	basicPostLimit int
}

// NewService creates a new user service
func NewService(repo UserRepository, posts PostCounter, basicPostLimit int) UserService {
	if basicPostLimit <= 0 {
		basicPostLimit = DefaultBasicPostLimit
	}
	return &Service{repo: repo, posts: posts, basicPostLimit: basicPostLimit}
}

func (s *Service) SyncUser(ctx context.Context, profile Profile) (*models.User, error) {
	if strings.TrimSpace(profile.ID) == "" {
		return nil, apperrors.Unauthorized("user is not authenticated")
	}

	user, err := s.repo.GetUserByID(ctx, profile.ID)
	if err != nil && !apperrors.Is(err, apperrors.ErrCodeNotFound) {
		return nil, err
	}

	if user == nil {
		user = &models.User{
			ID:           profile.ID,
			Email:        profile.Email,
			FirstName:    profile.FirstName,
			LastName:     profile.LastName,
			ProfileImage: profile.ProfileImage,
		}
		if err := s.repo.CreateUser(ctx, user); err != nil {
			return nil, err
		}
		log.Info("created user", "user_id", user.ID)
		return user, nil
	}

	// Claims may omit fields; keep what we already have
	changed := false
	update := func(dst *string, v string) {
		if v != "" && *dst != v {
			*dst = v
			changed = true
		}
	}
	update(&user.Email, profile.Email)
	update(&user.FirstName, profile.FirstName)
	update(&user.LastName, profile.LastName)
	update(&user.ProfileImage, profile.ProfileImage)

	if changed {
		if err := s.repo.UpdateUser(ctx, user); err != nil {
			return nil, err
		}
	}
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *Service) ActiveSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	sub, err := s.repo.GetSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !sub.IsActive() {
		return nil, nil
	}
	return sub, nil
}

func (s *Service) GetPlanInfo(ctx context.Context, userID string) (*PlanInfo, error) {
	sub, err := s.repo.GetSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}

	count, err := s.posts.CountUserPosts(ctx, userID)
	if err != nil {
		return nil, err
	}

	info := &PlanInfo{PlanTypeName: models.PlanStarter, PostsCount: count}
	if sub != nil {
		info.HasUserCancelled = sub.Status == models.SubscriptionCanceled
		switch {
		case strings.EqualFold(sub.PlanName, models.PlanPro):
			info.IsProPlan = true
			info.PlanTypeName = models.PlanPro
		case strings.EqualFold(sub.PlanName, models.PlanBasic):
			info.IsBasicPlan = true
			info.PlanTypeName = models.PlanBasic
			info.PostLimit = s.basicPostLimit
		}
	}
	info.IsValidBasicPlan = info.IsBasicPlan && count < int64(s.basicPostLimit)
	return info, nil
}
