package posts

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/killallgit/blog-api/internal/models"
	apperrors "github.com/killallgit/blog-api/pkg/errors"
)

// Service implements the PostService interface
type Service struct {
	repo PostRepository
}

// NewService creates a new post service
func NewService(repo PostRepository) PostService {
	return &Service{repo: repo}
}

func (s *Service) CreatePost(ctx context.Context, post *models.Post) error {
	if post == nil {
		return apperrors.MissingFieldError("post")
	}
	if strings.TrimSpace(post.Title) == "" {
		return apperrors.MissingFieldError("title")
	}
	if strings.TrimSpace(post.ArticleContent.Content) == "" {
		return apperrors.MissingFieldError("content")
	}
	if post.Slug == "" {
		post.Slug = Slugify(post.Title)
	}
	if post.Status == "" {
		post.Status = models.PostStatusDraft
	}
	if post.Tags == nil {
		post.Tags = models.StringList{}
	}
	return s.repo.CreatePost(ctx, post)
}

func (s *Service) GetPost(ctx context.Context, id string) (*models.Post, error) {
	return s.repo.GetPostByID(ctx, id)
}

func (s *Service) ViewPostBySlug(ctx context.Context, slug string) (*models.Post, error) {
	post, err := s.repo.GetLatestPostBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	views, err := s.repo.IncrementCounter(ctx, post.ID, "views")
	if err != nil {
		// A lost view is not worth failing the read
		log.Warn("failed to count post view", "post_id", post.ID, "error", err)
		return post, nil
	}
	post.Views = views
	return post, nil
}

func (s *Service) ListPosts(ctx context.Context, filter ListFilter) ([]models.Post, int64, error) {
	return s.repo.ListPosts(ctx, filter)
}

func (s *Service) UpdatePost(ctx context.Context, id, userID string, input UpdateInput) (*models.Post, error) {
	post, err := s.owned(ctx, id, userID, "update")
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(input.Content) != "" {
		title, body := SplitTitleBody(input.Content)
		if body == "" {
			// Content without a blank line is all body
			body, title = strings.TrimSpace(input.Content), post.Title
		}
		if title != "" {
			post.Title = title
		}
		post.ArticleContent = models.ArticleContent{Content: body}
		post.SmallDescription = Truncate(body, SmallDescriptionLength)
		post.MetaDescription = Truncate(body, MetaDescriptionLength)
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.ValidationError("title", "must not be empty")
		}
		post.Title = title
	}
	// Slugs stay stable across edits unless replaced explicitly
	if input.Slug != nil {
		slug := Slugify(*input.Slug)
		if slug == "" {
			return nil, apperrors.ValidationError("slug", "must contain at least one word character")
		}
		post.Slug = slug
	}
	if input.Image != nil {
		post.Image = *input.Image
	}
	if input.Tags != nil {
		post.Tags = models.StringList(input.Tags)
	}
	if input.Status != nil {
		switch *input.Status {
		case models.PostStatusDraft, models.PostStatusPublished:
			post.Status = *input.Status
		default:
			return nil, apperrors.ValidationError("status", "must be draft or published")
		}
	}

	if err := s.repo.UpdatePost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *Service) DeletePost(ctx context.Context, id, userID string) error {
	if _, err := s.owned(ctx, id, userID, "delete"); err != nil {
		return err
	}
	return s.repo.DeletePost(ctx, id)
}

func (s *Service) LikePost(ctx context.Context, id string) (int, error) {
	return s.repo.IncrementCounter(ctx, id, "likes")
}

func (s *Service) CountUserPosts(ctx context.Context, userID string) (int64, error) {
	return s.repo.CountPostsByUser(ctx, userID)
}

func (s *Service) owned(ctx context.Context, id, userID, action string) (*models.Post, error) {
	post, err := s.repo.GetPostByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !post.IsOwnedBy(userID) {
		return nil, apperrors.Forbidden("post", action)
	}
	return post, nil
}
