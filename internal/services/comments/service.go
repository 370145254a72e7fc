package comments

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/killallgit/blog-api/internal/models"
	apperrors "github.com/killallgit/blog-api/pkg/errors"
)

const maxContentLength = 5000

// Service implements the CommentService interface
type Service struct {
	repo CommentRepository
}

// NewService creates a new comment service
func NewService(repo CommentRepository) CommentService {
	return &Service{repo: repo}
}

func (s *Service) ListComments(ctx context.Context, postID string, opts ListOptions) ([]models.Comment, error) {
	comments, err := s.repo.ListTopLevel(ctx, postID, opts)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, c := range comments {
		ids = append(ids, c.ID)
		for _, reply := range c.Replies {
			ids = append(ids, reply.ID)
		}
	}

	counts, err := s.repo.LikeCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range comments {
		comments[i].LikeCount = counts[comments[i].ID]
		for j := range comments[i].Replies {
			comments[i].Replies[j].LikeCount = counts[comments[i].Replies[j].ID]
		}
	}
	return comments, nil
}

func (s *Service) AddComment(ctx context.Context, postID, userID, content string, parentID *string) (*models.Comment, error) {
	content, err := cleanContent(content)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.PostExists(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.NotFound("post", postID)
	}

	if parentID != nil && *parentID == "" {
		parentID = nil
	}
	if parentID != nil {
		parent, err := s.repo.GetCommentByID(ctx, *parentID)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrCodeNotFound) {
				return nil, apperrors.NotFound("parent comment", *parentID)
			}
			return nil, err
		}
		if parent.PostID != postID {
			return nil, apperrors.ValidationError("parentId", "belongs to a different post")
		}
		// Replies stay one level deep
		if parent.ParentID != nil {
			parentID = parent.ParentID
		}
	}

	comment := &models.Comment{
		Content:  content,
		PostID:   postID,
		UserID:   userID,
		ParentID: parentID,
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	return s.repo.GetCommentByID(ctx, comment.ID)
}

func (s *Service) EditComment(ctx context.Context, id, userID, content string) (*models.Comment, error) {
	content, err := cleanContent(content)
	if err != nil {
		return nil, err
	}

	comment, err := s.owned(ctx, id, userID, "update")
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateContent(ctx, id, content); err != nil {
		return nil, err
	}
	comment.Content = content
	return comment, nil
}

func (s *Service) DeleteComment(ctx context.Context, id, userID string) (bool, error) {
	if _, err := s.owned(ctx, id, userID, "delete"); err != nil {
		return false, err
	}

	replies, err := s.repo.CountReplies(ctx, id)
	if err != nil {
		return false, err
	}
	if replies > 0 {
		return false, s.repo.UpdateContent(ctx, id, models.DeletedCommentContent)
	}
	return true, s.repo.DeleteComment(ctx, id)
}

func (s *Service) ToggleLike(ctx context.Context, id, userID string) (int64, error) {
	if _, err := s.repo.GetCommentByID(ctx, id); err != nil {
		return 0, err
	}
	return s.repo.ToggleLike(ctx, id, userID)
}

func (s *Service) owned(ctx context.Context, id, userID, action string) (*models.Comment, error) {
	comment, err := s.repo.GetCommentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment.UserID != userID {
		return nil, apperrors.Forbidden("comment", action)
	}
	return comment, nil
}

func cleanContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", apperrors.MissingFieldError("content")
	}
	if utf8.RuneCountInString(content) > maxContentLength {
		return "", apperrors.ValidationError("content", "too long")
	}
	return content, nil
}
