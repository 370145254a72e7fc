// Package comments implements threaded post comments and comment likes.
package comments

import (
	"context"

	"github.com/killallgit/blog-api/internal/models"
)

// Sort orders for listing
const (
	SortNewest    = "newest"
	SortOldest    = "oldest"
	SortMostLikes = "mostLikes"
)

// ListOptions controls a comment listing
type ListOptions struct {
	SortBy string
	Limit  int
}

// CommentRepository defines the interface for comment data persistence
type CommentRepository interface {
	PostExists(ctx context.Context, postID string) (bool, error)
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentByID(ctx context.Context, id string) (*models.Comment, error)
	ListTopLevel(ctx context.Context, postID string, opts ListOptions) ([]models.Comment, error)
	CountReplies(ctx context.Context, id string) (int64, error)
	UpdateContent(ctx context.Context, id, content string) error
	DeleteComment(ctx context.Context, id string) error
	LikeCounts(ctx context.Context, ids []string) (map[string]int64, error)
	ToggleLike(ctx context.Context, commentID, userID string) (int64, error)
}

// CommentService defines the interface for comment operations
type CommentService interface {
	// ListComments returns top-level comments with replies and like counts
	ListComments(ctx context.Context, postID string, opts ListOptions) ([]models.Comment, error)

	// AddComment adds a comment or a reply when parentID is set
	AddComment(ctx context.Context, postID, userID, content string, parentID *string) (*models.Comment, error)

	// EditComment replaces the content of the caller's comment
	EditComment(ctx context.Context, id, userID, content string) (*models.Comment, error)

	// DeleteComment removes the caller's comment, or blanks it when it has replies
	DeleteComment(ctx context.Context, id, userID string) (deleted bool, err error)

	// ToggleLike likes or unlikes a comment and returns the new count
	ToggleLike(ctx context.Context, id, userID string) (int64, error)
}
