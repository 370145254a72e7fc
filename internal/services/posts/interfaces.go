// Package posts stores blog posts and applies the ownership rules for
// editing them.
package posts

import (
	"context"

	"github.com/killallgit/blog-api/internal/models"
)

// ListFilter narrows a post listing
type ListFilter struct {
	UserID string
	SiteID string
	Status models.PostStatus
	Page   int
	Limit  int
}

// UpdateInput carries an edit from the post owner. Content is Markdown
// and is split into title and body the same way generated output is.
type UpdateInput struct {
	Content string             `json:"content"`
	Title   *string            `json:"title,omitempty"`
	Slug    *string            `json:"slug,omitempty"`
	Image   *string            `json:"image,omitempty"`
	Tags    []string           `json:"tags,omitempty"`
	Status  *models.PostStatus `json:"status,omitempty"`
}

// PostRepository defines the interface for post data persistence
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	GetLatestPostBySlug(ctx context.Context, slug string) (*models.Post, error)
	ListPosts(ctx context.Context, filter ListFilter) ([]models.Post, int64, error)
	UpdatePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, id string) error
	IncrementCounter(ctx context.Context, id string, column string) (int, error)
	CountPostsByUser(ctx context.Context, userID string) (int64, error)
}

// PostService defines the interface for post operations
type PostService interface {
	// CreatePost persists a new post
	CreatePost(ctx context.Context, post *models.Post) error

	// GetPost retrieves a post by ID
	GetPost(ctx context.Context, id string) (*models.Post, error)

	// ViewPostBySlug returns the newest post with slug and counts a view
	ViewPostBySlug(ctx context.Context, slug string) (*models.Post, error)

	// ListPosts returns a page of posts and the total count
	ListPosts(ctx context.Context, filter ListFilter) ([]models.Post, int64, error)

	// UpdatePost applies an owner's edit
	UpdatePost(ctx context.Context, id, userID string, input UpdateInput) (*models.Post, error)

	// DeletePost removes a post owned by userID
	DeletePost(ctx context.Context, id, userID string) error

	// LikePost increments the like counter and returns the new value
	LikePost(ctx context.Context, id string) (int, error)

	// CountUserPosts counts posts authored by userID
	CountUserPosts(ctx context.Context, userID string) (int64, error)
}
