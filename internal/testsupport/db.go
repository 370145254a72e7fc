// Package testsupport holds helpers shared by package tests.
package testsupport

import (
	"testing"

	"github.com/killallgit/blog-api/internal/database"
	"github.com/killallgit/blog-api/internal/models"
)

// MustOpenDB opens a migrated in-memory database and registers cleanup.
func MustOpenDB(t testing.TB) *database.DB {
	t.Helper()

	db, err := database.Initialize(":memory:", false)
	if err != nil {
		t.Fatalf("database.Initialize: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	if err := db.Migrate(); err != nil {
		t.Fatalf("db.Migrate: %v", err)
	}
	return db
}

// MustCreatePost inserts a post owned by userID.
func MustCreatePost(t testing.TB, db *database.DB, userID, title string) *models.Post {
	t.Helper()

	post := &models.Post{
		Title:          title,
		Slug:           title,
		UserID:         userID,
		Status:         models.PostStatusDraft,
		ArticleContent: models.ArticleContent{Content: "body of " + title},
		Image:          models.DefaultPostImage,
	}
	if err := db.Create(post).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	return post
}

// MustCreateSubscription gives userID a subscription on plan with status.
func MustCreateSubscription(t testing.TB, db *database.DB, userID, plan, status string) *models.Subscription {
	t.Helper()

	sub := &models.Subscription{UserID: userID, PlanName: plan, Status: status}
	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("create subscription: %v", err)
	}
	return sub
}
