package database

import (
	"path/filepath"
	"testing"

	"github.com/killallgit/blog-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name   string
		dbPath string
	}{
		{"in-memory database", ":memory:"},
		{"file database", filepath.Join(t.TempDir(), "nested", "test.db")},
		{"empty path creates in-memory database", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, err := Initialize(tt.dbPath, false)
			require.NoError(t, err)
			require.NotNil(t, conn)
			defer conn.Close()

			assert.NoError(t, conn.HealthCheck())
		})
	}
}

func TestDB_Close(t *testing.T) {
	conn, err := Initialize(":memory:", false)
	require.NoError(t, err)

	require.NoError(t, conn.Close())
	assert.Error(t, conn.HealthCheck(), "HealthCheck should fail after database is closed")
}

func TestDB_HealthCheckNil(t *testing.T) {
	var conn *DB
	assert.Error(t, conn.HealthCheck())
}

func TestDB_AutoMigrate(t *testing.T) {
	type TestModel struct {
		gorm.Model
		Name string
	}

	conn, err := Initialize(":memory:", false)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.AutoMigrate(&TestModel{}))

	var count int64
	require.NoError(t, conn.DB.Raw("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='test_models'").Scan(&count).Error)
	assert.Equal(t, int64(1), count)

	assert.NoError(t, conn.AutoMigrate())
}

func TestDB_MigrateApplicationModels(t *testing.T) {
	conn, err := Initialize(":memory:", false)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.Migrate())

	for _, table := range []string{"users", "subscriptions", "sites", "posts", "comments", "comment_likes", "reactions", "jobs"} {
		assert.True(t, conn.Migrator().HasTable(table), table)
	}

	post := &models.Post{Title: "My Title", Slug: "my-title", UserID: "u1", ArticleContent: models.ArticleContent{Content: "Body"}}
	require.NoError(t, conn.Create(post).Error)

	var loaded models.Post
	require.NoError(t, conn.First(&loaded, "id = ?", post.ID).Error)
	assert.Equal(t, "Body", loaded.ArticleContent.Content)
	assert.Equal(t, models.PostStatusDraft, loaded.Status)
	assert.Equal(t, models.StringList{}, loaded.Tags)
}
