package media

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/blog-api/api/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wavName = "normalized_0f8fad5b-d9cb-469f-a165-70867728950e.wav"

func setupMediaRouter(t *testing.T, tempDir string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterRoutes(router, &types.Dependencies{TempDir: tempDir})
	return router
}

func TestGetNormalized(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, wavName), []byte("RIFFdata"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secret.txt"), []byte("nope"), 0o600))
	router := setupMediaRouter(t, dir)

	tests := []struct {
		name string
		path string
		want int
	}{
		{"normalized file", "/media/normalized/" + wavName, http.StatusOK},
		{"missing normalized file", "/media/normalized/normalized_00000000-0000-0000-0000-000000000000.wav", http.StatusNotFound},
		{"other file in temp dir", "/media/normalized/secret.txt", http.StatusNotFound},
		{"traversal", "/media/normalized/..%2F..%2Fetc%2Fpasswd", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/media/normalized/"+wavName, nil))
	assert.Equal(t, "RIFFdata", w.Body.String())
	assert.Equal(t, "audio/wav", w.Header().Get("Content-Type"))
}

func TestGetNormalizedWithoutTempDir(t *testing.T) {
	router := setupMediaRouter(t, "")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/media/normalized/"+wavName, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
