// Package media serves normalized audio files to transcription backends
// that fetch their input by URL.
package media

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/blog-api/api/types"
	mediaService "github.com/killallgit/blog-api/internal/services/media"
)

// GetNormalized streams a normalized WAV from the temp directory. Only
// names the normalizer generates are served.
// @Summary      Normalized audio
// @Tags         media
// @Produce      audio/wav
// @Param        name path string true "File name"
// @Success      200 {file} binary
// @Failure      404 {object} types.ErrorResponse
// @Router       /media/normalized/{name} [get]
func GetNormalized(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		if deps.TempDir == "" || !mediaService.IsNormalizedFileName(name) {
			types.SendNotFound(c, "Media not found")
			return
		}

		path := filepath.Join(deps.TempDir, name)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				types.SendNotFound(c, "Media not found")
				return
			}
			types.SendAppError(c, err)
			return
		}

		c.Header("Content-Type", "audio/wav")
		c.File(path)
	}
}

// RegisterRoutes registers media routes outside the versioned API
func RegisterRoutes(router gin.IRoutes, deps *types.Dependencies) {
	router.GET("/media/normalized/:name", GetNormalized(deps))
	router.HEAD("/media/normalized/:name", GetNormalized(deps))
}
