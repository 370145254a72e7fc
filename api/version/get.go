package version

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the body of the version endpoint
type Response struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// Get handles version requests
// @Summary      Service version
// @Tags         system
// @Produce      json
// @Success      200 {object} version.Response
// @Router       /version [get]
func Get(version string) gin.HandlerFunc {
	if version == "" {
		version = "dev"
	}
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, Response{
			Name:        "Blog API",
			Version:     version,
			Description: "Turns uploaded audio and video into draft blog posts",
			Status:      "running",
		})
	}
}
