package generate

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/blog-api/api/types"
)

// RegisterRoutes registers the generation endpoint on an authenticated group
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies) {
	router.POST("/generate", Post(deps))
}

func jobIDString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
