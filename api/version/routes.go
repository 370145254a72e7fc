package version

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/blog-api/api/types"
)

// RegisterRoutes registers version routes
func RegisterRoutes(engine *gin.Engine, deps *types.Dependencies) {
	v := ""
	if deps != nil {
		v = deps.Version
	}
	engine.GET("/", Get(v))
	engine.GET("/version", Get(v))
}
