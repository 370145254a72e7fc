package reactions

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/blog-api/api/types"
)

// RegisterRoutes registers reaction routes on the v1 groups
func RegisterRoutes(public, protected *gin.RouterGroup, deps *types.Dependencies) {
	public.GET("/posts/:id/reactions", Get(deps))
	protected.POST("/posts/:id/reactions", Toggle(deps))
}
