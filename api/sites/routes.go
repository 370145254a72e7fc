package sites

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/blog-api/api/types"
)

// RegisterRoutes registers site routes
func RegisterRoutes(public, protected *gin.RouterGroup, deps *types.Dependencies) {
	public.GET("/:id", Get(deps))
	public.GET("/by-subdirectory/:subdirectory", GetBySubdirectory(deps))

	protected.GET("", List(deps))
	protected.GET("/current", Current(deps))
	protected.POST("", Create(deps))
	protected.DELETE("/:id", Delete(deps))
}
