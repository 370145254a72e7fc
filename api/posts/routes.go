package posts

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/blog-api/api/types"
)

// RegisterRoutes registers post routes. Reads go on public, edits on
// protected. listCache, when set, fronts the listing endpoint.
func RegisterRoutes(public, protected *gin.RouterGroup, deps *types.Dependencies, listCache gin.HandlerFunc) {
	if listCache != nil {
		public.GET("", listCache, List(deps))
	} else {
		public.GET("", List(deps))
	}
	public.GET("/:id", Get(deps))
	public.GET("/slug/:slug", GetBySlug(deps))

	protected.PUT("/:id", Update(deps))
	protected.DELETE("/:id", Delete(deps))
	protected.POST("/:id/like", Like(deps))
}
