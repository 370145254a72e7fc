package comments

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/blog-api/api/types"
)

// RegisterRoutes registers comment routes on the v1 groups. Listing is
// nested under the post; edits address the comment directly.
func RegisterRoutes(public, protected *gin.RouterGroup, deps *types.Dependencies) {
	public.GET("/posts/:id/comments", List(deps))
	protected.POST("/posts/:id/comments", Create(deps))

	protected.PUT("/comments/:id", Update(deps))
	protected.DELETE("/comments/:id", Delete(deps))
	protected.POST("/comments/:id/like", Like(deps))
}
