package users

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/blog-api/api/types"
)

// RegisterRoutes registers user routes; every route needs a caller
func RegisterRoutes(protected *gin.RouterGroup, deps *types.Dependencies) {
	protected.GET("/me", Me(deps))
	protected.GET("/me/plan", Plan(deps))
}
