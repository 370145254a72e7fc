package jobs

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/blog-api/api/types"
)

// RegisterRoutes registers job routes on an authenticated group
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies) {
	router.GET("", ListJobs(deps))
	router.GET("/:id", GetJob(deps))
	router.POST("/:id/retry", RetryJob(deps))
	router.DELETE("/:id", DeleteJob(deps))
}
