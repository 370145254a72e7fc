package users

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/blog-api/api/auth"
	"github.com/killallgit/blog-api/api/types"
	usersService "github.com/killallgit/blog-api/internal/services/users"
)

func profileFrom(c *gin.Context) usersService.Profile {
	claims := auth.ClaimsFrom(c)
	if claims == nil {
		return usersService.Profile{ID: types.UserID(c)}
	}
	return usersService.Profile{
		ID:           claims.Sub,
		Email:        claims.Email,
		FirstName:    claims.FirstName,
		LastName:     claims.LastName,
		ProfileImage: claims.ImageURL,
	}
}

// Me syncs the caller from their token and returns the stored user
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Security     ApiKeyAuth
// @Success      200 {object} models.User
// @Failure      401 {object} types.ErrorResponse
// @Router       /api/v1/users/me [get]
func Me(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := deps.UserService.SyncUser(c.Request.Context(), profileFrom(c))
		if err != nil {
			types.SendAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// Plan returns the caller's plan entitlements
// @Summary      Current plan
// @Tags         users
// @Produce      json
// @Security     ApiKeyAuth
// @Success      200 {object} usersService.PlanInfo
// @Router       /api/v1/users/me/plan [get]
func Plan(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		plan, err := deps.UserService.GetPlanInfo(c.Request.Context(), types.UserID(c))
		if err != nil {
			types.SendAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, plan)
	}
}
