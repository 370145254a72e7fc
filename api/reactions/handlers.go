package reactions

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/blog-api/api/types"
	"github.com/killallgit/blog-api/internal/models"
	reactionsService "github.com/killallgit/blog-api/internal/services/reactions"
)

// ToggleInput selects the reaction to toggle
type ToggleInput struct {
	Type models.ReactionType `json:"type" binding:"required"`
}

// Get returns the reaction counts of a post. Authenticated callers also
// see their own reaction.
// @Summary      Post reactions
// @Tags         reactions
// @Produce      json
// @Param        id path string true "Post ID"
// @Success      200 {object} reactionsService.Summary
// @Router       /api/v1/posts/{id}/reactions [get]
func Get(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := deps.ReactionService.Summary(c.Request.Context(), c.Param("id"), types.UserID(c))
		respond(c, summary, err)
	}
}

// Toggle adds, switches or removes the caller's reaction
// @Summary      Toggle reaction
// @Description  Sending the current reaction again removes it
// @Tags         reactions
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id       path string      true "Post ID"
// @Param        reaction body ToggleInput true "Reaction"
// @Success      200 {object} reactionsService.Summary
// @Failure      400 {object} types.ErrorResponse
// @Failure      404 {object} types.ErrorResponse
// @Router       /api/v1/posts/{id}/reactions [post]
func Toggle(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input ToggleInput
		if !types.BindJSONOrError(c, &input) {
			return
		}
		if !input.Type.Valid() {
			types.SendBadRequest(c, "type must be one of like, love, clap, fire, rocket")
			return
		}

		summary, err := deps.ReactionService.Toggle(c.Request.Context(), c.Param("id"), types.UserID(c), input.Type)
		respond(c, summary, err)
	}
}

func respond(c *gin.Context, summary *reactionsService.Summary, err error) {
	if err != nil {
		types.SendAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
