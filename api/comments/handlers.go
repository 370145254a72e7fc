package comments

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/blog-api/api/types"
	"github.com/killallgit/blog-api/internal/models"
	commentsService "github.com/killallgit/blog-api/internal/services/comments"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// ContentInput is the body for adding or editing a comment
type ContentInput struct {
	Content  string  `json:"content" binding:"required"`
	ParentID *string `json:"parentId,omitempty"`
}

// LikeResponse reports a comment's like count after a toggle
type LikeResponse struct {
	LikeCount int64 `json:"likeCount"`
}

// DeleteResponse reports whether the comment row went away or was blanked
type DeleteResponse struct {
	Deleted bool `json:"deleted"`
}

// List returns the comments of a post
// @Summary      List comments
// @Description  Top-level comments with one level of replies
// @Tags         comments
// @Produce      json
// @Param        id     path  string true  "Post ID"
// @Param        sortBy query string false "newest, oldest or mostLikes"
// @Param        limit  query int    false "Max top-level comments"
// @Success      200 {object} types.CommentsResponse
// @Router       /api/v1/posts/{id}/comments [get]
func List(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		sortBy := c.DefaultQuery("sortBy", commentsService.SortNewest)
		switch sortBy {
		case commentsService.SortNewest, commentsService.SortOldest, commentsService.SortMostLikes:
		default:
			types.SendBadRequest(c, "sortBy must be newest, oldest or mostLikes")
			return
		}
		limit := min(max(types.QueryInt(c, "limit", defaultListLimit), 1), maxListLimit)

		list, err := deps.CommentService.ListComments(c.Request.Context(), c.Param("id"), commentsService.ListOptions{
			SortBy: sortBy,
			Limit:  limit,
		})
		if err != nil {
			types.SendAppError(c, err)
			return
		}
		if list == nil {
			list = []models.Comment{}
		}
		c.JSON(http.StatusOK, types.CommentsResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK},
			Comments:     list,
			Count:        len(list),
		})
	}
}

// Create adds a comment, or a reply when parentId is set
// @Summary      Add comment
// @Tags         comments
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id      path string       true "Post ID"
// @Param        comment body ContentInput true "Comment"
// @Success      201 {object} models.Comment
// @Failure      400 {object} types.ErrorResponse
// @Failure      404 {object} types.ErrorResponse
// @Router       /api/v1/posts/{id}/comments [post]
func Create(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input ContentInput
		if !types.BindJSONOrError(c, &input) {
			return
		}

		comment, err := deps.CommentService.AddComment(c.Request.Context(), c.Param("id"), types.UserID(c), input.Content, input.ParentID)
		if err != nil {
			types.SendAppError(c, err)
			return
		}
		types.SendCreated(c, comment)
	}
}

// Update edits the caller's comment
// @Summary      Edit comment
// @Tags         comments
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id      path string       true "Comment ID"
// @Param        comment body ContentInput true "Comment"
// @Success      200 {object} models.Comment
// @Failure      403 {object} types.ErrorResponse
// @Router       /api/v1/comments/{id} [put]
func Update(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input ContentInput
		if !types.BindJSONOrError(c, &input) {
			return
		}

		comment, err := deps.CommentService.EditComment(c.Request.Context(), c.Param("id"), types.UserID(c), input.Content)
		if err != nil {
			types.SendAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, comment)
	}
}

// Delete removes the caller's comment. A comment with replies keeps its
// place in the thread with its content blanked.
// @Summary      Delete comment
// @Tags         comments
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id path string true "Comment ID"
// @Success      200 {object} DeleteResponse
// @Failure      403 {object} types.ErrorResponse
// @Router       /api/v1/comments/{id} [delete]
func Delete(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		deleted, err := deps.CommentService.DeleteComment(c.Request.Context(), c.Param("id"), types.UserID(c))
		if err != nil {
			types.SendAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, DeleteResponse{Deleted: deleted})
	}
}

// Like toggles the caller's like
// @Summary      Like comment
// @Tags         comments
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id path string true "Comment ID"
// @Success      200 {object} LikeResponse
// @Router       /api/v1/comments/{id}/like [post]
func Like(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		count, err := deps.CommentService.ToggleLike(c.Request.Context(), c.Param("id"), types.UserID(c))
		if err != nil {
			types.SendAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, LikeResponse{LikeCount: count})
	}
}
