package posts

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/blog-api/api/middleware"
	"github.com/killallgit/blog-api/api/types"
	"github.com/killallgit/blog-api/internal/models"
	postsService "github.com/killallgit/blog-api/internal/services/posts"
)

// listPath is the cache prefix dropped whenever a post changes
const listPath = "/api/v1/posts"

// List returns a page of posts
// @Summary      List posts
// @Description  Lists posts newest first, optionally filtered by site, author or status
// @Tags         posts
// @Produce      json
// @Param        siteId query string false "Site ID"
// @Param        userId query string false "Author ID"
// @Param        status query string false "draft or published"
// @Param        page query int false "Page number (default 1)"
// @Param        limit query int false "Page size (default 20, max 100)"
// @Success      200 {object} types.PostsResponse
// @Router       /api/v1/posts [get]
func List(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := postsService.ListFilter{
			SiteID: c.Query("siteId"),
			UserID: c.Query("userId"),
			Status: models.PostStatus(c.Query("status")),
			Page:   max(types.QueryInt(c, "page", 1), 1),
			Limit:  types.QueryInt(c, "limit", 20),
		}

		list, total, err := deps.PostService.ListPosts(c.Request.Context(), filter)
		if err != nil {
			types.SendAppError(c, err)
			return
		}
		if list == nil {
			list = []models.Post{}
		}

		c.JSON(http.StatusOK, types.PostsResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK},
			Posts:        list,
			Count:        len(list),
			Total:        total,
			Page:         filter.Page,
			Limit:        filter.Limit,
		})
	}
}

// Get returns one post by ID
// @Summary      Get post
// @Tags         posts
// @Produce      json
// @Param        id path string true "Post ID"
// @Success      200 {object} models.Post
// @Failure      404 {object} types.ErrorResponse
// @Router       /api/v1/posts/{id} [get]
func Get(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		post, err := deps.PostService.GetPost(c.Request.Context(), c.Param("id"))
		if err != nil {
			types.SendAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, post)
	}
}

// GetBySlug returns the newest post with the slug and counts a view
// @Summary      Get post by slug
// @Description  Returns the most recent post with this slug and increments its view counter
// @Tags         posts
// @Produce      json
// @Param        slug path string true "Post slug"
// @Success      200 {object} models.Post
// @Failure      404 {object} types.ErrorResponse
// @Router       /api/v1/posts/slug/{slug} [get]
func GetBySlug(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		post, err := deps.PostService.ViewPostBySlug(c.Request.Context(), c.Param("slug"))
		if err != nil {
			types.SendAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, post)
	}
}

// Update applies the owner's edit
// @Summary      Update post
// @Description  Content is Markdown; the first line becomes the title. Title and slug may be overridden.
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id path string true "Post ID"
// @Param        post body postsService.UpdateInput true "Changes"
// @Success      200 {object} models.Post
// @Failure      400 {object} types.ErrorResponse
// @Failure      403 {object} types.ErrorResponse
// @Failure      404 {object} types.ErrorResponse
// @Router       /api/v1/posts/{id} [put]
func Update(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input postsService.UpdateInput
		if !types.BindJSONOrError(c, &input) {
			return
		}

		post, err := deps.PostService.UpdatePost(c.Request.Context(), c.Param("id"), types.UserID(c), input)
		if err != nil {
			types.SendAppError(c, err)
			return
		}
		middleware.Invalidate(c.Request.Context(), deps.Cache, listPath)
		c.JSON(http.StatusOK, post)
	}
}

// Delete removes the owner's post
// @Summary      Delete post
// @Tags         posts
// @Security     ApiKeyAuth
// @Param        id path string true "Post ID"
// @Success      204
// @Failure      403 {object} types.ErrorResponse
// @Failure      404 {object} types.ErrorResponse
// @Router       /api/v1/posts/{id} [delete]
func Delete(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := deps.PostService.DeletePost(c.Request.Context(), c.Param("id"), types.UserID(c)); err != nil {
			types.SendAppError(c, err)
			return
		}
		middleware.Invalidate(c.Request.Context(), deps.Cache, listPath)
		c.Status(http.StatusNoContent)
	}
}

// Like increments the like counter
// @Summary      Like post
// @Tags         posts
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id path string true "Post ID"
// @Success      200 {object} object{likes=int}
// @Failure      404 {object} types.ErrorResponse
// @Router       /api/v1/posts/{id}/like [post]
func Like(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		likes, err := deps.PostService.LikePost(c.Request.Context(), c.Param("id"))
		if err != nil {
			types.SendAppError(c, err)
			return
		}
		middleware.Invalidate(c.Request.Context(), deps.Cache, listPath)
		c.JSON(http.StatusOK, gin.H{"likes": likes})
	}
}
