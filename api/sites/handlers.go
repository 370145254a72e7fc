package sites

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/blog-api/api/types"
	"github.com/killallgit/blog-api/internal/models"
	sitesService "github.com/killallgit/blog-api/internal/services/sites"
)

// List returns the caller's sites
// @Summary      List my sites
// @Tags         sites
// @Produce      json
// @Security     ApiKeyAuth
// @Success      200 {object} types.SitesResponse
// @Router       /api/v1/sites [get]
func List(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := deps.SiteService.ListSites(c.Request.Context(), types.UserID(c))
		if err != nil {
			types.SendAppError(c, err)
			return
		}
		if list == nil {
			list = []models.Site{}
		}
		c.JSON(http.StatusOK, types.SitesResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK},
			Sites:        list,
			Count:        len(list),
		})
	}
}

// Current returns the caller's newest site, creating a default one first
// when the caller has none
// @Summary      Current site
// @Tags         sites
// @Produce      json
// @Security     ApiKeyAuth
// @Success      200 {object} models.Site
// @Router       /api/v1/sites/current [get]
func Current(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		site, err := deps.SiteService.CurrentSite(c.Request.Context(), types.UserID(c))
		if err != nil {
			types.SendAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, site)
	}
}

// Create adds a site for the caller
// @Summary      Create site
// @Description  Subdirectories are unique. Users without an active subscription may own one site.
// @Tags         sites
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        site body sitesService.CreateInput true "Site"
// @Success      201 {object} models.Site
// @Failure      400 {object} types.ErrorResponse
// @Failure      403 {object} types.ErrorResponse "Plan limit reached"
// @Failure      409 {object} types.ErrorResponse "Subdirectory taken"
// @Router       /api/v1/sites [post]
func Create(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input sitesService.CreateInput
		if !types.BindJSONOrError(c, &input) {
			return
		}

		site, err := deps.SiteService.CreateSite(c.Request.Context(), types.UserID(c), input)
		if err != nil {
			types.SendAppError(c, err)
			return
		}
		types.SendCreated(c, site)
	}
}

// Get returns one site
// @Summary      Get site
// @Tags         sites
// @Produce      json
// @Param        id path string true "Site ID"
// @Success      200 {object} models.Site
// @Failure      404 {object} types.ErrorResponse
// @Router       /api/v1/sites/{id} [get]
func Get(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		site, err := deps.SiteService.GetSite(c.Request.Context(), c.Param("id"))
		if err != nil {
			types.SendAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, site)
	}
}

// GetBySubdirectory resolves a public blog address
// @Summary      Get site by subdirectory
// @Tags         sites
// @Produce      json
// @Param        subdirectory path string true "Subdirectory"
// @Success      200 {object} models.Site
// @Failure      404 {object} types.ErrorResponse
// @Router       /api/v1/sites/by-subdirectory/{subdirectory} [get]
func GetBySubdirectory(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		site, err := deps.SiteService.GetSiteBySubdirectory(c.Request.Context(), c.Param("subdirectory"))
		if err != nil {
			types.SendAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, site)
	}
}

// Delete removes the caller's site
// @Summary      Delete site
// @Tags         sites
// @Security     ApiKeyAuth
// @Param        id path string true "Site ID"
// @Success      204
// @Failure      403 {object} types.ErrorResponse
// @Failure      404 {object} types.ErrorResponse
// @Router       /api/v1/sites/{id} [delete]
func Delete(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := deps.SiteService.DeleteSite(c.Request.Context(), c.Param("id"), types.UserID(c)); err != nil {
			types.SendAppError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
