package controllers

import (
	"net/http"
	"strconv"

	"slink-api/internal/middleware"
	"slink-api/internal/models"
	"slink-api/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminController hosts the admin-only management endpoints. Routes using it
// sit behind the admin middleware, so handlers can assume an admin caller.
type AdminController struct {
	urlService  service.URLService
	userService service.UserService
}

func NewAdminController(urlService service.URLService, userService service.UserService) *AdminController {
	return &AdminController{
		urlService:  urlService,
		userService: userService,
	}
}

// ListURLs handles GET /api/v1/admin/urls - paginated list over every URL
func (ac *AdminController) ListURLs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	response, err := ac.urlService.ListAll(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ListUsers handles GET /api/v1/admin/users - paginated user list with URL counts
func (ac *AdminController) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	response, err := ac.userService.List(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// UpdateUser handles PATCH /api/v1/admin/users/:id - changes a user's role
func (ac *AdminController) UpdateUser(c *gin.Context) {
	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	actorID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authentication"})
		return
	}

	user, err := ac.userService.UpdateRole(c.Request.Context(), actorID, c.Param("id"), req.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// DeleteUser handles DELETE /api/v1/admin/users/:id
func (ac *AdminController) DeleteUser(c *gin.Context) {
	actorID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authentication"})
		return
	}

	if err := ac.userService.Delete(c.Request.Context(), actorID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// ImportURLs handles POST /api/v1/admin/import - bulk-loads links carried
// over from a previous system
func (ac *AdminController) ImportURLs(c *gin.Context) {
	var req models.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if len(req.Links) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no links to import"})
		return
	}

	response, err := ac.urlService.Import(c.Request.Context(), req.Links)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}
