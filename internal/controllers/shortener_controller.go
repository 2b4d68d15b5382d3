package controllers

import (
	"net/http"
	"strconv"
	"time"

	"slink-api/internal/middleware"
	"slink-api/internal/models"
	"slink-api/internal/repository"
	"slink-api/internal/service"

	"github.com/gin-gonic/gin"
)

type ShortenerController struct {
	urlService service.URLService
	userRepo   repository.UserRepository
}

func NewShortenerController(urlService service.URLService, userRepo repository.UserRepository) *ShortenerController {
	return &ShortenerController{
		urlService: urlService,
		userRepo:   userRepo,
	}
}

// caller returns the authenticated user's ID and whether they are an admin.
func (sc *ShortenerController) caller(c *gin.Context) (string, bool, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authentication"})
		return "", false, false
	}

	admin := false
	if user, err := sc.userRepo.FindByID(c.Request.Context(), userID); err == nil {
		admin = user.IsAdmin()
	}

	return userID, admin, true
}

// CreateShortURL handles POST /api/v1/shorten
func (sc *ShortenerController) CreateShortURL(c *gin.Context) {
	var req models.CreateURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	userID, _, ok := sc.caller(c)
	if !ok {
		return
	}

	response, err := sc.urlService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// RedirectToURL handles GET /:shortCode - redirects to the original URL and
// records the visit off the request path.
func (sc *ShortenerController) RedirectToURL(c *gin.Context) {
	shortCode := c.Param("shortCode")

	originalURL, err := sc.urlService.Resolve(c.Request.Context(), shortCode, models.VisitInfo{
		IP:        c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
		Referer:   c.GetHeader("Referer"),
		Country:   c.GetHeader("CF-IPCountry"),
	})
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Short URL not found",
		})
		return
	}

	c.Redirect(http.StatusMovedPermanently, originalURL)
}

// CheckCode handles GET /api/v1/urls/check-code?code=xyz
func (sc *ShortenerController) CheckCode(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code parameter"})
		return
	}

	response, err := sc.urlService.CheckAvailability(c.Request.Context(), code)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetUserURLs handles GET /api/v1/urls - paginated list of the caller's URLs
func (sc *ShortenerController) GetUserURLs(c *gin.Context) {
	userID, _, ok := sc.caller(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	response, err := sc.urlService.ListByUser(c.Request.Context(), userID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetURL handles GET /api/v1/url/:id - one URL with recent visits and
// destination metadata
func (sc *ShortenerController) GetURL(c *gin.Context) {
	userID, admin, ok := sc.caller(c)
	if !ok {
		return
	}

	response, err := sc.urlService.GetByID(c.Request.Context(), c.Param("id"), userID, admin)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// UpdateURL handles PATCH /api/v1/url/:id
func (sc *ShortenerController) UpdateURL(c *gin.Context) {
	var req models.UpdateURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	userID, admin, ok := sc.caller(c)
	if !ok {
		return
	}

	if err := sc.urlService.Update(c.Request.Context(), c.Param("id"), userID, admin, &req); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "URL updated successfully"})
}

// DeleteURL handles DELETE /api/v1/url/:id
func (sc *ShortenerController) DeleteURL(c *gin.Context) {
	userID, admin, ok := sc.caller(c)
	if !ok {
		return
	}

	if err := sc.urlService.Delete(c.Request.Context(), c.Param("id"), userID, admin); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "URL deleted successfully"})
}

// GetAnalytics handles GET /api/v1/url/:id/analytics?from=&to=
func (sc *ShortenerController) GetAnalytics(c *gin.Context) {
	userID, admin, ok := sc.caller(c)
	if !ok {
		return
	}

	var from, to time.Time
	if fromStr := c.Query("from"); fromStr != "" {
		parsed, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date, use RFC 3339"})
			return
		}
		from = parsed
	}
	if toStr := c.Query("to"); toStr != "" {
		parsed, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date, use RFC 3339"})
			return
		}
		to = parsed
	}

	response, err := sc.urlService.Analytics(c.Request.Context(), c.Param("id"), userID, admin, from, to)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ClaimURLs handles POST /api/v1/urls/claim - attaches unowned imported
// links to the caller's account
func (sc *ShortenerController) ClaimURLs(c *gin.Context) {
	var req models.ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if len(req.Links) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no links to claim"})
		return
	}

	userID, _, ok := sc.caller(c)
	if !ok {
		return
	}

	response, err := sc.urlService.Claim(c.Request.Context(), userID, req.Links)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}
