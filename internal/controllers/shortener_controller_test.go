package controllers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"slink-api/internal/apperr"
	"slink-api/internal/entities"
	"slink-api/internal/jwt"
	"slink-api/internal/middleware"
	"slink-api/internal/models"
	"slink-api/internal/repository"
)

type mockURLService struct {
	mock.Mock
}

func (m *mockURLService) Create(ctx context.Context, req *models.CreateURLRequest, userID string) (*models.URLResponse, error) {
	args := m.Called(ctx, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.URLResponse), args.Error(1)
}

func (m *mockURLService) CheckAvailability(ctx context.Context, code string) (*models.AvailabilityResponse, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AvailabilityResponse), args.Error(1)
}

func (m *mockURLService) Resolve(ctx context.Context, shortCode string, info models.VisitInfo) (string, error) {
	args := m.Called(ctx, shortCode, info)
	return args.String(0), args.Error(1)
}

func (m *mockURLService) GetByID(ctx context.Context, id, userID string, admin bool) (*models.URLDetailResponse, error) {
	args := m.Called(ctx, id, userID, admin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.URLDetailResponse), args.Error(1)
}

func (m *mockURLService) ListByUser(ctx context.Context, userID string, page, limit int) (*models.URLListResponse, error) {
	args := m.Called(ctx, userID, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.URLListResponse), args.Error(1)
}

func (m *mockURLService) ListAll(ctx context.Context, page, limit int) (*models.URLListResponse, error) {
	args := m.Called(ctx, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.URLListResponse), args.Error(1)
}

func (m *mockURLService) Update(ctx context.Context, id, userID string, admin bool, req *models.UpdateURLRequest) error {
	args := m.Called(ctx, id, userID, admin, req)
	return args.Error(0)
}

func (m *mockURLService) Delete(ctx context.Context, id, userID string, admin bool) error {
	args := m.Called(ctx, id, userID, admin)
	return args.Error(0)
}

func (m *mockURLService) Claim(ctx context.Context, userID string, links []models.ClaimLink) (*models.ClaimResponse, error) {
	args := m.Called(ctx, userID, links)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ClaimResponse), args.Error(1)
}

func (m *mockURLService) Import(ctx context.Context, links []models.ImportLink) (*models.ImportResponse, error) {
	args := m.Called(ctx, links)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ImportResponse), args.Error(1)
}

func (m *mockURLService) Analytics(ctx context.Context, id, userID string, admin bool, from, to time.Time) (*models.AnalyticsResponse, error) {
	args := m.Called(ctx, id, userID, admin, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AnalyticsResponse), args.Error(1)
}

type stubUserRepo struct {
	user *entities.User
}

func (s *stubUserRepo) Create(ctx context.Context, id, email, passwordHash string, name *string) (*entities.User, error) {
	return nil, apperr.ErrConflict
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	return s.user, nil
}

func (s *stubUserRepo) FindByID(ctx context.Context, id string) (*entities.User, error) {
	if s.user == nil {
		return nil, apperr.ErrNotFound
	}
	return s.user, nil
}

func (s *stubUserRepo) List(ctx context.Context, limit, offset int) ([]*repository.UserWithURLCount, int64, error) {
	return nil, 0, nil
}

func (s *stubUserRepo) UpdateRole(ctx context.Context, id, role string) (*entities.User, error) {
	return s.user, nil
}

func (s *stubUserRepo) Delete(ctx context.Context, id string) error {
	return nil
}

type controllerFixture struct {
	router     *gin.Engine
	urlService *mockURLService
	token      string
}

func newControllerFixture(t *testing.T) *controllerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtService := jwt.NewJWTService("test-secret", time.Hour)
	token, err := jwtService.GenerateToken("user-1", "user@example.com")
	require.NoError(t, err)

	urlService := new(mockURLService)
	userRepo := &stubUserRepo{user: &entities.User{ID: "user-1", Role: entities.RoleUser}}
	controller := NewShortenerController(urlService, userRepo)

	r := gin.New()
	r.GET("/:shortCode", controller.RedirectToURL)

	api := r.Group("/api/v1", middleware.AuthMiddleware(jwtService))
	api.POST("/shorten", controller.CreateShortURL)
	api.GET("/urls", controller.GetUserURLs)
	api.GET("/urls/check-code", controller.CheckCode)
	api.GET("/url/:id", controller.GetURL)
	api.GET("/url/:id/analytics", controller.GetAnalytics)

	return &controllerFixture{router: r, urlService: urlService, token: token}
}

func (f *controllerFixture) do(method, path, body string) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.token)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestCreateShortURLEndpoint(t *testing.T) {
	f := newControllerFixture(t)

	f.urlService.On("Create", mock.Anything, mock.MatchedBy(func(req *models.CreateURLRequest) bool {
		return req.URL == "https://example.com"
	}), "user-1").Return(&models.URLResponse{
		ID:       "url-1",
		ShortURL: "http://localhost:8080/abcd",
	}, nil)

	w := f.do(http.MethodPost, "/api/v1/shorten", `{"url": "https://example.com"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "http://localhost:8080/abcd")
}

func TestCreateShortURLValidationFailure(t *testing.T) {
	f := newControllerFixture(t)

	f.urlService.On("Create", mock.Anything, mock.Anything, "user-1").
		Return(nil, apperr.Validation("invalid URL"))

	w := f.do(http.MethodPost, "/api/v1/shorten", `{"url": "::::"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid URL")
}

func TestCreateShortURLConflict(t *testing.T) {
	f := newControllerFixture(t)

	f.urlService.On("Create", mock.Anything, mock.Anything, "user-1").
		Return(nil, apperr.ErrConflict)

	w := f.do(http.MethodPost, "/api/v1/shorten", `{"url": "https://example.com", "custom_code": "taken"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateShortURLMissingBody(t *testing.T) {
	f := newControllerFixture(t)

	w := f.do(http.MethodPost, "/api/v1/shorten", `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	f.urlService.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateShortURLRequiresAuth(t *testing.T) {
	f := newControllerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/shorten", bytes.NewBufferString(`{"url": "https://example.com"}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRedirectEndpoint(t *testing.T) {
	f := newControllerFixture(t)

	f.urlService.On("Resolve", mock.Anything, "abc123", mock.MatchedBy(func(info models.VisitInfo) bool {
		return info.UserAgent == "test-agent" && info.Referer == "https://google.com"
	})).Return("https://example.com/path", nil)

	req := httptest.NewRequest(http.MethodGet, "/abc123", nil)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Referer", "https://google.com")

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "https://example.com/path", w.Header().Get("Location"))
}

func TestRedirectEndpointNotFound(t *testing.T) {
	f := newControllerFixture(t)

	f.urlService.On("Resolve", mock.Anything, "missing", mock.Anything).
		Return("", apperr.ErrNotFound)

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckCodeEndpoint(t *testing.T) {
	f := newControllerFixture(t)

	f.urlService.On("CheckAvailability", mock.Anything, "my-link").
		Return(&models.AvailabilityResponse{Available: true}, nil)

	w := f.do(http.MethodGet, "/api/v1/urls/check-code?code=my-link", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"available":true`)

	w = f.do(http.MethodGet, "/api/v1/urls/check-code", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetUserURLsEndpoint(t *testing.T) {
	f := newControllerFixture(t)

	f.urlService.On("ListByUser", mock.Anything, "user-1", 2, 5).
		Return(&models.URLListResponse{
			URLs:       []models.URLResponse{{ID: "url-1"}},
			Pagination: models.Pagination{Total: 6, Page: 2, Limit: 5, TotalPages: 2},
		}, nil)

	w := f.do(http.MethodGet, "/api/v1/urls?page=2&limit=5", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_pages":2`)
}

func TestGetURLNotFound(t *testing.T) {
	f := newControllerFixture(t)

	f.urlService.On("GetByID", mock.Anything, "url-9", "user-1", false).
		Return(nil, apperr.ErrNotFound)

	w := f.do(http.MethodGet, "/api/v1/url/url-9", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetAnalyticsRejectsBadDates(t *testing.T) {
	f := newControllerFixture(t)

	w := f.do(http.MethodGet, "/api/v1/url/url-1/analytics?from=yesterday", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	f.urlService.AssertNotCalled(t, "Analytics",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
