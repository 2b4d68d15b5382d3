package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"slink-api/internal/apperr"
	"slink-api/internal/cache"
	"slink-api/internal/entities"
	"slink-api/internal/metrics"
	"slink-api/internal/models"
	"slink-api/internal/repository"
	"slink-api/internal/shortcode"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const (
	maxGenerateAttempts = 10
	maxInsertRetries    = 3

	maxURLLength = 2048

	urlCacheTTL   = 1 * time.Hour
	countCacheTTL = 30 * time.Second

	detailVisitsLimit = 100
	recentVisitsLimit = 20
	topCountriesLimit = 10
	defaultListLimit  = 10
	maxListLimit      = 50
)

// URLService defines the interface for URL business logic
type URLService interface {
	Create(ctx context.Context, req *models.CreateURLRequest, userID string) (*models.URLResponse, error)
	CheckAvailability(ctx context.Context, code string) (*models.AvailabilityResponse, error)
	Resolve(ctx context.Context, shortCode string, info models.VisitInfo) (string, error)
	GetByID(ctx context.Context, id, userID string, admin bool) (*models.URLDetailResponse, error)
	ListByUser(ctx context.Context, userID string, page, limit int) (*models.URLListResponse, error)
	ListAll(ctx context.Context, page, limit int) (*models.URLListResponse, error)
	Update(ctx context.Context, id, userID string, admin bool, req *models.UpdateURLRequest) error
	Delete(ctx context.Context, id, userID string, admin bool) error
	Claim(ctx context.Context, userID string, links []models.ClaimLink) (*models.ClaimResponse, error)
	Import(ctx context.Context, links []models.ImportLink) (*models.ImportResponse, error)
	Analytics(ctx context.Context, id, userID string, admin bool, from, to time.Time) (*models.AnalyticsResponse, error)
}

type urlService struct {
	repo     repository.URLRepository
	visits   repository.VisitRepository
	cache    cache.Cache
	recorder *VisitRecorder
	metadata *MetadataFetcher
	logger   *zap.Logger
	baseURL  string
	ipSalt   string
}

// NewURLService creates a new URL service. cacheClient may be nil to run
// without a cache (graceful degradation).
func NewURLService(
	repo repository.URLRepository,
	visits repository.VisitRepository,
	cacheClient cache.Cache,
	recorder *VisitRecorder,
	metadata *MetadataFetcher,
	logger *zap.Logger,
	baseURL, ipSalt string,
) URLService {
	return &urlService{
		repo:     repo,
		visits:   visits,
		cache:    cacheClient,
		recorder: recorder,
		metadata: metadata,
		logger:   logger,
		baseURL:  baseURL,
		ipSalt:   ipSalt,
	}
}

// cachedURL is the redirect-path cache entry for a short code
type cachedURL struct {
	ID          string `json:"id"`
	OriginalURL string `json:"original_url"`
}

func urlCacheKey(code string) string {
	return "url:" + code
}

// normalizeURL trims, defaults the scheme to https, and validates the
// destination. Normalization is idempotent: feeding the result back in
// returns it unchanged.
func normalizeURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", apperr.Validation("URL must not be empty")
	}

	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "https://" + trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", apperr.Validation("invalid URL")
	}

	if len(trimmed) > maxURLLength {
		return "", apperr.Validation("URL too long (max %d characters)", maxURLLength)
	}

	return trimmed, nil
}

// totalURLs returns the stored-link count used by the length selector. The
// count is cached briefly; a stale value only costs extra collision retries,
// never correctness, so staleness and lookup failures degrade to the
// shortest length.
func (s *urlService) totalURLs(ctx context.Context) int64 {
	const key = "urls:count"

	if s.cache != nil {
		if val, err := s.cache.Get(ctx, key); err == nil {
			var count int64
			if _, err := fmt.Sscanf(val, "%d", &count); err == nil {
				return count
			}
		}
	}

	count, err := s.repo.Count(ctx)
	if err != nil {
		s.logger.Warn("failed to count URLs for length selection", zap.Error(err))
		return 0
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, fmt.Sprintf("%d", count), countCacheTTL)
	}

	return count
}

// allocateCode generates a candidate short code that is unique at the moment
// of the check. After exhausting its attempts at the selected length it
// escalates to length+2 and checks once more; if even that candidate is taken
// the storage uniqueness constraint arbitrates and the caller retries the
// whole allocation.
func (s *urlService) allocateCode(ctx context.Context) (string, error) {
	length := shortcode.LengthFor(s.totalURLs(ctx))

	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		code, err := shortcode.Generate(length)
		if err != nil {
			return "", err
		}

		exists, err := s.repo.CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check short code availability: %w", err)
		}
		if !exists {
			return code, nil
		}
		metrics.CodeCollisionTotal.Inc()
	}

	code, err := shortcode.Generate(length + 2)
	if err != nil {
		return "", err
	}

	exists, err := s.repo.CodeExists(ctx, code)
	if err == nil && exists {
		metrics.CodeCollisionTotal.Inc()
		s.logger.Warn("fallback short code collided", zap.Int("length", length+2))
	}

	return code, nil
}

// Create creates a new short URL, generating a code unless the request
// carries a valid custom one.
func (s *urlService) Create(ctx context.Context, req *models.CreateURLRequest, userID string) (*models.URLResponse, error) {
	originalURL, err := normalizeURL(req.URL)
	if err != nil {
		metrics.URLCreationTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	custom := strings.TrimSpace(req.CustomCode)
	if custom != "" {
		if err := shortcode.Validate(custom); err != nil {
			metrics.URLCreationTotal.WithLabelValues("invalid").Inc()
			return nil, err
		}
		custom = shortcode.Normalize(custom)

		exists, err := s.repo.CodeExists(ctx, custom)
		if err != nil {
			return nil, fmt.Errorf("failed to check short code availability: %w", err)
		}
		if exists {
			metrics.URLCreationTotal.WithLabelValues("conflict").Inc()
			return nil, fmt.Errorf("short code %q: %w", custom, apperr.ErrConflict)
		}
	}

	// The availability check races with concurrent inserts; the unique
	// constraint on short_code is the single serialization point. On a
	// constraint hit the whole allocation is retried with a fresh candidate.
	var created *entities.URL
	backoff := retry.WithMaxRetries(maxInsertRetries, retry.NewConstant(20*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		code := custom
		if code == "" {
			var genErr error
			code, genErr = s.allocateCode(ctx)
			if genErr != nil {
				return genErr
			}
		}

		var createErr error
		created, createErr = s.repo.Create(ctx, &entities.URL{
			ID:          uuid.NewString(),
			ShortCode:   code,
			OriginalURL: originalURL,
			UserID:      &userID,
		})
		if repository.IsUniqueViolation(createErr) {
			metrics.CodeCollisionTotal.Inc()
			if custom != "" {
				// The caller chose this exact code; substituting another
				// silently is not an option.
				return fmt.Errorf("short code %q: %w", custom, apperr.ErrConflict)
			}
			return retry.RetryableError(createErr)
		}
		return createErr
	})
	if err != nil {
		metrics.URLCreationTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.URLCreationTotal.WithLabelValues("created").Inc()
	s.cacheURL(ctx, created)

	return s.toResponse(created), nil
}

// CheckAvailability validates a candidate custom code and checks it against
// storage. The boolean result is advisory; creation re-validates at write
// time.
func (s *urlService) CheckAvailability(ctx context.Context, code string) (*models.AvailabilityResponse, error) {
	if err := shortcode.Validate(code); err != nil {
		return &models.AvailabilityResponse{Available: false, Error: err.Error()}, nil
	}

	exists, err := s.repo.CodeExists(ctx, shortcode.Normalize(code))
	if err != nil {
		return nil, fmt.Errorf("failed to check short code availability: %w", err)
	}
	if exists {
		return &models.AvailabilityResponse{Available: false, Error: "short code is already taken"}, nil
	}

	return &models.AvailabilityResponse{Available: true}, nil
}

// Resolve maps a short code to its destination and submits a best-effort
// visit record. The redirect never waits on, or fails with, the recording.
func (s *urlService) Resolve(ctx context.Context, code string, info models.VisitInfo) (string, error) {
	if s.cache != nil {
		var cached cachedURL
		if err := s.cache.GetJSON(ctx, urlCacheKey(code), &cached); err == nil && cached.OriginalURL != "" {
			metrics.CacheHitsTotal.WithLabelValues("url").Inc()
			metrics.URLRedirectTotal.WithLabelValues("found").Inc()
			s.enqueueVisit(cached.ID, info)
			return cached.OriginalURL, nil
		}
		metrics.CacheMissesTotal.WithLabelValues("url").Inc()
	}

	target, err := s.repo.FindByShortCode(ctx, code)
	if err != nil {
		metrics.URLRedirectTotal.WithLabelValues("not_found").Inc()
		return "", err
	}

	s.cacheURL(ctx, target)

	metrics.URLRedirectTotal.WithLabelValues("found").Inc()
	s.enqueueVisit(target.ID, info)

	return target.OriginalURL, nil
}

func (s *urlService) enqueueVisit(urlID string, info models.VisitInfo) {
	s.recorder.Record(&entities.Visit{
		ID:        uuid.NewString(),
		URLID:     urlID,
		IPHash:    HashIP(s.ipSalt, info.IP),
		UserAgent: optional(truncate(info.UserAgent, maxUserAgentLen)),
		Referer:   optional(truncate(info.Referer, maxRefererLen)),
		Country:   optional(info.Country),
	})
}

func (s *urlService) cacheURL(ctx context.Context, u *entities.URL) {
	if s.cache == nil {
		return
	}
	err := s.cache.SetJSON(ctx, urlCacheKey(u.ShortCode), cachedURL{
		ID:          u.ID,
		OriginalURL: u.OriginalURL,
	}, urlCacheTTL)
	if err != nil {
		s.logger.Warn("failed to cache URL", zap.String("short_code", u.ShortCode), zap.Error(err))
	}
}

func (s *urlService) invalidateURL(ctx context.Context, code string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, urlCacheKey(code)); err != nil {
		s.logger.Warn("failed to invalidate cached URL", zap.String("short_code", code), zap.Error(err))
	}
}

// findOwned fetches a URL and enforces ownership. Admins see everything;
// regular users get ErrNotFound for other people's links rather than a hint
// that the id exists.
func (s *urlService) findOwned(ctx context.Context, id, userID string, admin bool) (*entities.URL, error) {
	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !admin && (target.UserID == nil || *target.UserID != userID) {
		return nil, apperr.ErrNotFound
	}
	return target, nil
}

// GetByID returns one URL with recent visits and best-effort destination
// metadata.
func (s *urlService) GetByID(ctx context.Context, id, userID string, admin bool) (*models.URLDetailResponse, error) {
	target, err := s.findOwned(ctx, id, userID, admin)
	if err != nil {
		return nil, err
	}

	visits, err := s.visits.ListByURL(ctx, id, detailVisitsLimit)
	if err != nil {
		return nil, err
	}

	detail := &models.URLDetailResponse{
		URLResponse:  *s.toResponse(target),
		RecentVisits: visits,
	}
	if s.metadata != nil {
		detail.Metadata = s.metadata.Fetch(ctx, target.OriginalURL)
	}

	return detail, nil
}

func clampPage(page, limit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return page, limit, (page - 1) * limit
}

func totalPages(total int64, limit int) int {
	return int((total + int64(limit) - 1) / int64(limit))
}

// ListByUser returns a page of the user's URLs
func (s *urlService) ListByUser(ctx context.Context, userID string, page, limit int) (*models.URLListResponse, error) {
	page, limit, offset := clampPage(page, limit)

	urls, total, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	return s.toListResponse(urls, total, page, limit), nil
}

// ListAll returns a page over every stored URL (admin only)
func (s *urlService) ListAll(ctx context.Context, page, limit int) (*models.URLListResponse, error) {
	page, limit, offset := clampPage(page, limit)

	urls, total, err := s.repo.ListAll(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	return s.toListResponse(urls, total, page, limit), nil
}

// Update changes the destination and/or short code of a URL. Changed fields
// re-run the same validators as creation.
func (s *urlService) Update(ctx context.Context, id, userID string, admin bool, req *models.UpdateURLRequest) error {
	if req.OriginalURL == nil && req.ShortCode == nil {
		return apperr.Validation("nothing to update")
	}

	existing, err := s.findOwned(ctx, id, userID, admin)
	if err != nil {
		return err
	}

	var newURL, newCode *string

	if req.OriginalURL != nil {
		normalized, err := normalizeURL(*req.OriginalURL)
		if err != nil {
			return err
		}
		newURL = &normalized
	}

	if req.ShortCode != nil {
		if err := shortcode.Validate(*req.ShortCode); err != nil {
			return err
		}
		code := shortcode.Normalize(*req.ShortCode)
		if code == "" {
			return apperr.Validation("short code must not be empty")
		}
		if code != existing.ShortCode {
			exists, err := s.repo.CodeExists(ctx, code)
			if err != nil {
				return fmt.Errorf("failed to check short code availability: %w", err)
			}
			if exists {
				return fmt.Errorf("short code %q: %w", code, apperr.ErrConflict)
			}
			newCode = &code
		}
	}

	var scope *string
	if !admin {
		scope = &userID
	}

	if err := s.repo.Update(ctx, id, scope, newURL, newCode); err != nil {
		if newCode != nil && repository.IsUniqueViolation(err) {
			return fmt.Errorf("short code %q: %w", *newCode, apperr.ErrConflict)
		}
		return err
	}

	s.invalidateURL(ctx, existing.ShortCode)
	if newCode != nil {
		s.invalidateURL(ctx, *newCode)
	}

	return nil
}

// Delete removes a URL and its visits
func (s *urlService) Delete(ctx context.Context, id, userID string, admin bool) error {
	existing, err := s.findOwned(ctx, id, userID, admin)
	if err != nil {
		return err
	}

	var scope *string
	if !admin {
		scope = &userID
	}

	if err := s.repo.Delete(ctx, id, scope); err != nil {
		return err
	}

	s.invalidateURL(ctx, existing.ShortCode)

	return nil
}

// Claim attaches unowned imported links to the caller's account. A link is
// claimed only when both its short code and original URL match; everything
// else lands in the failed list.
func (s *urlService) Claim(ctx context.Context, userID string, links []models.ClaimLink) (*models.ClaimResponse, error) {
	resp := &models.ClaimResponse{
		Claimed: []string{},
		Failed:  []string{},
	}

	for _, link := range links {
		claimed, err := s.repo.ClaimOwnerless(ctx, link.ShortCode, link.OriginalURL, userID)
		if err != nil {
			s.logger.Warn("claim failed", zap.String("short_code", link.ShortCode), zap.Error(err))
			resp.Failed = append(resp.Failed, link.ShortCode)
			continue
		}
		if claimed {
			resp.Claimed = append(resp.Claimed, link.ShortCode)
		} else {
			resp.Failed = append(resp.Failed, link.ShortCode)
		}
	}

	return resp, nil
}

// Import bulk-loads links carried over from a previous system, preserving
// their ids, codes, and visit counts. Duplicates are skipped, not errors.
func (s *urlService) Import(ctx context.Context, links []models.ImportLink) (*models.ImportResponse, error) {
	resp := &models.ImportResponse{Total: len(links)}

	for _, link := range links {
		originalURL, err := normalizeURL(link.OriginalURL)
		if err != nil {
			resp.Skipped++
			continue
		}

		_, err = s.repo.Create(ctx, &entities.URL{
			ID:          link.ID,
			ShortCode:   link.ShortCode,
			OriginalURL: originalURL,
			VisitCount:  link.VisitCount,
		})
		if err != nil {
			if !repository.IsUniqueViolation(err) {
				s.logger.Warn("import failed", zap.String("short_code", link.ShortCode), zap.Error(err))
			}
			resp.Skipped++
			continue
		}
		resp.Created++
	}

	return resp, nil
}

func (s *urlService) toResponse(u *entities.URL) *models.URLResponse {
	return &models.URLResponse{
		ID:          u.ID,
		ShortCode:   u.ShortCode,
		OriginalURL: u.OriginalURL,
		ShortURL:    fmt.Sprintf("%s/%s", s.baseURL, u.ShortCode),
		UserID:      u.UserID,
		VisitCount:  u.VisitCount,
		CreatedAt:   u.CreatedAt,
	}
}

func (s *urlService) toListResponse(urls []*entities.URL, total int64, page, limit int) *models.URLListResponse {
	resp := &models.URLListResponse{
		URLs: make([]models.URLResponse, 0, len(urls)),
		Pagination: models.Pagination{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: totalPages(total, limit),
		},
	}
	for _, u := range urls {
		resp.URLs = append(resp.URLs, *s.toResponse(u))
	}
	return resp
}
