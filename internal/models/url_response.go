package models

import (
	"time"

	"slink-api/internal/entities"
)

// URLResponse represents a short URL in API responses
type URLResponse struct {
	ID          string    `json:"id"`
	ShortCode   string    `json:"short_code"`
	OriginalURL string    `json:"original_url"`
	ShortURL    string    `json:"short_url"` // Full short URL (base URL + short code)
	UserID      *string   `json:"user_id,omitempty"`
	VisitCount  int64     `json:"visit_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// Pagination describes the page window of a list response
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// URLListResponse is a paginated list of short URLs
type URLListResponse struct {
	URLs       []URLResponse `json:"urls"`
	Pagination Pagination    `json:"pagination"`
}

// PageMetadata holds best-effort social-preview metadata fetched from the
// destination page. Zero value when the fetch fails or times out.
type PageMetadata struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

// URLDetailResponse is a single short URL with its recent visits and
// destination-page metadata.
type URLDetailResponse struct {
	URLResponse
	Metadata     PageMetadata      `json:"metadata"`
	RecentVisits []*entities.Visit `json:"recent_visits"`
}

// NameCount is a generic name/value aggregation bucket
type NameCount struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// DateCount is a daily visit count in a gap-filled series
type DateCount struct {
	Date   string `json:"date"` // YYYY-MM-DD
	Visits int64  `json:"visits"`
}

// RecentVisit is a trimmed visit entry for the analytics view
type RecentVisit struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Country   string    `json:"country"`
	Referer   string    `json:"referer"`
	UserAgent string    `json:"user_agent"`
}

// AnalyticsResponse aggregates visit analytics for one short URL
type AnalyticsResponse struct {
	Stats        entities.VisitStats `json:"stats"`
	ByCountry    []NameCount         `json:"by_country"`
	ByBrowser    []NameCount         `json:"by_browser"`
	ByDevice     []NameCount         `json:"by_device"`
	ByDate       []DateCount         `json:"by_date"`
	RecentVisits []RecentVisit       `json:"recent_visits"`
}

// AvailabilityResponse is the result of a short-code availability check
type AvailabilityResponse struct {
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

// ClaimResponse reports which links were claimed
type ClaimResponse struct {
	Claimed []string `json:"claimed"`
	Failed  []string `json:"failed"`
}

// ImportResponse reports the outcome of a bulk import
type ImportResponse struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Total   int `json:"total"`
}

// UserResponse represents a user in admin listings
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name,omitempty"`
	Role      string    `json:"role"`
	URLCount  int64     `json:"url_count"`
	CreatedAt time.Time `json:"created_at"`
}

// UserListResponse is a paginated list of users
type UserListResponse struct {
	Users      []UserResponse `json:"users"`
	Pagination Pagination     `json:"pagination"`
}
