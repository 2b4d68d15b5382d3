package entities

import "time"

// Visit represents a single recorded traversal of a short URL.
// Visits are append-only: they are written once when a redirect is served
// and never updated afterwards.
type Visit struct {
	ID        string    `json:"id"` // UUID
	URLID     string    `json:"url_id"`
	IPHash    string    `json:"ip_hash"` // salted hash fragment, never the raw address
	UserAgent *string   `json:"user_agent,omitempty"`
	Referer   *string   `json:"referer,omitempty"`
	Country   *string   `json:"country,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// VisitStats summarizes visit volume for a URL over common windows.
type VisitStats struct {
	Total   int64 `json:"total"`
	Last24h int64 `json:"last24h"`
	Last7d  int64 `json:"last7d"`
	Last30d int64 `json:"last30d"`
}
