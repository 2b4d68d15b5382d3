package entities

import "time"

// URL represents a shortened URL entity in the database
type URL struct {
	ID          string    `json:"id"` // UUID
	ShortCode   string    `json:"short_code"`
	OriginalURL string    `json:"original_url"`
	UserID      *string   `json:"user_id,omitempty"` // Pointer allows nil (unclaimed/imported URLs), UUID
	VisitCount  int64     `json:"visit_count"`
	CreatedAt   time.Time `json:"created_at"`
}
