package models

// CreateURLRequest represents the request body for creating a short URL
type CreateURLRequest struct {
	URL        string `json:"url" binding:"required"`
	CustomCode string `json:"custom_code,omitempty"` // Optional custom short code; empty means auto-generate
}

// UpdateURLRequest represents the request body for updating a short URL.
// Both fields are optional; only provided fields are changed.
type UpdateURLRequest struct {
	OriginalURL *string `json:"original_url,omitempty"`
	ShortCode   *string `json:"short_code,omitempty"`
}

// ClaimLink identifies a previously imported, ownerless link the caller
// wants to attach to their account. The original URL doubles as a basic
// ownership proof.
type ClaimLink struct {
	ShortCode   string `json:"short_code" binding:"required"`
	OriginalURL string `json:"original_url" binding:"required"`
}

// ClaimRequest represents the request body for claiming imported links
type ClaimRequest struct {
	Links []ClaimLink `json:"links" binding:"required"`
}

// ImportLink is one pre-existing link carried over from a previous system,
// keeping its id, code, and accumulated visit count.
type ImportLink struct {
	ID          string `json:"id" binding:"required,uuid"`
	ShortCode   string `json:"short_code" binding:"required"`
	OriginalURL string `json:"original_url" binding:"required"`
	VisitCount  int64  `json:"visit_count"`
}

// ImportRequest represents the request body for bulk-importing links
type ImportRequest struct {
	Links []ImportLink `json:"links" binding:"required"`
}

// UpdateUserRequest represents the admin request body for changing a user's role
type UpdateUserRequest struct {
	Role string `json:"role" binding:"required,oneof=USER ADMIN"`
}

// VisitInfo carries the request attributes captured for a redirect before
// they are hashed/truncated into a Visit record.
type VisitInfo struct {
	IP        string
	UserAgent string
	Referer   string
	Country   string
}
