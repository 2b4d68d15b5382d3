package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"slink-api/internal/apperr"
	"slink-api/internal/entities"

	"github.com/lib/pq"
)

// URLRepository defines the interface for URL database operations
type URLRepository interface {
	Create(ctx context.Context, url *entities.URL) (*entities.URL, error)
	FindByShortCode(ctx context.Context, shortCode string) (*entities.URL, error)
	FindByID(ctx context.Context, id string) (*entities.URL, error)
	CodeExists(ctx context.Context, shortCode string) (bool, error)
	Count(ctx context.Context) (int64, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entities.URL, int64, error)
	ListAll(ctx context.Context, limit, offset int) ([]*entities.URL, int64, error)
	Update(ctx context.Context, id string, userID *string, originalURL, shortCode *string) error
	Delete(ctx context.Context, id string, userID *string) error
	ClaimOwnerless(ctx context.Context, shortCode, originalURL, userID string) (bool, error)
}

type urlRepository struct {
	db *sql.DB
}

// NewURLRepository creates a new URL repository
func NewURLRepository(db *sql.DB) URLRepository {
	return &urlRepository{db: db}
}

// IsUniqueViolation reports whether err is a PostgreSQL unique-constraint
// violation. The urls.short_code constraint is the final authority on code
// uniqueness; callers retry the whole allocation when this fires.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

const urlColumns = `id, short_code, original_url, user_id, visit_count, created_at`

func scanURL(row *sql.Row) (*entities.URL, error) {
	var url entities.URL
	err := row.Scan(
		&url.ID,
		&url.ShortCode,
		&url.OriginalURL,
		&url.UserID,
		&url.VisitCount,
		&url.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &url, nil
}

// Create inserts a new URL. The caller assigns the ID (and, for imports, a
// non-zero visit count). Unique-constraint violations are returned as-is so
// callers can distinguish them via IsUniqueViolation.
func (r *urlRepository) Create(ctx context.Context, url *entities.URL) (*entities.URL, error) {
	query := `
		INSERT INTO urls (id, short_code, original_url, user_id, visit_count)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + urlColumns

	created, err := scanURL(r.db.QueryRowContext(ctx, query,
		url.ID, url.ShortCode, url.OriginalURL, url.UserID, url.VisitCount))
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create URL: %w", err)
	}

	return created, nil
}

// FindByShortCode finds a URL by its exact short code
func (r *urlRepository) FindByShortCode(ctx context.Context, shortCode string) (*entities.URL, error) {
	query := `SELECT ` + urlColumns + ` FROM urls WHERE short_code = $1`

	url, err := scanURL(r.db.QueryRowContext(ctx, query, shortCode))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find URL: %w", err)
	}

	return url, nil
}

// FindByID finds a URL by its ID
func (r *urlRepository) FindByID(ctx context.Context, id string) (*entities.URL, error) {
	query := `SELECT ` + urlColumns + ` FROM urls WHERE id = $1`

	url, err := scanURL(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find URL: %w", err)
	}

	return url, nil
}

// CodeExists reports whether a short code is already stored
func (r *urlRepository) CodeExists(ctx context.Context, shortCode string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM urls WHERE short_code = $1)`, shortCode).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check short code: %w", err)
	}
	return exists, nil
}

// Count returns the total number of stored URLs
func (r *urlRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM urls`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count URLs: %w", err)
	}
	return count, nil
}

func (r *urlRepository) list(ctx context.Context, query string, countQuery string, args ...interface{}) ([]*entities.URL, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count URLs: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list URLs: %w", err)
	}
	defer rows.Close()

	var urls []*entities.URL
	for rows.Next() {
		var url entities.URL
		err := rows.Scan(
			&url.ID,
			&url.ShortCode,
			&url.OriginalURL,
			&url.UserID,
			&url.VisitCount,
			&url.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan URL: %w", err)
		}
		urls = append(urls, &url)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating URLs: %w", err)
	}

	return urls, total, nil
}

// ListByUser returns a page of the user's URLs, newest first, with the total count
func (r *urlRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entities.URL, int64, error) {
	query := `
		SELECT ` + urlColumns + `
		FROM urls
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT ` + fmt.Sprintf("%d OFFSET %d", limit, offset)

	return r.list(ctx, query, `SELECT COUNT(*) FROM urls WHERE user_id = $1`, userID)
}

// ListAll returns a page over every URL, newest first, with the total count
func (r *urlRepository) ListAll(ctx context.Context, limit, offset int) ([]*entities.URL, int64, error) {
	query := `
		SELECT ` + urlColumns + `
		FROM urls
		ORDER BY created_at DESC
		LIMIT ` + fmt.Sprintf("%d OFFSET %d", limit, offset)

	return r.list(ctx, query, `SELECT COUNT(*) FROM urls`)
}

// Update changes the original URL and/or short code of a URL. A nil field is
// left untouched. When userID is non-nil the update only applies to URLs
// owned by that user; nil means admin scope.
func (r *urlRepository) Update(ctx context.Context, id string, userID *string, originalURL, shortCode *string) error {
	query := `
		UPDATE urls
		SET original_url = COALESCE($1, original_url),
		    short_code   = COALESCE($2, short_code)
		WHERE id = $3
	`
	args := []interface{}{originalURL, shortCode, id}

	if userID != nil {
		query += ` AND user_id = $4`
		args = append(args, *userID)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("failed to update URL: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperr.ErrNotFound
	}

	return nil
}

// Delete removes a URL; dependent visits go with it via ON DELETE CASCADE.
// When userID is non-nil only URLs owned by that user are deleted.
func (r *urlRepository) Delete(ctx context.Context, id string, userID *string) error {
	query := `DELETE FROM urls WHERE id = $1`
	args := []interface{}{id}

	if userID != nil {
		query += ` AND user_id = $2`
		args = append(args, *userID)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete URL: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperr.ErrNotFound
	}

	return nil
}

// ClaimOwnerless attaches an unowned URL to a user, but only when both the
// short code and the original URL match the caller's copy. Returns false when
// nothing matched (unknown code, already owned, or URL mismatch).
func (r *urlRepository) ClaimOwnerless(ctx context.Context, shortCode, originalURL, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE urls
		SET user_id = $1
		WHERE short_code = $2 AND original_url = $3 AND user_id IS NULL
	`, userID, shortCode, originalURL)
	if err != nil {
		return false, fmt.Errorf("failed to claim URL: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}
