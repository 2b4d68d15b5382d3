package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"slink-api/internal/entities"
	"slink-api/internal/models"
)

// VisitRepository defines the interface for visit database operations.
// Visits are append-only; there are no update or single-delete operations.
type VisitRepository interface {
	Record(ctx context.Context, visit *entities.Visit) error
	ListByURL(ctx context.Context, urlID string, limit int) ([]*entities.Visit, error)
	Stats(ctx context.Context, urlID string) (*entities.VisitStats, error)
	CountByCountry(ctx context.Context, urlID string, limit int) ([]models.NameCount, error)
	CountByDay(ctx context.Context, urlID string, from, to time.Time) ([]models.DateCount, error)
}

type visitRepository struct {
	db *sql.DB
}

// NewVisitRepository creates a new visit repository
func NewVisitRepository(db *sql.DB) VisitRepository {
	return &visitRepository{db: db}
}

// Record persists one visit and bumps the parent URL's visit counter in a
// single transaction, so the counter and the visit log never diverge. The
// increment runs storage-side, not read-modify-write, so concurrent visits
// never lose updates.
func (r *visitRepository) Record(ctx context.Context, visit *entities.Visit) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO visits (id, url_id, ip_hash, user_agent, referer, country)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, visit.ID, visit.URLID, visit.IPHash, visit.UserAgent, visit.Referer, visit.Country)
	if err != nil {
		return fmt.Errorf("failed to insert visit: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE urls SET visit_count = visit_count + 1 WHERE id = $1
	`, visit.URLID)
	if err != nil {
		return fmt.Errorf("failed to increment visit count: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// URL deleted between the redirect and the write; nothing to record.
		return fmt.Errorf("url %s no longer exists", visit.URLID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit visit: %w", err)
	}

	return nil
}

// ListByURL returns the most recent visits for a URL, newest first
func (r *visitRepository) ListByURL(ctx context.Context, urlID string, limit int) ([]*entities.Visit, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, url_id, ip_hash, user_agent, referer, country, created_at
		FROM visits
		WHERE url_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, urlID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}
	defer rows.Close()

	var visits []*entities.Visit
	for rows.Next() {
		var v entities.Visit
		err := rows.Scan(&v.ID, &v.URLID, &v.IPHash, &v.UserAgent, &v.Referer, &v.Country, &v.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}
		visits = append(visits, &v)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating visits: %w", err)
	}

	return visits, nil
}

// Stats returns visit totals over the common reporting windows
func (r *visitRepository) Stats(ctx context.Context, urlID string) (*entities.VisitStats, error) {
	var stats entities.VisitStats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE created_at >= NOW() - INTERVAL '24 hours'),
			COUNT(*) FILTER (WHERE created_at >= NOW() - INTERVAL '7 days'),
			COUNT(*) FILTER (WHERE created_at >= NOW() - INTERVAL '30 days')
		FROM visits
		WHERE url_id = $1
	`, urlID).Scan(&stats.Total, &stats.Last24h, &stats.Last7d, &stats.Last30d)
	if err != nil {
		return nil, fmt.Errorf("failed to get visit stats: %w", err)
	}

	return &stats, nil
}

// CountByCountry returns the top visiting countries for a URL
func (r *visitRepository) CountByCountry(ctx context.Context, urlID string, limit int) ([]models.NameCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT COALESCE(country, 'Unknown'), COUNT(*)
		FROM visits
		WHERE url_id = $1
		GROUP BY COALESCE(country, 'Unknown')
		ORDER BY COUNT(*) DESC
		LIMIT $2
	`, urlID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to count visits by country: %w", err)
	}
	defer rows.Close()

	var counts []models.NameCount
	for rows.Next() {
		var nc models.NameCount
		if err := rows.Scan(&nc.Name, &nc.Value); err != nil {
			return nil, fmt.Errorf("failed to scan country count: %w", err)
		}
		counts = append(counts, nc)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating country counts: %w", err)
	}

	return counts, nil
}

// CountByDay returns daily visit counts within [from, to]. Days with no
// visits are absent; the service gap-fills the series.
func (r *visitRepository) CountByDay(ctx context.Context, urlID string, from, to time.Time) ([]models.DateCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT TO_CHAR(DATE_TRUNC('day', created_at AT TIME ZONE 'UTC'), 'YYYY-MM-DD'), COUNT(*)
		FROM visits
		WHERE url_id = $1 AND created_at >= $2 AND created_at <= $3
		GROUP BY 1
		ORDER BY 1 ASC
	`, urlID, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to count visits by day: %w", err)
	}
	defer rows.Close()

	var counts []models.DateCount
	for rows.Next() {
		var dc models.DateCount
		if err := rows.Scan(&dc.Date, &dc.Visits); err != nil {
			return nil, fmt.Errorf("failed to scan day count: %w", err)
		}
		counts = append(counts, dc)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating day counts: %w", err)
	}

	return counts, nil
}
