package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"slink-api/internal/entities"
	"slink-api/internal/models"
)

const analyticsVisitSample = 500

// Analytics aggregates visit analytics for one URL: window totals, country,
// browser and device breakdowns, a gap-filled daily series, and the most
// recent visits.
func (s *urlService) Analytics(ctx context.Context, id, userID string, admin bool, from, to time.Time) (*models.AnalyticsResponse, error) {
	if _, err := s.findOwned(ctx, id, userID, admin); err != nil {
		return nil, err
	}

	stats, err := s.visits.Stats(ctx, id)
	if err != nil {
		return nil, err
	}

	byCountry, err := s.visits.CountByCountry(ctx, id, topCountriesLimit)
	if err != nil {
		return nil, err
	}

	visits, err := s.visits.ListByURL(ctx, id, analyticsVisitSample)
	if err != nil {
		return nil, err
	}

	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}

	dayCounts, err := s.visits.CountByDay(ctx, id, from, to)
	if err != nil {
		return nil, err
	}

	return &models.AnalyticsResponse{
		Stats:        *stats,
		ByCountry:    byCountry,
		ByBrowser:    groupVisits(visits, browserFromUA),
		ByDevice:     groupVisits(visits, deviceFromUA),
		ByDate:       fillDailySeries(dayCounts, from, to),
		RecentVisits: recentVisits(visits, recentVisitsLimit),
	}, nil
}

// groupVisits buckets the sampled visits by a user-agent-derived key,
// descending by count.
func groupVisits(visits []*entities.Visit, keyFn func(string) string) []models.NameCount {
	buckets := make(map[string]int64)
	for _, v := range visits {
		var ua string
		if v.UserAgent != nil {
			ua = *v.UserAgent
		}
		buckets[keyFn(ua)]++
	}

	counts := make([]models.NameCount, 0, len(buckets))
	for name, value := range buckets {
		counts = append(counts, models.NameCount{Name: name, Value: value})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Value != counts[j].Value {
			return counts[i].Value > counts[j].Value
		}
		return counts[i].Name < counts[j].Name
	})

	return counts
}

func browserFromUA(userAgent string) string {
	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "edg"):
		return "Edge"
	case strings.Contains(ua, "opera"), strings.Contains(ua, "opr"):
		return "Opera"
	case strings.Contains(ua, "chrome"):
		return "Chrome"
	case strings.Contains(ua, "firefox"):
		return "Firefox"
	case strings.Contains(ua, "safari"):
		return "Safari"
	default:
		return "Unknown"
	}
}

func deviceFromUA(userAgent string) string {
	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "tablet"), strings.Contains(ua, "ipad"):
		return "Tablet"
	case strings.Contains(ua, "mobile"), strings.Contains(ua, "android"), strings.Contains(ua, "iphone"):
		return "Mobile"
	default:
		return "Desktop"
	}
}

// fillDailySeries expands sparse daily counts into a continuous series over
// [from, to], one entry per day, zero for days without visits.
func fillDailySeries(counts []models.DateCount, from, to time.Time) []models.DateCount {
	byDate := make(map[string]int64, len(counts))
	for _, c := range counts {
		byDate[c.Date] = c.Visits
	}

	var series []models.DateCount
	for d := from.UTC().Truncate(24 * time.Hour); !d.After(to.UTC()); d = d.AddDate(0, 0, 1) {
		date := d.Format("2006-01-02")
		series = append(series, models.DateCount{Date: date, Visits: byDate[date]})
	}

	return series
}

func recentVisits(visits []*entities.Visit, limit int) []models.RecentVisit {
	if len(visits) > limit {
		visits = visits[:limit]
	}

	recent := make([]models.RecentVisit, 0, len(visits))
	for _, v := range visits {
		rv := models.RecentVisit{
			ID:        v.ID,
			CreatedAt: v.CreatedAt,
			Country:   "Unknown",
			Referer:   "Direct",
			UserAgent: "Unknown",
		}
		if v.Country != nil && *v.Country != "" {
			rv.Country = *v.Country
		}
		if v.Referer != nil && *v.Referer != "" {
			rv.Referer = *v.Referer
		}
		if v.UserAgent != nil && *v.UserAgent != "" {
			rv.UserAgent = truncate(*v.UserAgent, 100)
		}
		recent = append(recent, rv)
	}

	return recent
}
