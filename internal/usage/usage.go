package usage

import (
	"context"
	"time"

	"github.com/kalori-makanan/dashboard-api/internal/database"
	"github.com/kalori-makanan/dashboard-api/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Quotas enforced by the food API backend. They are policy constants, not
// configurable per key; if they drift from what the backend enforces the two
// dashboards will visibly disagree.
const (
	LimitPerMinute = 10
	LimitPerHour   = 200
	LimitPerDay    = 500
)

type WindowLimit struct {
	Limit     int64 `json:"limit"`
	Remaining int64 `json:"remaining"`
}

type RecentRequest struct {
	Timestamp time.Time `json:"timestamp"`
	Endpoint  string    `json:"endpoint"`
}

// Stats is a point-in-time snapshot; window boundaries are computed relative
// to "now" at query time, so repeated calls are not idempotent.
type Stats struct {
	TotalRequests      int64 `json:"total_requests"`
	RequestsToday      int64 `json:"requests_today"`
	RequestsThisHour   int64 `json:"requests_this_hour"`
	RequestsThisMinute int64 `json:"requests_this_minute"`
	Limits             struct {
		PerMinute WindowLimit `json:"per_minute"`
		PerHour   WindowLimit `json:"per_hour"`
		PerDay    WindowLimit `json:"per_day"`
	} `json:"limits"`
	RecentRequests []RecentRequest `json:"recent_requests"`
}

type ChartPoint struct {
	Date     string `json:"date"`
	Requests int64  `json:"requests"`
}

// Service derives usage numbers from the append-only rate-limit log.
type Service struct {
	db      *gorm.DB
	log     logrus.FieldLogger
	timeout time.Duration
	now     func() time.Time
}

func NewService(db *gorm.DB, logger *logrus.Logger, timeout time.Duration) *Service {
	return &Service{
		db:      db,
		log:     logger.WithField("component", "usage"),
		timeout: timeout,
		// Timestamps are stored and compared as text in SQLite; keeping
		// everything in UTC keeps comparisons and DATE() bucketing coherent.
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func remaining(limit, count int64) int64 {
	if count >= limit {
		return 0
	}
	return limit - count
}

// UserStats computes the lifetime total, the three sliding-window counts and
// the 10 most recent requests for all of the user's keys. The reads run in a
// single transaction so all numbers come from one snapshot.
func (s *Service) UserStats(ctx context.Context, userID uint) (*Stats, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	now := s.now()
	minuteAgo := now.Add(-time.Minute)
	hourAgo := now.Add(-time.Hour)
	dayAgo := now.Add(-24 * time.Hour)

	var stats Stats
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var counts struct {
			Total       int64
			MinuteCount int64
			HourCount   int64
			DayCount    int64
		}
		err := tx.Raw(`
			SELECT
				COUNT(*) AS total,
				COUNT(CASE WHEN rll.timestamp > ? THEN 1 END) AS minute_count,
				COUNT(CASE WHEN rll.timestamp > ? THEN 1 END) AS hour_count,
				COUNT(CASE WHEN rll.timestamp > ? THEN 1 END) AS day_count
			FROM rate_limit_logs rll
			JOIN api_keys ak ON rll.api_key_id = ak.id
			WHERE ak.user_id = ?`,
			minuteAgo, hourAgo, dayAgo, userID).Scan(&counts).Error
		if err != nil {
			return err
		}

		var recent []models.RateLimitLog
		err = tx.
			Joins("JOIN api_keys ON api_keys.id = rate_limit_logs.api_key_id").
			Where("api_keys.user_id = ?", userID).
			Order("rate_limit_logs.timestamp DESC").
			Limit(10).
			Find(&recent).Error
		if err != nil {
			return err
		}

		stats.TotalRequests = counts.Total
		stats.RequestsToday = counts.DayCount
		stats.RequestsThisHour = counts.HourCount
		stats.RequestsThisMinute = counts.MinuteCount
		stats.Limits.PerMinute = WindowLimit{Limit: LimitPerMinute, Remaining: remaining(LimitPerMinute, counts.MinuteCount)}
		stats.Limits.PerHour = WindowLimit{Limit: LimitPerHour, Remaining: remaining(LimitPerHour, counts.HourCount)}
		stats.Limits.PerDay = WindowLimit{Limit: LimitPerDay, Remaining: remaining(LimitPerDay, counts.DayCount)}

		stats.RecentRequests = make([]RecentRequest, 0, len(recent))
		for _, r := range recent {
			stats.RecentRequests = append(stats.RecentRequests, RecentRequest{
				Timestamp: r.Timestamp,
				Endpoint:  r.Endpoint,
			})
		}
		return nil
	})
	if err != nil {
		return nil, database.WrapError(s.log, "getUserUsageStats", err)
	}

	return &stats, nil
}

// ChartData groups the user's log rows by calendar day (UTC) over the last
// `days` days, zero-filling days with no traffic. The result always has
// exactly `days` entries, oldest first, ending at today.
func (s *Service) ChartData(ctx context.Context, userID uint, days int) ([]ChartPoint, error) {
	if days <= 0 {
		days = 7
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	end := s.now()
	start := end.Add(-time.Duration(days) * 24 * time.Hour)

	var rows []struct {
		Date     string
		Requests int64
	}
	err := s.db.WithContext(ctx).Raw(`
		SELECT
			DATE(rll.timestamp) AS date,
			COUNT(*) AS requests
		FROM rate_limit_logs rll
		JOIN api_keys ak ON rll.api_key_id = ak.id
		WHERE ak.user_id = ? AND rll.timestamp >= ? AND rll.timestamp <= ?
		GROUP BY DATE(rll.timestamp)
		ORDER BY date ASC`,
		userID, start, end).Scan(&rows).Error
	if err != nil {
		return nil, database.WrapError(s.log, "getUsageChartData", err)
	}

	byDate := make(map[string]int64, len(rows))
	for _, r := range rows {
		byDate[r.Date] = r.Requests
	}

	points := make([]ChartPoint, 0, days)
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i+1).Format("2006-01-02")
		points = append(points, ChartPoint{Date: date, Requests: byDate[date]})
	}

	return points, nil
}

// Record appends one log row for the key and stamps its last_used_at. Called
// by the accounting middleware on every authenticated request.
func (s *Service) Record(ctx context.Context, keyID uint, endpoint string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	now := s.now()
	entry := models.RateLimitLog{
		APIKeyID:  keyID,
		Timestamp: now,
		Endpoint:  endpoint,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		return tx.Model(&models.APIKey{}).
			Where("id = ?", keyID).
			Update("last_used_at", now).Error
	})
	if err != nil {
		return database.WrapError(s.log, "recordRequest", err)
	}

	return nil
}

// MinuteCount returns the number of requests logged for the key within the
// last 60 seconds. Used for quota enforcement before a request is admitted.
func (s *Service) MinuteCount(ctx context.Context, keyID uint) (int64, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.RateLimitLog{}).
		Where("api_key_id = ? AND timestamp > ?", keyID, s.now().Add(-time.Minute)).
		Count(&count).Error
	if err != nil {
		return 0, database.WrapError(s.log, "minuteCount", err)
	}

	return count, nil
}
