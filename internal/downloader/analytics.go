package downloader

import (
	"CineVault/internal/apperr"
	"CineVault/model"
	"context"
	"sort"
	"time"
)

// Analytics derives aggregate figures from the persisted task history.
type Analytics struct {
	store TaskStore
	clock func() time.Time
}

// NewAnalytics builds analytics over a task store.
func NewAnalytics(store TaskStore) *Analytics {
	return &Analytics{store: store, clock: time.Now}
}

// PeriodDuration maps the period names used by the dashboard to a
// trailing window.
func PeriodDuration(period string) time.Duration {
	switch period {
	case "hour":
		return time.Hour
	case "week":
		return 7 * 24 * time.Hour
	case "month":
		return 30 * 24 * time.Hour
	default: // "day"
		return 24 * time.Hour
	}
}

// Stats summarizes the task history of a trailing period.
type Stats struct {
	Total       int     `json:"total"`
	Completed   int     `json:"completed"`
	Failed      int     `json:"failed"`
	Cancelled   int     `json:"cancelled"`
	Active      int     `json:"active"`
	SuccessRate float64 `json:"success_rate"`
	TotalBytes  int64   `json:"total_bytes"`
}

// Stats returns task counts and the success rate over the window.
func (a *Analytics) Stats(ctx context.Context, window time.Duration) (Stats, error) {
	tasks, err := a.list(ctx, window)
	if err != nil {
		return Stats{}, err
	}
	var out Stats
	for _, t := range tasks {
		out.Total++
		switch t.Status {
		case model.DownloadCompleted:
			out.Completed++
			out.TotalBytes += t.BytesDone
		case model.DownloadFailed:
			out.Failed++
		case model.DownloadCancelled:
			out.Cancelled++
		default:
			out.Active++
		}
	}
	finished := out.Completed + out.Failed
	if finished > 0 {
		out.SuccessRate = float64(out.Completed) / float64(finished) * 100
	}
	return out, nil
}

// TrendPoint is one day of download activity.
type TrendPoint struct {
	Date      string `json:"date"`
	Started   int    `json:"started"`
	Completed int    `json:"completed"`
	Failed    int    `json:"failed"`
}

// Trends buckets activity per day over the window, oldest first.
func (a *Analytics) Trends(ctx context.Context, window time.Duration) ([]TrendPoint, error) {
	tasks, err := a.list(ctx, window)
	if err != nil {
		return nil, err
	}
	byDay := make(map[string]*TrendPoint)
	for _, t := range tasks {
		day := t.CreatedAt.Format("2006-01-02")
		point, ok := byDay[day]
		if !ok {
			point = &TrendPoint{Date: day}
			byDay[day] = point
		}
		point.Started++
		switch t.Status {
		case model.DownloadCompleted:
			point.Completed++
		case model.DownloadFailed:
			point.Failed++
		}
	}
	out := make([]TrendPoint, 0, len(byDay))
	for _, point := range byDay {
		out = append(out, *point)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// ErrorCount pairs an error message with its occurrence count.
type ErrorCount struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// ErrorAnalysis groups failed tasks by error message, most frequent
// first.
func (a *Analytics) ErrorAnalysis(ctx context.Context, window time.Duration) ([]ErrorCount, error) {
	tasks, err := a.list(ctx, window)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, t := range tasks {
		if t.Status == model.DownloadFailed && t.ErrorMsg != "" {
			counts[t.ErrorMsg]++
		}
	}
	out := make([]ErrorCount, 0, len(counts))
	for msg, n := range counts {
		out = append(out, ErrorCount{Message: msg, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Message < out[j].Message
		}
		return out[i].Count > out[j].Count
	})
	return out, nil
}

// PopularItem counts downloads per movie.
type PopularItem struct {
	MovieID uint64 `json:"movie_id"`
	Title   string `json:"title"`
	Count   int    `json:"count"`
}

// Popular returns the most downloaded movies, capped at limit.
func (a *Analytics) Popular(ctx context.Context, limit int) ([]PopularItem, error) {
	if limit <= 0 {
		limit = 10
	}
	tasks, err := a.store.ListSince(ctx, time.Time{})
	if err != nil {
		return nil, apperr.Storage(err)
	}
	type agg struct {
		title string
		count int
	}
	byMovie := make(map[uint64]*agg)
	for _, t := range tasks {
		entry, ok := byMovie[t.MovieID]
		if !ok {
			entry = &agg{title: t.Title}
			byMovie[t.MovieID] = entry
		}
		entry.count++
	}
	out := make([]PopularItem, 0, len(byMovie))
	for id, entry := range byMovie {
		out = append(out, PopularItem{MovieID: id, Title: entry.title, Count: entry.count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].MovieID < out[j].MovieID
		}
		return out[i].Count > out[j].Count
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SpeedStats summarizes effective transfer speed of completed tasks.
type SpeedStats struct {
	Samples         int     `json:"samples"`
	AvgBytesPerSec  float64 `json:"avg_bytes_per_sec"`
	PeakBytesPerSec float64 `json:"peak_bytes_per_sec"`
}

// SpeedAnalysis computes byte-per-second figures from completed tasks
// with known start and finish times.
func (a *Analytics) SpeedAnalysis(ctx context.Context, window time.Duration) (SpeedStats, error) {
	tasks, err := a.list(ctx, window)
	if err != nil {
		return SpeedStats{}, err
	}
	var out SpeedStats
	var sum float64
	for _, t := range tasks {
		if t.Status != model.DownloadCompleted || t.StartedAt == nil || t.FinishedAt == nil {
			continue
		}
		elapsed := t.FinishedAt.Sub(*t.StartedAt).Seconds()
		if elapsed <= 0 || t.BytesDone <= 0 {
			continue
		}
		speed := float64(t.BytesDone) / elapsed
		sum += speed
		out.Samples++
		if speed > out.PeakBytesPerSec {
			out.PeakBytesPerSec = speed
		}
	}
	if out.Samples > 0 {
		out.AvgBytesPerSec = sum / float64(out.Samples)
	}
	return out, nil
}

func (a *Analytics) list(ctx context.Context, window time.Duration) ([]model.DownloadTask, error) {
	since := time.Time{}
	if window > 0 {
		since = a.clock().Add(-window)
	}
	tasks, err := a.store.ListSince(ctx, since)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return tasks, nil
}
