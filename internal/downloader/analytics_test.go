package downloader

import (
	"context"
	"testing"
	"time"

	"CineVault/model"
)

func seedHistoryStore(t *testing.T, now time.Time) *MemoryTaskStore {
	t.Helper()
	store := NewMemoryTaskStore()
	ctx := context.Background()
	at := func(d time.Duration) time.Time { return now.Add(d) }
	finished := func(start, end time.Time) (*time.Time, *time.Time) { return &start, &end }

	s1, f1 := finished(at(-2*time.Hour), at(-2*time.Hour+100*time.Second))
	s2, f2 := finished(at(-time.Hour), at(-time.Hour+50*time.Second))
	records := []model.DownloadTask{
		{ID: "t1", MovieID: 1, Title: "Heat", Source: "http://e.com/1", Status: model.DownloadCompleted,
			BytesDone: 1000_000, CreatedAt: at(-2 * time.Hour), StartedAt: s1, FinishedAt: f1},
		{ID: "t2", MovieID: 1, Title: "Heat", Source: "http://e.com/1", Status: model.DownloadCompleted,
			BytesDone: 1000_000, CreatedAt: at(-time.Hour), StartedAt: s2, FinishedAt: f2},
		{ID: "t3", MovieID: 2, Title: "Alien", Source: "http://e.com/2", Status: model.DownloadFailed,
			ErrorMsg: "connection reset", CreatedAt: at(-time.Hour)},
		{ID: "t4", MovieID: 3, Title: "Dune", Source: "http://e.com/3", Status: model.DownloadFailed,
			ErrorMsg: "connection reset", CreatedAt: at(-30 * time.Minute)},
		{ID: "t5", MovieID: 3, Title: "Dune", Source: "http://e.com/3", Status: model.DownloadCancelled,
			CreatedAt: at(-20 * time.Minute)},
		{ID: "t6", MovieID: 4, Title: "Ran", Source: "http://e.com/4", Status: model.DownloadQueued,
			CreatedAt: at(-10 * time.Minute)},
		// Outside a one-day window.
		{ID: "t0", MovieID: 9, Title: "Old", Source: "http://e.com/9", Status: model.DownloadCompleted,
			CreatedAt: at(-48 * time.Hour)},
	}
	for _, rec := range records {
		rec := rec
		if err := store.Save(ctx, &rec); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return store
}

func TestAnalyticsStats(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := NewAnalytics(seedHistoryStore(t, now))
	a.clock = fixedClock(now)

	stats, err := a.Stats(context.Background(), 24*time.Hour)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 6 {
		t.Fatalf("total %d, want 6", stats.Total)
	}
	if stats.Completed != 2 || stats.Failed != 2 || stats.Cancelled != 1 || stats.Active != 1 {
		t.Fatalf("breakdown %+v wrong", stats)
	}
	// 2 completed of 4 finished (cancelled excluded).
	if stats.SuccessRate != 50 {
		t.Fatalf("success rate %.1f, want 50", stats.SuccessRate)
	}
	if stats.TotalBytes != 2000_000 {
		t.Fatalf("total bytes %d, want 2000000", stats.TotalBytes)
	}
}

func TestAnalyticsErrorAnalysis(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := NewAnalytics(seedHistoryStore(t, now))
	a.clock = fixedClock(now)

	errs, err := a.ErrorAnalysis(context.Background(), 24*time.Hour)
	if err != nil {
		t.Fatalf("error analysis: %v", err)
	}
	if len(errs) != 1 {
		t.Fatalf("got %d error groups, want 1", len(errs))
	}
	if errs[0].Message != "connection reset" || errs[0].Count != 2 {
		t.Fatalf("top error %+v wrong", errs[0])
	}
}

func TestAnalyticsPopular(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := NewAnalytics(seedHistoryStore(t, now))
	a.clock = fixedClock(now)

	popular, err := a.Popular(context.Background(), 2)
	if err != nil {
		t.Fatalf("popular: %v", err)
	}
	if len(popular) != 2 {
		t.Fatalf("got %d items, want 2", len(popular))
	}
	if popular[0].MovieID != 1 || popular[0].Count != 2 || popular[0].Title != "Heat" {
		t.Fatalf("top item %+v wrong", popular[0])
	}
	if popular[1].MovieID != 3 || popular[1].Count != 2 {
		t.Fatalf("second item %+v wrong", popular[1])
	}
}

func TestAnalyticsSpeed(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := NewAnalytics(seedHistoryStore(t, now))
	a.clock = fixedClock(now)

	speed, err := a.SpeedAnalysis(context.Background(), 24*time.Hour)
	if err != nil {
		t.Fatalf("speed: %v", err)
	}
	if speed.Samples != 2 {
		t.Fatalf("samples %d, want 2", speed.Samples)
	}
	// 10 KB/s and 20 KB/s.
	if speed.PeakBytesPerSec != 20000 {
		t.Fatalf("peak %.0f, want 20000", speed.PeakBytesPerSec)
	}
	if speed.AvgBytesPerSec != 15000 {
		t.Fatalf("avg %.0f, want 15000", speed.AvgBytesPerSec)
	}
}

func TestPeriodDuration(t *testing.T) {
	if PeriodDuration("hour") != time.Hour {
		t.Fatalf("hour window wrong")
	}
	if PeriodDuration("week") != 7*24*time.Hour {
		t.Fatalf("week window wrong")
	}
	if PeriodDuration("unknown") != 24*time.Hour {
		t.Fatalf("unknown period must default to a day")
	}
}
