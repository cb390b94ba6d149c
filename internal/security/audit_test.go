package security

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"CineVault/model"
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func recordN(t *testing.T, a *Aggregator, n int, ev Event) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := a.Record(context.Background(), ev); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
}

func TestRecordThenQueryRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := NewAggregator(AggregatorOptions{Clock: fixedClock(now)})

	uid := uint64(7)
	err := a.Record(context.Background(), Event{
		EventType: EventFailedLogin,
		UserID:    &uid,
		IPAddress: "203.0.113.5",
		UserAgent: "curl/8.0",
		Details:   map[string]interface{}{"username": "mallory"},
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	page, err := a.Query(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if page.Total != 1 || len(page.Records) != 1 {
		t.Fatalf("round trip lost the record: %+v", page)
	}
	rec := page.Records[0]
	if rec.EventType != EventFailedLogin || rec.IPAddress != "203.0.113.5" {
		t.Fatalf("record fields wrong: %+v", rec)
	}
	if rec.Severity != model.SeverityMedium {
		t.Fatalf("classifier severity %q, want %q", rec.Severity, model.SeverityMedium)
	}
	if !strings.Contains(rec.Details, `"username":"mallory"`) {
		t.Fatalf("details not serialized: %q", rec.Details)
	}
	if len(page.EventTypes) != 1 || page.EventTypes[0] != EventFailedLogin {
		t.Fatalf("event types %v wrong", page.EventTypes)
	}
}

func TestQueryPaginationNewestFirst(t *testing.T) {
	store := NewMemoryAuditStore()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		rec := &model.SecurityAudit{
			EventType: "page_view",
			IPAddress: "198.51.100.1",
			Severity:  model.SeverityLow,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.Append(context.Background(), rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	a := NewAggregator(AggregatorOptions{Store: store, PageSize: 20})

	page, err := a.Query(context.Background(), Filter{Page: 1})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if page.Total != 25 || page.Pages != 2 || page.Current != 1 {
		t.Fatalf("pagination header wrong: %+v", page)
	}
	if len(page.Records) != 20 {
		t.Fatalf("page size %d, want 20", len(page.Records))
	}
	if !page.Records[0].CreatedAt.After(page.Records[1].CreatedAt) {
		t.Fatalf("records not newest first")
	}

	last, err := a.Query(context.Background(), Filter{Page: 2})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(last.Records) != 5 {
		t.Fatalf("last page size %d, want 5", len(last.Records))
	}
}

func TestQueryFilters(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := NewAggregator(AggregatorOptions{Clock: fixedClock(now)})
	ctx := context.Background()

	recordN(t, a, 3, Event{EventType: EventFailedLogin, IPAddress: "203.0.113.5"})
	recordN(t, a, 2, Event{EventType: EventLoginSuccess, IPAddress: "203.0.113.6"})

	byType, err := a.Query(ctx, Filter{EventType: EventLoginSuccess})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if byType.Total != 2 {
		t.Fatalf("event type filter total %d, want 2", byType.Total)
	}

	bySeverity, err := a.Query(ctx, Filter{Severity: model.SeverityMedium})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if bySeverity.Total != 3 {
		t.Fatalf("severity filter total %d, want 3", bySeverity.Total)
	}

	byDate, err := a.Query(ctx, Filter{Date: now})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if byDate.Total != 5 {
		t.Fatalf("date filter total %d, want 5", byDate.Total)
	}
	otherDay, err := a.Query(ctx, Filter{Date: now.AddDate(0, 0, 1)})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if otherDay.Total != 0 {
		t.Fatalf("next-day filter total %d, want 0", otherDay.Total)
	}
}

func TestDateFilterUsesLocalDay(t *testing.T) {
	// The filter date arrives as local midnight; the window must cover
	// that calendar day, not the UTC day it happens to overlap.
	zone := time.FixedZone("UTC+3", 3*60*60)
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, zone)
	store := NewMemoryAuditStore()
	ctx := context.Background()

	for _, at := range []time.Time{
		day.Add(30 * time.Minute), // early in the selected day
		day.Add(22 * time.Hour),   // late in the selected day
		day.Add(-time.Hour),       // previous day
		day.Add(25 * time.Hour),   // next day
	} {
		rec := &model.SecurityAudit{
			EventType: EventLoginSuccess,
			Severity:  model.SeverityLow,
			CreatedAt: at,
		}
		if err := store.Append(ctx, rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := store.ListFiltered(ctx, Filter{Date: day})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("local-day filter matched %d records, want 2", len(got))
	}
	for _, rec := range got {
		if rec.CreatedAt.Before(day) || !rec.CreatedAt.Before(day.AddDate(0, 0, 1)) {
			t.Fatalf("record at %v outside the selected day", rec.CreatedAt)
		}
	}
}

func TestFailedLoginAlertBoundary(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := NewAggregator(AggregatorOptions{Clock: fixedClock(now), FailedLoginThreshold: 10})
	ctx := context.Background()

	recordN(t, a, 9, Event{EventType: EventFailedLogin, IPAddress: "203.0.113.5"})
	alerts, err := a.ComputeAlerts(ctx)
	if err != nil {
		t.Fatalf("alerts: %v", err)
	}
	if len(alerts) != 0 {
		t.Fatalf("9 failures must not alert, got %+v", alerts)
	}

	recordN(t, a, 1, Event{EventType: EventFailedLogin, IPAddress: "203.0.113.5"})
	alerts, err = a.ComputeAlerts(ctx)
	if err != nil {
		t.Fatalf("alerts: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("10 failures must alert, got %+v", alerts)
	}
	if alerts[0].Level != AlertCritical {
		t.Fatalf("level %q, want %q", alerts[0].Level, AlertCritical)
	}
	if !strings.Contains(alerts[0].Message, "203.0.113.5") {
		t.Fatalf("alert message %q missing the IP", alerts[0].Message)
	}
}

func TestFailedLoginAlertIgnoresOldEvents(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryAuditStore()
	for i := 0; i < 10; i++ {
		rec := &model.SecurityAudit{
			EventType: EventFailedLogin,
			IPAddress: "203.0.113.5",
			Severity:  model.SeverityMedium,
			CreatedAt: now.Add(-25 * time.Hour),
		}
		if err := store.Append(context.Background(), rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	a := NewAggregator(AggregatorOptions{Store: store, Clock: fixedClock(now)})
	alerts, err := a.ComputeAlerts(context.Background())
	if err != nil {
		t.Fatalf("alerts: %v", err)
	}
	if len(alerts) != 0 {
		t.Fatalf("events outside the window must not alert, got %+v", alerts)
	}
}

func TestLockedAccountAndStorageAlerts(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := NewAggregator(AggregatorOptions{
		Clock:          fixedClock(now),
		LockedAccounts: func(_ context.Context, _ time.Time) (int64, error) { return 3, nil },
		StorageUsage:   func(_ context.Context) (float64, error) { return 94.2, nil },
	})
	alerts, err := a.ComputeAlerts(context.Background())
	if err != nil {
		t.Fatalf("alerts: %v", err)
	}
	if len(alerts) != 2 {
		t.Fatalf("got %d alerts, want 2: %+v", len(alerts), alerts)
	}
	if alerts[0].ID != "locked_accounts" || alerts[0].Level != AlertWarning {
		t.Fatalf("locked accounts alert wrong: %+v", alerts[0])
	}
	if alerts[1].ID != "storage_warning" || !strings.Contains(alerts[1].Message, "94.2") {
		t.Fatalf("storage alert wrong: %+v", alerts[1])
	}
}

type stubProbe struct {
	name   string
	health Health
}

func (p stubProbe) Name() string                   { return p.name }
func (p stubProbe) Check(_ context.Context) Health { return p.health }

func TestHealthProbeAlert(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := NewAggregator(AggregatorOptions{
		Clock: fixedClock(now),
		Probes: []HealthProbe{
			stubProbe{name: "database", health: Health{Status: 100, Message: "ok"}},
			stubProbe{name: "cache", health: Health{Status: 40, Message: "slow", ResponseTime: 900}},
		},
	})
	alerts, err := a.ComputeAlerts(context.Background())
	if err != nil {
		t.Fatalf("alerts: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts, want 1: %+v", len(alerts), alerts)
	}
	if alerts[0].ID != "cache_health" || alerts[0].Level != AlertDanger {
		t.Fatalf("probe alert wrong: %+v", alerts[0])
	}
}

func TestExportCSVEmptyWritesHeaderOnly(t *testing.T) {
	a := NewAggregator(AggregatorOptions{})
	var buf bytes.Buffer
	if err := a.ExportCSV(context.Background(), Filter{}, &buf); err != nil {
		t.Fatalf("export: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 1 {
		t.Fatalf("empty export wrote %d lines, want header only", len(lines))
	}
	if lines[0] != "Time,Event Type,User,IP Address,User Agent,Severity,Details" {
		t.Fatalf("header %q wrong", lines[0])
	}
}

func TestExportCSVRows(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := NewAggregator(AggregatorOptions{
		Clock: fixedClock(now),
		UserName: func(_ context.Context, id uint64) string {
			if id == 7 {
				return "mallory"
			}
			return ""
		},
	})
	ctx := context.Background()
	uid := uint64(7)
	if err := a.Record(ctx, Event{EventType: EventFailedLogin, UserID: &uid, IPAddress: "203.0.113.5", UserAgent: "curl/8.0"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := a.Record(ctx, Event{EventType: "ip_blacklisted", IPAddress: "203.0.113.5"}); err != nil {
		t.Fatalf("record: %v", err)
	}

	var buf bytes.Buffer
	if err := a.ExportCSV(ctx, Filter{}, &buf); err != nil {
		t.Fatalf("export: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header plus 2 rows", len(lines))
	}
	// Newest first: the system event without a user comes before the
	// user-attributed one.
	if !strings.Contains(lines[1], "System") {
		t.Fatalf("first row %q should be the system event", lines[1])
	}
	if !strings.Contains(lines[2], "mallory") {
		t.Fatalf("second row %q should name the user", lines[2])
	}
	if !strings.Contains(lines[1], "2026-03-01 12:00:00") {
		t.Fatalf("row %q missing formatted time", lines[1])
	}
}

func TestClassifierDefaults(t *testing.T) {
	c := RuleClassifier{}
	if got := c.Score(Features{EventType: EventAccountLocked}); got != model.SeverityHigh {
		t.Fatalf("account_locked scored %q, want high", got)
	}
	if got := c.Score(Features{EventType: "something_new", System: true}); got != model.SeverityMedium {
		t.Fatalf("unknown system event scored %q, want medium", got)
	}
	if got := c.Score(Features{EventType: "something_new"}); got != model.SeverityLow {
		t.Fatalf("unknown user event scored %q, want low", got)
	}
}

func TestOverview(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := NewAggregator(AggregatorOptions{
		Clock:          fixedClock(now),
		LockedAccounts: func(_ context.Context, _ time.Time) (int64, error) { return 1, nil },
		Probes: []HealthProbe{
			stubProbe{name: "database", health: Health{Status: 100, Message: "ok"}},
		},
	})
	ctx := context.Background()
	recordN(t, a, 4, Event{EventType: EventFailedLogin, IPAddress: "203.0.113.5"})

	overview, err := a.Overview(ctx)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if overview.FailedLogins != 4 {
		t.Fatalf("failed logins %d, want 4", overview.FailedLogins)
	}
	if overview.LockedAccounts != 1 {
		t.Fatalf("locked accounts %d, want 1", overview.LockedAccounts)
	}
	if _, ok := overview.SystemHealth["database"]; !ok {
		t.Fatalf("health map missing probe")
	}
	if len(overview.Alerts) != 1 {
		t.Fatalf("expected the locked-accounts alert, got %+v", overview.Alerts)
	}
}
