package downloader

import (
	"context"
	"errors"
	"testing"
	"time"

	"CineVault/internal/apperr"
)

type fakeResolver struct {
	err error
}

func (f fakeResolver) ResolveDownload(_ context.Context, movieID uint64) (string, string, error) {
	if f.err != nil {
		return "", "", f.err
	}
	return "http://e.com/movie", "Movie", nil
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func newTestScheduler(t *testing.T, now time.Time, transfer Transfer) (*Scheduler, *Manager) {
	t.Helper()
	m := NewManager(ManagerOptions{MaxConcurrent: 2, Transfer: transfer, Clock: fixedClock(now)})
	s := NewScheduler(SchedulerOptions{
		Manager:  m,
		Resolver: fakeResolver{},
		Spacing:  30 * time.Minute,
		Clock:    fixedClock(now),
	})
	return s, m
}

func TestScheduleRejectsPastTime(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, m := newTestScheduler(t, now, &fakeTransfer{})
	defer m.Close()

	if _, err := s.Schedule(context.Background(), 1, now.Add(-time.Minute), 0, nil); !apperr.IsValidation(err) {
		t.Fatalf("past schedule: got %v, want validation error", err)
	}
	if got := len(s.ListPending()); got != 0 {
		t.Fatalf("rejected schedule was retained, %d pending", got)
	}
}

func TestScheduleAndDispatch(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ft := &fakeTransfer{}
	s, m := newTestScheduler(t, now, ft)
	defer m.Close()

	ctx := context.Background()
	id, err := s.Schedule(ctx, 1, now.Add(time.Hour), 3, nil)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	// Not due yet.
	s.scanOnce(ctx, now.Add(30*time.Minute))
	if m.Has(id) {
		t.Fatalf("entry dispatched before its time")
	}

	s.scanOnce(ctx, now.Add(time.Hour))
	if !m.Has(id) {
		t.Fatalf("due entry was not dispatched")
	}
	if got := len(s.ListPending()); got != 0 {
		t.Fatalf("dispatched entry still pending, %d entries", got)
	}
	rec, err := m.Status(id)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if rec.Priority != 3 {
		t.Fatalf("priority %d not carried to the task", rec.Priority)
	}
}

func TestDispatchIsIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, m := newTestScheduler(t, now, &fakeTransfer{})
	defer m.Close()

	ctx := context.Background()
	id, err := s.Schedule(ctx, 1, now.Add(time.Minute), 0, nil)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	s.scanOnce(ctx, now.Add(time.Minute))
	s.scanOnce(ctx, now.Add(2*time.Minute))
	if got := len(m.ListAll()); got != 1 {
		t.Fatalf("repeated scans created %d tasks, want 1", got)
	}
	if !m.Has(id) {
		t.Fatalf("task missing after repeated scans")
	}
}

func TestDispatchRetriesOnResolverFailure(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ft := &fakeTransfer{}
	m := NewManager(ManagerOptions{Transfer: ft, Clock: fixedClock(now)})
	defer m.Close()
	broken := fakeResolver{err: errors.New("movie has no download url")}
	s := NewScheduler(SchedulerOptions{Manager: m, Resolver: broken, Clock: fixedClock(now)})

	ctx := context.Background()
	id, err := s.Schedule(ctx, 1, now.Add(time.Minute), 0, nil)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	s.scanOnce(ctx, now.Add(time.Minute))
	if m.Has(id) {
		t.Fatalf("failed dispatch must not create a task")
	}
	if got := len(s.ListPending()); got != 1 {
		t.Fatalf("failed entry must stay pending for the next scan, %d entries", got)
	}

	s.resolver = fakeResolver{}
	s.scanOnce(ctx, now.Add(2*time.Minute))
	if !m.Has(id) {
		t.Fatalf("entry not dispatched after resolver recovered")
	}
}

func TestCancelDispatchedScheduleIsNotFound(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, m := newTestScheduler(t, now, &fakeTransfer{})
	defer m.Close()

	ctx := context.Background()
	id, err := s.Schedule(ctx, 1, now.Add(time.Minute), 0, nil)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	s.scanOnce(ctx, now.Add(time.Minute))
	if err := s.Cancel(ctx, id); !apperr.IsNotFound(err) {
		t.Fatalf("cancel after dispatch: got %v, want not found", err)
	}
}

// flakyScheduleStore fails deletes on demand.
type flakyScheduleStore struct {
	*MemoryScheduleStore
	deleteErr error
}

func (f *flakyScheduleStore) Delete(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.MemoryScheduleStore.Delete(ctx, id)
}

func TestCancelKeepsEntryWhenStoreFails(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &flakyScheduleStore{MemoryScheduleStore: NewMemoryScheduleStore()}
	m := NewManager(ManagerOptions{Transfer: &fakeTransfer{}, Clock: fixedClock(now)})
	defer m.Close()
	s := NewScheduler(SchedulerOptions{Manager: m, Resolver: fakeResolver{}, Store: store, Clock: fixedClock(now)})

	ctx := context.Background()
	id, err := s.Schedule(ctx, 1, now.Add(time.Hour), 0, nil)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	store.deleteErr = errors.New("connection lost")
	if err := s.Cancel(ctx, id); !apperr.IsStorage(err) {
		t.Fatalf("cancel with broken store: got %v, want storage error", err)
	}
	// The failed cancel must not change anything: the entry stays pending
	// in memory and in the store, so a restart sees the same state.
	if got := len(s.ListPending()); got != 1 {
		t.Fatalf("entry dropped from memory on failed cancel, %d pending", got)
	}
	persisted, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(persisted) != 1 {
		t.Fatalf("store has %d entries, want 1", len(persisted))
	}

	store.deleteErr = nil
	if err := s.Cancel(ctx, id); err != nil {
		t.Fatalf("cancel after recovery: %v", err)
	}
	if got := len(s.ListPending()); got != 0 {
		t.Fatalf("entry still pending after cancel, %d entries", got)
	}
}

func TestRescheduleRejectsPastTime(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, m := newTestScheduler(t, now, &fakeTransfer{})
	defer m.Close()

	ctx := context.Background()
	id, err := s.Schedule(ctx, 1, now.Add(time.Hour), 0, nil)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := s.Reschedule(ctx, id, now.Add(-time.Hour)); !apperr.IsValidation(err) {
		t.Fatalf("past reschedule: got %v, want validation error", err)
	}
	if err := s.Reschedule(ctx, id, now.Add(2*time.Hour)); err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	pending := s.ListPending()
	if len(pending) != 1 || !pending[0].ScheduledAt.Equal(now.Add(2*time.Hour)) {
		t.Fatalf("reschedule not applied: %+v", pending)
	}
}

func TestOptimalScheduleWavesAndDeterminism(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, m := newTestScheduler(t, now, &fakeTransfer{})
	defer m.Close()

	candidates := []Candidate{
		{MovieID: 10, Priority: 1},
		{MovieID: 20, Priority: 5},
		{MovieID: 30, Priority: 5},
		{MovieID: 40, Priority: 2},
		{MovieID: 50, Priority: 1},
	}
	start := now.Add(time.Hour)
	first := s.OptimalSchedule(start, candidates)
	second := s.OptimalSchedule(start, candidates)
	if len(first) != len(candidates) {
		t.Fatalf("got %d assignments, want %d", len(first), len(candidates))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("schedule not deterministic at %d: %+v vs %+v", i, first[i], second[i])
		}
	}

	// Priority 5 movies fill the first wave (two concurrent slots), ties
	// keep input order; later waves are spaced apart.
	wantOrder := []uint64{20, 30, 40, 10, 50}
	for i, want := range wantOrder {
		if first[i].MovieID != want {
			t.Fatalf("position %d: movie %d, want %d", i, first[i].MovieID, want)
		}
	}
	if !first[0].ScheduledAt.Equal(start) || !first[1].ScheduledAt.Equal(start) {
		t.Fatalf("first wave not at start: %+v", first[:2])
	}
	if !first[2].ScheduledAt.Equal(start.Add(30 * time.Minute)) {
		t.Fatalf("second wave at %v, want start+30m", first[2].ScheduledAt)
	}
	if !first[4].ScheduledAt.Equal(start.Add(60 * time.Minute)) {
		t.Fatalf("third wave at %v, want start+60m", first[4].ScheduledAt)
	}
}

func TestSchedulerRestore(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryScheduleStore()
	m := NewManager(ManagerOptions{Transfer: &fakeTransfer{}, Clock: fixedClock(now)})
	defer m.Close()

	first := NewScheduler(SchedulerOptions{Manager: m, Resolver: fakeResolver{}, Store: store, Clock: fixedClock(now)})
	ctx := context.Background()
	id, err := first.Schedule(ctx, 1, now.Add(time.Hour), 0, nil)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	second := NewScheduler(SchedulerOptions{Manager: m, Resolver: fakeResolver{}, Store: store, Clock: fixedClock(now)})
	if err := second.Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}
	pending := second.ListPending()
	if len(pending) != 1 || pending[0].ID != id {
		t.Fatalf("restored pending set wrong: %+v", pending)
	}
}
