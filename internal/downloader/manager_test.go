package downloader

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"CineVault/internal/apperr"
	"CineVault/model"
)

// fakeTransfer records fetch order and can hold transfers open until
// the test releases them.
type fakeTransfer struct {
	mu      sync.Mutex
	started []string
	release chan struct{}
	err     error
	size    int64
}

func (f *fakeTransfer) Fetch(ctx context.Context, req TransferRequest) (int64, error) {
	f.mu.Lock()
	f.started = append(f.started, req.Source)
	f.mu.Unlock()
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	return f.size, f.err
}

func (f *fakeTransfer) startedSources() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.started))
	copy(out, f.started)
	return out
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not reached within deadline")
}

func countByStatus(m *Manager, status string) int {
	n := 0
	for _, rec := range m.ListAll() {
		if rec.Status == status {
			n++
		}
	}
	return n
}

func TestSubmitValidation(t *testing.T) {
	m := NewManager(ManagerOptions{Transfer: &fakeTransfer{}})
	cases := []struct {
		movieID uint64
		source  string
		title   string
	}{
		{0, "http://example.com/a.mp4", "A"},
		{1, "", "A"},
		{1, "http://example.com/a.mp4", ""},
	}
	for _, c := range cases {
		if _, err := m.Submit(context.Background(), c.movieID, c.source, c.title, 0); !apperr.IsValidation(err) {
			t.Fatalf("expected validation error for %+v, got %v", c, err)
		}
	}
}

func TestConcurrencyCap(t *testing.T) {
	ft := &fakeTransfer{release: make(chan struct{})}
	m := NewManager(ManagerOptions{MaxConcurrent: 2, Transfer: ft})
	defer m.Close()

	ctx := context.Background()
	for i, src := range []string{"http://e.com/a", "http://e.com/b", "http://e.com/c"} {
		if _, err := m.Submit(ctx, uint64(i+1), src, "t", 0); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	waitUntil(t, func() bool { return len(ft.startedSources()) == 2 })
	if got := countByStatus(m, model.DownloadDownloading); got != 2 {
		t.Fatalf("expected 2 downloading, got %d", got)
	}
	if got := countByStatus(m, model.DownloadQueued); got != 1 {
		t.Fatalf("expected 1 queued, got %d", got)
	}

	close(ft.release)
	waitUntil(t, func() bool { return countByStatus(m, model.DownloadCompleted) == 3 })
}

func TestPriorityOrder(t *testing.T) {
	ft := &fakeTransfer{release: make(chan struct{}, 3)}
	m := NewManager(ManagerOptions{MaxConcurrent: 1, Transfer: ft, AdmitDelay: 30 * time.Millisecond})
	defer m.Close()

	// A burst of submissions lands inside one admission window, so the
	// priority-5 task wins the only slot even though it arrived second.
	ctx := context.Background()
	if _, err := m.Submit(ctx, 1, "http://e.com/low-a", "t", 1); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := m.Submit(ctx, 2, "http://e.com/high", "t", 5); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := m.Submit(ctx, 3, "http://e.com/low-b", "t", 1); err != nil {
		t.Fatalf("submit: %v", err)
	}

	waitUntil(t, func() bool { return len(ft.startedSources()) == 1 })
	ft.release <- struct{}{}
	waitUntil(t, func() bool { return len(ft.startedSources()) == 2 })
	ft.release <- struct{}{}
	waitUntil(t, func() bool { return len(ft.startedSources()) == 3 })
	ft.release <- struct{}{}

	got := ft.startedSources()
	// Equal priorities fall back to submission order.
	want := []string{"http://e.com/high", "http://e.com/low-a", "http://e.com/low-b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("dispatch order %v, want %v", got, want)
		}
	}
}

// progressTransfer reports a fixed progress pair, then holds the
// transfer open until released.
type progressTransfer struct {
	done, total int64
	release     chan struct{}
}

func (p *progressTransfer) Fetch(ctx context.Context, req TransferRequest) (int64, error) {
	req.Progress(p.done, p.total)
	select {
	case <-p.release:
		return p.done, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func TestProgressClampsTotal(t *testing.T) {
	pt := &progressTransfer{done: 150, total: 100, release: make(chan struct{})}
	m := NewManager(ManagerOptions{MaxConcurrent: 1, Transfer: pt})
	defer m.Close()

	id, err := m.Submit(context.Background(), 1, "http://e.com/a", "t", 0)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitUntil(t, func() bool {
		rec, err := m.Status(id)
		return err == nil && rec.BytesDone == 150
	})
	rec, err := m.Status(id)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	// An under-reported Content-Length must not leave done above total.
	if rec.BytesTotal != 150 {
		t.Fatalf("bytes total %d, want raised to %d", rec.BytesTotal, rec.BytesDone)
	}
	close(pt.release)
}

func TestCancel(t *testing.T) {
	ft := &fakeTransfer{release: make(chan struct{})}
	m := NewManager(ManagerOptions{MaxConcurrent: 1, Transfer: ft})
	defer m.Close()

	ctx := context.Background()
	id, err := m.Submit(ctx, 1, "http://e.com/a", "t", 0)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitUntil(t, func() bool { return len(ft.startedSources()) == 1 })

	if err := m.Cancel(ctx, id); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	rec, err := m.Status(id)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if rec.Status != model.DownloadCancelled {
		t.Fatalf("status %s, want %s", rec.Status, model.DownloadCancelled)
	}
	if err := m.Cancel(ctx, id); !apperr.IsInvalidTransition(err) {
		t.Fatalf("second cancel: got %v, want invalid transition", err)
	}
}

func TestCancelFreesSlot(t *testing.T) {
	ft := &fakeTransfer{release: make(chan struct{})}
	m := NewManager(ManagerOptions{MaxConcurrent: 1, Transfer: ft})
	defer m.Close()

	ctx := context.Background()
	first, err := m.Submit(ctx, 1, "http://e.com/a", "t", 0)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitUntil(t, func() bool { return len(ft.startedSources()) == 1 })
	if _, err := m.Submit(ctx, 2, "http://e.com/b", "t", 0); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := m.Cancel(ctx, first); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	waitUntil(t, func() bool { return len(ft.startedSources()) == 2 })
}

func TestRetryFailedTask(t *testing.T) {
	ft := &fakeTransfer{err: errors.New("connection reset")}
	m := NewManager(ManagerOptions{MaxConcurrent: 1, Transfer: ft})
	defer m.Close()

	ctx := context.Background()
	id, err := m.Submit(ctx, 1, "http://e.com/a", "t", 0)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitUntil(t, func() bool {
		rec, err := m.Status(id)
		return err == nil && rec.Status == model.DownloadFailed
	})
	rec, _ := m.Status(id)
	if rec.ErrorMsg == "" {
		t.Fatalf("expected error message on failed task")
	}

	newID, err := m.Retry(ctx, id)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if newID == id {
		t.Fatalf("retry must produce a new task id")
	}
	retried, err := m.Status(newID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if retried.RetryCount != 1 {
		t.Fatalf("retry count %d, want 1", retried.RetryCount)
	}
	if retried.RetryOf != id {
		t.Fatalf("retry_of %q, want %q", retried.RetryOf, id)
	}

}

func TestRetryRejectsNonFailedTask(t *testing.T) {
	ft := &fakeTransfer{release: make(chan struct{})}
	m := NewManager(ManagerOptions{MaxConcurrent: 1, Transfer: ft})
	defer m.Close()

	ctx := context.Background()
	id, err := m.Submit(ctx, 1, "http://e.com/a", "t", 0)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitUntil(t, func() bool { return len(ft.startedSources()) == 1 })
	if _, err := m.Retry(ctx, id); !apperr.IsInvalidTransition(err) {
		t.Fatalf("retry of downloading task: got %v, want invalid transition", err)
	}
	close(ft.release)
}

func TestPauseAllAndResumeAll(t *testing.T) {
	ft := &fakeTransfer{release: make(chan struct{})}
	m := NewManager(ManagerOptions{MaxConcurrent: 2, Transfer: ft})
	defer m.Close()

	ctx := context.Background()
	for i := 1; i <= 2; i++ {
		if _, err := m.Submit(ctx, uint64(i), "http://e.com/a", "t", 0); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	waitUntil(t, func() bool { return len(ft.startedSources()) == 2 })

	if got := m.PauseAll(ctx); got != 2 {
		t.Fatalf("paused %d, want 2", got)
	}
	if got := countByStatus(m, model.DownloadPaused); got != 2 {
		t.Fatalf("expected 2 paused, got %d", got)
	}

	// Admission is held while paused.
	if _, err := m.Submit(ctx, 3, "http://e.com/c", "t", 0); err != nil {
		t.Fatalf("submit: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if got := len(ft.startedSources()); got != 2 {
		t.Fatalf("transfer started while paused, %d starts", got)
	}

	if got := m.ResumeAll(ctx); got != 2 {
		t.Fatalf("resumed %d, want 2", got)
	}
	waitUntil(t, func() bool { return countByStatus(m, model.DownloadDownloading) == 2 })
	close(ft.release)
	waitUntil(t, func() bool { return countByStatus(m, model.DownloadCompleted) == 3 })
}

func TestClearCompletedKeepsFailed(t *testing.T) {
	ft := &fakeTransfer{}
	store := NewMemoryTaskStore()
	m := NewManager(ManagerOptions{MaxConcurrent: 2, Transfer: ft, Store: store})
	defer m.Close()

	ctx := context.Background()
	okID, err := m.Submit(ctx, 1, "http://e.com/ok", "t", 0)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitUntil(t, func() bool {
		rec, err := m.Status(okID)
		return err == nil && rec.Status == model.DownloadCompleted
	})

	ft.err = errors.New("boom")
	badID, err := m.Submit(ctx, 2, "http://e.com/bad", "t", 0)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitUntil(t, func() bool {
		rec, err := m.Status(badID)
		return err == nil && rec.Status == model.DownloadFailed
	})

	if got := m.ClearCompleted(); got != 1 {
		t.Fatalf("cleared %d, want 1", got)
	}
	if _, err := m.Status(okID); !apperr.IsNotFound(err) {
		t.Fatalf("completed task still retained: %v", err)
	}
	if _, err := m.Status(badID); err != nil {
		t.Fatalf("failed task must stay retryable: %v", err)
	}
	// History survives clearing for the analytics views.
	records, err := store.ListSince(ctx, time.Time{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("persisted history %d records, want 2", len(records))
	}
}

func TestSubmitBatchPartialFailure(t *testing.T) {
	m := NewManager(ManagerOptions{Transfer: &fakeTransfer{}})
	defer m.Close()

	results := m.SubmitBatch(context.Background(), []BatchItem{
		{MovieID: 1, Source: "http://e.com/a", Title: "A"},
		{MovieID: 0, Source: "http://e.com/b", Title: "B"},
		{MovieID: 3, Source: "http://e.com/c", Title: "C"},
	}, 0)
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].TaskID == "" || results[0].Error != "" {
		t.Fatalf("first item should succeed: %+v", results[0])
	}
	if results[1].Error == "" {
		t.Fatalf("second item should fail validation")
	}
	if results[2].TaskID == "" {
		t.Fatalf("third item should succeed despite earlier failure")
	}
}

func TestSubmitWithKeyIsIdempotent(t *testing.T) {
	ft := &fakeTransfer{release: make(chan struct{})}
	m := NewManager(ManagerOptions{MaxConcurrent: 1, Transfer: ft})
	defer m.Close()

	ctx := context.Background()
	id1, err := m.SubmitWithKey(ctx, "sched-1", 1, "http://e.com/a", "t", 0, nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	id2, err := m.SubmitWithKey(ctx, "sched-1", 1, "http://e.com/a", "t", 0, nil)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("idempotent submit returned %q then %q", id1, id2)
	}
	if got := len(m.ListAll()); got != 1 {
		t.Fatalf("expected a single task, got %d", got)
	}
	close(ft.release)
}

type fixedMonitor struct {
	mem, disk float64
}

func (f fixedMonitor) FreeMemoryFraction() (float64, error) { return f.mem, nil }
func (f fixedMonitor) FreeDiskFraction() (float64, error)   { return f.disk, nil }

func TestOptimizeQueue(t *testing.T) {
	cases := []struct {
		mem, disk float64
		want      int
	}{
		{0.6, 0.4, 5},
		{0.5, 0.3, 5},
		{0.3, 0.2, 3},
		{0.1, 0.05, 2},
	}
	for _, c := range cases {
		m := NewManager(ManagerOptions{Transfer: &fakeTransfer{}, Monitor: fixedMonitor{c.mem, c.disk}})
		got, err := m.OptimizeQueue()
		if err != nil {
			t.Fatalf("optimize: %v", err)
		}
		if got != c.want {
			t.Fatalf("mem=%.2f disk=%.2f: cap %d, want %d", c.mem, c.disk, got, c.want)
		}
		if m.MaxConcurrent() != c.want {
			t.Fatalf("cap not applied")
		}
		m.Close()
	}
}

func TestSetPriorityReordersQueue(t *testing.T) {
	ft := &fakeTransfer{release: make(chan struct{}, 3)}
	m := NewManager(ManagerOptions{MaxConcurrent: 1, Transfer: ft})
	defer m.Close()

	ctx := context.Background()
	if _, err := m.Submit(ctx, 1, "http://e.com/a", "t", 1); err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitUntil(t, func() bool { return len(ft.startedSources()) == 1 })
	if _, err := m.Submit(ctx, 2, "http://e.com/b", "t", 1); err != nil {
		t.Fatalf("submit: %v", err)
	}
	late, err := m.Submit(ctx, 3, "http://e.com/c", "t", 1)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := m.SetPriority(ctx, late, 9); err != nil {
		t.Fatalf("set priority: %v", err)
	}

	ft.release <- struct{}{}
	waitUntil(t, func() bool { return len(ft.startedSources()) == 2 })
	if got := ft.startedSources()[1]; got != "http://e.com/c" {
		t.Fatalf("promoted task not dispatched first, got %s", got)
	}
	ft.release <- struct{}{}
	ft.release <- struct{}{}
}

func TestRestoreRequeuesLiveTasks(t *testing.T) {
	store := NewMemoryTaskStore()
	ctx := context.Background()
	started := time.Now().Add(-time.Minute)
	for _, rec := range []model.DownloadTask{
		{ID: "a", MovieID: 1, Source: "http://e.com/a", Title: "t", Status: model.DownloadDownloading, CreatedAt: started, StartedAt: &started},
		{ID: "b", MovieID: 2, Source: "http://e.com/b", Title: "t", Status: model.DownloadCompleted, CreatedAt: started},
	} {
		rec := rec
		if err := store.Save(ctx, &rec); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	ft := &fakeTransfer{release: make(chan struct{})}
	m := NewManager(ManagerOptions{MaxConcurrent: 1, Transfer: ft, Store: store})
	defer m.Close()
	if err := m.Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}

	waitUntil(t, func() bool { return len(ft.startedSources()) == 1 })
	if got := ft.startedSources()[0]; got != "http://e.com/a" {
		t.Fatalf("restored dispatch %s, want the interrupted task", got)
	}
	rec, err := m.Status("b")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if rec.Status != model.DownloadCompleted {
		t.Fatalf("completed task must stay completed, got %s", rec.Status)
	}
	close(ft.release)
}
