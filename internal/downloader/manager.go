package downloader

import (
	"CineVault/internal/apperr"
	"CineVault/model"
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Transfer executes one media transfer. Implementations must stop
// promptly when ctx is cancelled and report progress between chunks.
type Transfer interface {
	Fetch(ctx context.Context, req TransferRequest) (int64, error)
}

// TransferRequest describes a single fetch handed to the executor.
type TransferRequest struct {
	Source string
	Object string
	// Bandwidth in bytes per second; nil means unlimited.
	Bandwidth *int64
	// Progress receives (bytesDone, bytesTotal); bytesTotal is 0 when
	// the source does not announce a length.
	Progress func(done, total int64)
}

// EventFunc receives task lifecycle events for the audit pipeline.
type EventFunc func(eventType, severity string, detail map[string]interface{})

// task wraps the persisted record with runtime-only state.
type task struct {
	rec       model.DownloadTask
	seq       uint64
	bandwidth *int64
	cancel    context.CancelFunc
}

// Manager owns every download task in the process. All mutating calls
// serialize on one mutex; reads return deep copies. The number of tasks
// in the downloading state never exceeds the concurrency cap.
type Manager struct {
	mu              sync.Mutex
	tasks           map[string]*task
	seq             uint64
	maxConcurrent   int
	active          int
	paused          bool
	closed          bool
	dispatchPending bool

	transfer   Transfer
	store      TaskStore
	monitor    ResourceMonitor
	policy     CapacityPolicy
	publish    EventFunc
	clock      func() time.Time
	admitDelay time.Duration
}

// ManagerOptions configures a Manager. Transfer and Store are required;
// the rest have defaults.
type ManagerOptions struct {
	MaxConcurrent int
	Transfer      Transfer
	Store         TaskStore
	Monitor       ResourceMonitor
	Policy        CapacityPolicy
	Publish       EventFunc
	Clock         func() time.Time
	// AdmitDelay is how long admission waits after a queue change, so a
	// burst of submissions is ranked by priority as a whole instead of
	// starting in arrival order.
	AdmitDelay time.Duration
}

// NewManager builds a download task manager.
func NewManager(opts ManagerOptions) *Manager {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 3
	}
	if opts.AdmitDelay <= 0 {
		opts.AdmitDelay = 50 * time.Millisecond
	}
	if opts.Store == nil {
		opts.Store = NewMemoryTaskStore()
	}
	if opts.Policy == nil {
		opts.Policy = DefaultCapacityPolicy
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Manager{
		tasks:         make(map[string]*task),
		maxConcurrent: opts.MaxConcurrent,
		transfer:      opts.Transfer,
		store:         opts.Store,
		monitor:       opts.Monitor,
		policy:        opts.Policy,
		publish:       opts.Publish,
		clock:         opts.Clock,
		admitDelay:    opts.AdmitDelay,
	}
}

// MaxConcurrent returns the current concurrency cap.
func (m *Manager) MaxConcurrent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxConcurrent
}

// Has reports whether a task with the given id is retained.
func (m *Manager) Has(taskID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tasks[taskID]
	return ok
}

// Submit validates and enqueues a download task, returning its id.
func (m *Manager) Submit(ctx context.Context, movieID uint64, source, title string, priority int) (string, error) {
	return m.SubmitWithKey(ctx, uuid.NewString(), movieID, source, title, priority, nil)
}

// SubmitWithKey enqueues a task under a caller-chosen id. The scheduler
// uses the schedule id here so a dispatch retried after a crash cannot
// create a duplicate task.
func (m *Manager) SubmitWithKey(ctx context.Context, taskID string, movieID uint64, source, title string, priority int, bandwidth *int64) (string, error) {
	if movieID == 0 {
		return "", apperr.Validation("movie id required")
	}
	if source == "" {
		return "", apperr.Validation("source url required")
	}
	if title == "" {
		return "", apperr.Validation("title required")
	}

	m.mu.Lock()
	if existing, ok := m.tasks[taskID]; ok {
		id := existing.rec.ID
		m.mu.Unlock()
		return id, nil
	}
	m.seq++
	t := &task{
		rec: model.DownloadTask{
			ID:        taskID,
			MovieID:   movieID,
			Source:    source,
			Title:     title,
			Status:    model.DownloadQueued,
			Priority:  priority,
			CreatedAt: m.clock(),
		},
		seq:       m.seq,
		bandwidth: bandwidth,
	}
	if err := m.store.Save(ctx, &t.rec); err != nil {
		m.mu.Unlock()
		return "", apperr.Storage(err)
	}
	m.tasks[taskID] = t
	m.scheduleDispatchLocked()
	m.mu.Unlock()

	m.emit("download_submitted", model.SeverityLow, map[string]interface{}{
		"task_id": taskID, "movie_id": movieID, "title": title,
	})
	return taskID, nil
}

// BatchItem is one entry of a batch submission.
type BatchItem struct {
	MovieID uint64 `json:"movie_id"`
	Source  string `json:"url"`
	Title   string `json:"title"`
}

// BatchResult reports the outcome of one batch entry.
type BatchResult struct {
	TaskID string `json:"task_id,omitempty"`
	Error  string `json:"error,omitempty"`
}

// SubmitBatch enqueues each valid item and reports invalid ones without
// failing the batch.
func (m *Manager) SubmitBatch(ctx context.Context, items []BatchItem, priority int) []BatchResult {
	results := make([]BatchResult, len(items))
	for i, item := range items {
		id, err := m.Submit(ctx, item.MovieID, item.Source, item.Title, priority)
		if err != nil {
			results[i] = BatchResult{Error: err.Error()}
			continue
		}
		results[i] = BatchResult{TaskID: id}
	}
	return results
}

// Status returns a copy of the task, or NotFound.
func (m *Manager) Status(taskID string) (model.DownloadTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok {
		return model.DownloadTask{}, apperr.NotFound("task %s not found", taskID)
	}
	return t.rec, nil
}

// ListAll returns a snapshot of every retained task in creation order.
func (m *Manager) ListAll() []model.DownloadTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.DownloadTask, 0, len(m.tasks))
	ordered := make([]*task, 0, len(m.tasks))
	for _, t := range m.tasks {
		ordered = append(ordered, t)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].seq < ordered[j].seq })
	for _, t := range ordered {
		out = append(out, t.rec)
	}
	return out
}

// Cancel stops a queued, downloading or paused task.
func (m *Manager) Cancel(ctx context.Context, taskID string) error {
	m.mu.Lock()
	t, ok := m.tasks[taskID]
	if !ok {
		m.mu.Unlock()
		return apperr.NotFound("task %s not found", taskID)
	}
	switch t.rec.Status {
	case model.DownloadQueued, model.DownloadDownloading, model.DownloadPaused:
	default:
		status := t.rec.Status
		m.mu.Unlock()
		return apperr.InvalidTransition("cannot cancel task in state %s", status)
	}

	prev := t.rec
	wasDownloading := t.rec.Status == model.DownloadDownloading
	now := m.clock()
	t.rec.Status = model.DownloadCancelled
	t.rec.FinishedAt = &now
	if err := m.store.Save(ctx, &t.rec); err != nil {
		t.rec = prev
		m.mu.Unlock()
		return apperr.Storage(err)
	}
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	if wasDownloading {
		m.active--
		m.scheduleDispatchLocked()
	}
	m.mu.Unlock()

	m.emit("download_cancelled", model.SeverityLow, map[string]interface{}{"task_id": taskID})
	return nil
}

// Retry re-queues a failed task as a new one. The new task references
// the original and carries retry count + 1.
func (m *Manager) Retry(ctx context.Context, taskID string) (string, error) {
	m.mu.Lock()
	orig, ok := m.tasks[taskID]
	if !ok {
		m.mu.Unlock()
		return "", apperr.NotFound("task %s not found", taskID)
	}
	if orig.rec.Status != model.DownloadFailed {
		status := orig.rec.Status
		m.mu.Unlock()
		return "", apperr.InvalidTransition("only failed tasks can be retried, task is %s", status)
	}
	m.seq++
	t := &task{
		rec: model.DownloadTask{
			ID:         uuid.NewString(),
			MovieID:    orig.rec.MovieID,
			Source:     orig.rec.Source,
			Title:      orig.rec.Title,
			Status:     model.DownloadQueued,
			Priority:   orig.rec.Priority,
			RetryCount: orig.rec.RetryCount + 1,
			RetryOf:    orig.rec.ID,
			CreatedAt:  m.clock(),
		},
		seq:       m.seq,
		bandwidth: orig.bandwidth,
	}
	if err := m.store.Save(ctx, &t.rec); err != nil {
		m.mu.Unlock()
		return "", apperr.Storage(err)
	}
	m.tasks[t.rec.ID] = t
	newID := t.rec.ID
	m.scheduleDispatchLocked()
	m.mu.Unlock()

	m.emit("download_retried", model.SeverityLow, map[string]interface{}{
		"task_id": newID, "retry_of": taskID,
	})
	return newID, nil
}

// PauseAll moves every downloading task to paused and holds admission
// until ResumeAll.
func (m *Manager) PauseAll(ctx context.Context) int {
	m.mu.Lock()
	m.paused = true
	count := 0
	for _, t := range m.tasks {
		if t.rec.Status != model.DownloadDownloading {
			continue
		}
		t.rec.Status = model.DownloadPaused
		if t.cancel != nil {
			t.cancel()
			t.cancel = nil
		}
		m.active--
		count++
		if err := m.store.Save(ctx, &t.rec); err != nil {
			log.Printf("download manager: persist pause of %s failed: %v", t.rec.ID, err)
		}
	}
	m.mu.Unlock()

	m.emit("downloads_paused", model.SeverityLow, map[string]interface{}{"count": count})
	return count
}

// ResumeAll re-queues paused tasks and reopens admission. Tasks above
// the concurrency cap stay queued until a slot frees.
func (m *Manager) ResumeAll(ctx context.Context) int {
	m.mu.Lock()
	m.paused = false
	count := 0
	for _, t := range m.tasks {
		if t.rec.Status != model.DownloadPaused {
			continue
		}
		t.rec.Status = model.DownloadQueued
		count++
		if err := m.store.Save(ctx, &t.rec); err != nil {
			log.Printf("download manager: persist resume of %s failed: %v", t.rec.ID, err)
		}
	}
	m.scheduleDispatchLocked()
	m.mu.Unlock()

	m.emit("downloads_resumed", model.SeverityLow, map[string]interface{}{"count": count})
	return count
}

// ClearCompleted drops completed and cancelled tasks from the retained
// set and returns how many were removed. Failed tasks stay so they can
// be retried; persisted history is untouched for analytics.
func (m *Manager) ClearCompleted() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for id, t := range m.tasks {
		switch t.rec.Status {
		case model.DownloadCompleted, model.DownloadCancelled:
			delete(m.tasks, id)
			count++
		}
	}
	return count
}

// SetPriority changes the priority of a non-terminal task and re-ranks
// the queue.
func (m *Manager) SetPriority(ctx context.Context, taskID string, priority int) error {
	m.mu.Lock()
	t, ok := m.tasks[taskID]
	if !ok {
		m.mu.Unlock()
		return apperr.NotFound("task %s not found", taskID)
	}
	if model.DownloadTerminal(t.rec.Status) {
		status := t.rec.Status
		m.mu.Unlock()
		return apperr.InvalidTransition("cannot reprioritize task in state %s", status)
	}
	prev := t.rec.Priority
	t.rec.Priority = priority
	if err := m.store.Save(ctx, &t.rec); err != nil {
		t.rec.Priority = prev
		m.mu.Unlock()
		return apperr.Storage(err)
	}
	m.scheduleDispatchLocked()
	m.mu.Unlock()
	return nil
}

// OptimizeQueue recomputes the concurrency cap from current resource
// pressure and returns the new cap.
func (m *Manager) OptimizeQueue() (int, error) {
	if m.monitor == nil {
		return m.MaxConcurrent(), nil
	}
	freeMem, err := m.monitor.FreeMemoryFraction()
	if err != nil {
		return 0, err
	}
	freeDisk, err := m.monitor.FreeDiskFraction()
	if err != nil {
		return 0, err
	}
	limit := m.policy.Concurrency(freeMem, freeDisk)

	m.mu.Lock()
	m.maxConcurrent = limit
	m.scheduleDispatchLocked()
	m.mu.Unlock()
	return limit, nil
}

// Restore loads persisted tasks into memory after a restart. Tasks that
// were live when the process died go back to queued.
func (m *Manager) Restore(ctx context.Context) error {
	records, err := m.store.ListSince(ctx, time.Time{})
	if err != nil {
		return apperr.Storage(err)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAt.Before(records[j].CreatedAt) })

	m.mu.Lock()
	for _, rec := range records {
		if _, ok := m.tasks[rec.ID]; ok {
			continue
		}
		switch rec.Status {
		case model.DownloadDownloading, model.DownloadPaused:
			rec.Status = model.DownloadQueued
		}
		m.seq++
		m.tasks[rec.ID] = &task{rec: rec, seq: m.seq}
	}
	m.scheduleDispatchLocked()
	m.mu.Unlock()
	return nil
}

// Close cancels every in-flight transfer and stops further admission.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	for _, t := range m.tasks {
		if t.cancel != nil {
			t.cancel()
			t.cancel = nil
		}
	}
}

// scheduleDispatchLocked arms one admission pass admitDelay from now,
// coalescing further queue changes into it. Deferring admission lets a
// burst of submissions compete on priority before anything starts.
// Callers must hold m.mu.
func (m *Manager) scheduleDispatchLocked() {
	if m.dispatchPending || m.closed {
		return
	}
	m.dispatchPending = true
	time.AfterFunc(m.admitDelay, func() {
		m.mu.Lock()
		m.dispatchPending = false
		m.dispatchLocked()
		m.mu.Unlock()
	})
}

// dispatchLocked admits queued tasks into downloading while slots are
// free, highest priority first, FIFO within equal priority. Callers must
// hold m.mu. The transfer itself runs outside the lock.
func (m *Manager) dispatchLocked() {
	if m.paused || m.closed || m.transfer == nil {
		return
	}
	for m.active < m.maxConcurrent {
		next := m.nextQueuedLocked()
		if next == nil {
			return
		}
		now := m.clock()
		next.rec.Status = model.DownloadDownloading
		next.rec.StartedAt = &now
		ctx, cancel := context.WithCancel(context.Background())
		next.cancel = cancel
		m.active++
		if err := m.store.Save(ctx, &next.rec); err != nil {
			log.Printf("download manager: persist start of %s failed: %v", next.rec.ID, err)
		}
		req := TransferRequest{
			Source:    next.rec.Source,
			Object:    objectName(next.rec),
			Bandwidth: next.bandwidth,
			Progress:  m.progressFunc(next.rec.ID),
		}
		go func(ctx context.Context, cancel context.CancelFunc, taskID string, req TransferRequest) {
			defer cancel()
			m.runTransfer(ctx, taskID, req)
		}(ctx, cancel, next.rec.ID, req)
	}
}

func (m *Manager) nextQueuedLocked() *task {
	var best *task
	for _, t := range m.tasks {
		if t.rec.Status != model.DownloadQueued {
			continue
		}
		if best == nil ||
			t.rec.Priority > best.rec.Priority ||
			(t.rec.Priority == best.rec.Priority && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

// runTransfer drives one fetch to completion and commits the terminal
// transition. Pause and cancel win over the transfer outcome.
func (m *Manager) runTransfer(ctx context.Context, taskID string, req TransferRequest) {
	size, err := m.transfer.Fetch(ctx, req)

	m.mu.Lock()
	t, ok := m.tasks[taskID]
	if !ok || t.rec.Status != model.DownloadDownloading {
		// Cancelled, paused or cleared while the fetch was running; the
		// slot was already released by that transition.
		m.mu.Unlock()
		return
	}
	now := m.clock()
	t.cancel = nil
	m.active--
	var event string
	var severity string
	if err != nil {
		t.rec.Status = model.DownloadFailed
		t.rec.ErrorMsg = err.Error()
		t.rec.FinishedAt = &now
		event, severity = "download_failed", model.SeverityMedium
	} else {
		t.rec.Status = model.DownloadCompleted
		t.rec.FinishedAt = &now
		if size > 0 {
			t.rec.BytesTotal = size
			t.rec.BytesDone = size
		}
		event, severity = "download_completed", model.SeverityLow
	}
	if saveErr := m.store.Save(ctx, &t.rec); saveErr != nil {
		log.Printf("download manager: persist finish of %s failed: %v", taskID, saveErr)
	}
	detail := map[string]interface{}{"task_id": taskID, "movie_id": t.rec.MovieID}
	if err != nil {
		detail["error"] = err.Error()
	}
	m.scheduleDispatchLocked()
	m.mu.Unlock()

	m.emit(event, severity, detail)
}

// progressFunc returns a callback updating byte counters for one task.
func (m *Manager) progressFunc(taskID string) func(done, total int64) {
	return func(done, total int64) {
		m.mu.Lock()
		if t, ok := m.tasks[taskID]; ok && t.rec.Status == model.DownloadDownloading {
			t.rec.BytesDone = done
			if total > 0 {
				t.rec.BytesTotal = total
			}
			// Sources sometimes under-report Content-Length; keep the
			// total at least as large as what already arrived.
			if t.rec.BytesTotal > 0 && t.rec.BytesDone > t.rec.BytesTotal {
				t.rec.BytesTotal = t.rec.BytesDone
			}
		}
		m.mu.Unlock()
	}
}

func (m *Manager) emit(eventType, severity string, detail map[string]interface{}) {
	if m.publish == nil {
		return
	}
	m.publish(eventType, severity, detail)
}

// objectName derives the bucket object name for a task's media file.
func objectName(rec model.DownloadTask) string {
	return "media/" + rec.ID
}
