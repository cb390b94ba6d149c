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

// MovieResolver looks up the download source for a movie when a
// schedule entry is dispatched.
type MovieResolver interface {
	ResolveDownload(ctx context.Context, movieID uint64) (source, title string, err error)
}

// ScheduleStore persists pending schedule entries.
type ScheduleStore interface {
	Save(ctx context.Context, entry *model.ScheduledDownload) error
	Delete(ctx context.Context, id string) error
	ListAll(ctx context.Context) ([]model.ScheduledDownload, error)
}

// Scheduler holds future-dated download requests and promotes them into
// the task manager when their time arrives.
type Scheduler struct {
	mu      sync.Mutex
	entries map[string]*model.ScheduledDownload

	manager  *Manager
	resolver MovieResolver
	store    ScheduleStore

	interval time.Duration
	spacing  time.Duration
	clock    func() time.Time
	publish  EventFunc
}

// SchedulerOptions configures a Scheduler.
type SchedulerOptions struct {
	Manager  *Manager
	Resolver MovieResolver
	Store    ScheduleStore
	// Interval between background scans.
	Interval time.Duration
	// Spacing is the minimum inter-download interval used by
	// OptimalSchedule.
	Spacing time.Duration
	Publish EventFunc
	Clock   func() time.Time
}

// NewScheduler builds a download scheduler.
func NewScheduler(opts SchedulerOptions) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}
	if opts.Spacing <= 0 {
		opts.Spacing = 30 * time.Minute
	}
	if opts.Store == nil {
		opts.Store = NewMemoryScheduleStore()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Scheduler{
		entries:  make(map[string]*model.ScheduledDownload),
		manager:  opts.Manager,
		resolver: opts.Resolver,
		store:    opts.Store,
		interval: opts.Interval,
		spacing:  opts.Spacing,
		publish:  opts.Publish,
		clock:    opts.Clock,
	}
}

// Schedule registers a future download. Times in the past are rejected;
// callers wanting an immediate download should submit to the manager
// directly.
func (s *Scheduler) Schedule(ctx context.Context, movieID uint64, at time.Time, priority int, bandwidthLimit *int64) (string, error) {
	if movieID == 0 {
		return "", apperr.Validation("movie id required")
	}
	if at.Before(s.clock()) {
		return "", apperr.Validation("scheduled time is in the past")
	}
	entry := &model.ScheduledDownload{
		ID:             uuid.NewString(),
		MovieID:        movieID,
		ScheduledAt:    at,
		Priority:       priority,
		BandwidthLimit: bandwidthLimit,
		CreatedAt:      s.clock(),
	}
	if err := s.store.Save(ctx, entry); err != nil {
		return "", apperr.Storage(err)
	}
	s.mu.Lock()
	s.entries[entry.ID] = entry
	s.mu.Unlock()

	s.emit("download_scheduled", model.SeverityLow, map[string]interface{}{
		"schedule_id": entry.ID, "movie_id": movieID, "scheduled_at": at,
	})
	return entry.ID, nil
}

// Cancel removes a pending entry. Entries already dispatched are gone
// from the pending set, so they report NotFound.
func (s *Scheduler) Cancel(ctx context.Context, scheduleID string) error {
	s.mu.Lock()
	_, ok := s.entries[scheduleID]
	s.mu.Unlock()
	if !ok {
		return apperr.NotFound("schedule %s not found", scheduleID)
	}
	// Store first: if the delete fails the entry stays pending, so the
	// caller is never told about a cancellation a restart would undo.
	if err := s.store.Delete(ctx, scheduleID); err != nil {
		return apperr.Storage(err)
	}
	s.mu.Lock()
	delete(s.entries, scheduleID)
	s.mu.Unlock()
	s.emit("schedule_cancelled", model.SeverityLow, map[string]interface{}{"schedule_id": scheduleID})
	return nil
}

// Reschedule moves a pending entry to a new time, subject to the same
// past-time rule as Schedule.
func (s *Scheduler) Reschedule(ctx context.Context, scheduleID string, newTime time.Time) error {
	if newTime.Before(s.clock()) {
		return apperr.Validation("scheduled time is in the past")
	}
	s.mu.Lock()
	entry, ok := s.entries[scheduleID]
	if !ok {
		s.mu.Unlock()
		return apperr.NotFound("schedule %s not found", scheduleID)
	}
	prev := entry.ScheduledAt
	entry.ScheduledAt = newTime
	if err := s.store.Save(ctx, entry); err != nil {
		entry.ScheduledAt = prev
		s.mu.Unlock()
		return apperr.Storage(err)
	}
	s.mu.Unlock()
	return nil
}

// ListPending returns pending entries ordered by scheduled time.
func (s *Scheduler) ListPending() []model.ScheduledDownload {
	s.mu.Lock()
	out := make([]model.ScheduledDownload, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, *entry)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].ScheduledAt.Equal(out[j].ScheduledAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].ScheduledAt.Before(out[j].ScheduledAt)
	})
	return out
}

// Candidate is one batch-schedule request.
type Candidate struct {
	MovieID  uint64 `json:"movie_id"`
	Priority int    `json:"priority"`
}

// Assignment pairs a movie with its assigned start time.
type Assignment struct {
	MovieID     uint64    `json:"movie_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

// OptimalSchedule assigns start times to a batch of candidates. This is
// a greedy list-scheduling heuristic, not a mathematical optimizer:
// candidates are sorted by descending priority (stable on ties), then
// placed in waves of at most maxConcurrent per instant, each wave
// spaced by the configured minimum inter-download interval. The result
// is deterministic for a given input and start time.
func (s *Scheduler) OptimalSchedule(start time.Time, candidates []Candidate) []Assignment {
	ordered := make([]Candidate, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	perWave := 1
	if s.manager != nil {
		perWave = s.manager.MaxConcurrent()
	}
	if perWave < 1 {
		perWave = 1
	}

	out := make([]Assignment, len(ordered))
	for i, c := range ordered {
		wave := i / perWave
		out[i] = Assignment{
			MovieID:     c.MovieID,
			ScheduledAt: start.Add(time.Duration(wave) * s.spacing),
		}
	}
	return out
}

// Run scans pending entries on a fixed interval until ctx is cancelled.
// Scan errors are logged and retried on the next tick, never fatal.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.scanOnce(ctx, s.clock())
		}
	}
}

// Restore reloads pending entries from the store after a restart.
func (s *Scheduler) Restore(ctx context.Context) error {
	entries, err := s.store.ListAll(ctx)
	if err != nil {
		return apperr.Storage(err)
	}
	s.mu.Lock()
	for i := range entries {
		entry := entries[i]
		if _, ok := s.entries[entry.ID]; !ok {
			s.entries[entry.ID] = &entry
		}
	}
	s.mu.Unlock()
	return nil
}

// scanOnce dispatches every due entry. The schedule id doubles as the
// task id, so a crash between submit and removal cannot dispatch twice:
// the next scan finds the task already present and just drops the entry.
func (s *Scheduler) scanOnce(ctx context.Context, now time.Time) {
	s.mu.Lock()
	due := make([]model.ScheduledDownload, 0)
	for _, entry := range s.entries {
		if !entry.ScheduledAt.After(now) {
			due = append(due, *entry)
		}
	}
	s.mu.Unlock()
	sort.Slice(due, func(i, j int) bool {
		if due[i].ScheduledAt.Equal(due[j].ScheduledAt) {
			return due[i].Priority > due[j].Priority
		}
		return due[i].ScheduledAt.Before(due[j].ScheduledAt)
	})

	for _, entry := range due {
		if err := s.dispatch(ctx, entry); err != nil {
			log.Printf("scheduler: dispatch of %s failed, will retry: %v", entry.ID, err)
		}
	}
}

func (s *Scheduler) dispatch(ctx context.Context, entry model.ScheduledDownload) error {
	if s.manager.Has(entry.ID) {
		// Dispatched on a previous scan; only the removal is left.
		return s.remove(ctx, entry.ID)
	}
	source, title, err := s.resolver.ResolveDownload(ctx, entry.MovieID)
	if err != nil {
		return err
	}
	if _, err := s.manager.SubmitWithKey(ctx, entry.ID, entry.MovieID, source, title, entry.Priority, entry.BandwidthLimit); err != nil {
		return err
	}
	if err := s.remove(ctx, entry.ID); err != nil {
		return err
	}
	s.emit("schedule_dispatched", model.SeverityLow, map[string]interface{}{
		"schedule_id": entry.ID, "movie_id": entry.MovieID,
	})
	return nil
}

func (s *Scheduler) remove(ctx context.Context, scheduleID string) error {
	// Same order as Cancel: a failed store delete keeps the entry pending
	// for the next scan instead of leaving memory and store split.
	if err := s.store.Delete(ctx, scheduleID); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.entries, scheduleID)
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) emit(eventType, severity string, detail map[string]interface{}) {
	if s.publish == nil {
		return
	}
	s.publish(eventType, severity, detail)
}
