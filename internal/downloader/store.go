package downloader

import (
	"CineVault/model"
	"context"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TaskStore persists download task records. The manager writes through
// on every transition; analytics read the retained history.
type TaskStore interface {
	Save(ctx context.Context, task *model.DownloadTask) error
	ListSince(ctx context.Context, since time.Time) ([]model.DownloadTask, error)
}

// GormTaskStore stores task records in MySQL.
type GormTaskStore struct {
	db *gorm.DB
}

// NewGormTaskStore builds a TaskStore on a gorm handle.
func NewGormTaskStore(db *gorm.DB) *GormTaskStore {
	return &GormTaskStore{db: db}
}

// Save upserts a task record by id.
func (s *GormTaskStore) Save(ctx context.Context, task *model.DownloadTask) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(task).Error
}

// ListSince returns task records created at or after since, oldest first.
func (s *GormTaskStore) ListSince(ctx context.Context, since time.Time) ([]model.DownloadTask, error) {
	var tasks []model.DownloadTask
	query := s.db.WithContext(ctx).Model(&model.DownloadTask{})
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since)
	}
	err := query.Order("created_at ASC").Find(&tasks).Error
	return tasks, err
}

// MemoryTaskStore keeps task records in memory. Used by tests and as
// the fallback when no database is wired.
type MemoryTaskStore struct {
	mu    sync.Mutex
	tasks map[string]model.DownloadTask
}

// NewMemoryTaskStore builds an empty in-memory store.
func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{tasks: make(map[string]model.DownloadTask)}
}

// Save upserts a task record by id.
func (s *MemoryTaskStore) Save(_ context.Context, task *model.DownloadTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = *task
	return nil
}

// ListSince returns task records created at or after since, oldest first.
func (s *MemoryTaskStore) ListSince(_ context.Context, since time.Time) ([]model.DownloadTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.DownloadTask, 0, len(s.tasks))
	for _, rec := range s.tasks {
		if !since.IsZero() && rec.CreatedAt.Before(since) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
