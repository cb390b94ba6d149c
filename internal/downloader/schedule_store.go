package downloader

import (
	"CineVault/model"
	"context"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormScheduleStore stores pending schedule entries in MySQL.
type GormScheduleStore struct {
	db *gorm.DB
}

// NewGormScheduleStore builds a ScheduleStore on a gorm handle.
func NewGormScheduleStore(db *gorm.DB) *GormScheduleStore {
	return &GormScheduleStore{db: db}
}

// Save upserts a schedule entry by id.
func (s *GormScheduleStore) Save(ctx context.Context, entry *model.ScheduledDownload) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(entry).Error
}

// Delete removes a schedule entry.
func (s *GormScheduleStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&model.ScheduledDownload{}, "id = ?", id).Error
}

// ListAll returns every pending entry.
func (s *GormScheduleStore) ListAll(ctx context.Context) ([]model.ScheduledDownload, error) {
	var entries []model.ScheduledDownload
	err := s.db.WithContext(ctx).Order("scheduled_at ASC").Find(&entries).Error
	return entries, err
}

// MemoryScheduleStore keeps schedule entries in memory for tests.
type MemoryScheduleStore struct {
	mu      sync.Mutex
	entries map[string]model.ScheduledDownload
}

// NewMemoryScheduleStore builds an empty in-memory schedule store.
func NewMemoryScheduleStore() *MemoryScheduleStore {
	return &MemoryScheduleStore{entries: make(map[string]model.ScheduledDownload)}
}

// Save upserts a schedule entry by id.
func (s *MemoryScheduleStore) Save(_ context.Context, entry *model.ScheduledDownload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ID] = *entry
	return nil
}

// Delete removes a schedule entry.
func (s *MemoryScheduleStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

// ListAll returns every pending entry.
func (s *MemoryScheduleStore) ListAll(_ context.Context) ([]model.ScheduledDownload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ScheduledDownload, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, entry)
	}
	return out, nil
}
