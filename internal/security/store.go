package security

import (
	"CineVault/model"
	"context"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"
)

// AuditStore persists audit records. Append-only: nothing ever updates
// or deletes a row.
type AuditStore interface {
	Append(ctx context.Context, rec *model.SecurityAudit) error
	List(ctx context.Context, filter Filter, pageSize int) ([]model.SecurityAudit, int64, error)
	// ListFiltered returns every matching record, newest first, for
	// exports.
	ListFiltered(ctx context.Context, filter Filter) ([]model.SecurityAudit, error)
	EventTypes(ctx context.Context) ([]string, error)
	// FailedLoginsByIP counts failed_login events per source IP since
	// the given time.
	FailedLoginsByIP(ctx context.Context, since time.Time) (map[string]int64, error)
}

// GormAuditStore stores audit records in MySQL.
type GormAuditStore struct {
	db *gorm.DB
}

// NewGormAuditStore builds an AuditStore on a gorm handle.
func NewGormAuditStore(db *gorm.DB) *GormAuditStore {
	return &GormAuditStore{db: db}
}

// Append inserts a record.
func (s *GormAuditStore) Append(ctx context.Context, rec *model.SecurityAudit) error {
	return s.db.WithContext(ctx).Create(rec).Error
}

func (s *GormAuditStore) filtered(ctx context.Context, filter Filter) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&model.SecurityAudit{})
	if filter.Severity != "" {
		query = query.Where("severity = ?", filter.Severity)
	}
	if filter.EventType != "" {
		query = query.Where("event_type = ?", filter.EventType)
	}
	if !filter.Date.IsZero() {
		start, end := dayWindow(filter.Date)
		query = query.Where("created_at >= ? AND created_at < ?", start, end)
	}
	return query
}

// dayWindow returns the [start, end) bounds of the calendar day holding t,
// in t's own location. Truncate would round to a UTC day boundary and shift
// the window in other zones.
func dayWindow(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

// List returns one page of matching records, newest first.
func (s *GormAuditStore) List(ctx context.Context, filter Filter, pageSize int) ([]model.SecurityAudit, int64, error) {
	query := s.filtered(ctx, filter)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var records []model.SecurityAudit
	offset := (filter.Page - 1) * pageSize
	err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(pageSize).Find(&records).Error
	return records, total, err
}

// ListFiltered returns every matching record, newest first.
func (s *GormAuditStore) ListFiltered(ctx context.Context, filter Filter) ([]model.SecurityAudit, error) {
	var records []model.SecurityAudit
	err := s.filtered(ctx, filter).Order("created_at DESC, id DESC").Find(&records).Error
	return records, err
}

// EventTypes returns the distinct event types seen so far.
func (s *GormAuditStore) EventTypes(ctx context.Context) ([]string, error) {
	var types []string
	err := s.db.WithContext(ctx).Model(&model.SecurityAudit{}).
		Distinct("event_type").Order("event_type ASC").Pluck("event_type", &types).Error
	return types, err
}

// FailedLoginsByIP counts failed_login events per source IP since the
// given time.
func (s *GormAuditStore) FailedLoginsByIP(ctx context.Context, since time.Time) (map[string]int64, error) {
	type row struct {
		IPAddress string
		Count     int64
	}
	var rows []row
	err := s.db.WithContext(ctx).Model(&model.SecurityAudit{}).
		Select("ip_address, COUNT(*) AS count").
		Where("event_type = ? AND created_at >= ?", EventFailedLogin, since).
		Group("ip_address").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.IPAddress] = r.Count
	}
	return out, nil
}

// MemoryAuditStore keeps audit records in memory for tests.
type MemoryAuditStore struct {
	mu      sync.Mutex
	nextID  uint64
	records []model.SecurityAudit
}

// NewMemoryAuditStore builds an empty in-memory audit store.
func NewMemoryAuditStore() *MemoryAuditStore {
	return &MemoryAuditStore{}
}

// Append inserts a record.
func (s *MemoryAuditStore) Append(_ context.Context, rec *model.SecurityAudit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	rec.ID = s.nextID
	s.records = append(s.records, *rec)
	return nil
}

func (s *MemoryAuditStore) matchLocked(filter Filter) []model.SecurityAudit {
	out := make([]model.SecurityAudit, 0)
	for _, rec := range s.records {
		if filter.Severity != "" && rec.Severity != filter.Severity {
			continue
		}
		if filter.EventType != "" && rec.EventType != filter.EventType {
			continue
		}
		if !filter.Date.IsZero() {
			start, end := dayWindow(filter.Date)
			if rec.CreatedAt.Before(start) || !rec.CreatedAt.Before(end) {
				continue
			}
		}
		out = append(out, rec)
	}
	// Newest first; ties broken by insertion order (higher id first).
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// List returns one page of matching records, newest first.
func (s *MemoryAuditStore) List(_ context.Context, filter Filter, pageSize int) ([]model.SecurityAudit, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := s.matchLocked(filter)
	total := int64(len(matched))
	start := (filter.Page - 1) * pageSize
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

// ListFiltered returns every matching record, newest first.
func (s *MemoryAuditStore) ListFiltered(_ context.Context, filter Filter) ([]model.SecurityAudit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matchLocked(filter), nil
}

// EventTypes returns the distinct event types seen so far.
func (s *MemoryAuditStore) EventTypes(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool)
	for _, rec := range s.records {
		seen[rec.EventType] = true
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}

// FailedLoginsByIP counts failed_login events per source IP since the
// given time.
func (s *MemoryAuditStore) FailedLoginsByIP(_ context.Context, since time.Time) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64)
	for _, rec := range s.records {
		if rec.EventType != EventFailedLogin || rec.CreatedAt.Before(since) {
			continue
		}
		out[rec.IPAddress]++
	}
	return out, nil
}
