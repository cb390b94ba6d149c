package security

import (
	"CineVault/internal/apperr"
	"CineVault/model"
	"context"
	"encoding/json"
	"time"
)

// Event is one security-relevant occurrence to be appended to the
// audit trail.
type Event struct {
	EventType string
	// UserID is nil for system-originated events.
	UserID    *uint64
	IPAddress string
	UserAgent string
	Details   map[string]interface{}
	// Severity may be empty; the classifier then assigns one.
	Severity string
}

// Filter narrows audit queries and exports.
type Filter struct {
	Severity  string
	EventType string
	// Date selects a single day (midnight to midnight) when non-zero.
	Date time.Time
	Page int
}

// Page is one page of audit records, newest first.
type Page struct {
	Records    []model.SecurityAudit `json:"records"`
	Total      int64                 `json:"total"`
	Pages      int                   `json:"pages"`
	Current    int                   `json:"current_page"`
	EventTypes []string              `json:"event_types"`
}

// Aggregator owns the append-only audit trail and derives alerts from
// it. All other components only hand events in.
type Aggregator struct {
	store      AuditStore
	classifier Classifier
	pageSize   int
	clock      func() time.Time

	// userName resolves a user id to a display name for exports.
	userName func(ctx context.Context, id uint64) string

	// Alert inputs; see alerts.go.
	lockedAccounts func(ctx context.Context, now time.Time) (int64, error)
	storageUsage   func(ctx context.Context) (float64, error)
	probes         []HealthProbe
	loginThreshold int
	loginWindow    time.Duration
	degradedBelow  int
	storageAbove   float64
}

// AggregatorOptions configures an Aggregator. Store is required.
type AggregatorOptions struct {
	Store      AuditStore
	Classifier Classifier
	PageSize   int
	Clock      func() time.Time
	UserName   func(ctx context.Context, id uint64) string

	LockedAccounts func(ctx context.Context, now time.Time) (int64, error)
	StorageUsage   func(ctx context.Context) (float64, error)
	Probes         []HealthProbe

	FailedLoginThreshold int
	FailedLoginWindow    time.Duration
	HealthDegradedBelow  int
	// StorageAlertAbove is the usage percentage beyond which the
	// storage warning fires.
	StorageAlertAbove float64
}

// NewAggregator builds a security event aggregator.
func NewAggregator(opts AggregatorOptions) *Aggregator {
	if opts.Store == nil {
		opts.Store = NewMemoryAuditStore()
	}
	if opts.Classifier == nil {
		opts.Classifier = RuleClassifier{}
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 20
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.FailedLoginThreshold <= 0 {
		opts.FailedLoginThreshold = 10
	}
	if opts.FailedLoginWindow <= 0 {
		opts.FailedLoginWindow = 24 * time.Hour
	}
	if opts.HealthDegradedBelow <= 0 {
		opts.HealthDegradedBelow = 80
	}
	if opts.StorageAlertAbove <= 0 {
		opts.StorageAlertAbove = 90
	}
	return &Aggregator{
		store:          opts.Store,
		classifier:     opts.Classifier,
		pageSize:       opts.PageSize,
		clock:          opts.Clock,
		userName:       opts.UserName,
		lockedAccounts: opts.LockedAccounts,
		storageUsage:   opts.StorageUsage,
		probes:         opts.Probes,
		loginThreshold: opts.FailedLoginThreshold,
		loginWindow:    opts.FailedLoginWindow,
		degradedBelow:  opts.HealthDegradedBelow,
		storageAbove:   opts.StorageAlertAbove,
	}
}

// Record appends an event to the audit trail. It only fails when the
// store is unavailable.
func (a *Aggregator) Record(ctx context.Context, ev Event) error {
	severity := ev.Severity
	if severity == "" {
		severity = a.classifier.Score(Features{
			EventType: ev.EventType,
			System:    ev.UserID == nil,
		})
	}
	details := ""
	if len(ev.Details) > 0 {
		raw, err := json.Marshal(ev.Details)
		if err == nil {
			details = string(raw)
		}
	}
	rec := &model.SecurityAudit{
		EventType: ev.EventType,
		UserID:    ev.UserID,
		IPAddress: ev.IPAddress,
		UserAgent: ev.UserAgent,
		Details:   details,
		Severity:  severity,
		CreatedAt: a.clock(),
	}
	if err := a.store.Append(ctx, rec); err != nil {
		return apperr.Storage(err)
	}
	return nil
}

// Query returns a page of audit records matching the filter, newest
// first.
func (a *Aggregator) Query(ctx context.Context, filter Filter) (Page, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	records, total, err := a.store.List(ctx, filter, a.pageSize)
	if err != nil {
		return Page{}, apperr.Storage(err)
	}
	eventTypes, err := a.store.EventTypes(ctx)
	if err != nil {
		return Page{}, apperr.Storage(err)
	}
	pages := int((total + int64(a.pageSize) - 1) / int64(a.pageSize))
	return Page{
		Records:    records,
		Total:      total,
		Pages:      pages,
		Current:    filter.Page,
		EventTypes: eventTypes,
	}, nil
}
