package model

import "time"

// Severity values, ordered from least to most serious.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// SecurityAudit is the append-only audit trail of record. Rows are never
// updated or deleted once written.
type SecurityAudit struct {
	ID uint64 `gorm:"primaryKey" json:"id"`

	EventType string `gorm:"column:event_type;type:varchar(64);not null;index" json:"event_type"`

	// UserID is nil for system-originated events.
	UserID *uint64 `gorm:"column:user_id;index" json:"user_id,omitempty"`

	IPAddress string `gorm:"column:ip_address;type:varchar(45);not null;default:''" json:"ip_address"`
	UserAgent string `gorm:"column:user_agent;type:varchar(512);not null;default:''" json:"user_agent"`

	// Details holds the free-form payload, JSON-encoded.
	Details string `gorm:"column:details;type:text" json:"details"`

	Severity string `gorm:"column:severity;type:varchar(16);not null;index" json:"severity"`

	CreatedAt time.Time `gorm:"index:idx_audit_created" json:"created_at"`
}

// TableName returns the database table name.
func (SecurityAudit) TableName() string {
	return "security_audit"
}
