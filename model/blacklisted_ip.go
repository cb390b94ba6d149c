package model

import "time"

type BlacklistedIP struct {
	ID uint64 `gorm:"primaryKey" json:"id"`

	IPAddress string `gorm:"column:ip_address;type:varchar(45);not null;uniqueIndex" json:"ip_address"`
	Reason    string `gorm:"column:reason;type:varchar(255);not null;default:''" json:"reason"`

	// AddedBy is nil for system-originated entries.
	AddedBy *uint64 `gorm:"column:added_by" json:"added_by,omitempty"`

	ExpiresAt *time.Time `gorm:"column:expires_at" json:"expires_at,omitempty"`
	IsActive  bool       `gorm:"column:is_active;not null;default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name.
func (BlacklistedIP) TableName() string {
	return "blacklisted_ip"
}

// Blocks reports whether the entry currently blocks the given moment.
func (b *BlacklistedIP) Blocks(now time.Time) bool {
	if !b.IsActive {
		return false
	}
	return b.ExpiresAt == nil || b.ExpiresAt.After(now)
}
