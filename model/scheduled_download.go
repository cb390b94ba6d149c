package model

import "time"

// ScheduledDownload is a deferred download request. The row exists only
// while the entry is pending; dispatch, cancel or reschedule-replace
// removes it.
type ScheduledDownload struct {
	ID string `gorm:"primaryKey;type:varchar(36)" json:"id"`

	MovieID uint64 `gorm:"column:movie_id;index;not null" json:"movie_id"`

	ScheduledAt time.Time `gorm:"column:scheduled_at;index;not null" json:"scheduled_at"`

	Priority int `gorm:"column:priority;not null;default:2" json:"priority"`

	// BandwidthLimit in bytes per second; nil means unlimited.
	BandwidthLimit *int64 `gorm:"column:bandwidth_limit" json:"bandwidth_limit,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name.
func (ScheduledDownload) TableName() string {
	return "scheduled_download"
}
