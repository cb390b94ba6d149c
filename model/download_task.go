package model

import "time"

// Download task statuses. Exactly one holds at any time.
const (
	DownloadQueued      = "queued"
	DownloadDownloading = "downloading"
	DownloadPaused      = "paused"
	DownloadCompleted   = "completed"
	DownloadFailed      = "failed"
	DownloadCancelled   = "cancelled"
)

// DownloadTask is the persisted record of one media-download attempt.
// The task manager owns the live state; rows here back analytics and
// survive restarts.
type DownloadTask struct {
	ID string `gorm:"primaryKey;type:varchar(36)" json:"id"`

	MovieID uint64 `gorm:"column:movie_id;index;not null" json:"movie_id"`

	Source string `gorm:"column:source;type:text;not null" json:"source"`
	Title  string `gorm:"column:title;type:varchar(255);not null" json:"title"`

	Status string `gorm:"column:status;type:varchar(32);index;not null" json:"status"`

	// Higher number means more urgent; ties dispatch in submission order.
	Priority int `gorm:"column:priority;not null;default:2" json:"priority"`

	BytesTotal int64 `gorm:"column:bytes_total;not null;default:0" json:"bytes_total"`
	BytesDone  int64 `gorm:"column:bytes_done;not null;default:0" json:"bytes_done"`

	ErrorMsg   string `gorm:"column:error_msg;type:text" json:"error_msg"`
	RetryCount int    `gorm:"column:retry_count;not null;default:0" json:"retry_count"`

	// RetryOf references the failed task this one was retried from.
	RetryOf string `gorm:"column:retry_of;type:varchar(36);not null;default:''" json:"retry_of,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `gorm:"column:started_at" json:"started_at,omitempty"`
	FinishedAt *time.Time `gorm:"column:finished_at" json:"finished_at,omitempty"`
}

// TableName returns the database table name.
func (DownloadTask) TableName() string {
	return "download_task"
}

// DownloadTerminal reports whether the status admits no further
// transitions (failed tasks can still be retried, producing a new task).
func DownloadTerminal(status string) bool {
	switch status {
	case DownloadCompleted, DownloadFailed, DownloadCancelled:
		return true
	}
	return false
}
