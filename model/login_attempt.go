package model

import "time"

// LoginAttempt is the raw material for the failed-login alert rule.
type LoginAttempt struct {
	ID uint64 `gorm:"primaryKey" json:"id"`

	UserName  string `gorm:"column:user_name;type:varchar(50);not null;index" json:"user_name"`
	IPAddress string `gorm:"column:ip_address;type:varchar(45);not null;index:idx_attempt_ip" json:"ip_address"`
	UserAgent string `gorm:"column:user_agent;type:varchar(512);not null;default:''" json:"user_agent"`

	Success bool `gorm:"column:success;not null;index" json:"success"`

	CreatedAt time.Time `gorm:"index:idx_attempt_created" json:"created_at"`
}

// TableName returns the database table name.
func (LoginAttempt) TableName() string {
	return "login_attempt"
}
