package model

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID uint64 `gorm:"primaryKey"`

	UserName string `gorm:"column:user_name;type:varchar(50);not null;unique"`

	Password string `gorm:"column:pass_word;type:varchar(255);not null" json:"-"`

	Email string `gorm:"column:email;type:varchar(255);not null;unique"`

	NickName  string `gorm:"column:nick_name;type:varchar(80);not null;default:''"`
	AvatarURL string `gorm:"column:avatar_url;type:varchar(512);not null;default:''"`
	Bio       string `gorm:"column:bio;type:varchar(500);not null;default:''"`

	IsActive bool `gorm:"column:is_active;not null;default:false"`
	IsAdmin  bool `gorm:"column:is_admin;not null;default:false"`

	// Consecutive failed logins lock the account until LockedUntil.
	FailedLogins int        `gorm:"column:failed_logins;not null;default:0" json:"-"`
	LockedUntil  *time.Time `gorm:"column:locked_until" json:"locked_until,omitempty"`
	LastSeen     *time.Time `gorm:"column:last_seen" json:"last_seen,omitempty"`

	CreatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// TableName returns the database table name.
func (User) TableName() string {
	return "user_db"
}

// IsLocked reports whether the account is currently locked.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}
