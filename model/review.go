package model

import "time"

const (
	ReviewPending  = "pending"
	ReviewApproved = "approved"
	ReviewRejected = "rejected"
)

type Review struct {
	ID uint64 `gorm:"primaryKey" json:"id"`

	Content string `gorm:"column:content;type:text;not null" json:"content"`

	UserID uint64 `gorm:"column:user_id;not null;index:idx_review_user" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`

	MovieID uint64 `gorm:"column:movie_id;not null;index:idx_review_movie" json:"movie_id"`
	Movie   Movie  `gorm:"foreignKey:MovieID;references:ID;constraint:OnDelete:CASCADE" json:"-"`

	Status string `gorm:"column:status;type:varchar(16);not null;default:'pending';index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name.
func (Review) TableName() string {
	return "review"
}
