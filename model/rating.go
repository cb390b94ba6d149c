package model

import "time"

type Rating struct {
	ID uint64 `gorm:"primaryKey" json:"id"`

	Value int `gorm:"column:value;not null" json:"value"` // 1-5 stars

	UserID uint64 `gorm:"column:user_id;not null;uniqueIndex:uk_user_movie_rating,priority:1;index:idx_rating_user" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`

	MovieID uint64 `gorm:"column:movie_id;not null;uniqueIndex:uk_user_movie_rating,priority:2;index:idx_rating_movie" json:"movie_id"`
	Movie   Movie  `gorm:"foreignKey:MovieID;references:ID;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name.
func (Rating) TableName() string {
	return "rating"
}
