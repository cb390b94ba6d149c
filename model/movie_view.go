package model

import "time"

// MovieView records a single catalog view. UserID is nil for anonymous
// visitors; IPAddress is sized for IPv6.
type MovieView struct {
	ID uint64 `gorm:"primaryKey" json:"id"`

	MovieID uint64 `gorm:"column:movie_id;not null;index:idx_movieview_movie" json:"movie_id"`
	Movie   Movie  `gorm:"foreignKey:MovieID;references:ID;constraint:OnDelete:CASCADE" json:"-"`

	UserID *uint64 `gorm:"column:user_id;index:idx_movieview_user" json:"user_id,omitempty"`

	IPAddress string `gorm:"column:ip_address;type:varchar(45);not null;default:''" json:"ip_address"`

	ViewedAt time.Time `gorm:"column:viewed_at;index:idx_movieview_date" json:"viewed_at"`
}

// TableName returns the database table name.
func (MovieView) TableName() string {
	return "movie_view"
}
