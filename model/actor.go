package model

import "time"

type Actor struct {
	ID uint64 `gorm:"primaryKey" json:"id"`

	Name        string     `gorm:"column:name;type:varchar(120);not null;index" json:"name"`
	Biography   string     `gorm:"column:biography;type:text" json:"biography"`
	BirthDate   *time.Time `gorm:"column:birth_date" json:"birth_date,omitempty"`
	Nationality string     `gorm:"column:nationality;type:varchar(80);not null;default:''" json:"nationality"`
	ImageURL    string     `gorm:"column:image_url;type:varchar(512);not null;default:''" json:"image_url"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name.
func (Actor) TableName() string {
	return "actor"
}
