package model

import "time"

type Movie struct {
	ID uint64 `gorm:"primaryKey" json:"id"`

	Title string `gorm:"column:title;type:varchar(200);not null" json:"title"`
	Slug  string `gorm:"column:slug;type:varchar(200);uniqueIndex" json:"slug"`

	Description string     `gorm:"column:description;type:text" json:"description"`
	ReleaseDate *time.Time `gorm:"column:release_date" json:"release_date,omitempty"`
	Duration    int        `gorm:"column:duration;default:0" json:"duration"` // minutes

	CategoryID *uint64   `gorm:"column:category_id;index" json:"category_id,omitempty"`
	Category   *Category `gorm:"foreignKey:CategoryID;references:ID" json:"category,omitempty"`

	// Poster lives in MinIO; PosterObject is the object name in the bucket.
	PosterObject string `gorm:"column:poster_object;type:varchar(512);not null;default:''" json:"poster_object"`
	TrailerURL   string `gorm:"column:trailer_url;type:varchar(512);not null;default:''" json:"trailer_url"`

	// Source for the admin download subsystem.
	DownloadURL string `gorm:"column:download_url;type:varchar(1024);not null;default:''" json:"download_url"`
	FileObject  string `gorm:"column:file_object;type:varchar(512);not null;default:''" json:"file_object"`
	FileSize    int64  `gorm:"column:file_size;not null;default:0" json:"file_size"`

	Actors []Actor `gorm:"many2many:movie_actor" json:"actors,omitempty"`

	IsFeatured bool `gorm:"column:is_featured;not null;default:false" json:"is_featured"`

	CreatedAt time.Time `gorm:"index:idx_movie_created_at" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name.
func (Movie) TableName() string {
	return "movie"
}
