package model

type Category struct {
	ID uint64 `gorm:"primaryKey" json:"id"`

	Name string `gorm:"column:name;type:varchar(64);not null;unique" json:"name"`
	Slug string `gorm:"column:slug;type:varchar(64);uniqueIndex" json:"slug"`

	Description string `gorm:"column:description;type:text" json:"description"`
}

// TableName returns the database table name.
func (Category) TableName() string {
	return "category"
}
