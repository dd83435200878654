package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Category struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:255;not null;uniqueIndex"`
}

type Post struct {
	ID     uint   `gorm:"primaryKey"`
	Title  string `gorm:"size:255;not null"`
	Author string `gorm:"size:255"`
	Body   string `gorm:"type:text"`

	CategoryID uint      `gorm:"not null;index"`
	Category   *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT"`

	CreatedAt time.Time `gorm:"index"`
}

// DatasetLoad records the most recent load of a tabular dataset into the
// grounded query store. It lives in the dataset store, next to the table it
// describes.
type DatasetLoad struct {
	Id       uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Name     string         `gorm:"size:255;not null;uniqueIndex"`
	Source   string         `gorm:"not null"`
	RowCount int64          `gorm:"not null;default:0"`
	Columns  datatypes.JSON `gorm:"not null"` // [{"name":"…","type":"…"},…]
	LoadedAt time.Time
}
