package migration_0

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type Category struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:255;not null;uniqueIndex"`
}

type Post struct {
	ID         uint   `gorm:"primaryKey"`
	Title      string `gorm:"size:255;not null"`
	Author     string `gorm:"size:255"`
	Body       string `gorm:"type:text"`
	CategoryID uint   `gorm:"not null;index"`
	CreatedAt  time.Time
}

func Migration(db *gorm.DB) error {
	if err := db.AutoMigrate(&Category{}, &Post{}); err != nil {
		return fmt.Errorf("initial migration failed: %w", err)
	}
	return nil
}
