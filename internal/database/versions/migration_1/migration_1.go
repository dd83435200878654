package migration_1

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// The home page lists posts newest first.
type Post struct {
	CreatedAt time.Time `gorm:"index"`
}

func Migration(db *gorm.DB) error {
	if err := db.Migrator().CreateIndex(&Post{}, "CreatedAt"); err != nil {
		return fmt.Errorf("error adding created_at index to posts: %w", err)
	}
	return nil
}

func Rollback(db *gorm.DB) error {
	if err := db.Migrator().DropIndex(&Post{}, "CreatedAt"); err != nil {
		return fmt.Errorf("error dropping created_at index from posts: %w", err)
	}
	return nil
}
