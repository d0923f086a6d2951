package postgres

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
)

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.TutorProfile{},
		&models.Job{},
		&models.JobBid{},
		&models.Message{},
		&models.Review{},
		&models.Notification{},
		&models.Session{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	return nil
}
