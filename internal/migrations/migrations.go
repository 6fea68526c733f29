package migrations

import (
	"github.com/meetup-planner/app/internal/models"
	"gorm.io/gorm"
)

// All returns the application's schema history.
func All() []Migration {
	return []Migration{
		{Version: "0001", Name: "core_tables", Up: createCoreTables},
		{Version: "0002", Name: "notifications", Up: createNotifications},
		{Version: "0003", Name: "open_proposals_index", Up: addOpenProposalsIndex},
	}
}

// Run applies all pending migrations to db.
func Run(db *gorm.DB) (int, error) {
	return NewMigrator(db, All()).Up()
}

func createCoreTables(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Proposal{},
		&models.Suggestion{},
		&models.Vote{},
		&models.Meetup{},
		&models.RSVP{},
	)
}

func createNotifications(db *gorm.DB) error {
	return db.AutoMigrate(&models.Notification{})
}

// The home page lists proposals still in voting, newest first.
func addOpenProposalsIndex(db *gorm.DB) error {
	return db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_proposals_open
		ON proposals(created_at)
		WHERE status = 'voting'
	`).Error
}
