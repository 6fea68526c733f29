package migrations

import (
	"fmt"
	"sort"
	"time"

	"github.com/meetup-planner/app/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migration is one versioned schema change.
type Migration struct {
	Version string
	Name    string
	Up      func(*gorm.DB) error
}

// SchemaMigration records an applied migration.
type SchemaMigration struct {
	Version   string    `gorm:"primaryKey;size:32"`
	Name      string    `gorm:"not null;size:120"`
	AppliedAt time.Time `gorm:"not null"`
}

// Status pairs a migration with whether it has been applied.
type Status struct {
	Version   string
	Name      string
	Applied   bool
	AppliedAt *time.Time
}

// Migrator applies migrations in version order, each inside its own transaction.
type Migrator struct {
	db         *gorm.DB
	migrations []Migration
}

func NewMigrator(db *gorm.DB, migrations []Migration) *Migrator {
	sorted := make([]Migration, len(migrations))
	copy(sorted, migrations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })
	return &Migrator{db: db, migrations: sorted}
}

func (m *Migrator) ensureVersionTable() error {
	return m.db.AutoMigrate(&SchemaMigration{})
}

func (m *Migrator) applied() (map[string]SchemaMigration, error) {
	if err := m.ensureVersionTable(); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}
	var records []SchemaMigration
	if err := m.db.Find(&records).Error; err != nil {
		return nil, err
	}
	out := make(map[string]SchemaMigration, len(records))
	for _, r := range records {
		out[r.Version] = r
	}
	return out, nil
}

// Up applies every pending migration and returns how many ran.
func (m *Migrator) Up() (int, error) {
	applied, err := m.applied()
	if err != nil {
		return 0, err
	}

	log := logger.Named("migrate")
	count := 0
	for _, mig := range m.migrations {
		if _, ok := applied[mig.Version]; ok {
			continue
		}
		err := m.db.Transaction(func(tx *gorm.DB) error {
			if err := mig.Up(tx); err != nil {
				return err
			}
			return tx.Create(&SchemaMigration{
				Version:   mig.Version,
				Name:      mig.Name,
				AppliedAt: time.Now().UTC(),
			}).Error
		})
		if err != nil {
			return count, fmt.Errorf("migration %s_%s: %w", mig.Version, mig.Name, err)
		}
		log.Info("migration applied", zap.String("version", mig.Version), zap.String("name", mig.Name))
		count++
	}
	return count, nil
}

// Status lists every known migration in order.
func (m *Migrator) Status() ([]Status, error) {
	applied, err := m.applied()
	if err != nil {
		return nil, err
	}
	out := make([]Status, 0, len(m.migrations))
	for _, mig := range m.migrations {
		s := Status{Version: mig.Version, Name: mig.Name}
		if r, ok := applied[mig.Version]; ok {
			at := r.AppliedAt
			s.Applied = true
			s.AppliedAt = &at
		}
		out = append(out, s)
	}
	return out, nil
}
