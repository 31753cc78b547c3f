package pkg

import (
	"fmt"

	"github.com/skilltrack/learning-service/internal/config"
	"github.com/skilltrack/learning-service/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	var logLevel logger.LogLevel
	if cfg.Environment == "production" {
		logLevel = logger.Error
	} else {
		logLevel = logger.Warn
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		// Surfaces unique-constraint violations as gorm.ErrDuplicatedKey;
		// the enrollment race contract depends on this.
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// Migrate creates/updates the schema for all persisted entities,
// including the unique indexes backing the uniqueness invariants.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Team{},
		&models.User{},
		&models.Course{},
		&models.Enrollment{},
		&models.Kpi{},
	)
}
