package database

import (
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/1rvyn/story-builder/models"
)

const (
	defaultAttempts = 30
	defaultWait     = time.Second
)

// Open connects to dsn, retrying while the database comes up, and migrates
// the schema. postgres:// URLs use Postgres; anything else is a SQLite path.
func Open(dsn string) (*gorm.DB, error) {
	return OpenWithRetry(dsn, defaultAttempts, defaultWait)
}

func OpenWithRetry(dsn string, attempts int, wait time.Duration) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	if attempts < 1 {
		attempts = 1
	}
	log.Printf("Attempting to connect to %s database", driverName(dsn))

	var db *gorm.DB
	var err error
	for i := 0; i < attempts; i++ {
		db, err = gorm.Open(dialector(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if err == nil {
			log.Printf("Successfully connected to database")
			break
		}
		if i < attempts-1 {
			log.Printf("Failed to connect to database, retrying in %s. Error: %v", wait, err)
			time.Sleep(wait)
		}
	}
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&models.StoryRecord{}, &models.CatalogAsset{}, &models.AudioClip{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func driverName(dsn string) string {
	if isPostgres(dsn) {
		return "postgres"
	}
	return "sqlite"
}

func dialector(dsn string) gorm.Dialector {
	if isPostgres(dsn) {
		return postgres.Open(dsn)
	}
	return sqlite.Open(dsn)
}
