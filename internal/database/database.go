package database

import (
	"fmt"

	"github.com/kalori-makanan/dashboard-api/internal/config"
	"github.com/kalori-makanan/dashboard-api/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Connect opens the SQLite database and migrates the schema. The returned
// handle is the process-wide client; callers inject it into the services that
// need it.
func Connect(cfg *config.Config, logger *logrus.Logger) (*gorm.DB, error) {
	log := logger.WithFields(logrus.Fields{
		"component": "database",
		"path":      cfg.DatabasePath,
	})

	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{})
	if err != nil {
		log.WithError(err).Error("Failed to connect to database")
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.APIKey{}, &models.RateLimitLog{}); err != nil {
		log.WithError(err).Error("Database migration failed")
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	log.Info("Database connection established")
	return db, nil
}
