package database

import (
	"fmt"
	"time"

	"gst-invoicing-backend/config"
	"gst-invoicing-backend/logger"
	"gst-invoicing-backend/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

const slowQueryThreshold = 200 * time.Millisecond

// Connect opens the Postgres connection pool used by every tenant.
func Connect(cfg config.Config) error {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.NewGormLogger(slowQueryThreshold),
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	DB = db
	return nil
}

// PublicModels are the tables shared by all tenants.
func PublicModels() []any {
	return []any{&models.User{}, &models.Company{}}
}

// AutoMigrate migrates the public schema.
func AutoMigrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	if err := DB.AutoMigrate(PublicModels()...); err != nil {
		return fmt.Errorf("public automigrate failed: %w", err)
	}
	return nil
}
