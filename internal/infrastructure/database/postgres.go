package database

import (
	"fmt"
	"log"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dafteam/facturation-api/internal/config"
	"github.com/dafteam/facturation-api/internal/domain/entity"
	"github.com/dafteam/facturation-api/internal/domain/enum"
)

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	logLevel := logger.Warn

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true, // disables implicit prepared statement usage
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying SQL DB to set connection pool settings
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	return db, nil
}

// AutoMigrate runs GORM auto-migration for all entities
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&entity.User{},
		&entity.Invoice{},
		&entity.ValidationTrace{},
		&entity.Notification{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// SeedDefaultData creates one default actor per workflow role when the users
// table is empty, so a fresh install can exercise the full circuit. The
// shared default password comes from SEED_PASSWORD and defaults to
// "changeme" for local development.
func SeedDefaultData(db *gorm.DB) error {
	var count int64
	if err := db.Model(&entity.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	password := viper.GetString("SEED_PASSWORD")
	if password == "" {
		password = "changeme"
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash seed password: %w", err)
	}

	users := []entity.User{
		{FirstName: "Sophie", LastName: "Martin", Email: "u1@facturation.local", Role: enum.RoleU1, Active: true},
		{FirstName: "Pierre", LastName: "Dubois", Email: "v1@facturation.local", Role: enum.RoleV1, Active: true},
		{FirstName: "Marie", LastName: "Laurent", Email: "v2@facturation.local", Role: enum.RoleV2, Active: true},
		{FirstName: "Jean", LastName: "Moreau", Email: "t1@facturation.local", Role: enum.RoleT1, Active: true},
		{FirstName: "Claire", LastName: "Bernard", Email: "admin@facturation.local", Role: enum.RoleAdmin, Active: true},
	}
	for i := range users {
		users[i].Password = string(hashed)
		if err := db.Create(&users[i]).Error; err != nil {
			return fmt.Errorf("failed to seed user %s: %w", users[i].Email, err)
		}
	}

	log.Printf("Seeded %d default users", len(users))
	return nil
}
