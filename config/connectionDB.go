package config

import (
	"errors"
	"fmt"

	"todoapi/internal/entity"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func ConnectionDb(cfg *Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DatabaseURL,
		PreferSimpleProtocol: true, // Disable prepared statements completely
	}), &gorm.Config{
		PrepareStmt:    false,
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(entity.Models()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return SeedRoles(db)
}

// SeedRoles makes sure the Admin and User roles exist.
func SeedRoles(db *gorm.DB) error {
	for _, name := range []string{entity.RoleAdmin, entity.RoleUser} {
		var role entity.Role
		err := db.Where("name = ?", name).First(&role).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("seed role %s: %w", name, err)
		}
		if err := db.Create(&entity.Role{Name: name}).Error; err != nil {
			return fmt.Errorf("seed role %s: %w", name, err)
		}
	}
	return nil
}
