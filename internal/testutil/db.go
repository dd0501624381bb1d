package testutil

import (
	"testing"

	"todoapi/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens an isolated in-memory sqlite database with every model migrated.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=1"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(entity.Models()...))
	return db
}

// SeedRoles inserts the Admin and User roles and returns them keyed by name.
func SeedRoles(t *testing.T, db *gorm.DB) map[string]entity.Role {
	t.Helper()

	out := map[string]entity.Role{}
	for _, name := range []string{entity.RoleAdmin, entity.RoleUser} {
		role := entity.Role{Name: name}
		require.NoError(t, db.Create(&role).Error)
		out[name] = role
	}
	return out
}
