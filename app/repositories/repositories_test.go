package repositories

import (
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"

	"caregate/pkg/database"
	"caregate/pkg/database/migrations"
	"caregate/pkg/logger"
)

// setupTestDB 为每个测试准备独立的 SQLite 数据库
func setupTestDB(t *testing.T) {
	t.Helper()

	dbFile := filepath.Join(t.TempDir(), "test.db")
	database.Connect(sqlite.Open(dbFile), logger.NewGormLogger())

	if err := database.AutoMigrate(migrations.RegisterTables()); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	t.Cleanup(func() {
		if err := database.Close(); err != nil {
			t.Errorf("database.Close: %v", err)
		}
	})
}
