// Package testutil berisi helper database untuk test.
package testutil

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/kasir-app/database"
	"github.com/yeremiapane/kasir-app/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB membuka SQLite in-memory yang terisolasi per test lalu migrasi semua model.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString()[:8])

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// satu koneksi: sqlite in-memory + transaksi paralel rawan "database table is locked"
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db, nil))
	return db
}

// SeedMenu mengisi kategori + produk contoh. Urutan: Kopi Susu, Americano, Es Teh, Matcha Latte.
func SeedMenu(t *testing.T, db *gorm.DB) []models.Product {
	t.Helper()
	products, err := database.SeedMenu(db)
	require.NoError(t, err)
	return products
}

// NewLogger logger senyap untuk test.
func NewLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
