package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/kasir-app/models"
	"gorm.io/gorm"
)

// Models daftar model yang dimigrasi, urut sesuai dependensi foreign key.
func Models() []interface{} {
	return []interface{}{
		&models.Staff{},
		&models.Category{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderEvent{},
	}
}

func Migrate(db *gorm.DB, logger *logrus.Logger) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	// Verifikasi tabel
	for _, m := range Models() {
		if !db.Migrator().HasTable(m) {
			return fmt.Errorf("table for %T missing after migration", m)
		}
	}

	if logger != nil {
		logger.WithField("tables", len(Models())).Info("AutoMigrate completed")
	}
	return nil
}
