package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/kasir-app/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedAdmin membuat akun admin pertama kalau tabel staff masih kosong.
func SeedAdmin(db *gorm.DB, email, password string, logger *logrus.Logger) error {
	var count int64
	if err := db.Model(&models.Staff{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count staff: %w", err)
	}
	if count > 0 {
		return nil
	}
	if email == "" || password == "" {
		return errors.New("seed admin email and password are required")
	}

	staff, err := NewStaff("Admin", email, password, models.RoleAdmin)
	if err != nil {
		return err
	}
	if err := db.Create(staff).Error; err != nil {
		return fmt.Errorf("create seed admin: %w", err)
	}

	if logger != nil {
		logger.WithField("email", email).Info("Seeded initial admin account")
	}
	return nil
}

// NewStaff menyiapkan record staff dengan password ter-hash dan ref baru.
func NewStaff(name, email, password, role string) (*models.Staff, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return &models.Staff{
		Ref:      uuid.NewString(),
		Name:     name,
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Password: string(hashed),
		Role:     role,
	}, nil
}

// SeedMenu mengisi menu contoh kalau belum ada produk sama sekali.
func SeedMenu(db *gorm.DB) ([]models.Product, error) {
	var count int64
	if err := db.Model(&models.Product{}).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	if count > 0 {
		var existing []models.Product
		err := db.Order("id ASC").Find(&existing).Error
		return existing, err
	}

	coffee := models.Category{Name: "Coffee"}
	nonCoffee := models.Category{Name: "Non Coffee"}
	if err := db.Create(&[]*models.Category{&coffee, &nonCoffee}).Error; err != nil {
		return nil, fmt.Errorf("create categories: %w", err)
	}

	large := func(v int64) *decimal.Decimal {
		d := decimal.NewFromInt(v)
		return &d
	}

	products := []models.Product{
		{CategoryID: coffee.ID, Name: "Kopi Susu", Price: decimal.NewFromInt(12000), PriceLarge: large(16000)},
		{CategoryID: coffee.ID, Name: "Americano", Price: decimal.NewFromInt(15000), PriceLarge: large(19000)},
		{CategoryID: nonCoffee.ID, Name: "Es Teh", Price: decimal.NewFromInt(5000)},
		{CategoryID: nonCoffee.ID, Name: "Matcha Latte", Price: decimal.NewFromInt(20000), PriceLarge: large(25000), DiscountPercent: large(10)},
	}
	if err := db.Create(&products).Error; err != nil {
		return nil, fmt.Errorf("create products: %w", err)
	}
	return products, nil
}
