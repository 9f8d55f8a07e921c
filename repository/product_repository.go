package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yeremiapane/kasir-app/apperrors"
	"github.com/yeremiapane/kasir-app/models"
	"gorm.io/gorm"
)

// ProductRepository akses baca ke katalog menu. Katalog tidak diubah dari sini.
type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Order("category_id ASC").Order("name ASC").
		Find(&products).Error
	if err != nil {
		return nil, apperrors.NewStoreError("list products", err)
	}
	return products, nil
}

func (r *ProductRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, apperrors.NewStoreError("list categories", err)
	}
	return categories, nil
}

func (r *ProductRepository) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Preload("Category").First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("product %d not found", id))
		}
		return nil, apperrors.NewStoreError("get product", err)
	}
	return &product, nil
}

// FindByIDs memuat produk untuk id yang diminta. Id yang tidak ada tidak muncul di map.
func (r *ProductRepository) FindByIDs(ctx context.Context, ids []uint) (map[uint]models.Product, error) {
	return findProducts(r.db.WithContext(ctx), ids)
}

func findProducts(db *gorm.DB, ids []uint) (map[uint]models.Product, error) {
	result := make(map[uint]models.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var products []models.Product
	if err := db.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, apperrors.NewStoreError("load products", err)
	}
	for _, p := range products {
		result[p.ID] = p
	}
	return result, nil
}
