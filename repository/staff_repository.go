package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/yeremiapane/kasir-app/apperrors"
	"github.com/yeremiapane/kasir-app/models"
	"gorm.io/gorm"
)

type StaffRepository struct {
	db *gorm.DB
}

func NewStaffRepository(db *gorm.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

func (r *StaffRepository) FindByEmail(ctx context.Context, email string) (*models.Staff, error) {
	var staff models.Staff
	err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&staff).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("staff not found")
		}
		return nil, apperrors.NewStoreError("find staff", err)
	}
	return &staff, nil
}

func (r *StaffRepository) Create(ctx context.Context, staff *models.Staff) error {
	staff.Email = strings.ToLower(strings.TrimSpace(staff.Email))
	if err := r.db.WithContext(ctx).Create(staff).Error; err != nil {
		return apperrors.NewStoreError("create staff", err)
	}
	return nil
}

// List semua staff, urut nama.
func (r *StaffRepository) List(ctx context.Context) ([]models.Staff, error) {
	var staff []models.Staff
	if err := r.db.WithContext(ctx).Order("name ASC").Order("id ASC").Find(&staff).Error; err != nil {
		return nil, apperrors.NewStoreError("list staff", err)
	}
	return staff, nil
}

func (r *StaffRepository) FindByRef(ctx context.Context, ref string) (*models.Staff, error) {
	var staff models.Staff
	err := r.db.WithContext(ctx).Where("ref = ?", ref).First(&staff).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("staff not found")
		}
		return nil, apperrors.NewStoreError("find staff", err)
	}
	return &staff, nil
}

// NamesByRef ref yang tidak dikenal tidak masuk map.
func (r *StaffRepository) NamesByRef(ctx context.Context, refs []string) (map[string]string, error) {
	names := make(map[string]string, len(refs))
	if len(refs) == 0 {
		return names, nil
	}

	var staff []models.Staff
	if err := r.db.WithContext(ctx).Select("ref", "name").Where("ref IN ?", refs).Find(&staff).Error; err != nil {
		return nil, apperrors.NewStoreError("load staff names", err)
	}
	for _, s := range staff {
		names[s.Ref] = s.Name
	}
	return names, nil
}
