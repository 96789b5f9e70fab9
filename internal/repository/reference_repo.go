package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/sidupak-api/internal/models"
)

// ReferenceRepository answers existence questions about organisational reference data.
type ReferenceRepository interface {
	SemesterExists(ctx context.Context, id uint) (bool, error)
	FacultyExists(ctx context.Context, id uint) (bool, error)
	GetDepartment(ctx context.Context, id uint) (models.Department, error)
}

type referenceRepository struct {
	db *gorm.DB
}

// NewReferenceRepository constructs the reference data repository.
func NewReferenceRepository(db *gorm.DB) ReferenceRepository {
	return &referenceRepository{db: db}
}

func (r *referenceRepository) SemesterExists(ctx context.Context, id uint) (bool, error) {
	return r.exists(ctx, &models.Semester{}, id)
}

func (r *referenceRepository) FacultyExists(ctx context.Context, id uint) (bool, error) {
	return r.exists(ctx, &models.Faculty{}, id)
}

func (r *referenceRepository) GetDepartment(ctx context.Context, id uint) (models.Department, error) {
	var department models.Department
	if err := r.db.WithContext(ctx).First(&department, id).Error; err != nil {
		return models.Department{}, err
	}
	return department, nil
}

func (r *referenceRepository) exists(ctx context.Context, model interface{}, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
