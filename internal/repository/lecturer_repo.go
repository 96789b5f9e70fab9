package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/sidupak-api/internal/models"
)

// LecturerRepository reads lecturer profiles.
type LecturerRepository interface {
	GetByID(ctx context.Context, id uint) (models.Lecturer, error)
}

type lecturerRepository struct {
	db *gorm.DB
}

// NewLecturerRepository constructs the lecturer repository.
func NewLecturerRepository(db *gorm.DB) LecturerRepository {
	return &lecturerRepository{db: db}
}

func (r *lecturerRepository) GetByID(ctx context.Context, id uint) (models.Lecturer, error) {
	var lecturer models.Lecturer
	if err := r.db.WithContext(ctx).First(&lecturer, id).Error; err != nil {
		return models.Lecturer{}, err
	}
	return lecturer, nil
}
