package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/sidupak-api/internal/models"
)

// SubmissionFilter narrows credit submission queries.
type SubmissionFilter struct {
	Family     string
	OwnerID    *uint
	Category   string
	SemesterID *uint
	Page       int
	PageSize   int
	SortBy     string
	SortDesc   bool
}

// CategoryTotal aggregates the scores of one owner per family and category.
type CategoryTotal struct {
	Family   string
	Category string
	Count    int64
	Total    float64
}

// SubmissionRepository defines data operations for credit submissions.
type SubmissionRepository interface {
	List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, int64, error)
	GetByID(ctx context.Context, family string, id uint) (models.Submission, error)
	Create(ctx context.Context, submission *models.Submission) error
	Update(ctx context.Context, submission *models.Submission) error
	Delete(ctx context.Context, id uint) error
	TotalsByOwner(ctx context.Context, ownerID uint) ([]CategoryTotal, error)
}

var submissionSortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"nilaiPak":  "score",
	"kategori":  "category",
	"id":        "id",
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func withRelations(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Owner", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "nama")
		}).
		Preload("Semester")
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Submission{}).Where("family = ?", filter.Family)

	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}

	if filter.SemesterID != nil {
		query = query.Where("semester_id = ?", *filter.SemesterID)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	column, ok := submissionSortColumns[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	query = query.Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: filter.SortDesc})
	if column != "id" {
		query = query.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: filter.SortDesc})
	}

	var submissions []models.Submission
	if err := withRelations(query).Find(&submissions).Error; err != nil {
		return nil, 0, err
	}

	return submissions, total, nil
}

func (r *submissionRepository) GetByID(ctx context.Context, family string, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := withRelations(r.db.WithContext(ctx)).Where("family = ?", family).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).Create(submission).Error
	})
}

func (r *submissionRepository) Update(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).Save(submission).Error
	})
}

func (r *submissionRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Submission{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *submissionRepository) TotalsByOwner(ctx context.Context, ownerID uint) ([]CategoryTotal, error) {
	var totals []CategoryTotal
	err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Select("family, category, COUNT(*) AS count, COALESCE(SUM(score), 0) AS total").
		Where("owner_id = ?", ownerID).
		Group("family, category").
		Order("family, category").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return totals, nil
}
