package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"schools24/internal/model"
)

// SchoolFilter selects a page of schools.
type SchoolFilter struct {
	OwnerID *uuid.UUID
	// Query matches a substring of the name or code.
	Query  string
	Offset int
	Limit  int
}

// SchoolRepository defines persistence operations.
type SchoolRepository interface {
	Create(ctx context.Context, school *model.School) error
	Update(ctx context.Context, school *model.School) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.School, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.School, error)
	FindByCode(ctx context.Context, code string) (*model.School, error)
	// List returns one page of matching schools, newest first, and the total match count.
	List(ctx context.Context, filter SchoolFilter) ([]model.School, int64, error)
	Count(ctx context.Context) (int64, error)
}

type schoolRepository struct {
	db *gorm.DB
}

// NewSchoolRepository creates a new school repository.
func NewSchoolRepository(db *gorm.DB) SchoolRepository {
	return &schoolRepository{db: db}
}

// Create creates a new school.
func (r *schoolRepository) Create(ctx context.Context, school *model.School) error {
	return translate(r.db.WithContext(ctx).Create(school).Error)
}

// Update updates an existing school.
func (r *schoolRepository) Update(ctx context.Context, school *model.School) error {
	return translate(r.db.WithContext(ctx).Save(school).Error)
}

// FindByID finds a school by ID.
func (r *schoolRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.School, error) {
	var school model.School
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&school).Error; err != nil {
		return nil, translate(err)
	}
	return &school, nil
}

// FindByIDForUpdate finds a school by ID with row-level lock for update.
func (r *schoolRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.School, error) {
	var school model.School
	if err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&school).Error; err != nil {
		return nil, translate(err)
	}
	return &school, nil
}

// FindByCode finds a school by its unique code.
func (r *schoolRepository) FindByCode(ctx context.Context, code string) (*model.School, error) {
	var school model.School
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&school).Error; err != nil {
		return nil, translate(err)
	}
	return &school, nil
}

// List lists schools matching the filter.
func (r *schoolRepository) List(ctx context.Context, filter SchoolFilter) ([]model.School, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.School{})
	if filter.OwnerID != nil {
		q = q.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		q = q.Where("(name LIKE ? OR code LIKE ?)", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	var schools []model.School
	page := q.Order("created_at DESC").Offset(filter.Offset)
	if filter.Limit > 0 {
		page = page.Limit(filter.Limit)
	}
	if err := page.Find(&schools).Error; err != nil {
		return nil, 0, translate(err)
	}
	return schools, total, nil
}

// Count counts every school.
func (r *schoolRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.School{}).Count(&count).Error
	return count, translate(err)
}
