package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"schools24/internal/model"
)

// SubjectFilter selects subjects. SchoolID limits results to shared subjects
// plus those owned by the school; a nil SchoolID returns shared subjects only.
type SubjectFilter struct {
	SchoolID   *uuid.UUID
	ActiveOnly bool
}

// SubjectRepository defines persistence operations.
type SubjectRepository interface {
	Create(ctx context.Context, subject *model.Subject) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Subject, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Subject, error)
	FindByCode(ctx context.Context, code string) (*model.Subject, error)
	List(ctx context.Context, filter SubjectFilter) ([]model.Subject, error)
	Count(ctx context.Context, filter SubjectFilter) (int64, error)
}

type subjectRepository struct {
	db *gorm.DB
}

// NewSubjectRepository builds a GORM-backed repository.
func NewSubjectRepository(db *gorm.DB) SubjectRepository {
	return &subjectRepository{db: db}
}

func (r *subjectRepository) Create(ctx context.Context, subject *model.Subject) error {
	return translate(r.db.WithContext(ctx).Create(subject).Error)
}

func (r *subjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Subject, error) {
	var subject model.Subject
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&subject).Error; err != nil {
		return nil, translate(err)
	}
	return &subject, nil
}

func (r *subjectRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Subject, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var subjects []model.Subject
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&subjects).Error
	return subjects, translate(err)
}

func (r *subjectRepository) FindByCode(ctx context.Context, code string) (*model.Subject, error) {
	var subject model.Subject
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&subject).Error; err != nil {
		return nil, translate(err)
	}
	return &subject, nil
}

func (r *subjectRepository) List(ctx context.Context, filter SubjectFilter) ([]model.Subject, error) {
	var subjects []model.Subject
	err := r.filtered(ctx, filter).Order("name ASC").Find(&subjects).Error
	return subjects, translate(err)
}

func (r *subjectRepository) Count(ctx context.Context, filter SubjectFilter) (int64, error) {
	var count int64
	err := r.filtered(ctx, filter).Count(&count).Error
	return count, translate(err)
}

func (r *subjectRepository) filtered(ctx context.Context, filter SubjectFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Subject{})
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if filter.SchoolID == nil {
		return q.Where("school_id IS NULL")
	}
	return q.Where("(school_id IS NULL OR school_id = ?)", *filter.SchoolID)
}
