package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"schools24/internal/model"
)

// ClassFilter selects classes for listing and counting.
type ClassFilter struct {
	Scope          *SchoolScope
	ActiveOnly     bool
	ClassTeacherID *uuid.UUID
}

// ClassRepository defines persistence operations.
type ClassRepository interface {
	Create(ctx context.Context, class *model.Class) error
	// Update writes the scalar columns of class; assignment pairs and students are left alone.
	Update(ctx context.Context, class *model.Class) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Class, error)
	// FindByIDForUpdate loads the class and holds a row lock until the transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Class, error)
	FindActiveByIdentity(ctx context.Context, schoolID *uuid.UUID, name string, grade model.Grade, section string) (*model.Class, error)
	List(ctx context.Context, filter ClassFilter) ([]model.Class, error)
	Count(ctx context.Context, filter ClassFilter) (int64, error)
	SetClassTeacher(ctx context.Context, classID uuid.UUID, teacherID *uuid.UUID) error
	// AddAssignment returns ErrDuplicate when the exact pair already exists.
	AddAssignment(ctx context.Context, pair *model.ClassSubjectTeacher) error
	RemoveAssignment(ctx context.Context, classID, subjectID, teacherID uuid.UUID) (int64, error)
	ListAssignmentsByTeacher(ctx context.Context, teacherID uuid.UUID) ([]model.ClassSubjectTeacher, error)
	AddStudent(ctx context.Context, classID, studentID uuid.UUID) error
}

type classRepository struct {
	db *gorm.DB
}

// NewClassRepository builds a GORM-backed repository.
func NewClassRepository(db *gorm.DB) ClassRepository {
	return &classRepository{db: db}
}

func (r *classRepository) Create(ctx context.Context, class *model.Class) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(class).Error)
}

func (r *classRepository) Update(ctx context.Context, class *model.Class) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(class).Error)
}

func (r *classRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Class, error) {
	return r.find(ctx, r.db.WithContext(ctx), id)
}

func (r *classRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Class, error) {
	return r.find(ctx, r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *classRepository) find(ctx context.Context, q *gorm.DB, id uuid.UUID) (*model.Class, error) {
	var class model.Class
	err := q.Preload("Subjects", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).Where("id = ?", id).First(&class).Error
	if err != nil {
		return nil, translate(err)
	}
	if err := r.loadStudents(ctx, []*model.Class{&class}); err != nil {
		return nil, err
	}
	return &class, nil
}

func (r *classRepository) FindActiveByIdentity(ctx context.Context, schoolID *uuid.UUID, name string, grade model.Grade, section string) (*model.Class, error) {
	var class model.Class
	q := r.db.WithContext(ctx).
		Where("name = ? AND grade = ? AND section = ? AND is_active = ?", name, grade, section, true)
	q = applyScope(q, ScopeTo(schoolID), "school_id")
	if err := q.First(&class).Error; err != nil {
		return nil, translate(err)
	}
	return &class, nil
}

func (r *classRepository) List(ctx context.Context, filter ClassFilter) ([]model.Class, error) {
	var classes []model.Class
	err := r.filtered(ctx, filter).
		Preload("Subjects", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Order("created_at ASC").
		Find(&classes).Error
	if err != nil {
		return nil, translate(err)
	}
	model.SortClasses(classes)
	ptrs := make([]*model.Class, len(classes))
	for i := range classes {
		ptrs[i] = &classes[i]
	}
	if err := r.loadStudents(ctx, ptrs); err != nil {
		return nil, err
	}
	return classes, nil
}

func (r *classRepository) Count(ctx context.Context, filter ClassFilter) (int64, error) {
	var count int64
	err := r.filtered(ctx, filter).Count(&count).Error
	return count, translate(err)
}

func (r *classRepository) filtered(ctx context.Context, filter ClassFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Class{})
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if filter.ClassTeacherID != nil {
		q = q.Where("class_teacher_id = ?", *filter.ClassTeacherID)
	}
	return applyScope(q, filter.Scope, "school_id")
}

func (r *classRepository) SetClassTeacher(ctx context.Context, classID uuid.UUID, teacherID *uuid.UUID) error {
	var value interface{} = gorm.Expr("NULL")
	if teacherID != nil {
		value = *teacherID
	}
	return translate(r.db.WithContext(ctx).Model(&model.Class{}).
		Where("id = ?", classID).
		Update("class_teacher_id", value).Error)
}

func (r *classRepository) AddAssignment(ctx context.Context, pair *model.ClassSubjectTeacher) error {
	return translate(r.db.WithContext(ctx).Create(pair).Error)
}

func (r *classRepository) RemoveAssignment(ctx context.Context, classID, subjectID, teacherID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("class_id = ? AND subject_id = ? AND teacher_id = ?", classID, subjectID, teacherID).
		Delete(&model.ClassSubjectTeacher{})
	return result.RowsAffected, translate(result.Error)
}

func (r *classRepository) ListAssignmentsByTeacher(ctx context.Context, teacherID uuid.UUID) ([]model.ClassSubjectTeacher, error) {
	var pairs []model.ClassSubjectTeacher
	err := r.db.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Order("id ASC").
		Find(&pairs).Error
	return pairs, translate(err)
}

func (r *classRepository) AddStudent(ctx context.Context, classID, studentID uuid.UUID) error {
	return translate(r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.ClassStudent{ClassID: classID, StudentID: studentID}).Error)
}

func (r *classRepository) loadStudents(ctx context.Context, classes []*model.Class) error {
	if len(classes) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*model.Class, len(classes))
	ids := make([]uuid.UUID, 0, len(classes))
	for _, c := range classes {
		c.Students = []uuid.UUID{}
		byID[c.ID] = c
		ids = append(ids, c.ID)
	}

	var rows []model.ClassStudent
	if err := r.db.WithContext(ctx).Where("class_id IN ?", ids).
		Order("created_at ASC").Find(&rows).Error; err != nil {
		return translate(err)
	}
	for _, row := range rows {
		c := byID[row.ClassID]
		c.Students = append(c.Students, row.StudentID)
	}
	return nil
}
