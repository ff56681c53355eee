package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"schools24/internal/authz"
	"schools24/internal/cache"
	"schools24/internal/errors"
	"schools24/internal/model"
	"schools24/internal/repository"
)

// CreateClassInput is the data for a new class.
type CreateClassInput struct {
	Name           string
	Grade          model.Grade
	Section        string
	ClassTeacherID *uuid.UUID
	MaxStudents    int
}

// ClassService handles class lifecycle and enrolment.
type ClassService interface {
	CreateClass(ctx context.Context, in CreateClassInput) (*model.ClassDetail, error)
	ListClasses(ctx context.Context) ([]model.ClassDetail, error)
	GetClass(ctx context.Context, id uuid.UUID) (*model.ClassDetail, error)
	EnrollStudent(ctx context.Context, classID, studentID uuid.UUID) (*model.ClassDetail, error)
	DeactivateClass(ctx context.Context, id uuid.UUID) error
}

type classService struct {
	store repository.Store
	cache *cache.Client
}

// NewClassService creates a new class service.
func NewClassService(store repository.Store, cache *cache.Client) ClassService {
	return &classService{store: store, cache: cache}
}

// CreateClass creates a class in the caller's school. A class teacher, when
// given, gets the class added to their assigned classes in the same transaction.
func (s *classService) CreateClass(ctx context.Context, in CreateClassInput) (*model.ClassDetail, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Section = strings.TrimSpace(in.Section)
	if in.Name == "" {
		return nil, errors.NewValidationError("name", "class name is required")
	}
	if !in.Grade.Valid() {
		return nil, errors.NewValidationError("grade", "invalid grade")
	}
	if in.Section == "" {
		return nil, errors.NewValidationError("section", "section is required")
	}
	if in.MaxStudents < 0 {
		return nil, errors.NewValidationError("maxStudents", "maxStudents must not be negative")
	}
	if in.MaxStudents == 0 {
		in.MaxStudents = model.DefaultMaxStudents
	}

	schoolID := actorSchool(ctx)
	if err := authz.Authorize(ctx, authz.OpManageClasses, authz.InSchool(schoolID)); err != nil {
		return nil, err
	}

	var detail *model.ClassDetail
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		_, err := tx.Classes().FindActiveByIdentity(ctx, schoolID, in.Name, in.Grade, in.Section)
		if err == nil {
			return errors.Conflict("class with this name, grade, and section already exists")
		}
		if err != repository.ErrNotFound {
			return fmt.Errorf("check class existence: %w", err)
		}

		if in.ClassTeacherID != nil {
			teacher, err := tx.Users().FindByID(ctx, *in.ClassTeacherID)
			if err != nil && err != repository.ErrNotFound {
				return fmt.Errorf("load class teacher: %w", err)
			}
			if err == repository.ErrNotFound || !teacher.IsTeacher() || !teacher.IsActive ||
				!model.SameSchool(teacher.SchoolID, schoolID) {
				return errors.InvalidReference("class teacher")
			}
		}

		class := &model.Class{
			SchoolID:       schoolID,
			Name:           in.Name,
			Grade:          in.Grade,
			Section:        in.Section,
			ClassTeacherID: in.ClassTeacherID,
			MaxStudents:    in.MaxStudents,
			IsActive:       true,
		}
		if err := tx.Classes().Create(ctx, class); err != nil {
			return fmt.Errorf("create class: %w", err)
		}
		if in.ClassTeacherID != nil {
			if err := tx.Users().AddAssignedClass(ctx, *in.ClassTeacherID, class.ID); err != nil {
				return fmt.Errorf("add assigned class: %w", err)
			}
		}

		class.Subjects = []model.ClassSubjectTeacher{}
		class.Students = []uuid.UUID{}
		detail, err = buildClassDetail(ctx, tx, class)
		return err
	})
	if err != nil {
		return nil, err
	}

	if in.ClassTeacherID != nil {
		_ = s.cache.Delete(ctx, cache.UserKey(*in.ClassTeacherID))
	}
	_ = s.cache.Delete(ctx, cache.DashboardKey(schoolID))
	return detail, nil
}

// ListClasses lists the active classes of the caller's school.
func (s *classService) ListClasses(ctx context.Context) ([]model.ClassDetail, error) {
	schoolID := actorSchool(ctx)
	if err := authz.Authorize(ctx, authz.OpManageClasses, authz.InSchool(schoolID)); err != nil {
		return nil, err
	}
	classes, err := s.store.Classes().List(ctx, repository.ClassFilter{
		Scope:      repository.ScopeTo(schoolID),
		ActiveOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return buildClassDetails(ctx, s.store, classes)
}

// GetClass returns one class with its references populated.
func (s *classService) GetClass(ctx context.Context, id uuid.UUID) (*model.ClassDetail, error) {
	class, err := s.load(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	return buildClassDetail(ctx, s.store, class)
}

// EnrollStudent adds a student of the class's school to the class.
// Enrolling twice is a no-op.
func (s *classService) EnrollStudent(ctx context.Context, classID, studentID uuid.UUID) (*model.ClassDetail, error) {
	var detail *model.ClassDetail
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		class, err := s.load(ctx, tx, classID)
		if err != nil {
			return err
		}
		if !class.IsActive {
			return errors.NotFound("class")
		}

		student, err := tx.Users().FindByID(ctx, studentID)
		if err != nil && err != repository.ErrNotFound {
			return fmt.Errorf("load student: %w", err)
		}
		if err == repository.ErrNotFound || student.Role != model.RoleStudent || !student.IsActive ||
			!model.SameSchool(student.SchoolID, class.SchoolID) {
			return errors.InvalidReference("student")
		}

		if err := tx.Classes().AddStudent(ctx, classID, studentID); err != nil {
			return fmt.Errorf("enroll student: %w", err)
		}
		class, err = tx.Classes().FindByID(ctx, classID)
		if err != nil {
			return fmt.Errorf("reload class: %w", err)
		}
		detail, err = buildClassDetail(ctx, tx, class)
		return err
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// DeactivateClass soft-deletes a class. Its pairs stay in place for history.
func (s *classService) DeactivateClass(ctx context.Context, id uuid.UUID) error {
	var schoolID *uuid.UUID
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		class, err := s.load(ctx, tx, id)
		if err != nil {
			return err
		}
		if !class.IsActive {
			return nil
		}
		class.IsActive = false
		schoolID = class.SchoolID
		if err := tx.Classes().Update(ctx, class); err != nil {
			return fmt.Errorf("deactivate class: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	_ = s.cache.Delete(ctx, cache.DashboardKey(schoolID))
	return nil
}

func (s *classService) load(ctx context.Context, store repository.Store, id uuid.UUID) (*model.Class, error) {
	class, err := store.Classes().FindByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, errors.NotFound("class")
		}
		return nil, fmt.Errorf("load class: %w", err)
	}
	if err := authz.Authorize(ctx, authz.OpManageClasses, authz.InSchool(class.SchoolID)); err != nil {
		return nil, err
	}
	return class, nil
}
