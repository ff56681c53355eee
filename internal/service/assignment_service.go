package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"schools24/internal/authz"
	"schools24/internal/cache"
	"schools24/internal/errors"
	"schools24/internal/model"
	"schools24/internal/repository"
)

// AssignmentService keeps class assignment pairs and teacher membership in step.
//
// For every teacher that appears in a class (as a pair teacher or as class
// teacher) the class is in the teacher's assigned classes and every subject
// they teach there is in the teacher's subjects. Each operation runs in one
// store transaction with the class row locked.
type AssignmentService interface {
	AssignTeacher(ctx context.Context, classID, teacherID, subjectID uuid.UUID, isClassTeacher bool) (*model.ClassDetail, error)
	RemoveTeacher(ctx context.Context, classID, teacherID uuid.UUID, subjectID *uuid.UUID, removeAsClassTeacher bool) (*model.ClassDetail, error)
	// TeacherLoad derives what a teacher currently teaches from the pairs.
	TeacherLoad(ctx context.Context, teacherID uuid.UUID) (*model.TeacherLoad, error)
}

type assignmentService struct {
	store repository.Store
	cache *cache.Client
	log   *zap.Logger
}

// NewAssignmentService creates a new assignment service.
func NewAssignmentService(store repository.Store, cache *cache.Client, log *zap.Logger) AssignmentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &assignmentService{store: store, cache: cache, log: log}
}

// AssignTeacher adds the (subject, teacher) pair to a class and records the
// class and subject on the teacher.
func (s *assignmentService) AssignTeacher(ctx context.Context, classID, teacherID, subjectID uuid.UUID, isClassTeacher bool) (*model.ClassDetail, error) {
	var (
		detail   *model.ClassDetail
		replaced *uuid.UUID
	)
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		class, err := tx.Classes().FindByIDForUpdate(ctx, classID)
		if err != nil {
			if err == repository.ErrNotFound {
				return errors.NotFound("class")
			}
			return fmt.Errorf("load class: %w", err)
		}
		if !class.IsActive {
			return errors.NotFound("class")
		}
		if err := authz.Authorize(ctx, authz.OpAssignTeachers, authz.InSchool(class.SchoolID)); err != nil {
			return err
		}

		teacher, err := tx.Users().FindByID(ctx, teacherID)
		if err != nil {
			if err == repository.ErrNotFound {
				return errors.InvalidReference("teacher")
			}
			return fmt.Errorf("load teacher: %w", err)
		}
		if !teacher.IsTeacher() || !teacher.IsActive || !model.SameSchool(teacher.SchoolID, class.SchoolID) {
			return errors.InvalidReference("teacher")
		}

		subject, err := tx.Subjects().FindByID(ctx, subjectID)
		if err != nil {
			if err == repository.ErrNotFound {
				return errors.InvalidReference("subject")
			}
			return fmt.Errorf("load subject: %w", err)
		}
		if !subject.AvailableTo(class.SchoolID) {
			return errors.InvalidReference("subject")
		}

		if class.HasPair(subjectID, teacherID) {
			return errors.Conflict("teacher is already assigned to this subject in this class")
		}
		pair := &model.ClassSubjectTeacher{ClassID: classID, SubjectID: subjectID, TeacherID: teacherID}
		if err := tx.Classes().AddAssignment(ctx, pair); err != nil {
			if err == repository.ErrDuplicate {
				return errors.Conflict("teacher is already assigned to this subject in this class")
			}
			return fmt.Errorf("add assignment: %w", err)
		}
		class.Subjects = append(class.Subjects, *pair)

		if isClassTeacher && !class.IsClassTeacher(teacherID) {
			prior := class.ClassTeacherID
			if err := tx.Classes().SetClassTeacher(ctx, classID, &teacherID); err != nil {
				return fmt.Errorf("set class teacher: %w", err)
			}
			class.ClassTeacherID = &teacherID
			if prior != nil && !class.Teaches(*prior) {
				if err := tx.Users().RemoveAssignedClass(ctx, *prior, classID); err != nil {
					return fmt.Errorf("release prior class teacher: %w", err)
				}
				replaced = prior
			}
		}

		if err := tx.Users().AddAssignedClass(ctx, teacherID, classID); err != nil {
			return fmt.Errorf("add assigned class: %w", err)
		}
		if err := tx.Users().AddSubject(ctx, teacherID, subjectID); err != nil {
			return fmt.Errorf("add teacher subject: %w", err)
		}

		detail, err = s.reload(ctx, tx, classID)
		return err
	})
	if err != nil {
		return nil, err
	}

	_ = s.cache.Delete(ctx, cache.UserKey(teacherID))
	if replaced != nil {
		_ = s.cache.Delete(ctx, cache.UserKey(*replaced))
		s.log.Info("class teacher replaced",
			zap.String("class_id", classID.String()),
			zap.String("previous_teacher_id", replaced.String()),
			zap.String("teacher_id", teacherID.String()))
	}
	return detail, nil
}

// RemoveTeacher drops a pair and/or the class teacher role, then releases the
// class from the teacher when no tie to it remains. The teacher's subjects
// are a qualification set and are never pruned here. Removing something that
// is not there is a no-op.
func (s *assignmentService) RemoveTeacher(ctx context.Context, classID, teacherID uuid.UUID, subjectID *uuid.UUID, removeAsClassTeacher bool) (*model.ClassDetail, error) {
	var detail *model.ClassDetail
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		class, err := tx.Classes().FindByIDForUpdate(ctx, classID)
		if err != nil {
			if err == repository.ErrNotFound {
				return errors.NotFound("class")
			}
			return fmt.Errorf("load class: %w", err)
		}
		if err := authz.Authorize(ctx, authz.OpAssignTeachers, authz.InSchool(class.SchoolID)); err != nil {
			return err
		}

		if subjectID != nil {
			if _, err := tx.Classes().RemoveAssignment(ctx, classID, *subjectID, teacherID); err != nil {
				return fmt.Errorf("remove assignment: %w", err)
			}
		}
		if removeAsClassTeacher && class.IsClassTeacher(teacherID) {
			if err := tx.Classes().SetClassTeacher(ctx, classID, nil); err != nil {
				return fmt.Errorf("clear class teacher: %w", err)
			}
		}

		class, err = tx.Classes().FindByID(ctx, classID)
		if err != nil {
			return fmt.Errorf("reload class: %w", err)
		}
		if !class.Teaches(teacherID) {
			if err := tx.Users().RemoveAssignedClass(ctx, teacherID, classID); err != nil {
				return fmt.Errorf("remove assigned class: %w", err)
			}
		}

		detail, err = buildClassDetail(ctx, tx, class)
		return err
	})
	if err != nil {
		return nil, err
	}

	_ = s.cache.Delete(ctx, cache.UserKey(teacherID))
	return detail, nil
}

// TeacherLoad lists the classes and subjects a teacher currently teaches.
func (s *assignmentService) TeacherLoad(ctx context.Context, teacherID uuid.UUID) (*model.TeacherLoad, error) {
	teacher, err := s.store.Users().FindByID(ctx, teacherID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, errors.NotFound("teacher")
		}
		return nil, fmt.Errorf("load teacher: %w", err)
	}
	if !teacher.IsTeacher() {
		return nil, errors.NotFound("teacher")
	}
	if err := authz.Authorize(ctx, authz.OpAssignTeachers, authz.InSchool(teacher.SchoolID)); err != nil {
		return nil, err
	}

	pairs, err := s.store.Classes().ListAssignmentsByTeacher(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	owned, err := s.store.Classes().List(ctx, repository.ClassFilter{ClassTeacherID: &teacherID})
	if err != nil {
		return nil, fmt.Errorf("list class teacher classes: %w", err)
	}

	load := &model.TeacherLoad{
		Teacher:        teacher.Summary(),
		Assignments:    make([]model.LoadAssignment, 0, len(pairs)),
		ClassTeacherOf: make([]uuid.UUID, 0, len(owned)),
	}
	var classes, subjects []uuid.UUID
	for _, p := range pairs {
		load.Assignments = append(load.Assignments, model.LoadAssignment{ClassID: p.ClassID, SubjectID: p.SubjectID})
		classes = append(classes, p.ClassID)
		subjects = append(subjects, p.SubjectID)
	}
	for _, c := range owned {
		load.ClassTeacherOf = append(load.ClassTeacherOf, c.ID)
		classes = append(classes, c.ID)
	}
	load.Classes = uniqueIDs(classes)
	load.Subjects = uniqueIDs(subjects)
	return load, nil
}

func (s *assignmentService) reload(ctx context.Context, tx repository.Store, classID uuid.UUID) (*model.ClassDetail, error) {
	class, err := tx.Classes().FindByID(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("reload class: %w", err)
	}
	return buildClassDetail(ctx, tx, class)
}
