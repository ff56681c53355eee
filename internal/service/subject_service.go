package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"schools24/internal/authz"
	"schools24/internal/cache"
	"schools24/internal/errors"
	"schools24/internal/model"
	"schools24/internal/repository"
)

// CreateSubjectInput is the data for a new subject.
type CreateSubjectInput struct {
	Name        string
	Code        string
	Description string
	Icon        string
	Color       string
	Grades      []model.Grade
}

// SubjectService handles the subject catalogue.
type SubjectService interface {
	CreateSubject(ctx context.Context, in CreateSubjectInput) (*model.Subject, error)
	ListSubjects(ctx context.Context) ([]model.Subject, error)
}

type subjectService struct {
	store repository.Store
	cache *cache.Client
	ttl   time.Duration
}

// NewSubjectService creates a new subject service. Subject lists are cached for ttl.
func NewSubjectService(store repository.Store, cache *cache.Client, ttl time.Duration) SubjectService {
	return &subjectService{store: store, cache: cache, ttl: ttl}
}

// CreateSubject stores a subject in the caller's school. Codes are unique
// across the platform after normalisation to upper case.
func (s *subjectService) CreateSubject(ctx context.Context, in CreateSubjectInput) (*model.Subject, error) {
	name := strings.TrimSpace(in.Name)
	code := model.NormalizeCode(in.Code)
	if name == "" {
		return nil, errors.NewValidationError("name", "subject name is required")
	}
	if len(code) < 2 {
		return nil, errors.NewValidationError("code", "subject code must be at least 2 characters")
	}
	for _, g := range in.Grades {
		if !g.Valid() {
			return nil, errors.NewValidationError("grades", "invalid grade "+string(g))
		}
	}

	schoolID := actorSchool(ctx)
	if err := authz.Authorize(ctx, authz.OpManageSubjects, authz.InSchool(schoolID)); err != nil {
		return nil, err
	}

	if _, err := s.store.Subjects().FindByCode(ctx, code); err == nil {
		return nil, errors.Conflict("subject with this code already exists")
	} else if err != repository.ErrNotFound {
		return nil, fmt.Errorf("check subject code: %w", err)
	}

	subject := &model.Subject{
		SchoolID:    schoolID,
		Name:        name,
		Code:        code,
		Description: in.Description,
		Icon:        in.Icon,
		Color:       in.Color,
		Grades:      in.Grades,
		IsActive:    true,
	}
	if subject.Icon == "" {
		subject.Icon = model.DefaultSubjectIcon
	}
	if subject.Color == "" {
		subject.Color = model.DefaultSubjectColor
	}
	if subject.Grades == nil {
		subject.Grades = []model.Grade{}
	}

	if err := s.store.Subjects().Create(ctx, subject); err != nil {
		if err == repository.ErrDuplicate {
			return nil, errors.Conflict("subject with this code already exists")
		}
		return nil, fmt.Errorf("create subject: %w", err)
	}

	_ = s.cache.Delete(ctx, cache.SubjectsKey(schoolID), cache.DashboardKey(schoolID))
	return subject, nil
}

// ListSubjects lists the active subjects available to the caller's school.
func (s *subjectService) ListSubjects(ctx context.Context) ([]model.Subject, error) {
	schoolID := actorSchool(ctx)
	if err := authz.Authorize(ctx, authz.OpManageSubjects, authz.InSchool(schoolID)); err != nil {
		return nil, err
	}

	key := cache.SubjectsKey(schoolID)
	var cached []model.Subject
	if s.cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	subjects, err := s.store.Subjects().List(ctx, repository.SubjectFilter{SchoolID: schoolID, ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	_ = s.cache.SetJSON(ctx, key, subjects, s.ttl)
	return subjects, nil
}
