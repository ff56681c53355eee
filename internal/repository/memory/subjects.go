package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"schools24/internal/model"
	"schools24/internal/repository"
)

type subjectTable struct {
	s *Store
}

func (t *subjectTable) Create(ctx context.Context, subject *model.Subject) error {
	defer t.s.lock()()
	db := t.s.db
	_ = subject.BeforeCreate(nil)
	for _, v := range db.subjects {
		if v.Code == subject.Code || v.ID == subject.ID {
			return repository.ErrDuplicate
		}
	}
	stamp(&subject.CreatedAt, &subject.UpdatedAt)
	db.subjects[subject.ID] = copySubject(*subject)
	return nil
}

func (t *subjectTable) FindByID(ctx context.Context, id uuid.UUID) (*model.Subject, error) {
	defer t.s.lock()()
	v, ok := t.s.db.subjects[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := copySubject(v)
	return &out, nil
}

func (t *subjectTable) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Subject, error) {
	defer t.s.lock()()
	var out []model.Subject
	for _, id := range ids {
		if v, ok := t.s.db.subjects[id]; ok {
			out = append(out, copySubject(v))
		}
	}
	return out, nil
}

func (t *subjectTable) FindByCode(ctx context.Context, code string) (*model.Subject, error) {
	defer t.s.lock()()
	for _, v := range t.s.db.subjects {
		if v.Code == code {
			out := copySubject(v)
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (t *subjectTable) List(ctx context.Context, filter repository.SubjectFilter) ([]model.Subject, error) {
	defer t.s.lock()()
	out := []model.Subject{}
	for _, v := range t.s.db.subjects {
		if subjectMatches(v, filter) {
			out = append(out, copySubject(v))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (t *subjectTable) Count(ctx context.Context, filter repository.SubjectFilter) (int64, error) {
	defer t.s.lock()()
	var n int64
	for _, v := range t.s.db.subjects {
		if subjectMatches(v, filter) {
			n++
		}
	}
	return n, nil
}

func subjectMatches(v model.Subject, filter repository.SubjectFilter) bool {
	if filter.ActiveOnly && !v.IsActive {
		return false
	}
	if filter.SchoolID == nil {
		return v.SchoolID == nil
	}
	return v.AvailableTo(filter.SchoolID)
}

func copySubject(v model.Subject) model.Subject {
	v.SchoolID = copyIDPtr(v.SchoolID)
	if v.Grades != nil {
		grades := make([]model.Grade, len(v.Grades))
		copy(grades, v.Grades)
		v.Grades = grades
	}
	return v
}
