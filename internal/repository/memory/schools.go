package memory

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"schools24/internal/model"
	"schools24/internal/repository"
)

type schoolTable struct {
	s *Store
}

func (t *schoolTable) Create(ctx context.Context, school *model.School) error {
	defer t.s.lock()()
	db := t.s.db
	_ = school.BeforeCreate(nil)
	for _, v := range db.schools {
		if v.Code == school.Code || v.ID == school.ID {
			return repository.ErrDuplicate
		}
	}
	stamp(&school.CreatedAt, &school.UpdatedAt)
	db.schools[school.ID] = copySchool(*school)
	db.schoolOrder = append(db.schoolOrder, school.ID)
	return nil
}

func (t *schoolTable) Update(ctx context.Context, school *model.School) error {
	defer t.s.lock()()
	db := t.s.db
	if _, ok := db.schools[school.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, v := range db.schools {
		if id != school.ID && v.Code == school.Code {
			return repository.ErrDuplicate
		}
	}
	stamp(&school.CreatedAt, &school.UpdatedAt)
	db.schools[school.ID] = copySchool(*school)
	return nil
}

func (t *schoolTable) FindByID(ctx context.Context, id uuid.UUID) (*model.School, error) {
	defer t.s.lock()()
	v, ok := t.s.db.schools[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := copySchool(v)
	return &out, nil
}

func (t *schoolTable) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.School, error) {
	return t.FindByID(ctx, id)
}

func (t *schoolTable) FindByCode(ctx context.Context, code string) (*model.School, error) {
	defer t.s.lock()()
	for _, v := range t.s.db.schools {
		if v.Code == code {
			out := copySchool(v)
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (t *schoolTable) List(ctx context.Context, filter repository.SchoolFilter) ([]model.School, int64, error) {
	defer t.s.lock()()
	var matched []model.School
	order := t.s.db.schoolOrder
	query := strings.ToLower(filter.Query)
	for i := len(order) - 1; i >= 0; i-- {
		v := t.s.db.schools[order[i]]
		if filter.OwnerID != nil && v.OwnerID != *filter.OwnerID {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(v.Name), query) &&
			!strings.Contains(strings.ToLower(v.Code), query) {
			continue
		}
		matched = append(matched, copySchool(v))
	}

	total := int64(len(matched))
	start := filter.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	if filter.Limit > 0 && start+filter.Limit < end {
		end = start + filter.Limit
	}
	page := append([]model.School{}, matched[start:end]...)
	return page, total, nil
}

func (t *schoolTable) Count(ctx context.Context) (int64, error) {
	defer t.s.lock()()
	return int64(len(t.s.db.schools)), nil
}

func copySchool(v model.School) model.School {
	v.AdminUserID = copyIDPtr(v.AdminUserID)
	if v.Settings != nil {
		settings := make(datatypes.JSONMap, len(v.Settings))
		for k, val := range v.Settings {
			settings[k] = val
		}
		v.Settings = settings
	}
	return v
}
