package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schools24/internal/errors"
	"schools24/internal/model"
)

func TestSubjectService_CreateSubject(t *testing.T) {
	f := newFixture(t)
	svc := NewSubjectService(f.store, nil, time.Minute)

	created, err := svc.CreateSubject(f.ctx, CreateSubjectInput{Name: "Mathematics", Code: " math "})
	require.NoError(t, err)
	assert.Equal(t, "MATH", created.Code)
	assert.Equal(t, model.DefaultSubjectIcon, created.Icon)
	assert.Equal(t, model.DefaultSubjectColor, created.Color)
	assert.Empty(t, created.Grades)
	assert.True(t, created.IsActive)

	tests := []struct {
		name  string
		input CreateSubjectInput
		want  error
	}{
		{
			name:  "code collides after normalisation",
			input: CreateSubjectInput{Name: "Maths", Code: "MATH"},
			want:  errors.Conflict("subject with this code already exists"),
		},
		{
			name:  "short code",
			input: CreateSubjectInput{Name: "Art", Code: "a"},
			want:  errors.NewValidationError("code", "subject code must be at least 2 characters"),
		},
		{
			name:  "missing name",
			input: CreateSubjectInput{Code: "ART"},
			want:  errors.NewValidationError("name", "subject name is required"),
		},
		{
			name:  "unknown grade",
			input: CreateSubjectInput{Name: "Art", Code: "ART", Grades: []model.Grade{"Class 1", "Class 13"}},
			want:  errors.NewValidationError("grades", "invalid grade Class 13"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateSubject(f.ctx, tt.input)
			assert.Equal(t, tt.want, err)
		})
	}
}

func TestSubjectService_ListSubjects(t *testing.T) {
	f := newFixture(t)
	school := uuid.New()
	svc := NewSubjectService(f.store, nil, time.Minute)

	_, err := svc.CreateSubject(f.ctx, CreateSubjectInput{Name: "Science", Code: "SCI"})
	require.NoError(t, err)
	_, err = svc.CreateSubject(f.ctx, CreateSubjectInput{Name: "English", Code: "ENG"})
	require.NoError(t, err)
	_, err = svc.CreateSubject(f.asAdminOf(&school), CreateSubjectInput{Name: "Hindi", Code: "HIN", Grades: []model.Grade{"Class 6"}})
	require.NoError(t, err)

	global, err := svc.ListSubjects(f.ctx)
	require.NoError(t, err)
	require.Len(t, global, 2)
	assert.Equal(t, "English", global[0].Name)
	assert.Equal(t, "Science", global[1].Name)

	scoped, err := svc.ListSubjects(f.asAdminOf(&school))
	require.NoError(t, err)
	assert.Len(t, scoped, 3)
}
