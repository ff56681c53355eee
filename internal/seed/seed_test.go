package seed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schools24/internal/auth"
	"schools24/internal/model"
	"schools24/internal/repository"
	"schools24/internal/repository/memory"
	"schools24/internal/service"
)

func services(store *memory.Store) Services {
	users := service.NewUserService(store, nil, time.Minute)
	return Services{
		Auth:        service.NewAuthService(store.Users(), users, auth.NewJWTService("seed", time.Hour), auth.NewTokenStore(nil)),
		Subjects:    service.NewSubjectService(store, nil, time.Minute),
		Classes:     service.NewClassService(store, nil),
		Assignments: service.NewAssignmentService(store, nil, nil),
	}
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	result, err := Run(ctx, store.Users(), services(store), nil)
	require.NoError(t, err)
	assert.Equal(t, Result{Subjects: 5, Users: 9, Classes: 3}, *result)

	sarah, err := store.Users().FindByUserCode(ctx, "TEACH001")
	require.NoError(t, err)
	require.Len(t, sarah.AssignedClasses, 1)
	require.Len(t, sarah.Subjects, 1)

	math, err := store.Subjects().FindByCode(ctx, "MATH")
	require.NoError(t, err)
	assert.Equal(t, math.ID, sarah.Subjects[0])

	class, err := store.Classes().FindByID(ctx, sarah.AssignedClasses[0])
	require.NoError(t, err)
	assert.Equal(t, "10th Grade Mathematics", class.Name)
	assert.True(t, class.IsClassTeacher(sarah.ID))
	assert.Len(t, class.Students, 3)

	emily, err := store.Users().FindByUserCode(ctx, "TEACH003")
	require.NoError(t, err)
	assert.Len(t, emily.AssignedClasses, 3)

	teachers, err := store.Users().Count(ctx, repository.UserFilter{Role: model.RoleTeacher})
	require.NoError(t, err)
	assert.Equal(t, int64(4), teachers)

	again, err := Run(ctx, store.Users(), services(store), nil)
	require.NoError(t, err)
	assert.True(t, again.Skipped)
}
