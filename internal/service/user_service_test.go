package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schools24/internal/authz"
	"schools24/internal/errors"
	"schools24/internal/model"
)

func TestUserService_CreateSchoolUser(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.store, nil, time.Minute)

	user, err := svc.CreateSchoolUser(f.ctx, NewUserInput{
		Name: "Sarah Johnson", Email: "Sarah@School.com", Password: "teacher123", UserCode: "TCH001", Role: model.RoleTeacher,
	})
	require.NoError(t, err)
	assert.Equal(t, "sarah@school.com", user.Email)
	assert.Empty(t, user.AssignedClasses)

	_, err = svc.CreateSchoolUser(f.ctx, NewUserInput{
		Name: "Dup", Email: "sarah@school.com", Password: "x", UserCode: "TCH002", Role: model.RoleTeacher,
	})
	assert.Equal(t, errors.Conflict("user with this email or user ID already exists"), err)

	_, err = svc.CreateSchoolUser(f.ctx, NewUserInput{
		Name: "Boss", Email: "boss@school.com", Password: "x", UserCode: "ADM009", Role: model.RoleAdmin,
	})
	assert.Equal(t, errors.NewValidationError("role", "role must be teacher or student"), err)
}

func TestUserService_CreationLocks(t *testing.T) {
	f := newFixture(t)
	school := &model.School{OwnerID: uuid.New(), Name: "Green Valley", Code: "GV", LockStudentCreation: true}
	require.NoError(t, f.store.Schools().Create(context.Background(), school))
	ctx := f.asAdminOf(&school.ID)
	svc := NewUserService(f.store, nil, time.Minute)

	_, err := svc.CreateSchoolUser(ctx, NewUserInput{Name: "Kid", Email: "kid@gv.com", Password: "x", UserCode: "STU1", Role: model.RoleStudent})
	var forbidden *errors.ForbiddenError
	assert.ErrorAs(t, err, &forbidden)

	teacher, err := svc.CreateSchoolUser(ctx, NewUserInput{Name: "Ms T", Email: "t@gv.com", Password: "x", UserCode: "TCH1", Role: model.RoleTeacher})
	require.NoError(t, err)
	require.NotNil(t, teacher.SchoolID)
	assert.Equal(t, school.ID, *teacher.SchoolID)
}

func TestUserService_Dashboard(t *testing.T) {
	f := newFixture(t)
	for _, code := range []string{"T1", "T2"} {
		f.user(model.RoleTeacher, code, nil)
	}
	for _, code := range []string{"S1", "S2", "S3", "S4", "S5"} {
		f.user(model.RoleStudent, code, nil)
	}
	f.class("1A", "Class 1", "A", nil)
	f.subject("MATH", nil)
	f.user(model.RoleStudent, "ELSEWHERE", ptrTo(uuid.New()))

	dashboard, err := NewUserService(f.store, nil, time.Minute).Dashboard(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DashboardStats{TotalStudents: 5, TotalTeachers: 2, TotalClasses: 1, TotalSubjects: 1}, dashboard.Stats)
	require.Len(t, dashboard.RecentUsers, recentUsersLimit)
	assert.Equal(t, "S5", dashboard.RecentUsers[0].UserCode)
}

func TestUserService_RequiresCapability(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.store, nil, time.Minute)

	teacherCtx := authz.WithActor(context.Background(), authz.Actor{ID: uuid.New(), Role: model.RoleTeacher})
	_, err := svc.ListTeachers(teacherCtx)
	var forbidden *errors.ForbiddenError
	assert.ErrorAs(t, err, &forbidden)

	_, err = svc.Dashboard(context.Background())
	assert.Equal(t, errors.ErrTokenInvalid, err)
}

func TestUserService_GetUser(t *testing.T) {
	f := newFixture(t)
	u := f.user(model.RoleTeacher, "T1", nil)
	svc := NewUserService(f.store, nil, time.Minute)

	got, err := svc.GetUser(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "T1", got.UserCode)

	_, err = svc.GetUser(context.Background(), uuid.New())
	assert.Equal(t, errors.NotFound("user"), err)
}
