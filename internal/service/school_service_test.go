package service

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"schools24/internal/authz"
	"schools24/internal/errors"
	"schools24/internal/model"
)

func developerCtx() (context.Context, uuid.UUID) {
	id := uuid.New()
	return authz.WithActor(context.Background(), authz.Actor{ID: id, Role: model.RoleDeveloper}), id
}

func TestSchoolService_CreateSchool(t *testing.T) {
	f := newFixture(t)
	ctx, devID := developerCtx()
	svc := NewSchoolService(f.store, nil, nil)

	school, err := svc.CreateSchool(ctx, CreateSchoolInput{
		Name: "Green Valley", Code: "gv01", Email: "Office@GV.edu",
		Settings: map[string]interface{}{"academicYear": "2026-27"},
	})
	require.NoError(t, err)
	assert.Equal(t, devID, school.OwnerID)
	assert.Equal(t, "GV01", school.Code)
	assert.Equal(t, "office@gv.edu", school.Email)
	assert.Equal(t, "2026-27", school.Settings["academicYear"])

	_, err = svc.CreateSchool(ctx, CreateSchoolInput{Name: "Other", Code: "GV01"})
	assert.Equal(t, errors.Conflict("school code already exists"), err)

	_, err = svc.CreateSchool(f.ctx, CreateSchoolInput{Name: "Admin's", Code: "ADM"})
	var forbidden *errors.ForbiddenError
	assert.ErrorAs(t, err, &forbidden)
}

func TestSchoolService_ListSchools(t *testing.T) {
	f := newFixture(t)
	ctx, _ := developerCtx()
	otherCtx, _ := developerCtx()
	svc := NewSchoolService(f.store, nil, nil)

	for i := 1; i <= 3; i++ {
		_, err := svc.CreateSchool(ctx, CreateSchoolInput{Name: fmt.Sprintf("School %d", i), Code: fmt.Sprintf("S%d", i)})
		require.NoError(t, err)
	}
	_, err := svc.CreateSchool(otherCtx, CreateSchoolInput{Name: "Rival", Code: "RIV"})
	require.NoError(t, err)

	page, err := svc.ListSchools(ctx, "", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Schools, 2)
	assert.Equal(t, "S3", page.Schools[0].Code)

	page, err = svc.ListSchools(ctx, "", 2, 2)
	require.NoError(t, err)
	require.Len(t, page.Schools, 1)
	assert.Equal(t, "S1", page.Schools[0].Code)

	page, err = svc.ListSchools(ctx, "school 2", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, defaultPageSize, page.PageSize)
	require.Len(t, page.Schools, 1)
	assert.Equal(t, "S2", page.Schools[0].Code)
}

func TestSchoolService_Users(t *testing.T) {
	f := newFixture(t)
	ctx, _ := developerCtx()
	svc := NewSchoolService(f.store, nil, nil)

	school, err := svc.CreateSchool(ctx, CreateSchoolInput{Name: "Green Valley", Code: "GV"})
	require.NoError(t, err)

	first, err := svc.CreateUserForSchool(ctx, school.ID, NewUserInput{Name: "A1", Email: "a1@gv.edu", Password: "x", UserCode: "A1", Role: model.RoleAdmin})
	require.NoError(t, err)
	_, err = svc.CreateUserForSchool(ctx, school.ID, NewUserInput{Name: "A2", Email: "a2@gv.edu", Password: "x", UserCode: "A2", Role: model.RoleAdmin})
	require.NoError(t, err)

	stored, err := f.store.Schools().FindByID(context.Background(), school.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.AdminUserID)
	assert.Equal(t, first.ID, *stored.AdminUserID)

	provisioned, err := svc.ProvisionAdmin(ctx, school.ID, NewUserInput{Name: "P", Email: "p@gv.edu", Password: "x", UserCode: "P1"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, provisioned.Role)
	stored, err = f.store.Schools().FindByID(context.Background(), school.ID)
	require.NoError(t, err)
	assert.Equal(t, provisioned.ID, *stored.AdminUserID)

	_, err = svc.CreateUserForSchool(ctx, school.ID, NewUserInput{Name: "D", Email: "d@gv.edu", Password: "x", UserCode: "D1", Role: model.RoleDeveloper})
	assert.Equal(t, errors.NewValidationError("role", "role must be admin, teacher or student"), err)

	users, err := svc.ListSchoolUsers(ctx, school.ID)
	require.NoError(t, err)
	assert.Len(t, users, 3)

	otherCtx, _ := developerCtx()
	_, err = svc.ListSchoolUsers(otherCtx, school.ID)
	var forbidden *errors.ForbiddenError
	assert.ErrorAs(t, err, &forbidden)

	_, err = svc.ListSchoolUsers(ctx, uuid.New())
	assert.Equal(t, errors.NotFound("school"), err)
}

func TestSchoolService_Locks(t *testing.T) {
	f := newFixture(t)
	ctx, _ := developerCtx()
	svc := NewSchoolService(f.store, nil, nil)

	school, err := svc.CreateSchool(ctx, CreateSchoolInput{Name: "Green Valley", Code: "GV"})
	require.NoError(t, err)

	locks, err := svc.GetLocks(ctx, school.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SchoolLocks{}, *locks)

	_, err = svc.UpdateLocks(ctx, school.ID, model.SchoolLocks{LockTeacherCreation: true})
	require.NoError(t, err)
	locks, err = svc.GetLocks(ctx, school.ID)
	require.NoError(t, err)
	assert.True(t, locks.LockTeacherCreation)
	assert.False(t, locks.LockStudentCreation)

	// Developers are not bound by the locks.
	_, err = svc.CreateUserForSchool(ctx, school.ID, NewUserInput{Name: "T", Email: "t@gv.edu", Password: "x", UserCode: "T1", Role: model.RoleTeacher})
	assert.NoError(t, err)
}

func TestSchoolService_OverviewAndExport(t *testing.T) {
	f := newFixture(t)
	ctx, _ := developerCtx()
	svc := NewSchoolService(f.store, nil, nil)

	school, err := svc.CreateSchool(ctx, CreateSchoolInput{Name: "Green Valley", Code: "GV", Phone: "555-0100"})
	require.NoError(t, err)
	_, err = svc.CreateUserForSchool(ctx, school.ID, NewUserInput{Name: "A", Email: "a@gv.edu", Password: "x", UserCode: "A1", Role: model.RoleAdmin})
	require.NoError(t, err)
	_, err = svc.CreateUserForSchool(ctx, school.ID, NewUserInput{Name: "S", Email: "s@gv.edu", Password: "x", UserCode: "S1", Role: model.RoleStudent})
	require.NoError(t, err)

	overview, err := svc.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Overview{Schools: 1, Admins: 1, Teachers: 0, Students: 1}, *overview)

	data, err := svc.ExportSchools(ctx, "")
	require.NoError(t, err)

	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Name", rows[0][0])
	assert.Equal(t, "Green Valley", rows[1][0])
	assert.Equal(t, "GV", rows[1][1])
	assert.Equal(t, "555-0100", rows[1][4])
}

func TestSchoolService_ExportFiltersByQuery(t *testing.T) {
	f := newFixture(t)
	ctx, _ := developerCtx()
	svc := NewSchoolService(f.store, nil, nil)

	for _, in := range []CreateSchoolInput{
		{Name: "Green Valley", Code: "GV"},
		{Name: "Blue Ridge", Code: "BR"},
		{Name: "Greenwood High", Code: "GWH"},
	} {
		_, err := svc.CreateSchool(ctx, in)
		require.NoError(t, err)
	}

	tests := []struct {
		query string
		names []string
	}{
		{"green", []string{"Green Valley", "Greenwood High"}},
		{"br", []string{"Blue Ridge"}},
		{"nothing", nil},
		{"", []string{"Green Valley", "Blue Ridge", "Greenwood High"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			data, err := svc.ExportSchools(ctx, tt.query)
			require.NoError(t, err)

			book, err := excelize.OpenReader(bytes.NewReader(data))
			require.NoError(t, err)
			defer book.Close()
			rows, err := book.GetRows(exportSheet)
			require.NoError(t, err)
			require.NotEmpty(t, rows)

			var names []string
			for _, row := range rows[1:] {
				names = append(names, row[0])
			}
			assert.ElementsMatch(t, tt.names, names)
		})
	}
}
