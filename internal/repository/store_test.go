package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schools24/internal/db"
	"schools24/internal/model"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	gormDB, err := db.NewSQLite(filepath.Join(t.TempDir(), "schools24.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB, false))
	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewStore(gormDB)
}

func createTeacher(t *testing.T, store Store, code string) *model.User {
	t.Helper()
	u := &model.User{Name: code, Email: code + "@school.test", UserCode: code, Role: model.RoleTeacher, IsActive: true}
	require.NoError(t, store.Users().Create(context.Background(), u))
	return u
}

func createSubject(t *testing.T, store Store, code string) *model.Subject {
	t.Helper()
	s := &model.Subject{Name: code, Code: code, IsActive: true}
	require.NoError(t, store.Subjects().Create(context.Background(), s))
	return s
}

func createClass(t *testing.T, store Store, name string, grade model.Grade, section string) *model.Class {
	t.Helper()
	c := &model.Class{Name: name, Grade: grade, Section: section, MaxStudents: model.DefaultMaxStudents, IsActive: true}
	require.NoError(t, store.Classes().Create(context.Background(), c))
	return c
}

func TestGormStore_AssignmentLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	class := createClass(t, store, "10A", "Class 10", "A")
	t1 := createTeacher(t, store, "T1")
	math := createSubject(t, store, "MATH")

	err := store.WithTransaction(ctx, func(ctx context.Context, tx Store) error {
		if _, err := tx.Classes().FindByIDForUpdate(ctx, class.ID); err != nil {
			return err
		}
		if err := tx.Classes().AddAssignment(ctx, &model.ClassSubjectTeacher{ClassID: class.ID, SubjectID: math.ID, TeacherID: t1.ID}); err != nil {
			return err
		}
		if err := tx.Classes().SetClassTeacher(ctx, class.ID, &t1.ID); err != nil {
			return err
		}
		if err := tx.Users().AddAssignedClass(ctx, t1.ID, class.ID); err != nil {
			return err
		}
		return tx.Users().AddSubject(ctx, t1.ID, math.ID)
	})
	require.NoError(t, err)

	got, err := store.Classes().FindByID(ctx, class.ID)
	require.NoError(t, err)
	require.Len(t, got.Subjects, 1)
	assert.Equal(t, math.ID, got.Subjects[0].SubjectID)
	assert.Equal(t, t1.ID, got.Subjects[0].TeacherID)
	require.NotNil(t, got.ClassTeacherID)
	assert.Equal(t, t1.ID, *got.ClassTeacherID)

	teacher, err := store.Users().FindByID(ctx, t1.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{class.ID}, teacher.AssignedClasses)
	assert.Equal(t, []uuid.UUID{math.ID}, teacher.Subjects)

	err = store.Classes().AddAssignment(ctx, &model.ClassSubjectTeacher{ClassID: class.ID, SubjectID: math.ID, TeacherID: t1.ID})
	assert.Equal(t, ErrDuplicate, err)

	removed, err := store.Classes().RemoveAssignment(ctx, class.ID, math.ID, t1.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	removed, err = store.Classes().RemoveAssignment(ctx, class.ID, math.ID, t1.ID)
	require.NoError(t, err)
	assert.Zero(t, removed)

	require.NoError(t, store.Classes().SetClassTeacher(ctx, class.ID, nil))
	require.NoError(t, store.Users().RemoveAssignedClass(ctx, t1.ID, class.ID))

	got, err = store.Classes().FindByID(ctx, class.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Subjects)
	assert.Nil(t, got.ClassTeacherID)

	teacher, err = store.Users().FindByID(ctx, t1.ID)
	require.NoError(t, err)
	assert.Empty(t, teacher.AssignedClasses)
	assert.Equal(t, []uuid.UUID{math.ID}, teacher.Subjects)
}

func TestGormStore_PairsKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	class := createClass(t, store, "10A", "Class 10", "A")
	math := createSubject(t, store, "MATH")
	teachers := []*model.User{createTeacher(t, store, "T3"), createTeacher(t, store, "T1"), createTeacher(t, store, "T2")}

	for _, teacher := range teachers {
		require.NoError(t, store.Classes().AddAssignment(ctx, &model.ClassSubjectTeacher{ClassID: class.ID, SubjectID: math.ID, TeacherID: teacher.ID}))
	}

	got, err := store.Classes().FindByID(ctx, class.ID)
	require.NoError(t, err)
	require.Len(t, got.Subjects, len(teachers))
	for i, teacher := range teachers {
		assert.Equal(t, teacher.ID, got.Subjects[i].TeacherID)
	}

	pairs, err := store.Classes().ListAssignmentsByTeacher(ctx, teachers[1].ID)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, class.ID, pairs[0].ClassID)
}

func TestGormStore_SetSemantics(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	class := createClass(t, store, "10A", "Class 10", "A")
	t1 := createTeacher(t, store, "T1")
	math := createSubject(t, store, "MATH")
	student := &model.User{Name: "S1", Email: "s1@school.test", UserCode: "S1", Role: model.RoleStudent, IsActive: true}
	require.NoError(t, store.Users().Create(ctx, student))

	for i := 0; i < 2; i++ {
		require.NoError(t, store.Users().AddAssignedClass(ctx, t1.ID, class.ID))
		require.NoError(t, store.Users().AddSubject(ctx, t1.ID, math.ID))
		require.NoError(t, store.Classes().AddStudent(ctx, class.ID, student.ID))
	}

	teacher, err := store.Users().FindByID(ctx, t1.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{class.ID}, teacher.AssignedClasses)
	assert.Equal(t, []uuid.UUID{math.ID}, teacher.Subjects)

	got, err := store.Classes().FindByID(ctx, class.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{student.ID}, got.Students)
}

func TestGormStore_UniqueKeys(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	createTeacher(t, store, "T1")
	createSubject(t, store, "SCI")

	tests := []struct {
		name  string
		write func() error
	}{
		{"subject code", func() error {
			return store.Subjects().Create(ctx, &model.Subject{Name: "Science", Code: "SCI", IsActive: true})
		}},
		{"user email", func() error {
			return store.Users().Create(ctx, &model.User{Name: "X", Email: "T1@school.test", UserCode: "X1", Role: model.RoleTeacher})
		}},
		{"user code", func() error {
			return store.Users().Create(ctx, &model.User{Name: "X", Email: "x@school.test", UserCode: "T1", Role: model.RoleTeacher})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, ErrDuplicate, tt.write())
		})
	}
}

func TestGormStore_WithTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	class := createClass(t, store, "10A", "Class 10", "A")
	t1 := createTeacher(t, store, "T1")
	math := createSubject(t, store, "MATH")

	boom := errors.New("boom")
	err := store.WithTransaction(ctx, func(ctx context.Context, tx Store) error {
		if err := tx.Classes().AddAssignment(ctx, &model.ClassSubjectTeacher{ClassID: class.ID, SubjectID: math.ID, TeacherID: t1.ID}); err != nil {
			return err
		}
		if err := tx.Users().AddAssignedClass(ctx, t1.ID, class.ID); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.Classes().FindByID(ctx, class.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Subjects)
	teacher, err := store.Users().FindByID(ctx, t1.ID)
	require.NoError(t, err)
	assert.Empty(t, teacher.AssignedClasses)
}

func TestGormStore_ListClassesInGradeOrder(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	for _, c := range []struct {
		grade   model.Grade
		section string
	}{
		{"Class 10", "A"}, {"Class 2", "B"}, {"LKG", "A"}, {"Class 2", "A"}, {"Pre KG", "A"}, {"Class 1", "A"},
	} {
		createClass(t, store, string(c.grade)+c.section, c.grade, c.section)
	}

	classes, err := store.Classes().List(ctx, ClassFilter{ActiveOnly: true})
	require.NoError(t, err)
	names := make([]string, len(classes))
	for i, c := range classes {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"Pre KGA", "LKGA", "Class 1A", "Class 2A", "Class 2B", "Class 10A"}, names)
}
