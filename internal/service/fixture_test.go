package service

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"schools24/internal/authz"
	"schools24/internal/db"
	"schools24/internal/model"
	"schools24/internal/repository"
	"schools24/internal/repository/memory"
)

var errBoom = stderrors.New("boom")

type fixture struct {
	t     *testing.T
	store repository.Store
	ctx   context.Context
}

// newFixture returns an empty memory store and a context acting as a single-tenant admin.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	return fixtureWith(t, memory.New())
}

// newSQLiteFixture is newFixture backed by the GORM store on a fresh SQLite file.
func newSQLiteFixture(t *testing.T) *fixture {
	t.Helper()
	gormDB, err := db.NewSQLite(filepath.Join(t.TempDir(), "schools24.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB, false))
	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return fixtureWith(t, repository.NewStore(gormDB))
}

func forEachStore(t *testing.T, test func(t *testing.T, f *fixture)) {
	for _, st := range stores {
		t.Run(st.name, func(t *testing.T) {
			test(t, st.newFixture(t))
		})
	}
}

func fixtureWith(t *testing.T, store repository.Store) *fixture {
	f := &fixture{t: t, store: store}
	f.ctx = authz.WithActor(context.Background(), authz.Actor{ID: uuid.New(), Role: model.RoleAdmin})
	return f
}

// stores runs a test against each Store implementation.
var stores = []struct {
	name       string
	newFixture func(t *testing.T) *fixture
}{
	{"memory", newFixture},
	{"gorm", newSQLiteFixture},
}

func (f *fixture) asAdminOf(schoolID *uuid.UUID) context.Context {
	return authz.WithActor(context.Background(), authz.Actor{ID: uuid.New(), Role: model.RoleAdmin, SchoolID: schoolID})
}

func (f *fixture) user(role model.Role, code string, schoolID *uuid.UUID) *model.User {
	f.t.Helper()
	u := &model.User{
		Name:     code,
		Email:    code + "@school.test",
		UserCode: code,
		Role:     role,
		SchoolID: schoolID,
		IsActive: true,
	}
	require.NoError(f.t, f.store.Users().Create(context.Background(), u))
	return u
}

func (f *fixture) class(name string, grade model.Grade, section string, schoolID *uuid.UUID) *model.Class {
	f.t.Helper()
	c := &model.Class{Name: name, Grade: grade, Section: section, SchoolID: schoolID, MaxStudents: 40, IsActive: true}
	require.NoError(f.t, f.store.Classes().Create(context.Background(), c))
	return c
}

func (f *fixture) subject(code string, schoolID *uuid.UUID) *model.Subject {
	f.t.Helper()
	s := &model.Subject{Name: code, Code: code, SchoolID: schoolID, IsActive: true}
	require.NoError(f.t, f.store.Subjects().Create(context.Background(), s))
	return s
}

func (f *fixture) reloadUser(id uuid.UUID) *model.User {
	f.t.Helper()
	u, err := f.store.Users().FindByID(context.Background(), id)
	require.NoError(f.t, err)
	return u
}

func (f *fixture) reloadClass(id uuid.UUID) *model.Class {
	f.t.Helper()
	c, err := f.store.Classes().FindByID(context.Background(), id)
	require.NoError(f.t, err)
	return c
}

// requireConsistent checks that every teacher tied to a class has the class in
// its assigned classes and every subject it teaches there in its subjects.
func (f *fixture) requireConsistent(classID uuid.UUID) {
	f.t.Helper()
	c := f.reloadClass(classID)
	for _, p := range c.Subjects {
		teacher := f.reloadUser(p.TeacherID)
		require.True(f.t, teacher.HasAssignedClass(classID), "teacher %s missing class", teacher.UserCode)
		require.True(f.t, teacher.HasSubject(p.SubjectID), "teacher %s missing subject", teacher.UserCode)
	}
	if c.ClassTeacherID != nil {
		require.True(f.t, f.reloadUser(*c.ClassTeacherID).HasAssignedClass(classID))
	}
}

// failingStore fails AddSubject, which runs last in an assignment.
type failingStore struct {
	repository.Store
}

func (s failingStore) Users() repository.UserRepository {
	return failingUsers{s.Store.Users()}
}

func (s failingStore) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	return s.Store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		return fn(ctx, failingStore{tx})
	})
}

type failingUsers struct {
	repository.UserRepository
}

func (failingUsers) AddSubject(ctx context.Context, userID, subjectID uuid.UUID) error {
	return errBoom
}
