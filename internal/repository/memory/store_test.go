package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schools24/internal/model"
	"schools24/internal/repository"
)

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := New()
	class := &model.Class{Name: "Class 1", Grade: "Class 1", Section: "A", IsActive: true}
	require.NoError(t, store.Classes().Create(ctx, class))

	boom := errors.New("boom")
	err := store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		teacher := uuid.New()
		if err := tx.Classes().AddAssignment(ctx, &model.ClassSubjectTeacher{
			ClassID: class.ID, SubjectID: uuid.New(), TeacherID: teacher,
		}); err != nil {
			return err
		}
		if err := tx.Users().AddAssignedClass(ctx, teacher, class.ID); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.Classes().FindByID(ctx, class.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Subjects)
}

func TestWithTransaction_Commits(t *testing.T) {
	ctx := context.Background()
	store := New()
	teacher := &model.User{Name: "T", Email: "t@example.com", UserCode: "T1", Role: model.RoleTeacher, IsActive: true}
	require.NoError(t, store.Users().Create(ctx, teacher))
	classID := uuid.New()

	err := store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		return tx.WithTransaction(ctx, func(ctx context.Context, inner repository.Store) error {
			return inner.Users().AddAssignedClass(ctx, teacher.ID, classID)
		})
	})
	require.NoError(t, err)

	got, err := store.Users().FindByID(ctx, teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{classID}, got.AssignedClasses)
}

func TestUsers_UniqueKeys(t *testing.T) {
	ctx := context.Background()
	users := New().Users()
	require.NoError(t, users.Create(ctx, &model.User{Email: "a@example.com", UserCode: "A1"}))

	tests := []struct {
		name string
		user *model.User
	}{
		{"same email", &model.User{Email: "a@example.com", UserCode: "A2"}},
		{"same user code", &model.User{Email: "b@example.com", UserCode: "A1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, users.Create(ctx, tt.user), repository.ErrDuplicate)
		})
	}
}

func TestClasses_AssignmentPairIsUnique(t *testing.T) {
	ctx := context.Background()
	classes := New().Classes()
	pair := model.ClassSubjectTeacher{ClassID: uuid.New(), SubjectID: uuid.New(), TeacherID: uuid.New()}

	first := pair
	require.NoError(t, classes.AddAssignment(ctx, &first))
	second := pair
	assert.ErrorIs(t, classes.AddAssignment(ctx, &second), repository.ErrDuplicate)

	n, err := classes.RemoveAssignment(ctx, pair.ClassID, pair.SubjectID, pair.TeacherID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestUsers_SetsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	users := New().Users()
	u := &model.User{Email: "t@example.com", UserCode: "T1", Role: model.RoleTeacher}
	require.NoError(t, users.Create(ctx, u))
	subject := uuid.New()

	require.NoError(t, users.AddSubject(ctx, u.ID, subject))
	require.NoError(t, users.AddSubject(ctx, u.ID, subject))

	got, err := users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{subject}, got.Subjects)
}

func TestUsers_ListScope(t *testing.T) {
	ctx := context.Background()
	users := New().Users()
	school := uuid.New()
	require.NoError(t, users.Create(ctx, &model.User{Email: "a@x.com", UserCode: "A", Role: model.RoleStudent, SchoolID: &school}))
	require.NoError(t, users.Create(ctx, &model.User{Email: "b@x.com", UserCode: "B", Role: model.RoleStudent}))

	scoped, err := users.List(ctx, repository.UserFilter{Scope: repository.ScopeTo(&school)})
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "a@x.com", scoped[0].Email)

	unscoped, err := users.Count(ctx, repository.UserFilter{Role: model.RoleStudent})
	require.NoError(t, err)
	assert.Equal(t, int64(2), unscoped)
}

func TestClasses_ListInGradeOrder(t *testing.T) {
	ctx := context.Background()
	store := New()
	for _, grade := range []model.Grade{"Class 10", "Class 2", "LKG", "Pre KG", "Class 1"} {
		require.NoError(t, store.Classes().Create(ctx, &model.Class{Name: string(grade), Grade: grade, Section: "A", IsActive: true}))
	}

	classes, err := store.Classes().List(ctx, repository.ClassFilter{})
	require.NoError(t, err)
	grades := make([]model.Grade, len(classes))
	for i, c := range classes {
		grades[i] = c.Grade
	}
	assert.Equal(t, []model.Grade{"Pre KG", "LKG", "Class 1", "Class 2", "Class 10"}, grades)
}
