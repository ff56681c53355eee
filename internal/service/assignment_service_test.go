package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schools24/internal/errors"
	"schools24/internal/model"
)

func TestAssignmentService_AssignThenRemove(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		class := f.class("10A", "Class 10", "A", nil)
		t1 := f.user(model.RoleTeacher, "T1", nil)
		math := f.subject("MATH", nil)
		svc := NewAssignmentService(f.store, nil, nil)

		detail, err := svc.AssignTeacher(f.ctx, class.ID, t1.ID, math.ID, true)
		require.NoError(t, err)
		require.NotNil(t, detail.ClassTeacher)
		assert.Equal(t, t1.ID, detail.ClassTeacher.ID)
		require.Len(t, detail.Subjects, 1)
		assert.Equal(t, "MATH", detail.Subjects[0].Subject.Code)
		assert.Equal(t, "T1", detail.Subjects[0].Teacher.UserCode)

		teacher := f.reloadUser(t1.ID)
		assert.Equal(t, []uuid.UUID{class.ID}, teacher.AssignedClasses)
		assert.Equal(t, []uuid.UUID{math.ID}, teacher.Subjects)
		f.requireConsistent(class.ID)

		detail, err = svc.RemoveTeacher(f.ctx, class.ID, t1.ID, &math.ID, true)
		require.NoError(t, err)
		assert.Nil(t, detail.ClassTeacher)
		assert.Empty(t, detail.Subjects)

		teacher = f.reloadUser(t1.ID)
		assert.Empty(t, teacher.AssignedClasses)
		assert.Equal(t, []uuid.UUID{math.ID}, teacher.Subjects)
	})
}

func TestAssignmentService_RemoveIsIdempotent(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		class := f.class("10A", "Class 10", "A", nil)
		t1 := f.user(model.RoleTeacher, "T1", nil)
		math := f.subject("MATH", nil)
		sci := f.subject("SCI", nil)
		svc := NewAssignmentService(f.store, nil, nil)

		_, err := svc.AssignTeacher(f.ctx, class.ID, t1.ID, math.ID, false)
		require.NoError(t, err)
		_, err = svc.AssignTeacher(f.ctx, class.ID, t1.ID, sci.ID, false)
		require.NoError(t, err)

		first, err := svc.RemoveTeacher(f.ctx, class.ID, t1.ID, &math.ID, false)
		require.NoError(t, err)
		afterFirst := f.reloadUser(t1.ID)

		second, err := svc.RemoveTeacher(f.ctx, class.ID, t1.ID, &math.ID, false)
		require.NoError(t, err)
		afterSecond := f.reloadUser(t1.ID)

		assert.Equal(t, first.Subjects, second.Subjects)
		assert.Equal(t, afterFirst.AssignedClasses, afterSecond.AssignedClasses)
		// SCI still ties the teacher to the class.
		assert.Equal(t, []uuid.UUID{class.ID}, afterSecond.AssignedClasses)
		f.requireConsistent(class.ID)
	})
}

func TestAssignmentService_AssignRejects(t *testing.T) {
	f := newFixture(t)
	otherSchool := uuid.New()
	class := f.class("10A", "Class 10", "A", nil)
	inactiveClass := f.class("10B", "Class 10", "B", nil)
	inactiveClass.IsActive = false
	require.NoError(t, f.store.Classes().Update(context.Background(), inactiveClass))

	teacher := f.user(model.RoleTeacher, "T1", nil)
	student := f.user(model.RoleStudent, "S1", nil)
	retired := f.user(model.RoleTeacher, "T2", nil)
	retired.IsActive = false
	require.NoError(t, f.store.Users().Update(context.Background(), retired))
	foreignTeacher := f.user(model.RoleTeacher, "T3", &otherSchool)
	math := f.subject("MATH", nil)
	foreignSubject := f.subject("ART", &otherSchool)

	svc := NewAssignmentService(f.store, nil, nil)
	_, err := svc.AssignTeacher(f.ctx, class.ID, teacher.ID, math.ID, false)
	require.NoError(t, err)

	tests := []struct {
		name      string
		classID   uuid.UUID
		teacherID uuid.UUID
		subjectID uuid.UUID
		check     func(t *testing.T, err error)
	}{
		{
			name: "missing class", classID: uuid.New(), teacherID: teacher.ID, subjectID: math.ID,
			check: func(t *testing.T, err error) { assert.Equal(t, errors.NotFound("class"), err) },
		},
		{
			name: "inactive class", classID: inactiveClass.ID, teacherID: teacher.ID, subjectID: math.ID,
			check: func(t *testing.T, err error) { assert.Equal(t, errors.NotFound("class"), err) },
		},
		{
			name: "missing teacher", classID: class.ID, teacherID: uuid.New(), subjectID: math.ID,
			check: func(t *testing.T, err error) { assert.Equal(t, errors.InvalidReference("teacher"), err) },
		},
		{
			name: "student as teacher", classID: class.ID, teacherID: student.ID, subjectID: math.ID,
			check: func(t *testing.T, err error) { assert.Equal(t, errors.InvalidReference("teacher"), err) },
		},
		{
			name: "inactive teacher", classID: class.ID, teacherID: retired.ID, subjectID: math.ID,
			check: func(t *testing.T, err error) { assert.Equal(t, errors.InvalidReference("teacher"), err) },
		},
		{
			name: "teacher of another school", classID: class.ID, teacherID: foreignTeacher.ID, subjectID: math.ID,
			check: func(t *testing.T, err error) { assert.Equal(t, errors.InvalidReference("teacher"), err) },
		},
		{
			name: "missing subject", classID: class.ID, teacherID: teacher.ID, subjectID: uuid.New(),
			check: func(t *testing.T, err error) { assert.Equal(t, errors.InvalidReference("subject"), err) },
		},
		{
			name: "subject of another school", classID: class.ID, teacherID: teacher.ID, subjectID: foreignSubject.ID,
			check: func(t *testing.T, err error) { assert.Equal(t, errors.InvalidReference("subject"), err) },
		},
		{
			name: "duplicate pair", classID: class.ID, teacherID: teacher.ID, subjectID: math.ID,
			check: func(t *testing.T, err error) {
				var conflict *errors.ConflictError
				assert.ErrorAs(t, err, &conflict)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detail, err := svc.AssignTeacher(f.ctx, tt.classID, tt.teacherID, tt.subjectID, false)
			require.Error(t, err)
			assert.Nil(t, detail)
			tt.check(t, err)
		})
	}

	assert.Len(t, f.reloadClass(class.ID).Subjects, 1)
}

func TestAssignmentService_RollsBackOnPartialFailure(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		class := f.class("10A", "Class 10", "A", nil)
		t1 := f.user(model.RoleTeacher, "T1", nil)
		math := f.subject("MATH", nil)

		svc := NewAssignmentService(failingStore{f.store}, nil, nil)
		_, err := svc.AssignTeacher(f.ctx, class.ID, t1.ID, math.ID, true)
		require.ErrorIs(t, err, errBoom)

		c := f.reloadClass(class.ID)
		assert.Empty(t, c.Subjects)
		assert.Nil(t, c.ClassTeacherID)
		assert.Empty(t, f.reloadUser(t1.ID).AssignedClasses)
	})
}

func TestAssignmentService_ReplacesClassTeacher(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		class := f.class("10A", "Class 10", "A", nil)
		t1 := f.user(model.RoleTeacher, "T1", nil)
		t2 := f.user(model.RoleTeacher, "T2", nil)
		math := f.subject("MATH", nil)
		sci := f.subject("SCI", nil)
		svc := NewAssignmentService(f.store, nil, nil)

		_, err := svc.AssignTeacher(f.ctx, class.ID, t1.ID, math.ID, true)
		require.NoError(t, err)

		// T1 keeps a pair, so the class stays assigned.
		detail, err := svc.AssignTeacher(f.ctx, class.ID, t2.ID, sci.ID, true)
		require.NoError(t, err)
		assert.Equal(t, t2.ID, detail.ClassTeacher.ID)
		assert.True(t, f.reloadUser(t1.ID).HasAssignedClass(class.ID))
		f.requireConsistent(class.ID)

		// Once T1's pair is gone only T2 remains.
		_, err = svc.RemoveTeacher(f.ctx, class.ID, t1.ID, &math.ID, false)
		require.NoError(t, err)
		assert.False(t, f.reloadUser(t1.ID).HasAssignedClass(class.ID))
	})
}

func TestAssignmentService_ReleasesPriorClassTeacherWithoutPairs(t *testing.T) {
	f := newFixture(t)
	t1 := f.user(model.RoleTeacher, "T1", nil)
	t2 := f.user(model.RoleTeacher, "T2", nil)
	math := f.subject("MATH", nil)

	classes := NewClassService(f.store, nil)
	created, err := classes.CreateClass(f.ctx, CreateClassInput{Name: "10A", Grade: "Class 10", Section: "A", ClassTeacherID: &t1.ID})
	require.NoError(t, err)
	require.True(t, f.reloadUser(t1.ID).HasAssignedClass(created.ID))

	svc := NewAssignmentService(f.store, nil, nil)
	_, err = svc.AssignTeacher(f.ctx, created.ID, t2.ID, math.ID, true)
	require.NoError(t, err)

	assert.False(t, f.reloadUser(t1.ID).HasAssignedClass(created.ID))
	assert.True(t, f.reloadUser(t2.ID).HasAssignedClass(created.ID))
	f.requireConsistent(created.ID)
}

func TestAssignmentService_RemoveKeepsClassTeacherTie(t *testing.T) {
	f := newFixture(t)
	class := f.class("10A", "Class 10", "A", nil)
	t1 := f.user(model.RoleTeacher, "T1", nil)
	math := f.subject("MATH", nil)
	svc := NewAssignmentService(f.store, nil, nil)

	_, err := svc.AssignTeacher(f.ctx, class.ID, t1.ID, math.ID, true)
	require.NoError(t, err)

	detail, err := svc.RemoveTeacher(f.ctx, class.ID, t1.ID, &math.ID, false)
	require.NoError(t, err)
	assert.Empty(t, detail.Subjects)
	require.NotNil(t, detail.ClassTeacher)
	assert.True(t, f.reloadUser(t1.ID).HasAssignedClass(class.ID))
}

func TestAssignmentService_RemoveFromMissingClass(t *testing.T) {
	f := newFixture(t)
	svc := NewAssignmentService(f.store, nil, nil)
	_, err := svc.RemoveTeacher(f.ctx, uuid.New(), uuid.New(), nil, true)
	assert.Equal(t, errors.NotFound("class"), err)
}

func TestAssignmentService_CrossSchoolForbidden(t *testing.T) {
	f := newFixture(t)
	schoolA, schoolB := uuid.New(), uuid.New()
	class := f.class("10A", "Class 10", "A", &schoolA)
	teacher := f.user(model.RoleTeacher, "T1", &schoolA)
	math := f.subject("MATH", nil)
	svc := NewAssignmentService(f.store, nil, nil)

	_, err := svc.AssignTeacher(f.asAdminOf(&schoolB), class.ID, teacher.ID, math.ID, false)
	var forbidden *errors.ForbiddenError
	assert.ErrorAs(t, err, &forbidden)

	_, err = svc.AssignTeacher(f.asAdminOf(&schoolA), class.ID, teacher.ID, math.ID, false)
	assert.NoError(t, err)
}

func TestAssignmentService_TeacherLoad(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		a := f.class("10A", "Class 10", "A", nil)
		b := f.class("9B", "Class 9", "B", nil)
		c := f.class("8C", "Class 8", "C", nil)
		t1 := f.user(model.RoleTeacher, "T1", nil)
		math := f.subject("MATH", nil)
		sci := f.subject("SCI", nil)
		svc := NewAssignmentService(f.store, nil, nil)

		_, err := svc.AssignTeacher(f.ctx, a.ID, t1.ID, math.ID, false)
		require.NoError(t, err)
		_, err = svc.AssignTeacher(f.ctx, b.ID, t1.ID, sci.ID, false)
		require.NoError(t, err)
		require.NoError(t, f.store.Classes().SetClassTeacher(context.Background(), c.ID, &t1.ID))

		// Removing the last SCI pair drops it from the load but not from the stored set.
		_, err = svc.RemoveTeacher(f.ctx, b.ID, t1.ID, &sci.ID, false)
		require.NoError(t, err)

		load, err := svc.TeacherLoad(f.ctx, t1.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uuid.UUID{a.ID, c.ID}, load.Classes)
		assert.Equal(t, []uuid.UUID{math.ID}, load.Subjects)
		assert.Equal(t, []uuid.UUID{c.ID}, load.ClassTeacherOf)
		assert.Equal(t, []model.LoadAssignment{{ClassID: a.ID, SubjectID: math.ID}}, load.Assignments)
		assert.True(t, f.reloadUser(t1.ID).HasSubject(sci.ID))

		_, err = svc.TeacherLoad(f.ctx, f.user(model.RoleStudent, "S1", nil).ID)
		assert.Equal(t, errors.NotFound("teacher"), err)
	})
}

func TestAssignmentService_ConcurrentAssignSamePair(t *testing.T) {
	const workers = 50

	forEachStore(t, func(t *testing.T, f *fixture) {
		class := f.class("10A", "Class 10", "A", nil)
		t1 := f.user(model.RoleTeacher, "T1", nil)
		math := f.subject("MATH", nil)
		svc := NewAssignmentService(f.store, nil, nil)

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			assigned  int
			conflicts int
			failures  []error
		)
		start := make(chan struct{})
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_, err := svc.AssignTeacher(f.ctx, class.ID, t1.ID, math.ID, false)

				mu.Lock()
				defer mu.Unlock()
				var conflict *errors.ConflictError
				switch {
				case err == nil:
					assigned++
				case errors.As(err, &conflict):
					conflicts++
				default:
					failures = append(failures, err)
				}
			}()
		}
		close(start)
		wg.Wait()

		assert.Empty(t, failures)
		assert.Equal(t, 1, assigned)
		assert.Equal(t, workers-1, conflicts)
		assert.Len(t, f.reloadClass(class.ID).Subjects, 1)

		teacher := f.reloadUser(t1.ID)
		assert.Equal(t, []uuid.UUID{class.ID}, teacher.AssignedClasses)
		assert.Equal(t, []uuid.UUID{math.ID}, teacher.Subjects)
	})
}
