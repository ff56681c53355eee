package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"schools24/internal/model"
	"schools24/internal/repository"
)

type classTable struct {
	s *Store
}

func (t *classTable) Create(ctx context.Context, class *model.Class) error {
	defer t.s.lock()()
	db := t.s.db
	_ = class.BeforeCreate(nil)
	if _, ok := db.classes[class.ID]; ok {
		return repository.ErrDuplicate
	}
	stamp(&class.CreatedAt, &class.UpdatedAt)
	db.classes[class.ID] = storedClass(class)
	db.classOrder = append(db.classOrder, class.ID)
	return nil
}

func (t *classTable) Update(ctx context.Context, class *model.Class) error {
	defer t.s.lock()()
	if _, ok := t.s.db.classes[class.ID]; !ok {
		return repository.ErrNotFound
	}
	stamp(&class.CreatedAt, &class.UpdatedAt)
	t.s.db.classes[class.ID] = storedClass(class)
	return nil
}

func (t *classTable) FindByID(ctx context.Context, id uuid.UUID) (*model.Class, error) {
	defer t.s.lock()()
	c, ok := t.s.db.classes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	loaded := t.loaded(c)
	return &loaded, nil
}

// FindByIDForUpdate is FindByID; WithTransaction already serialises writers.
func (t *classTable) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Class, error) {
	return t.FindByID(ctx, id)
}

func (t *classTable) FindActiveByIdentity(ctx context.Context, schoolID *uuid.UUID, name string, grade model.Grade, section string) (*model.Class, error) {
	defer t.s.lock()()
	for _, id := range t.s.db.classOrder {
		c := t.s.db.classes[id]
		if c.IsActive && c.Name == name && c.Grade == grade && c.Section == section && model.SameSchool(c.SchoolID, schoolID) {
			loaded := t.loaded(c)
			return &loaded, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (t *classTable) List(ctx context.Context, filter repository.ClassFilter) ([]model.Class, error) {
	defer t.s.lock()()
	out := []model.Class{}
	for _, id := range t.s.db.classOrder {
		c := t.s.db.classes[id]
		if classMatches(c, filter) {
			out = append(out, t.loaded(c))
		}
	}
	model.SortClasses(out)
	return out, nil
}

func (t *classTable) Count(ctx context.Context, filter repository.ClassFilter) (int64, error) {
	defer t.s.lock()()
	var n int64
	for _, c := range t.s.db.classes {
		if classMatches(c, filter) {
			n++
		}
	}
	return n, nil
}

func classMatches(c model.Class, filter repository.ClassFilter) bool {
	if filter.ActiveOnly && !c.IsActive {
		return false
	}
	if filter.ClassTeacherID != nil && !c.IsClassTeacher(*filter.ClassTeacherID) {
		return false
	}
	return matchesScope(filter.Scope, c.SchoolID)
}

func (t *classTable) SetClassTeacher(ctx context.Context, classID uuid.UUID, teacherID *uuid.UUID) error {
	defer t.s.lock()()
	c, ok := t.s.db.classes[classID]
	if !ok {
		return repository.ErrNotFound
	}
	c.ClassTeacherID = copyIDPtr(teacherID)
	c.UpdatedAt = time.Now()
	t.s.db.classes[classID] = c
	return nil
}

func (t *classTable) AddAssignment(ctx context.Context, pair *model.ClassSubjectTeacher) error {
	defer t.s.lock()()
	db := t.s.db
	for _, p := range db.pairs {
		if p.ClassID == pair.ClassID && p.SubjectID == pair.SubjectID && p.TeacherID == pair.TeacherID {
			return repository.ErrDuplicate
		}
	}
	db.nextPairID++
	pair.ID = db.nextPairID
	pair.CreatedAt = time.Now()
	db.pairs = append(db.pairs, *pair)
	return nil
}

func (t *classTable) RemoveAssignment(ctx context.Context, classID, subjectID, teacherID uuid.UUID) (int64, error) {
	defer t.s.lock()()
	db := t.s.db
	var removed int64
	kept := db.pairs[:0:0]
	for _, p := range db.pairs {
		if p.ClassID == classID && p.SubjectID == subjectID && p.TeacherID == teacherID {
			removed++
			continue
		}
		kept = append(kept, p)
	}
	db.pairs = kept
	return removed, nil
}

func (t *classTable) ListAssignmentsByTeacher(ctx context.Context, teacherID uuid.UUID) ([]model.ClassSubjectTeacher, error) {
	defer t.s.lock()()
	var out []model.ClassSubjectTeacher
	for _, p := range t.s.db.pairs {
		if p.TeacherID == teacherID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (t *classTable) AddStudent(ctx context.Context, classID, studentID uuid.UUID) error {
	defer t.s.lock()()
	db := t.s.db
	for _, cs := range db.students {
		if cs.ClassID == classID && cs.StudentID == studentID {
			return nil
		}
	}
	db.students = append(db.students, model.ClassStudent{ClassID: classID, StudentID: studentID, CreatedAt: time.Now()})
	return nil
}

func (t *classTable) loaded(c model.Class) model.Class {
	c.SchoolID = copyIDPtr(c.SchoolID)
	c.ClassTeacherID = copyIDPtr(c.ClassTeacherID)
	c.Subjects = []model.ClassSubjectTeacher{}
	for _, p := range t.s.db.pairs {
		if p.ClassID == c.ID {
			c.Subjects = append(c.Subjects, p)
		}
	}
	c.Students = []uuid.UUID{}
	for _, cs := range t.s.db.students {
		if cs.ClassID == c.ID {
			c.Students = append(c.Students, cs.StudentID)
		}
	}
	return c
}

func storedClass(c *model.Class) model.Class {
	v := *c
	v.SchoolID = copyIDPtr(c.SchoolID)
	v.ClassTeacherID = copyIDPtr(c.ClassTeacherID)
	v.Subjects = nil
	v.Students = nil
	return v
}
