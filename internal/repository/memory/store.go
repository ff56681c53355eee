// Package memory is an in-process implementation of repository.Store.
// It backs tests and single-node demo deployments.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"schools24/internal/model"
	"schools24/internal/repository"
)

type (
	// Store keeps every table in maps guarded by one mutex.
	Store struct {
		mu   *sync.Mutex
		db   *tables
		inTx bool
	}

	tables struct {
		users           map[uuid.UUID]model.User
		userOrder       []uuid.UUID
		teacherClasses  []model.TeacherClass
		teacherSubjects []model.TeacherSubject

		classes    map[uuid.UUID]model.Class
		classOrder []uuid.UUID
		pairs      []model.ClassSubjectTeacher
		nextPairID uint
		students   []model.ClassStudent

		subjects map[uuid.UUID]model.Subject

		schools     map[uuid.UUID]model.School
		schoolOrder []uuid.UUID

		heads    map[uuid.UUID]model.FeeHead
		invoices map[uuid.UUID]model.FeeInvoice
		invOrder []uuid.UUID
		payments []model.FeePayment
	}
)

var _ repository.Store = (*Store)(nil)

// New opens an empty store.
func New() *Store {
	return &Store{
		mu: &sync.Mutex{},
		db: &tables{
			users:    make(map[uuid.UUID]model.User),
			classes:  make(map[uuid.UUID]model.Class),
			subjects: make(map[uuid.UUID]model.Subject),
			schools:  make(map[uuid.UUID]model.School),
			heads:    make(map[uuid.UUID]model.FeeHead),
			invoices: make(map[uuid.UUID]model.FeeInvoice),
		},
	}
}

func (s *Store) Users() repository.UserRepository       { return &userTable{s} }
func (s *Store) Classes() repository.ClassRepository     { return &classTable{s} }
func (s *Store) Subjects() repository.SubjectRepository { return &subjectTable{s} }
func (s *Store) Schools() repository.SchoolRepository   { return &schoolTable{s} }
func (s *Store) Fees() repository.FeeRepository         { return &feeTable{s} }

// WithTransaction serialises fn against every other caller and restores the
// previous state when fn fails. Nested calls join the outer transaction.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.db.clone()
	tx := &Store{mu: s.mu, db: s.db, inTx: true}
	if err := fn(ctx, tx); err != nil {
		*s.db = *snapshot
		return err
	}
	return nil
}

// lock acquires the store mutex unless the caller already holds it through a transaction.
func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (t *tables) clone() *tables {
	c := &tables{
		users:           make(map[uuid.UUID]model.User, len(t.users)),
		userOrder:       append([]uuid.UUID(nil), t.userOrder...),
		teacherClasses:  append([]model.TeacherClass(nil), t.teacherClasses...),
		teacherSubjects: append([]model.TeacherSubject(nil), t.teacherSubjects...),
		classes:         make(map[uuid.UUID]model.Class, len(t.classes)),
		classOrder:      append([]uuid.UUID(nil), t.classOrder...),
		pairs:           append([]model.ClassSubjectTeacher(nil), t.pairs...),
		nextPairID:      t.nextPairID,
		students:        append([]model.ClassStudent(nil), t.students...),
		subjects:        make(map[uuid.UUID]model.Subject, len(t.subjects)),
		schools:         make(map[uuid.UUID]model.School, len(t.schools)),
		schoolOrder:     append([]uuid.UUID(nil), t.schoolOrder...),
		heads:           make(map[uuid.UUID]model.FeeHead, len(t.heads)),
		invoices:        make(map[uuid.UUID]model.FeeInvoice, len(t.invoices)),
		invOrder:        append([]uuid.UUID(nil), t.invOrder...),
		payments:        append([]model.FeePayment(nil), t.payments...),
	}
	for k, v := range t.users {
		c.users[k] = v
	}
	for k, v := range t.classes {
		c.classes[k] = v
	}
	for k, v := range t.subjects {
		c.subjects[k] = copySubject(v)
	}
	for k, v := range t.schools {
		c.schools[k] = copySchool(v)
	}
	for k, v := range t.heads {
		c.heads[k] = v
	}
	for k, v := range t.invoices {
		c.invoices[k] = copyInvoice(v)
	}
	return c
}

func stamp(created, updated *time.Time) {
	now := time.Now()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

func matchesScope(scope *repository.SchoolScope, schoolID *uuid.UUID) bool {
	return scope == nil || model.SameSchool(scope.ID, schoolID)
}

func copyIDPtr(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
