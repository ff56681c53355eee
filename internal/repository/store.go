package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a unique key.
	ErrDuplicate = errors.New("duplicate key")
)

// SchoolScope restricts a query to one school. A nil ID selects records without a school.
type SchoolScope struct {
	ID *uuid.UUID
}

// ScopeTo builds a SchoolScope for schoolID.
func ScopeTo(schoolID *uuid.UUID) *SchoolScope {
	return &SchoolScope{ID: schoolID}
}

// Store groups the repositories and lets callers run them in one transaction.
type Store interface {
	Users() UserRepository
	Classes() ClassRepository
	Subjects() SubjectRepository
	Schools() SchoolRepository
	Fees() FeeRepository
	// WithTransaction runs fn against a Store bound to a single transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

// NewStore creates a GORM-backed store.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Users() UserRepository       { return &userRepository{db: s.db} }
func (s *gormStore) Classes() ClassRepository     { return &classRepository{db: s.db} }
func (s *gormStore) Subjects() SubjectRepository { return &subjectRepository{db: s.db} }
func (s *gormStore) Schools() SchoolRepository   { return &schoolRepository{db: s.db} }
func (s *gormStore) Fees() FeeRepository         { return &feeRepository{db: s.db} }

// WithTransaction executes a function within a database transaction.
func (s *gormStore) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &gormStore{db: tx})
	})
}

// translate maps GORM errors onto the repository sentinels.
// The DB must be opened with TranslateError so duplicate keys surface as gorm.ErrDuplicatedKey.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

func applyScope(q *gorm.DB, scope *SchoolScope, column string) *gorm.DB {
	if scope == nil {
		return q
	}
	if scope.ID == nil {
		return q.Where(column + " IS NULL")
	}
	return q.Where(column+" = ?", *scope.ID)
}
