package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"schools24/internal/authz"
	"schools24/internal/cache"
	"schools24/internal/errors"
	"schools24/internal/model"
	"schools24/internal/repository"
)

const (
	recentUsersLimit = 5
	dashboardTTL     = 30 * time.Second
)

// UserService handles school staff and students on behalf of admins.
type UserService interface {
	// CreateSchoolUser creates a teacher or student in the caller's school.
	CreateSchoolUser(ctx context.Context, in NewUserInput) (*model.User, error)
	ListTeachers(ctx context.Context) ([]model.User, error)
	// GetUser loads a user without authorization checks. It backs authentication.
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	Dashboard(ctx context.Context) (*model.Dashboard, error)
}

type userService struct {
	store repository.Store
	cache *cache.Client
	ttl   time.Duration
}

// NewUserService creates a new user service. User records are cached for ttl.
func NewUserService(store repository.Store, cache *cache.Client, ttl time.Duration) UserService {
	return &userService{store: store, cache: cache, ttl: ttl}
}

// CreateSchoolUser honours the school's creation locks.
func (s *userService) CreateSchoolUser(ctx context.Context, in NewUserInput) (*model.User, error) {
	if in.Role != model.RoleTeacher && in.Role != model.RoleStudent {
		return nil, errors.NewValidationError("role", "role must be teacher or student")
	}
	schoolID := actorSchool(ctx)
	if err := authz.Authorize(ctx, authz.OpManageUsers, authz.InSchool(schoolID)); err != nil {
		return nil, err
	}

	var user *model.User
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		if schoolID != nil {
			school, err := tx.Schools().FindByID(ctx, *schoolID)
			if err != nil && err != repository.ErrNotFound {
				return fmt.Errorf("load school: %w", err)
			}
			if err == nil && school.CreationLocked(in.Role) {
				return errors.Forbidden(string(in.Role) + " creation is locked for this school")
			}
		}
		var err error
		user, err = createUser(ctx, tx.Users(), in, schoolID)
		return err
	})
	if err != nil {
		return nil, err
	}
	_ = s.cache.Delete(ctx, cache.DashboardKey(schoolID))
	return user, nil
}

// ListTeachers lists the active teachers of the caller's school.
func (s *userService) ListTeachers(ctx context.Context) ([]model.User, error) {
	schoolID := actorSchool(ctx)
	if err := authz.Authorize(ctx, authz.OpManageUsers, authz.InSchool(schoolID)); err != nil {
		return nil, err
	}
	teachers, err := s.store.Users().List(ctx, repository.UserFilter{
		Role:       model.RoleTeacher,
		Scope:      repository.ScopeTo(schoolID),
		ActiveOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

// GetUser retrieves a user by ID with caching.
func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	key := cache.UserKey(id)
	var cached model.User
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	user, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, errors.NotFound("user")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	_ = s.cache.SetJSON(ctx, key, user, s.ttl)
	return user, nil
}

// Dashboard returns the caller's school counts and its five newest users.
func (s *userService) Dashboard(ctx context.Context) (*model.Dashboard, error) {
	schoolID := actorSchool(ctx)
	if err := authz.Authorize(ctx, authz.OpViewDashboard, authz.InSchool(schoolID)); err != nil {
		return nil, err
	}

	key := cache.DashboardKey(schoolID)
	var cached model.Dashboard
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	scope := repository.ScopeTo(schoolID)
	users := s.store.Users()
	var (
		stats model.DashboardStats
		err   error
	)
	if stats.TotalStudents, err = users.Count(ctx, repository.UserFilter{Role: model.RoleStudent, Scope: scope, ActiveOnly: true}); err != nil {
		return nil, fmt.Errorf("count students: %w", err)
	}
	if stats.TotalTeachers, err = users.Count(ctx, repository.UserFilter{Role: model.RoleTeacher, Scope: scope, ActiveOnly: true}); err != nil {
		return nil, fmt.Errorf("count teachers: %w", err)
	}
	if stats.TotalClasses, err = s.store.Classes().Count(ctx, repository.ClassFilter{Scope: scope, ActiveOnly: true}); err != nil {
		return nil, fmt.Errorf("count classes: %w", err)
	}
	if stats.TotalSubjects, err = s.store.Subjects().Count(ctx, repository.SubjectFilter{SchoolID: schoolID, ActiveOnly: true}); err != nil {
		return nil, fmt.Errorf("count subjects: %w", err)
	}

	recent, err := users.List(ctx, repository.UserFilter{Scope: scope, ActiveOnly: true, Limit: recentUsersLimit})
	if err != nil {
		return nil, fmt.Errorf("list recent users: %w", err)
	}

	dashboard := &model.Dashboard{Stats: stats, RecentUsers: recent}
	_ = s.cache.SetJSON(ctx, key, dashboard, dashboardTTL)
	return dashboard, nil
}
