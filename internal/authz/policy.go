// Package authz decides who may do what. Roles grant capabilities through a
// fixed table; scope rules then tie admins to their school and developers to
// the schools they own.
package authz

import (
	"context"

	"github.com/google/uuid"

	"schools24/internal/errors"
	"schools24/internal/model"
)

// Operation is a capability checked by the policy.
type Operation string

const (
	OpViewDashboard  Operation = "dashboard:view"
	OpManageUsers    Operation = "users:manage"
	OpManageClasses  Operation = "classes:manage"
	OpAssignTeachers Operation = "classes:assign"
	OpManageSubjects Operation = "subjects:manage"
	OpManageFees     Operation = "fees:manage"
	OpManageSchools  Operation = "schools:manage"
	OpViewOverview   Operation = "platform:overview"
)

// Actor is the caller an operation runs on behalf of.
type Actor struct {
	ID       uuid.UUID
	Role     model.Role
	SchoolID *uuid.UUID
	system   bool
}

// System is the actor used by maintenance commands. It passes every check.
var System = Actor{system: true}

// ActorFor builds the actor for an authenticated user.
func ActorFor(u *model.User) Actor {
	return Actor{ID: u.ID, Role: u.Role, SchoolID: u.SchoolID}
}

// IsSystem reports whether a is the System actor.
func (a Actor) IsSystem() bool {
	return a.system
}

// Resource describes what an operation touches. OwnerID is set for schools
// and anything reached through one.
type Resource struct {
	SchoolID *uuid.UUID
	OwnerID  *uuid.UUID
}

// InSchool is the resource form of anything tagged with a school.
func InSchool(schoolID *uuid.UUID) Resource {
	return Resource{SchoolID: schoolID}
}

// OwnedSchool is the resource form of a school.
func OwnedSchool(s *model.School) Resource {
	id, owner := s.ID, s.OwnerID
	return Resource{SchoolID: &id, OwnerID: &owner}
}

// Policy holds the role capability table.
type Policy struct {
	capabilities map[model.Role]map[Operation]bool
}

// NewPolicy builds the policy with the standard table.
func NewPolicy() *Policy {
	return &Policy{capabilities: map[model.Role]map[Operation]bool{
		model.RoleAdmin: {
			OpViewDashboard:  true,
			OpManageUsers:    true,
			OpManageClasses:  true,
			OpAssignTeachers: true,
			OpManageSubjects: true,
			OpManageFees:     true,
		},
		model.RoleDeveloper: {
			OpManageSchools: true,
			OpViewOverview:  true,
		},
		model.RoleTeacher: {},
		model.RoleStudent: {},
	}}
}

// Default is the policy used by services and route middleware.
var Default = NewPolicy()

// Can reports whether role grants op.
func (p *Policy) Can(role model.Role, op Operation) bool {
	return p.capabilities[role][op]
}

// Authorize checks that actor may perform op on res.
func (p *Policy) Authorize(actor Actor, op Operation, res Resource) error {
	if actor.system {
		return nil
	}
	if !p.Can(actor.Role, op) {
		return errors.Forbidden("insufficient permissions")
	}
	switch actor.Role {
	case model.RoleDeveloper:
		if res.OwnerID != nil && *res.OwnerID != actor.ID {
			return errors.Forbidden("school is owned by another developer")
		}
	default:
		if !model.SameSchool(actor.SchoolID, res.SchoolID) {
			return errors.Forbidden("resource belongs to another school")
		}
	}
	return nil
}

type actorKey struct{}

// WithActor returns a context carrying actor.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the actor stored in ctx.
func ActorFrom(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}

// Authorize checks the actor in ctx against the default policy.
// A context without an actor is unauthenticated.
func Authorize(ctx context.Context, op Operation, res Resource) error {
	actor, ok := ActorFrom(ctx)
	if !ok {
		return errors.ErrTokenInvalid
	}
	return Default.Authorize(actor, op, res)
}
