package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"schools24/internal/authz"
	"schools24/internal/errors"
	"schools24/internal/model"
	"schools24/internal/repository"
)

const bcryptCost = 10

// NewUserInput carries the fields needed to create any user.
type NewUserInput struct {
	Name     string
	Email    string
	Password string
	UserCode string
	Role     model.Role
	Profile  model.Profile
}

// actorSchool is the school the caller is scoped to; nil for single-tenant admins and the System actor.
func actorSchool(ctx context.Context) *uuid.UUID {
	actor, _ := authz.ActorFrom(ctx)
	return actor.SchoolID
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// createUser hashes the password and stores a new active user in schoolID.
func createUser(ctx context.Context, users repository.UserRepository, in NewUserInput, schoolID *uuid.UUID) (*model.User, error) {
	if !in.Role.Valid() {
		return nil, errors.NewValidationError("role", "invalid role")
	}
	email := normalizeEmail(in.Email)
	code := strings.TrimSpace(in.UserCode)

	exists, err := users.ExistsByEmailOrUserCode(ctx, email, code)
	if err != nil {
		return nil, fmt.Errorf("check user existence: %w", err)
	}
	if exists {
		return nil, errors.Conflict("user with this email or user ID already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: string(hashed),
		Role:         in.Role,
		UserCode:     code,
		SchoolID:     schoolID,
		Profile:      in.Profile,
		IsActive:     true,
	}
	if err := users.Create(ctx, user); err != nil {
		if err == repository.ErrDuplicate {
			return nil, errors.Conflict("user with this email or user ID already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	user.AssignedClasses = []uuid.UUID{}
	user.Subjects = []uuid.UUID{}
	return user, nil
}

// buildClassDetail populates a class's references for responses.
func buildClassDetail(ctx context.Context, store repository.Store, class *model.Class) (*model.ClassDetail, error) {
	details, err := buildClassDetails(ctx, store, []model.Class{*class})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

func buildClassDetails(ctx context.Context, store repository.Store, classes []model.Class) ([]model.ClassDetail, error) {
	var userIDs, subjectIDs []uuid.UUID
	for _, c := range classes {
		if c.ClassTeacherID != nil {
			userIDs = append(userIDs, *c.ClassTeacherID)
		}
		for _, p := range c.Subjects {
			userIDs = append(userIDs, p.TeacherID)
			subjectIDs = append(subjectIDs, p.SubjectID)
		}
		userIDs = append(userIDs, c.Students...)
	}

	users, err := store.Users().FindByIDs(ctx, uniqueIDs(userIDs))
	if err != nil {
		return nil, fmt.Errorf("load class users: %w", err)
	}
	subjects, err := store.Subjects().FindByIDs(ctx, uniqueIDs(subjectIDs))
	if err != nil {
		return nil, fmt.Errorf("load class subjects: %w", err)
	}
	userByID := make(map[uuid.UUID]model.UserSummary, len(users))
	for i := range users {
		userByID[users[i].ID] = users[i].Summary()
	}
	subjectByID := make(map[uuid.UUID]model.SubjectSummary, len(subjects))
	for i := range subjects {
		subjectByID[subjects[i].ID] = subjects[i].Summary()
	}
	userSummary := func(id uuid.UUID) model.UserSummary {
		if s, ok := userByID[id]; ok {
			return s
		}
		return model.UserSummary{ID: id}
	}
	subjectSummary := func(id uuid.UUID) model.SubjectSummary {
		if s, ok := subjectByID[id]; ok {
			return s
		}
		return model.SubjectSummary{ID: id}
	}

	out := make([]model.ClassDetail, 0, len(classes))
	for _, c := range classes {
		d := model.ClassDetail{
			ID:           c.ID,
			SchoolID:     c.SchoolID,
			Name:         c.Name,
			Grade:        c.Grade,
			Section:      c.Section,
			Subjects:     make([]model.AssignmentView, 0, len(c.Subjects)),
			Students:     make([]model.UserSummary, 0, len(c.Students)),
			StudentCount: len(c.Students),
			MaxStudents:  c.MaxStudents,
			IsActive:     c.IsActive,
			CreatedAt:    c.CreatedAt,
			UpdatedAt:    c.UpdatedAt,
		}
		if c.ClassTeacherID != nil {
			ct := userSummary(*c.ClassTeacherID)
			d.ClassTeacher = &ct
		}
		for _, p := range c.Subjects {
			d.Subjects = append(d.Subjects, model.AssignmentView{
				Subject: subjectSummary(p.SubjectID),
				Teacher: userSummary(p.TeacherID),
			})
		}
		for _, id := range c.Students {
			d.Students = append(d.Students, userSummary(id))
		}
		out = append(out, d)
	}
	return out, nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
