// Package seed loads the demo catalogue, staff, students and classes.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"schools24/internal/authz"
	"schools24/internal/model"
	"schools24/internal/repository"
	"schools24/internal/service"
)

// AdminEmail marks a seeded store; seeding is skipped when it exists.
const AdminEmail = "admin@schools24.com"

// Result reports what a run created.
type Result struct {
	Subjects int  `json:"subjects"`
	Users    int  `json:"users"`
	Classes  int  `json:"classes"`
	Skipped  bool `json:"skipped"`
}

// Services are the operations seeding goes through, so every invariant the
// API enforces also holds for seeded data.
type Services struct {
	Auth        service.AuthService
	Subjects    service.SubjectService
	Classes     service.ClassService
	Assignments service.AssignmentService
}

type seedUser struct {
	name, email, password, code string
	role                        model.Role
	profile                     model.Profile
}

func date(s string) *time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return &t
}

var subjects = []service.CreateSubjectInput{
	{Name: "Mathematics", Code: "MATH", Description: "Mathematics and problem solving", Icon: "math icon.png", Color: "#ff6b6b",
		Grades: []model.Grade{"Class 1", "Class 2", "Class 3", "Class 4", "Class 5", "Class 6", "Class 7", "Class 8", "Class 9", "Class 10"}},
	{Name: "Science", Code: "SCI", Description: "General Science, Physics, Chemistry, Biology", Icon: "science icon.png", Color: "#4ecdc4",
		Grades: []model.Grade{"Class 3", "Class 4", "Class 5", "Class 6", "Class 7", "Class 8", "Class 9", "Class 10"}},
	{Name: "English", Code: "ENG", Description: "English Language and Literature", Icon: "english icon.png", Color: "#45b7d1",
		Grades: model.Grades},
	{Name: "Hindi", Code: "HIN", Description: "Hindi Language and Literature", Icon: "hindi icon.png", Color: "#f7b731",
		Grades: []model.Grade{"Class 1", "Class 2", "Class 3", "Class 4", "Class 5", "Class 6", "Class 7", "Class 8", "Class 9", "Class 10"}},
	{Name: "Social Studies", Code: "SST", Description: "History, Geography, Civics", Icon: "social icon.png", Color: "#5f27cd",
		Grades: []model.Grade{"Class 3", "Class 4", "Class 5", "Class 6", "Class 7", "Class 8", "Class 9", "Class 10"}},
}

var demoUsers = []seedUser{
	{"System Administrator", AdminEmail, "admin123", "ADMIN001", model.RoleAdmin,
		model.Profile{Phone: "+1-555-0100", Address: "Schools24 Headquarters"}},
	{"Platform Developer", "developer@schools24.com", "developer123", "DEV001", model.RoleDeveloper,
		model.Profile{Phone: "+1-555-0001"}},
	{"Sarah Johnson", "sarah.johnson@schools24.com", "teacher123", "TEACH001", model.RoleTeacher,
		model.Profile{Phone: "+1-555-0201", Address: "123 Teacher Lane, Education City"}},
	{"Michael Chen", "michael.chen@schools24.com", "teacher123", "TEACH002", model.RoleTeacher,
		model.Profile{Phone: "+1-555-0202", Address: "456 Academic Ave, Learning Town"}},
	{"Emily Rodriguez", "emily.rodriguez@schools24.com", "teacher123", "TEACH003", model.RoleTeacher,
		model.Profile{Phone: "+1-555-0203", Address: "789 Knowledge St, Study City"}},
	{"David Thompson", "david.thompson@schools24.com", "teacher123", "TEACH004", model.RoleTeacher,
		model.Profile{Phone: "+1-555-0204", Address: "321 Wisdom Way, Scholar Heights"}},
	{"John Doe", "john.doe@schools24.com", "student123", "STU2024001", model.RoleStudent, model.Profile{
		DateOfBirth: date("2008-03-15"), Phone: "+1-555-1001", Address: "123 Main Street, City, State 12345",
		ParentGuardian: "Jane Doe (Mother)", AdmissionDate: date("2023-04-01"), RollNumber: "10A-015"}},
	{"Emma Wilson", "emma.wilson@schools24.com", "student123", "STU2024002", model.RoleStudent, model.Profile{
		DateOfBirth: date("2008-07-22"), Phone: "+1-555-1002", Address: "456 Oak Street, City, State 12345",
		ParentGuardian: "Robert Wilson (Father)", AdmissionDate: date("2023-04-01"), RollNumber: "10A-016"}},
	{"Alex Kumar", "alex.kumar@schools24.com", "student123", "STU2024003", model.RoleStudent, model.Profile{
		DateOfBirth: date("2008-11-10"), Phone: "+1-555-1003", Address: "789 Pine Avenue, City, State 12345",
		ParentGuardian: "Priya Kumar (Mother)", AdmissionDate: date("2023-04-01"), RollNumber: "10A-017"}},
}

// Run seeds the store unless it was already seeded. It acts as the System actor.
func Run(ctx context.Context, users repository.UserRepository, svc Services, log *zap.Logger) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if _, err := users.FindByEmail(ctx, AdminEmail); err == nil {
		log.Info("store already seeded, skipping")
		return &Result{Skipped: true}, nil
	} else if err != repository.ErrNotFound {
		return nil, fmt.Errorf("check seed marker: %w", err)
	}

	ctx = authz.WithActor(ctx, authz.System)
	result := &Result{}

	subjectByCode := make(map[string]uuid.UUID, len(subjects))
	for _, in := range subjects {
		s, err := svc.Subjects.CreateSubject(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("seed subject %s: %w", in.Code, err)
		}
		subjectByCode[s.Code] = s.ID
		result.Subjects++
	}
	log.Info("subjects seeded", zap.Int("count", result.Subjects))

	var teachers, students []uuid.UUID
	for _, u := range demoUsers {
		res, err := svc.Auth.Register(ctx, service.RegisterInput{NewUserInput: service.NewUserInput{
			Name: u.name, Email: u.email, Password: u.password, UserCode: u.code, Role: u.role, Profile: u.profile,
		}})
		if err != nil {
			return nil, fmt.Errorf("seed user %s: %w", u.code, err)
		}
		switch u.role {
		case model.RoleTeacher:
			teachers = append(teachers, res.User.ID)
		case model.RoleStudent:
			students = append(students, res.User.ID)
		}
		result.Users++
	}
	log.Info("users seeded", zap.Int("count", result.Users))

	classes := []service.CreateClassInput{
		{Name: "10th Grade Mathematics", Grade: "Class 10", Section: "A", ClassTeacherID: &teachers[0], MaxStudents: 40},
		{Name: "9th Grade Science", Grade: "Class 9", Section: "B", ClassTeacherID: &teachers[1], MaxStudents: 35},
		{Name: "8th Grade General", Grade: "Class 8", Section: "A", ClassTeacherID: &teachers[2], MaxStudents: 38},
	}
	classIDs := make([]uuid.UUID, 0, len(classes))
	for _, in := range classes {
		c, err := svc.Classes.CreateClass(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("seed class %s: %w", in.Name, err)
		}
		classIDs = append(classIDs, c.ID)
		result.Classes++
	}
	for _, id := range students {
		if _, err := svc.Classes.EnrollStudent(ctx, classIDs[0], id); err != nil {
			return nil, fmt.Errorf("seed enrolment: %w", err)
		}
	}

	assignments := []struct {
		class   uuid.UUID
		teacher uuid.UUID
		subject string
	}{
		{classIDs[0], teachers[0], "MATH"},
		{classIDs[0], teachers[2], "ENG"},
		{classIDs[1], teachers[1], "SCI"},
		{classIDs[1], teachers[2], "ENG"},
	}
	for _, a := range assignments {
		if _, err := svc.Assignments.AssignTeacher(ctx, a.class, a.teacher, subjectByCode[a.subject], false); err != nil {
			return nil, fmt.Errorf("seed assignment %s: %w", a.subject, err)
		}
	}
	log.Info("classes seeded", zap.Int("count", result.Classes), zap.Int("assignments", len(assignments)))
	return result, nil
}
