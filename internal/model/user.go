package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the coarse permission level of a user.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleTeacher   Role = "teacher"
	RoleStudent   Role = "student"
	RoleDeveloper Role = "developer"
)

// Roles lists every role a user may hold.
var Roles = []Role{RoleAdmin, RoleTeacher, RoleStudent, RoleDeveloper}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Profile holds optional personal details.
type Profile struct {
	DateOfBirth    *time.Time `json:"dateOfBirth,omitempty"`
	Phone          string     `json:"phone,omitempty" gorm:"size:32"`
	Address        string     `json:"address,omitempty" gorm:"size:255"`
	ParentGuardian string     `json:"parentGuardian,omitempty" gorm:"size:255"`
	AdmissionDate  *time.Time `json:"admissionDate,omitempty"`
	RollNumber     string     `json:"rollNumber,omitempty" gorm:"size:32"`
}

// User represents anyone who can sign in: staff, students and platform developers.
type User struct {
	ID           uuid.UUID      `json:"id" gorm:"type:char(36);primaryKey"`
	Name         string         `json:"name" gorm:"size:255;not null"`
	Email        string         `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string         `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	Role         Role           `json:"role" gorm:"type:varchar(20);not null;index"`
	UserCode     string         `json:"userId" gorm:"column:user_code;uniqueIndex;size:64;not null"`
	SchoolID     *uuid.UUID     `json:"school,omitempty" gorm:"type:char(36);index"`
	Profile      Profile        `json:"profile" gorm:"embedded;embeddedPrefix:profile_"`
	IsActive     bool           `json:"isActive" gorm:"not null;index"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`

	// Loaded from teacher_classes / teacher_subjects by the repository.
	AssignedClasses []uuid.UUID `json:"assignedClasses" gorm:"-"`
	Subjects        []uuid.UUID `json:"subjects" gorm:"-"`
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// IsTeacher reports whether the user may hold class assignments.
func (u *User) IsTeacher() bool {
	return u.Role == RoleTeacher
}

// HasAssignedClass reports whether classID is in the user's assigned classes.
func (u *User) HasAssignedClass(classID uuid.UUID) bool {
	return containsID(u.AssignedClasses, classID)
}

// HasSubject reports whether subjectID is in the user's subject set.
func (u *User) HasSubject(subjectID uuid.UUID) bool {
	return containsID(u.Subjects, subjectID)
}

// Summary returns the short form embedded in other responses.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, UserCode: u.UserCode}
}

// UserSummary is the populated form of a user reference.
type UserSummary struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	UserCode string    `json:"userId,omitempty"`
}

// TeacherClass is one entry of a teacher's assignedClasses set.
type TeacherClass struct {
	UserID    uuid.UUID `gorm:"type:char(36);primaryKey"`
	ClassID   uuid.UUID `gorm:"type:char(36);primaryKey;index"`
	CreatedAt time.Time
}

// TableName overrides the default table name.
func (TeacherClass) TableName() string {
	return "teacher_classes"
}

// TeacherSubject is one entry of a teacher's subjects set.
type TeacherSubject struct {
	UserID    uuid.UUID `gorm:"type:char(36);primaryKey"`
	SubjectID uuid.UUID `gorm:"type:char(36);primaryKey;index"`
	CreatedAt time.Time
}

// TableName overrides the default table name.
func (TeacherSubject) TableName() string {
	return "teacher_subjects"
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
