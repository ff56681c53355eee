package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// School is a tenant. Developers own schools; each school may have one primary admin.
type School struct {
	ID                  uuid.UUID         `json:"id" gorm:"type:char(36);primaryKey"`
	OwnerID             uuid.UUID         `json:"owner" gorm:"type:char(36);not null;index"`
	AdminUserID         *uuid.UUID        `json:"adminUser,omitempty" gorm:"type:char(36)"`
	Name                string            `json:"name" gorm:"size:255;not null;index"`
	Code                string            `json:"code" gorm:"uniqueIndex;size:32;not null"`
	Domain              string            `json:"domain" gorm:"size:255"`
	Address             string            `json:"address" gorm:"size:255"`
	Phone               string            `json:"phone" gorm:"size:32"`
	Email               string            `json:"email" gorm:"size:255"`
	Settings            datatypes.JSONMap `json:"settings" gorm:"type:json"`
	LockTeacherCreation bool              `json:"lockTeacherCreation" gorm:"not null"`
	LockStudentCreation bool              `json:"lockStudentCreation" gorm:"not null"`
	CreatedAt           time.Time         `json:"createdAt"`
	UpdatedAt           time.Time         `json:"updatedAt"`
	DeletedAt           gorm.DeletedAt    `json:"-" gorm:"index"`
}

// BeforeCreate sets UUID before creating the record.
func (s *School) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// CreationLocked reports whether new users of role may not be created in the school.
func (s *School) CreationLocked(role Role) bool {
	switch role {
	case RoleTeacher:
		return s.LockTeacherCreation
	case RoleStudent:
		return s.LockStudentCreation
	default:
		return false
	}
}

// SchoolLocks toggles user creation for a school.
type SchoolLocks struct {
	LockTeacherCreation bool `json:"lockTeacherCreation"`
	LockStudentCreation bool `json:"lockStudentCreation"`
}

// Overview is the platform-wide count shown to developers.
type Overview struct {
	Schools  int64 `json:"schools"`
	Admins   int64 `json:"admins"`
	Teachers int64 `json:"teachers"`
	Students int64 `json:"students"`
}

// DashboardStats is the per-school count shown to admins.
type DashboardStats struct {
	TotalStudents int64 `json:"totalStudents"`
	TotalTeachers int64 `json:"totalTeachers"`
	TotalClasses  int64 `json:"totalClasses"`
	TotalSubjects int64 `json:"totalSubjects"`
}

// Dashboard is the admin landing payload.
type Dashboard struct {
	Stats       DashboardStats `json:"stats"`
	RecentUsers []User         `json:"recentUsers"`
}

// SameSchool reports whether two optional school references are equal.
func SameSchool(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
