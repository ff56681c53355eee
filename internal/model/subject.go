package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DefaultSubjectIcon  = "default-icon.png"
	DefaultSubjectColor = "#007bff"
)

// Subject is a course that can be taught in classes of the listed grades.
type Subject struct {
	ID          uuid.UUID                  `json:"id" gorm:"type:char(36);primaryKey"`
	SchoolID    *uuid.UUID                 `json:"school,omitempty" gorm:"type:char(36);index"`
	Name        string                     `json:"name" gorm:"size:255;not null"`
	Code        string                     `json:"code" gorm:"uniqueIndex;size:32;not null"`
	Description string                     `json:"description" gorm:"type:text"`
	Icon        string                     `json:"icon" gorm:"size:255"`
	Color       string                     `json:"color" gorm:"size:16"`
	Grades      datatypes.JSONSlice[Grade] `json:"grades" gorm:"type:json"`
	IsActive    bool                       `json:"isActive" gorm:"not null;index"`
	CreatedAt   time.Time                  `json:"createdAt"`
	UpdatedAt   time.Time                  `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt             `json:"-" gorm:"index"`
}

// BeforeCreate sets UUID before creating the record.
func (s *Subject) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Summary returns the short form embedded in other responses.
func (s *Subject) Summary() SubjectSummary {
	return SubjectSummary{ID: s.ID, Name: s.Name, Code: s.Code}
}

// AvailableTo reports whether a class of schoolID may use the subject.
// Subjects without a school are shared by every school.
func (s *Subject) AvailableTo(schoolID *uuid.UUID) bool {
	return s.SchoolID == nil || SameSchool(s.SchoolID, schoolID)
}

// SubjectSummary is the populated form of a subject reference.
type SubjectSummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Code string    `json:"code"`
}

// NormalizeCode is the canonical form of subject and school codes.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
