package model

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultMaxStudents is used when a class is created without a cap.
const DefaultMaxStudents = 40

// Class groups students of one grade and section, with the subjects taught to them.
type Class struct {
	ID             uuid.UUID      `json:"id" gorm:"type:char(36);primaryKey"`
	SchoolID       *uuid.UUID     `json:"school,omitempty" gorm:"type:char(36);index"`
	Name           string         `json:"name" gorm:"size:255;not null;index:idx_class_identity"`
	Grade          Grade          `json:"grade" gorm:"type:varchar(16);not null;index:idx_class_identity"`
	Section        string         `json:"section" gorm:"size:32;not null;index:idx_class_identity"`
	ClassTeacherID *uuid.UUID     `json:"classTeacher" gorm:"type:char(36);index"`
	MaxStudents    int            `json:"maxStudents" gorm:"not null"`
	IsActive       bool           `json:"isActive" gorm:"not null;index"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Subjects []ClassSubjectTeacher `json:"subjects" gorm:"foreignKey:ClassID"`

	// Loaded from class_students by the repository.
	Students []uuid.UUID `json:"students" gorm:"-"`
}

// BeforeCreate sets UUID before creating the record.
func (c *Class) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// HasPair reports whether the exact (subject, teacher) pair is on the class.
func (c *Class) HasPair(subjectID, teacherID uuid.UUID) bool {
	for _, p := range c.Subjects {
		if p.SubjectID == subjectID && p.TeacherID == teacherID {
			return true
		}
	}
	return false
}

// TeacherPairCount counts the pairs taught by teacherID in this class.
func (c *Class) TeacherPairCount(teacherID uuid.UUID) int {
	n := 0
	for _, p := range c.Subjects {
		if p.TeacherID == teacherID {
			n++
		}
	}
	return n
}

// IsClassTeacher reports whether teacherID is the class teacher.
func (c *Class) IsClassTeacher(teacherID uuid.UUID) bool {
	return c.ClassTeacherID != nil && *c.ClassTeacherID == teacherID
}

// Teaches reports whether teacherID still has any tie to the class.
func (c *Class) Teaches(teacherID uuid.UUID) bool {
	return c.IsClassTeacher(teacherID) || c.TeacherPairCount(teacherID) > 0
}

// SortClasses orders classes by grade in school order, then by section.
func SortClasses(classes []Class) {
	sort.SliceStable(classes, func(i, j int) bool {
		if ri, rj := classes[i].Grade.Rank(), classes[j].Grade.Rank(); ri != rj {
			return ri < rj
		}
		return classes[i].Section < classes[j].Section
	})
}

// ClassSubjectTeacher is an assignment pair: a subject taught in a class by a teacher.
// The auto-increment id keeps insertion order for display.
type ClassSubjectTeacher struct {
	ID        uint      `json:"-" gorm:"primaryKey;autoIncrement"`
	ClassID   uuid.UUID `json:"-" gorm:"type:char(36);not null;uniqueIndex:idx_class_subject_teacher"`
	SubjectID uuid.UUID `json:"subject" gorm:"type:char(36);not null;uniqueIndex:idx_class_subject_teacher"`
	TeacherID uuid.UUID `json:"teacher" gorm:"type:char(36);not null;uniqueIndex:idx_class_subject_teacher;index"`
	CreatedAt time.Time `json:"-"`
}

// TableName overrides the default table name.
func (ClassSubjectTeacher) TableName() string {
	return "class_subject_teachers"
}

// ClassStudent is one entry of a class's students set.
type ClassStudent struct {
	ClassID   uuid.UUID `gorm:"type:char(36);primaryKey"`
	StudentID uuid.UUID `gorm:"type:char(36);primaryKey;index"`
	CreatedAt time.Time
}

// TableName overrides the default table name.
func (ClassStudent) TableName() string {
	return "class_students"
}

// AssignmentView is an assignment pair with its references populated.
type AssignmentView struct {
	Subject SubjectSummary `json:"subject"`
	Teacher UserSummary    `json:"teacher"`
}

// ClassDetail is the response form of a class with every reference populated.
type ClassDetail struct {
	ID           uuid.UUID        `json:"id"`
	SchoolID     *uuid.UUID       `json:"school,omitempty"`
	Name         string           `json:"name"`
	Grade        Grade            `json:"grade"`
	Section      string           `json:"section"`
	ClassTeacher *UserSummary     `json:"classTeacher"`
	Subjects     []AssignmentView `json:"subjects"`
	Students     []UserSummary    `json:"students"`
	StudentCount int              `json:"studentCount"`
	MaxStudents  int              `json:"maxStudents"`
	IsActive     bool             `json:"isActive"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// TeacherLoad is a teacher's current teaching load, derived from assignment pairs.
type TeacherLoad struct {
	Teacher        UserSummary      `json:"teacher"`
	Classes        []uuid.UUID      `json:"classes"`
	Subjects       []uuid.UUID      `json:"subjects"`
	Assignments    []LoadAssignment `json:"assignments"`
	ClassTeacherOf []uuid.UUID      `json:"classTeacherOf"`
}

// LoadAssignment is one (class, subject) a teacher currently teaches.
type LoadAssignment struct {
	ClassID   uuid.UUID `json:"class"`
	SubjectID uuid.UUID `json:"subject"`
}
