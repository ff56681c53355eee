package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"schools24/internal/model"
	"schools24/internal/service"
)

// AdminHandler serves the school administration endpoints.
type AdminHandler struct {
	userService       service.UserService
	classService      service.ClassService
	assignmentService service.AssignmentService
	subjectService    service.SubjectService
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(
	userService service.UserService,
	classService service.ClassService,
	assignmentService service.AssignmentService,
	subjectService service.SubjectService,
) *AdminHandler {
	return &AdminHandler{
		userService:       userService,
		classService:      classService,
		assignmentService: assignmentService,
		subjectService:    subjectService,
	}
}

// CreateUserRequest represents a teacher or student created by an admin.
type CreateUserRequest struct {
	Name     string        `json:"name" validate:"required,notblank,min=2"`
	Email    string        `json:"email" validate:"required,email"`
	Password string        `json:"password" validate:"required,min=6"`
	Role     model.Role    `json:"role" validate:"required,oneof=teacher student"`
	UserID   string        `json:"userId" validate:"required,notblank,min=3"`
	Profile  model.Profile `json:"profile"`
}

func (r CreateUserRequest) input() service.NewUserInput {
	return service.NewUserInput{
		Name:     r.Name,
		Email:    r.Email,
		Password: r.Password,
		UserCode: r.UserID,
		Role:     r.Role,
		Profile:  r.Profile,
	}
}

// CreateClassRequest represents a new class.
type CreateClassRequest struct {
	Name         string      `json:"name" validate:"required,notblank"`
	Grade        model.Grade `json:"grade" validate:"required,grade"`
	Section      string      `json:"section" validate:"required,notblank"`
	ClassTeacher *string     `json:"classTeacher" validate:"omitempty,uuid"`
	MaxStudents  int         `json:"maxStudents" validate:"gte=0"`
}

// AssignTeacherRequest adds a (subject, teacher) pair to a class.
type AssignTeacherRequest struct {
	TeacherID      string `json:"teacherId" validate:"required,uuid"`
	SubjectID      string `json:"subjectId" validate:"required,uuid"`
	IsClassTeacher bool   `json:"isClassTeacher"`
}

// RemoveTeacherRequest drops a pair and/or the class teacher role.
type RemoveTeacherRequest struct {
	TeacherID            string  `json:"teacherId" validate:"required,uuid"`
	SubjectID            *string `json:"subjectId" validate:"omitempty,uuid"`
	RemoveAsClassTeacher bool    `json:"removeAsClassTeacher"`
}

// EnrollStudentRequest adds a student to a class.
type EnrollStudentRequest struct {
	StudentID string `json:"studentId" validate:"required,uuid"`
}

// CreateSubjectRequest represents a new subject.
type CreateSubjectRequest struct {
	Name        string        `json:"name" validate:"required,notblank"`
	Code        string        `json:"code" validate:"required,notblank,min=2"`
	Description string        `json:"description"`
	Icon        string        `json:"icon"`
	Color       string        `json:"color" validate:"omitempty,hexcolor"`
	Grades      []model.Grade `json:"grades" validate:"dive,grade"`
}

// ClassResponse wraps a class with a message.
type ClassResponse struct {
	Message string             `json:"message"`
	Class   *model.ClassDetail `json:"class"`
}

// Dashboard godoc
// @Summary School dashboard
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.Dashboard
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/dashboard [get]
func (h *AdminHandler) Dashboard(c echo.Context) error {
	dashboard, err := h.userService.Dashboard(c.Request().Context())
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, dashboard)
}

// ListTeachers godoc
// @Summary List active teachers
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.User
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/teachers [get]
func (h *AdminHandler) ListTeachers(c echo.Context) error {
	teachers, err := h.userService.ListTeachers(c.Request().Context())
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, teachers)
}

// TeacherAssignments godoc
// @Summary A teacher's current teaching load
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Teacher ID"
// @Success 200 {object} model.TeacherLoad
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/teachers/{id}/assignments [get]
func (h *AdminHandler) TeacherAssignments(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	load, err := h.assignmentService.TeacherLoad(c.Request().Context(), id)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, load)
}

// CreateUser godoc
// @Summary Create a teacher or student
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateUserRequest true "User data"
// @Success 201 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/users [post]
func (h *AdminHandler) CreateUser(c echo.Context) error {
	var req CreateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.userService.CreateSchoolUser(c.Request().Context(), req.input())
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusCreated, user)
}

// ListClasses godoc
// @Summary List active classes
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.ClassDetail
// @Router /admin/classes [get]
func (h *AdminHandler) ListClasses(c echo.Context) error {
	classes, err := h.classService.ListClasses(c.Request().Context())
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, classes)
}

// CreateClass godoc
// @Summary Create a class
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateClassRequest true "Class data"
// @Success 201 {object} ClassResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /admin/classes [post]
func (h *AdminHandler) CreateClass(c echo.Context) error {
	var req CreateClassRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	classTeacher, err := optionalBodyID("classTeacher", req.ClassTeacher)
	if err != nil {
		return err
	}

	class, err := h.classService.CreateClass(c.Request().Context(), service.CreateClassInput{
		Name:           req.Name,
		Grade:          req.Grade,
		Section:        req.Section,
		ClassTeacherID: classTeacher,
		MaxStudents:    req.MaxStudents,
	})
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusCreated, ClassResponse{Message: "Class created successfully", Class: class})
}

// GetClass godoc
// @Summary Get a class
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Success 200 {object} model.ClassDetail
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/classes/{id} [get]
func (h *AdminHandler) GetClass(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	class, err := h.classService.GetClass(c.Request().Context(), id)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, class)
}

// DeleteClass godoc
// @Summary Deactivate a class
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/classes/{id} [delete]
func (h *AdminHandler) DeleteClass(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.classService.DeactivateClass(c.Request().Context(), id); err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Class deleted successfully"})
}

// AssignTeacher godoc
// @Summary Assign a teacher to teach a subject in a class
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Param request body AssignTeacherRequest true "Assignment"
// @Success 200 {object} ClassResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/classes/{id}/assign-teacher [put]
func (h *AdminHandler) AssignTeacher(c echo.Context) error {
	classID, err := pathID(c)
	if err != nil {
		return err
	}
	var req AssignTeacherRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	teacherID, err := bodyID("teacherId", req.TeacherID)
	if err != nil {
		return err
	}
	subjectID, err := bodyID("subjectId", req.SubjectID)
	if err != nil {
		return err
	}

	class, err := h.assignmentService.AssignTeacher(c.Request().Context(), classID, teacherID, subjectID, req.IsClassTeacher)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, ClassResponse{Message: "Teacher assigned successfully", Class: class})
}

// RemoveTeacher godoc
// @Summary Remove a teacher from a class
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Param request body RemoveTeacherRequest true "Removal"
// @Success 200 {object} ClassResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/classes/{id}/remove-teacher [delete]
func (h *AdminHandler) RemoveTeacher(c echo.Context) error {
	classID, err := pathID(c)
	if err != nil {
		return err
	}
	var req RemoveTeacherRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	teacherID, err := bodyID("teacherId", req.TeacherID)
	if err != nil {
		return err
	}
	subjectID, err := optionalBodyID("subjectId", req.SubjectID)
	if err != nil {
		return err
	}

	class, err := h.assignmentService.RemoveTeacher(c.Request().Context(), classID, teacherID, subjectID, req.RemoveAsClassTeacher)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, ClassResponse{Message: "Teacher removed successfully", Class: class})
}

// EnrollStudent godoc
// @Summary Enrol a student in a class
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Param request body EnrollStudentRequest true "Student"
// @Success 200 {object} ClassResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/classes/{id}/students [post]
func (h *AdminHandler) EnrollStudent(c echo.Context) error {
	classID, err := pathID(c)
	if err != nil {
		return err
	}
	var req EnrollStudentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	studentID, err := bodyID("studentId", req.StudentID)
	if err != nil {
		return err
	}

	class, err := h.classService.EnrollStudent(c.Request().Context(), classID, studentID)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, ClassResponse{Message: "Student enrolled successfully", Class: class})
}

// ListSubjects godoc
// @Summary List subjects
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Subject
// @Router /admin/subjects [get]
func (h *AdminHandler) ListSubjects(c echo.Context) error {
	subjects, err := h.subjectService.ListSubjects(c.Request().Context())
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, subjects)
}

// CreateSubject godoc
// @Summary Create a subject
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateSubjectRequest true "Subject data"
// @Success 201 {object} model.Subject
// @Failure 400 {object} errors.ErrorResponse
// @Router /admin/subjects [post]
func (h *AdminHandler) CreateSubject(c echo.Context) error {
	var req CreateSubjectRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	subject, err := h.subjectService.CreateSubject(c.Request().Context(), service.CreateSubjectInput{
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
		Icon:        req.Icon,
		Color:       req.Color,
		Grades:      req.Grades,
	})
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusCreated, subject)
}
