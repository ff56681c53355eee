package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"schools24/internal/model"
	"schools24/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DeveloperHandler serves platform endpoints for developers.
type DeveloperHandler struct {
	schoolService service.SchoolService
}

// NewDeveloperHandler creates a new developer handler.
func NewDeveloperHandler(schoolService service.SchoolService) *DeveloperHandler {
	return &DeveloperHandler{schoolService: schoolService}
}

// CreateSchoolRequest represents a new school.
type CreateSchoolRequest struct {
	Name     string                 `json:"name" validate:"required,notblank,min=2"`
	Code     string                 `json:"code" validate:"required,notblank,min=2"`
	Domain   string                 `json:"domain"`
	Address  string                 `json:"address"`
	Phone    string                 `json:"phone"`
	Email    string                 `json:"email" validate:"omitempty,email"`
	Settings map[string]interface{} `json:"settings"`
}

// SchoolUserRequest represents a user created inside a school by a developer.
type SchoolUserRequest struct {
	Name     string        `json:"name" validate:"required,notblank,min=2"`
	Email    string        `json:"email" validate:"required,email"`
	Password string        `json:"password" validate:"required,min=6"`
	Role     model.Role    `json:"role" validate:"omitempty,oneof=admin teacher student"`
	UserID   string        `json:"userId" validate:"required,notblank,min=3"`
	Profile  model.Profile `json:"profile"`
}

func (r SchoolUserRequest) input() service.NewUserInput {
	return service.NewUserInput{
		Name:     r.Name,
		Email:    r.Email,
		Password: r.Password,
		UserCode: r.UserID,
		Role:     r.Role,
		Profile:  r.Profile,
	}
}

// Overview godoc
// @Summary Platform counts
// @Tags developer
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.Overview
// @Failure 403 {object} errors.ErrorResponse
// @Router /developer/overview [get]
func (h *DeveloperHandler) Overview(c echo.Context) error {
	overview, err := h.schoolService.Overview(c.Request().Context())
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, overview)
}

// ListSchools godoc
// @Summary List owned schools
// @Tags developer
// @Produce json
// @Security BearerAuth
// @Param q query string false "Name or code search"
// @Param page query int false "Page, from 1"
// @Param pageSize query int false "Page size, at most 100"
// @Success 200 {object} service.SchoolPage
// @Router /developer/schools [get]
func (h *DeveloperHandler) ListSchools(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("pageSize"))
	result, err := h.schoolService.ListSchools(c.Request().Context(), c.QueryParam("q"), page, pageSize)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// CreateSchool godoc
// @Summary Create a school
// @Tags developer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateSchoolRequest true "School data"
// @Success 201 {object} model.School
// @Failure 400 {object} errors.ErrorResponse
// @Router /developer/schools [post]
func (h *DeveloperHandler) CreateSchool(c echo.Context) error {
	var req CreateSchoolRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	school, err := h.schoolService.CreateSchool(c.Request().Context(), service.CreateSchoolInput{
		Name:     req.Name,
		Code:     req.Code,
		Domain:   req.Domain,
		Address:  req.Address,
		Phone:    req.Phone,
		Email:    req.Email,
		Settings: req.Settings,
	})
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusCreated, school)
}

// ExportSchools godoc
// @Summary Export owned schools as a spreadsheet
// @Tags developer
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param q query string false "Name or code search"
// @Success 200 {file} file
// @Router /developer/schools/export [get]
func (h *DeveloperHandler) ExportSchools(c echo.Context) error {
	data, err := h.schoolService.ExportSchools(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return serviceError(err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="schools.xlsx"`)
	return c.Blob(http.StatusOK, xlsxContentType, data)
}

// ProvisionAdmin godoc
// @Summary Create the primary admin of a school
// @Tags developer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "School ID"
// @Param request body SchoolUserRequest true "Admin data"
// @Success 201 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /developer/schools/{id}/provision-admin [post]
func (h *DeveloperHandler) ProvisionAdmin(c echo.Context) error {
	schoolID, err := pathID(c)
	if err != nil {
		return err
	}
	var req SchoolUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	admin, err := h.schoolService.ProvisionAdmin(c.Request().Context(), schoolID, req.input())
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusCreated, admin)
}

// ListSchoolUsers godoc
// @Summary List a school's users
// @Tags developer
// @Produce json
// @Security BearerAuth
// @Param id path string true "School ID"
// @Success 200 {array} model.User
// @Failure 404 {object} errors.ErrorResponse
// @Router /developer/schools/{id}/users [get]
func (h *DeveloperHandler) ListSchoolUsers(c echo.Context) error {
	schoolID, err := pathID(c)
	if err != nil {
		return err
	}
	users, err := h.schoolService.ListSchoolUsers(c.Request().Context(), schoolID)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, users)
}

// CreateSchoolUser godoc
// @Summary Create a user in a school
// @Description The first admin created becomes the school's primary admin.
// @Tags developer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "School ID"
// @Param request body SchoolUserRequest true "User data"
// @Success 201 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /developer/schools/{id}/users [post]
func (h *DeveloperHandler) CreateSchoolUser(c echo.Context) error {
	schoolID, err := pathID(c)
	if err != nil {
		return err
	}
	var req SchoolUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	in := req.input()
	if in.Role == "" {
		in.Role = model.RoleStudent
	}
	user, err := h.schoolService.CreateUserForSchool(c.Request().Context(), schoolID, in)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusCreated, user)
}

// GetLocks godoc
// @Summary User creation locks of a school
// @Tags developer
// @Produce json
// @Security BearerAuth
// @Param id path string true "School ID"
// @Success 200 {object} model.SchoolLocks
// @Router /developer/schools/{id}/locks [get]
func (h *DeveloperHandler) GetLocks(c echo.Context) error {
	schoolID, err := pathID(c)
	if err != nil {
		return err
	}
	locks, err := h.schoolService.GetLocks(c.Request().Context(), schoolID)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, locks)
}

// UpdateLocks godoc
// @Summary Set user creation locks of a school
// @Tags developer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "School ID"
// @Param request body model.SchoolLocks true "Locks"
// @Success 200 {object} model.SchoolLocks
// @Router /developer/schools/{id}/locks [put]
func (h *DeveloperHandler) UpdateLocks(c echo.Context) error {
	schoolID, err := pathID(c)
	if err != nil {
		return err
	}
	var req model.SchoolLocks
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	locks, err := h.schoolService.UpdateLocks(c.Request().Context(), schoolID, req)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, locks)
}
