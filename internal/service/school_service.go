package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"schools24/internal/authz"
	"schools24/internal/cache"
	"schools24/internal/errors"
	"schools24/internal/model"
	"schools24/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	exportSheet     = "Schools"
)

// CreateSchoolInput is the data for a new school.
type CreateSchoolInput struct {
	Name     string
	Code     string
	Domain   string
	Address  string
	Phone    string
	Email    string
	Settings map[string]interface{}
	// OwnerID is only honoured for the System actor; developers always own what they create.
	OwnerID *uuid.UUID
}

// SchoolPage is one page of a school listing.
type SchoolPage struct {
	Schools  []model.School `json:"schools"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}

// SchoolService handles tenant provisioning for developers.
type SchoolService interface {
	CreateSchool(ctx context.Context, in CreateSchoolInput) (*model.School, error)
	ListSchools(ctx context.Context, query string, page, pageSize int) (*SchoolPage, error)
	ProvisionAdmin(ctx context.Context, schoolID uuid.UUID, in NewUserInput) (*model.User, error)
	CreateUserForSchool(ctx context.Context, schoolID uuid.UUID, in NewUserInput) (*model.User, error)
	ListSchoolUsers(ctx context.Context, schoolID uuid.UUID) ([]model.User, error)
	GetLocks(ctx context.Context, schoolID uuid.UUID) (*model.SchoolLocks, error)
	UpdateLocks(ctx context.Context, schoolID uuid.UUID, locks model.SchoolLocks) (*model.SchoolLocks, error)
	Overview(ctx context.Context) (*model.Overview, error)
	// ExportSchools renders the caller's schools matching query as an XLSX
	// workbook. An empty query exports them all.
	ExportSchools(ctx context.Context, query string) ([]byte, error)
}

type schoolService struct {
	store repository.Store
	cache *cache.Client
	log   *zap.Logger
}

// NewSchoolService creates a new school service.
func NewSchoolService(store repository.Store, cache *cache.Client, log *zap.Logger) SchoolService {
	if log == nil {
		log = zap.NewNop()
	}
	return &schoolService{store: store, cache: cache, log: log}
}

func (s *schoolService) CreateSchool(ctx context.Context, in CreateSchoolInput) (*model.School, error) {
	name := strings.TrimSpace(in.Name)
	code := model.NormalizeCode(in.Code)
	if len(name) < 2 {
		return nil, errors.NewValidationError("name", "school name is required")
	}
	if len(code) < 2 {
		return nil, errors.NewValidationError("code", "school code is required")
	}
	if err := authz.Authorize(ctx, authz.OpManageSchools, authz.Resource{}); err != nil {
		return nil, err
	}

	actor, _ := authz.ActorFrom(ctx)
	owner := actor.ID
	if actor.IsSystem() && in.OwnerID != nil {
		owner = *in.OwnerID
	}

	if _, err := s.store.Schools().FindByCode(ctx, code); err == nil {
		return nil, errors.Conflict("school code already exists")
	} else if err != repository.ErrNotFound {
		return nil, fmt.Errorf("check school code: %w", err)
	}

	settings := datatypes.JSONMap{}
	for k, v := range in.Settings {
		settings[k] = v
	}
	school := &model.School{
		OwnerID:  owner,
		Name:     name,
		Code:     code,
		Domain:   in.Domain,
		Address:  in.Address,
		Phone:    in.Phone,
		Email:    normalizeEmail(in.Email),
		Settings: settings,
	}
	if err := s.store.Schools().Create(ctx, school); err != nil {
		if err == repository.ErrDuplicate {
			return nil, errors.Conflict("school code already exists")
		}
		return nil, fmt.Errorf("create school: %w", err)
	}
	s.log.Info("school created", zap.String("school_id", school.ID.String()), zap.String("code", code))
	return school, nil
}

// ListSchools pages through the caller's schools. query matches name or code.
func (s *schoolService) ListSchools(ctx context.Context, query string, page, pageSize int) (*SchoolPage, error) {
	if err := authz.Authorize(ctx, authz.OpManageSchools, authz.Resource{}); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	filter := repository.SchoolFilter{
		Query:  strings.TrimSpace(query),
		Offset: (page - 1) * pageSize,
		Limit:  pageSize,
	}
	if actor, _ := authz.ActorFrom(ctx); !actor.IsSystem() {
		filter.OwnerID = &actor.ID
	}
	schools, total, err := s.store.Schools().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list schools: %w", err)
	}
	if schools == nil {
		schools = []model.School{}
	}
	return &SchoolPage{Schools: schools, Total: total, Page: page, PageSize: pageSize}, nil
}

// ProvisionAdmin creates an admin in the school and makes them its primary admin.
func (s *schoolService) ProvisionAdmin(ctx context.Context, schoolID uuid.UUID, in NewUserInput) (*model.User, error) {
	in.Role = model.RoleAdmin
	var admin *model.User
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		school, err := s.load(ctx, tx, schoolID, true)
		if err != nil {
			return err
		}
		admin, err = createUser(ctx, tx.Users(), in, &school.ID)
		if err != nil {
			return err
		}
		school.AdminUserID = &admin.ID
		if err := tx.Schools().Update(ctx, school); err != nil {
			return fmt.Errorf("set school admin: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("school admin provisioned",
		zap.String("school_id", schoolID.String()),
		zap.String("admin_id", admin.ID.String()))
	return admin, nil
}

// CreateUserForSchool creates any school role. The first admin becomes the school's primary admin.
func (s *schoolService) CreateUserForSchool(ctx context.Context, schoolID uuid.UUID, in NewUserInput) (*model.User, error) {
	switch in.Role {
	case model.RoleAdmin, model.RoleTeacher, model.RoleStudent:
	default:
		return nil, errors.NewValidationError("role", "role must be admin, teacher or student")
	}

	var user *model.User
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		school, err := s.load(ctx, tx, schoolID, true)
		if err != nil {
			return err
		}
		user, err = createUser(ctx, tx.Users(), in, &school.ID)
		if err != nil {
			return err
		}
		if user.Role == model.RoleAdmin && school.AdminUserID == nil {
			school.AdminUserID = &user.ID
			if err := tx.Schools().Update(ctx, school); err != nil {
				return fmt.Errorf("set school admin: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	_ = s.cache.Delete(ctx, cache.DashboardKey(&schoolID))
	return user, nil
}

// ListSchoolUsers lists every user of a school, newest first.
func (s *schoolService) ListSchoolUsers(ctx context.Context, schoolID uuid.UUID) ([]model.User, error) {
	school, err := s.load(ctx, s.store, schoolID, false)
	if err != nil {
		return nil, err
	}
	users, err := s.store.Users().List(ctx, repository.UserFilter{Scope: repository.ScopeTo(&school.ID)})
	if err != nil {
		return nil, fmt.Errorf("list school users: %w", err)
	}
	return users, nil
}

func (s *schoolService) GetLocks(ctx context.Context, schoolID uuid.UUID) (*model.SchoolLocks, error) {
	school, err := s.load(ctx, s.store, schoolID, false)
	if err != nil {
		return nil, err
	}
	return &model.SchoolLocks{
		LockTeacherCreation: school.LockTeacherCreation,
		LockStudentCreation: school.LockStudentCreation,
	}, nil
}

func (s *schoolService) UpdateLocks(ctx context.Context, schoolID uuid.UUID, locks model.SchoolLocks) (*model.SchoolLocks, error) {
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		school, err := s.load(ctx, tx, schoolID, true)
		if err != nil {
			return err
		}
		school.LockTeacherCreation = locks.LockTeacherCreation
		school.LockStudentCreation = locks.LockStudentCreation
		if err := tx.Schools().Update(ctx, school); err != nil {
			return fmt.Errorf("update school locks: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &locks, nil
}

// Overview counts schools and users across the platform.
func (s *schoolService) Overview(ctx context.Context) (*model.Overview, error) {
	if err := authz.Authorize(ctx, authz.OpViewOverview, authz.Resource{}); err != nil {
		return nil, err
	}
	var (
		overview model.Overview
		err      error
	)
	if overview.Schools, err = s.store.Schools().Count(ctx); err != nil {
		return nil, fmt.Errorf("count schools: %w", err)
	}
	counts := []struct {
		role model.Role
		dst  *int64
	}{
		{model.RoleAdmin, &overview.Admins},
		{model.RoleTeacher, &overview.Teachers},
		{model.RoleStudent, &overview.Students},
	}
	for _, c := range counts {
		if *c.dst, err = s.store.Users().Count(ctx, repository.UserFilter{Role: c.role}); err != nil {
			return nil, fmt.Errorf("count %s users: %w", c.role, err)
		}
	}
	return &overview, nil
}

func (s *schoolService) ExportSchools(ctx context.Context, query string) ([]byte, error) {
	page, err := s.ListSchools(ctx, query, 1, maxPageSize)
	if err != nil {
		return nil, err
	}
	schools := page.Schools
	for p := 2; int64(len(schools)) < page.Total; p++ {
		next, err := s.ListSchools(ctx, query, p, maxPageSize)
		if err != nil {
			return nil, err
		}
		if len(next.Schools) == 0 {
			break
		}
		schools = append(schools, next.Schools...)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.log.Warn("close export workbook", zap.Error(err))
		}
	}()
	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return nil, fmt.Errorf("name export sheet: %w", err)
	}

	header := []interface{}{"Name", "Code", "Domain", "Email", "Phone", "Address", "Admin", "Teacher Lock", "Student Lock", "Created"}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write export header: %w", err)
	}
	for i, school := range schools {
		admin := ""
		if school.AdminUserID != nil {
			admin = school.AdminUserID.String()
		}
		row := []interface{}{
			school.Name, school.Code, school.Domain, school.Email, school.Phone, school.Address,
			admin, school.LockTeacherCreation, school.LockStudentCreation,
			school.CreatedAt.Format("2006-01-02"),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("export cell: %w", err)
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write export row: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render export: %w", err)
	}
	return buf.Bytes(), nil
}

// load fetches a school and checks the caller owns it.
func (s *schoolService) load(ctx context.Context, store repository.Store, id uuid.UUID, forUpdate bool) (*model.School, error) {
	var (
		school *model.School
		err    error
	)
	if forUpdate {
		school, err = store.Schools().FindByIDForUpdate(ctx, id)
	} else {
		school, err = store.Schools().FindByID(ctx, id)
	}
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, errors.NotFound("school")
		}
		return nil, fmt.Errorf("load school: %w", err)
	}
	if err := authz.Authorize(ctx, authz.OpManageSchools, authz.OwnedSchool(school)); err != nil {
		return nil, err
	}
	return school, nil
}
