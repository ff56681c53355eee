package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"schools24/internal/model"
)

// UserFilter selects users for listing and counting.
type UserFilter struct {
	Role       model.Role
	Scope      *SchoolScope
	ActiveOnly bool
	// Limit caps the result size; zero means no limit. Results are newest first.
	Limit int
}

// UserRepository defines persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUserCode(ctx context.Context, code string) (*model.User, error)
	ExistsByEmailOrUserCode(ctx context.Context, email, code string) (bool, error)
	List(ctx context.Context, filter UserFilter) ([]model.User, error)
	Count(ctx context.Context, filter UserFilter) (int64, error)
	// AddAssignedClass and AddSubject have set semantics: adding an existing entry is a no-op.
	AddAssignedClass(ctx context.Context, userID, classID uuid.UUID) error
	RemoveAssignedClass(ctx context.Context, userID, classID uuid.UUID) error
	AddSubject(ctx context.Context, userID, subjectID uuid.UUID) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return translate(r.db.WithContext(ctx).Save(user).Error)
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *userRepository) FindByUserCode(ctx context.Context, code string) (*model.User, error) {
	return r.findOne(ctx, "user_code = ?", code)
}

func (r *userRepository) findOne(ctx context.Context, query string, arg interface{}) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	users := []*model.User{&user}
	if err := r.loadSets(ctx, users); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []model.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, translate(err)
	}
	return users, nil
}

func (r *userRepository) ExistsByEmailOrUserCode(ctx context.Context, email, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("email = ? OR user_code = ?", email, code).
		Count(&count).Error
	return count > 0, translate(err)
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]model.User, error) {
	var users []model.User
	q := r.filtered(ctx, filter).Order("created_at DESC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, translate(err)
	}
	ptrs := make([]*model.User, len(users))
	for i := range users {
		ptrs[i] = &users[i]
	}
	if err := r.loadSets(ctx, ptrs); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) Count(ctx context.Context, filter UserFilter) (int64, error) {
	var count int64
	err := r.filtered(ctx, filter).Count(&count).Error
	return count, translate(err)
}

func (r *userRepository) filtered(ctx context.Context, filter UserFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.User{})
	if filter.Role != "" {
		q = q.Where("role = ?", filter.Role)
	}
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	return applyScope(q, filter.Scope, "school_id")
}

func (r *userRepository) AddAssignedClass(ctx context.Context, userID, classID uuid.UUID) error {
	return translate(r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.TeacherClass{UserID: userID, ClassID: classID}).Error)
}

func (r *userRepository) RemoveAssignedClass(ctx context.Context, userID, classID uuid.UUID) error {
	return translate(r.db.WithContext(ctx).
		Where("user_id = ? AND class_id = ?", userID, classID).
		Delete(&model.TeacherClass{}).Error)
}

func (r *userRepository) AddSubject(ctx context.Context, userID, subjectID uuid.UUID) error {
	return translate(r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.TeacherSubject{UserID: userID, SubjectID: subjectID}).Error)
}

// loadSets fills AssignedClasses and Subjects from the join tables.
func (r *userRepository) loadSets(ctx context.Context, users []*model.User) error {
	if len(users) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*model.User, len(users))
	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		u.AssignedClasses = []uuid.UUID{}
		u.Subjects = []uuid.UUID{}
		byID[u.ID] = u
		ids = append(ids, u.ID)
	}

	var classes []model.TeacherClass
	if err := r.db.WithContext(ctx).Where("user_id IN ?", ids).
		Order("created_at ASC").Find(&classes).Error; err != nil {
		return translate(err)
	}
	for _, tc := range classes {
		u := byID[tc.UserID]
		u.AssignedClasses = append(u.AssignedClasses, tc.ClassID)
	}

	var subjects []model.TeacherSubject
	if err := r.db.WithContext(ctx).Where("user_id IN ?", ids).
		Order("created_at ASC").Find(&subjects).Error; err != nil {
		return translate(err)
	}
	for _, ts := range subjects {
		u := byID[ts.UserID]
		u.Subjects = append(u.Subjects, ts.SubjectID)
	}
	return nil
}
