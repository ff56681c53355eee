package memory

import (
	"context"

	"github.com/google/uuid"

	"schools24/internal/model"
	"schools24/internal/repository"
)

type userTable struct {
	s *Store
}

func (t *userTable) Create(ctx context.Context, user *model.User) error {
	defer t.s.lock()()
	db := t.s.db
	_ = user.BeforeCreate(nil)
	for _, u := range db.users {
		if u.Email == user.Email || u.UserCode == user.UserCode {
			return repository.ErrDuplicate
		}
	}
	if _, ok := db.users[user.ID]; ok {
		return repository.ErrDuplicate
	}
	stamp(&user.CreatedAt, &user.UpdatedAt)
	db.users[user.ID] = storedUser(user)
	db.userOrder = append(db.userOrder, user.ID)
	return nil
}

func (t *userTable) Update(ctx context.Context, user *model.User) error {
	defer t.s.lock()()
	db := t.s.db
	if _, ok := db.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, u := range db.users {
		if id != user.ID && (u.Email == user.Email || u.UserCode == user.UserCode) {
			return repository.ErrDuplicate
		}
	}
	stamp(&user.CreatedAt, &user.UpdatedAt)
	db.users[user.ID] = storedUser(user)
	return nil
}

func (t *userTable) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	defer t.s.lock()()
	return t.find(func(u model.User) bool { return u.ID == id })
}

func (t *userTable) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	defer t.s.lock()()
	return t.find(func(u model.User) bool { return u.Email == email })
}

func (t *userTable) FindByUserCode(ctx context.Context, code string) (*model.User, error) {
	defer t.s.lock()()
	return t.find(func(u model.User) bool { return u.UserCode == code })
}

func (t *userTable) find(match func(model.User) bool) (*model.User, error) {
	for _, id := range t.s.db.userOrder {
		u := t.s.db.users[id]
		if match(u) {
			loaded := t.withSets(u)
			return &loaded, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (t *userTable) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.User, error) {
	defer t.s.lock()()
	var out []model.User
	for _, id := range ids {
		if u, ok := t.s.db.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (t *userTable) ExistsByEmailOrUserCode(ctx context.Context, email, code string) (bool, error) {
	defer t.s.lock()()
	for _, u := range t.s.db.users {
		if u.Email == email || u.UserCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (t *userTable) List(ctx context.Context, filter repository.UserFilter) ([]model.User, error) {
	defer t.s.lock()()
	out := []model.User{}
	order := t.s.db.userOrder
	for i := len(order) - 1; i >= 0; i-- {
		u := t.s.db.users[order[i]]
		if !userMatches(u, filter) {
			continue
		}
		out = append(out, t.withSets(u))
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (t *userTable) Count(ctx context.Context, filter repository.UserFilter) (int64, error) {
	defer t.s.lock()()
	var n int64
	for _, u := range t.s.db.users {
		if userMatches(u, filter) {
			n++
		}
	}
	return n, nil
}

func userMatches(u model.User, filter repository.UserFilter) bool {
	if filter.Role != "" && u.Role != filter.Role {
		return false
	}
	if filter.ActiveOnly && !u.IsActive {
		return false
	}
	return matchesScope(filter.Scope, u.SchoolID)
}

func (t *userTable) AddAssignedClass(ctx context.Context, userID, classID uuid.UUID) error {
	defer t.s.lock()()
	db := t.s.db
	for _, tc := range db.teacherClasses {
		if tc.UserID == userID && tc.ClassID == classID {
			return nil
		}
	}
	db.teacherClasses = append(db.teacherClasses, model.TeacherClass{UserID: userID, ClassID: classID})
	return nil
}

func (t *userTable) RemoveAssignedClass(ctx context.Context, userID, classID uuid.UUID) error {
	defer t.s.lock()()
	db := t.s.db
	kept := db.teacherClasses[:0:0]
	for _, tc := range db.teacherClasses {
		if tc.UserID == userID && tc.ClassID == classID {
			continue
		}
		kept = append(kept, tc)
	}
	db.teacherClasses = kept
	return nil
}

func (t *userTable) AddSubject(ctx context.Context, userID, subjectID uuid.UUID) error {
	defer t.s.lock()()
	db := t.s.db
	for _, ts := range db.teacherSubjects {
		if ts.UserID == userID && ts.SubjectID == subjectID {
			return nil
		}
	}
	db.teacherSubjects = append(db.teacherSubjects, model.TeacherSubject{UserID: userID, SubjectID: subjectID})
	return nil
}

func (t *userTable) withSets(u model.User) model.User {
	u.SchoolID = copyIDPtr(u.SchoolID)
	u.AssignedClasses = []uuid.UUID{}
	u.Subjects = []uuid.UUID{}
	for _, tc := range t.s.db.teacherClasses {
		if tc.UserID == u.ID {
			u.AssignedClasses = append(u.AssignedClasses, tc.ClassID)
		}
	}
	for _, ts := range t.s.db.teacherSubjects {
		if ts.UserID == u.ID {
			u.Subjects = append(u.Subjects, ts.SubjectID)
		}
	}
	return u
}

// storedUser strips the join-table sets, which live in their own slices.
func storedUser(u *model.User) model.User {
	v := *u
	v.SchoolID = copyIDPtr(u.SchoolID)
	v.AssignedClasses = nil
	v.Subjects = nil
	return v
}
