package authz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schools24/internal/errors"
	"schools24/internal/model"
)

func TestPolicy_Capabilities(t *testing.T) {
	p := NewPolicy()
	tests := []struct {
		role model.Role
		op   Operation
		want bool
	}{
		{model.RoleAdmin, OpAssignTeachers, true},
		{model.RoleAdmin, OpManageSchools, false},
		{model.RoleDeveloper, OpManageSchools, true},
		{model.RoleDeveloper, OpManageClasses, false},
		{model.RoleTeacher, OpAssignTeachers, false},
		{model.RoleStudent, OpViewDashboard, false},
		{model.Role("ghost"), OpViewDashboard, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role)+" "+string(tt.op), func(t *testing.T) {
			assert.Equal(t, tt.want, p.Can(tt.role, tt.op))
		})
	}
}

func TestPolicy_Scope(t *testing.T) {
	p := NewPolicy()
	schoolA, schoolB := uuid.New(), uuid.New()
	dev, otherDev := uuid.New(), uuid.New()

	tests := []struct {
		name    string
		actor   Actor
		op      Operation
		res     Resource
		wantErr bool
	}{
		{"admin own school", Actor{Role: model.RoleAdmin, SchoolID: &schoolA}, OpManageClasses, InSchool(&schoolA), false},
		{"admin other school", Actor{Role: model.RoleAdmin, SchoolID: &schoolA}, OpManageClasses, InSchool(&schoolB), true},
		{"admin without school on untagged data", Actor{Role: model.RoleAdmin}, OpManageClasses, InSchool(nil), false},
		{"admin without school on tagged data", Actor{Role: model.RoleAdmin}, OpManageClasses, InSchool(&schoolA), true},
		{"developer owner", Actor{ID: dev, Role: model.RoleDeveloper}, OpManageSchools, Resource{SchoolID: &schoolA, OwnerID: &dev}, false},
		{"developer not owner", Actor{ID: dev, Role: model.RoleDeveloper}, OpManageSchools, Resource{SchoolID: &schoolA, OwnerID: &otherDev}, true},
		{"developer new school", Actor{ID: dev, Role: model.RoleDeveloper}, OpManageSchools, Resource{}, false},
		{"teacher lacks capability", Actor{Role: model.RoleTeacher, SchoolID: &schoolA}, OpAssignTeachers, InSchool(&schoolA), true},
		{"system", System, OpManageSchools, Resource{OwnerID: &otherDev}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Authorize(tt.actor, tt.op, tt.res)
			if tt.wantErr {
				var forbidden *errors.ForbiddenError
				assert.ErrorAs(t, err, &forbidden)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestAuthorize_RequiresActor(t *testing.T) {
	err := Authorize(context.Background(), OpManageClasses, InSchool(nil))
	assert.ErrorIs(t, err, errors.ErrTokenInvalid)

	ctx := WithActor(context.Background(), Actor{Role: model.RoleAdmin})
	assert.NoError(t, Authorize(ctx, OpManageClasses, InSchool(nil)))
}

func TestRequireCapability(t *testing.T) {
	e := echo.New()
	handler := RequireCapability(OpManageSchools)(func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	run := func(ctx context.Context) error {
		req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
		return handler(e.NewContext(req, httptest.NewRecorder()))
	}

	assert.NoError(t, run(WithActor(context.Background(), Actor{Role: model.RoleDeveloper})))

	err := run(WithActor(context.Background(), Actor{Role: model.RoleAdmin}))
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusForbidden, he.Code)

	err = run(context.Background())
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}
