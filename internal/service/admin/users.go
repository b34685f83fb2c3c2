package admin

import (
	"context"

	"github.com/treegar/admin-console/internal/model"
	"github.com/treegar/admin-console/internal/query"
)

type Users struct {
	*base
	list *query.List[model.User]
}

func newUsers(b *base) *Users {
	return &Users{base: b, list: query.NewList[model.User](b.cache, b.api, ResourceUsers, "/users", b.pageSize,
		"search", "roleId", "isActive")}
}

func (s *Users) List(ctx context.Context, f query.Filters, page model.PageRequest) (model.Page[model.User], error) {
	return s.list.Fetch(ctx, f, page)
}

func (s *Users) Create(ctx context.Context, req model.CreateUserRequest) (*model.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var out model.User
	err := s.mutate(ctx, "user.create", ResourceUsers, req.Email, func(ctx context.Context) error {
		return s.api.Post(ctx, "/users", req, &out)
	}, ResourceDashboard)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Users) Update(ctx context.Context, id string, req model.UpdateUserRequest) (*model.User, error) {
	p, err := path("/users", id)
	if err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var out model.User
	err = s.mutate(ctx, "user.update", ResourceUsers, id, func(ctx context.Context) error {
		return s.api.Put(ctx, p, req, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SetActive enables or disables an operator account.
func (s *Users) SetActive(ctx context.Context, id string, active bool) error {
	p, err := path("/users", id, "status")
	if err != nil {
		return err
	}
	action := "user.deactivate"
	if active {
		action = "user.activate"
	}
	return s.mutate(ctx, action, ResourceUsers, id, func(ctx context.Context) error {
		return s.api.Patch(ctx, p, model.SetUserStatusRequest{IsActive: active}, nil)
	})
}

type Roles struct {
	*base
	list *query.List[model.Role]
}

func newRoles(b *base) *Roles {
	return &Roles{base: b, list: query.NewList[model.Role](b.cache, b.api, ResourceRoles, "/roles", b.pageSize, "search")}
}

func (s *Roles) List(ctx context.Context, f query.Filters, page model.PageRequest) (model.Page[model.Role], error) {
	return s.list.Fetch(ctx, f, page)
}

func (s *Roles) Create(ctx context.Context, req model.CreateRoleRequest) (*model.Role, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var out model.Role
	err := s.mutate(ctx, "role.create", ResourceRoles, req.Name, func(ctx context.Context) error {
		return s.api.Post(ctx, "/roles", req, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePermissions replaces the role's permission set. Users embed their
// role's permissions, so their lists are refreshed too.
func (s *Roles) UpdatePermissions(ctx context.Context, id string, req model.UpdateRolePermissionsRequest) error {
	p, err := path("/roles", id, "permissions")
	if err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}
	return s.mutate(ctx, "role.permissions", ResourceRoles, id, func(ctx context.Context) error {
		return s.api.Put(ctx, p, req, nil)
	}, ResourceUsers)
}

type Permissions struct{ *base }

// List returns the full permission catalogue; it is small and unpaged.
func (s *Permissions) List(ctx context.Context) ([]model.Permission, error) {
	return query.Get[[]model.Permission](ctx, s.cache, s.api, ResourcePermissions, "/permissions", nil)
}
