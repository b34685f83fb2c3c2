package mockapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/treegar/admin-console/internal/model"
)

func (s *Server) listUsers(c echo.Context) error {
	search, roleID := query(c, "search"), query(c, "roleId")
	active, activeSet := boolParam(c, "isActive")

	st := s.store
	st.mu.Lock()
	items := make([]model.User, 0, len(st.users))
	for _, a := range st.users {
		if matchesAny(search, a.FirstName, a.LastName, a.Email) && eq(roleID, a.RoleID) && (!activeSet || a.IsActive == active) {
			items = append(items, a.User)
		}
	}
	st.mu.Unlock()

	newestFirst(items, func(u model.User) time.Time { return u.CreatedAt })
	return ok(c, http.StatusOK, paginate(c, items), "")
}

func boolParam(c echo.Context, name string) (bool, bool) {
	v, err := strconv.ParseBool(query(c, name))
	return v, err == nil
}

func (s *Server) createUser(c echo.Context) error {
	req, err := bind[model.CreateUserRequest](c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Malformed request body")
	}
	if err := req.Validate(); err != nil {
		return invalid(c, err)
	}

	st := s.store
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.userByEmail(req.Email) != nil {
		return fieldError(c, "email", "A user with this email already exists")
	}
	if _, found := st.roles[req.RoleID]; !found {
		return fieldError(c, "roleId", "Unknown role")
	}
	a := st.addUserLocked(model.User{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		RoleID:    req.RoleID,
		IsActive:  true,
		CreatedAt: st.now(),
	}, req.Password)
	return ok(c, http.StatusCreated, a.User, "User created")
}

func (s *Server) updateUser(c echo.Context) error {
	req, err := bind[model.UpdateUserRequest](c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Malformed request body")
	}
	if err := req.Validate(); err != nil {
		return invalid(c, err)
	}

	st := s.store
	st.mu.Lock()
	defer st.mu.Unlock()
	a, found := st.users[c.Param("id")]
	if !found {
		return fail(c, http.StatusNotFound, "User not found")
	}
	r, found := st.roles[req.RoleID]
	if !found {
		return fieldError(c, "roleId", "Unknown role")
	}
	a.FirstName, a.LastName = req.FirstName, req.LastName
	a.RoleID, a.Role, a.Permissions = r.ID, r.Name, permissionNames(r.Permissions)
	return ok(c, http.StatusOK, a.User, "User updated")
}

func (s *Server) setUserStatus(c echo.Context) error {
	req, err := bind[model.SetUserStatusRequest](c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Malformed request body")
	}

	st := s.store
	st.mu.Lock()
	defer st.mu.Unlock()
	a, found := st.users[c.Param("id")]
	if !found {
		return fail(c, http.StatusNotFound, "User not found")
	}
	if !req.IsActive && strings.EqualFold(a.Email, s.currentEmailLocked(c)) {
		return fail(c, http.StatusBadRequest, "You cannot deactivate your own account")
	}
	a.IsActive = req.IsActive
	return ok(c, http.StatusOK, a.User, "User status updated")
}

func (s *Server) listRoles(c echo.Context) error {
	search := query(c, "search")
	st := s.store
	st.mu.Lock()
	items := values(st.roles, func(r *model.Role) bool { return matchesAny(search, r.Name, r.Description) })
	st.mu.Unlock()

	sortByName(items, func(r model.Role) string { return r.Name })
	return ok(c, http.StatusOK, paginate(c, items), "")
}

func (s *Server) createRole(c echo.Context) error {
	req, err := bind[model.CreateRoleRequest](c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Malformed request body")
	}
	if err := req.Validate(); err != nil {
		return invalid(c, err)
	}

	st := s.store
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, r := range st.roles {
		if strings.EqualFold(r.Name, req.Name) {
			return fieldError(c, "name", "A role with this name already exists")
		}
	}
	perms, missing := st.permissionsLocked(req.PermissionIDs)
	if missing != "" {
		return fieldError(c, "permissionIds", "Unknown permission "+missing)
	}
	r := &model.Role{ID: uuid.NewString(), Name: req.Name, Description: req.Description, Permissions: perms}
	st.roles[r.ID] = r
	return ok(c, http.StatusCreated, r, "Role created")
}

func (s *Server) updateRolePermissions(c echo.Context) error {
	req, err := bind[model.UpdateRolePermissionsRequest](c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Malformed request body")
	}
	if err := req.Validate(); err != nil {
		return invalid(c, err)
	}

	st := s.store
	st.mu.Lock()
	defer st.mu.Unlock()
	r, found := st.roles[c.Param("id")]
	if !found {
		return fail(c, http.StatusNotFound, "Role not found")
	}
	perms, missing := st.permissionsLocked(req.PermissionIDs)
	if missing != "" {
		return fieldError(c, "permissionIds", "Unknown permission "+missing)
	}
	r.Permissions = perms
	for _, a := range st.users {
		if a.RoleID == r.ID {
			a.Permissions = permissionNames(perms)
		}
	}
	return ok(c, http.StatusOK, r, "Permissions updated")
}

func (s *Server) listPermissions(c echo.Context) error {
	st := s.store
	st.mu.Lock()
	defer st.mu.Unlock()
	return ok(c, http.StatusOK, append([]model.Permission{}, st.permissions...), "")
}

func (s *Store) permissionsLocked(ids []string) ([]model.Permission, string) {
	out := make([]model.Permission, 0, len(ids))
	for _, id := range ids {
		found := false
		for _, p := range s.permissions {
			if p.ID == id {
				out = append(out, p)
				found = true
				break
			}
		}
		if !found {
			return nil, id
		}
	}
	return out, ""
}
