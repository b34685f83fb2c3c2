package model

import (
	"time"

	"github.com/treegar/admin-console/internal/validation"
)

// User is a back-office operator; the logged-in profile has the same shape.
type User struct {
	ID               string     `json:"id"`
	FirstName        string     `json:"firstName"`
	LastName         string     `json:"lastName"`
	Email            string     `json:"email"`
	RoleID           string     `json:"roleId,omitempty"`
	Role             string     `json:"role,omitempty"`
	Permissions      []string   `json:"permissions,omitempty"`
	IsActive         bool       `json:"isActive"`
	TwoFactorEnabled bool       `json:"twoFactorEnabled"`
	CreatedAt        time.Time  `json:"createdAt"`
	LastLoginAt      *time.Time `json:"lastLoginAt,omitempty"`
}

func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

type CreateUserRequest struct {
	FirstName string `json:"firstName" validate:"required,min=2"`
	LastName  string `json:"lastName" validate:"required,min=2"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,password"`
	RoleID    string `json:"roleId" validate:"required"`
}

func (r CreateUserRequest) Validate() error { return validation.Struct(r) }

type UpdateUserRequest struct {
	FirstName string `json:"firstName" validate:"required,min=2"`
	LastName  string `json:"lastName" validate:"required,min=2"`
	RoleID    string `json:"roleId" validate:"required"`
}

func (r UpdateUserRequest) Validate() error { return validation.Struct(r) }

type SetUserStatusRequest struct {
	IsActive bool `json:"isActive"`
}

type Role struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Permissions []Permission `json:"permissions,omitempty"`
}

type Permission struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Module      string `json:"module,omitempty"`
	Description string `json:"description,omitempty"`
}

type CreateRoleRequest struct {
	Name          string   `json:"name" validate:"required,min=3"`
	Description   string   `json:"description,omitempty"`
	PermissionIDs []string `json:"permissionIds" validate:"required,min=1"`
}

func (r CreateRoleRequest) Validate() error { return validation.Struct(r) }

type UpdateRolePermissionsRequest struct {
	PermissionIDs []string `json:"permissionIds" validate:"required,min=1"`
}

func (r UpdateRolePermissionsRequest) Validate() error { return validation.Struct(r) }
