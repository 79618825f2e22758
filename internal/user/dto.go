package user

import (
	"strings"
	"time"

	"github.com/frahmantamala/filehub/internal"
	"github.com/frahmantamala/filehub/internal/core/common/validation"
)

type RegisterDTO struct {
	Username   string `json:"username" form:"username"`
	Password   string `json:"password" form:"password"`
	Role       string `json:"role" form:"role"`
	Department string `json:"department" form:"department"`
	Email      string `json:"email" form:"email"`
	Phone      string `json:"phone" form:"phone"`
}

func (d *RegisterDTO) Normalize() {
	d.Username = strings.TrimSpace(d.Username)
	d.Role = strings.ToLower(strings.TrimSpace(d.Role))
	d.Department = strings.TrimSpace(d.Department)
	d.Email = strings.TrimSpace(d.Email)
	d.Phone = strings.TrimSpace(d.Phone)
	if d.Role == "" {
		d.Role = internal.RoleUser
	}
}

func (d RegisterDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("username", d.Username).Required().MaxLength(64)
	v.Field("password", d.Password).Required().MaxLength(72)
	v.Field("role", d.Role).Required().OneOf(internal.ErrCodeInvalidRole, Roles...)
	v.Field("department", d.Department).MaxLength(100)
	v.Field("email", d.Email).Email()
	v.Field("phone", d.Phone).Phone()
	return v.Validate()
}

type UpdateUserDTO struct {
	Username   string `json:"username" form:"username"`
	Role       string `json:"role" form:"role"`
	Department string `json:"department" form:"department"`
	Email      string `json:"email" form:"email"`
	Phone      string `json:"phone" form:"phone"`
}

func (d *UpdateUserDTO) Normalize() {
	d.Username = strings.TrimSpace(d.Username)
	d.Role = strings.ToLower(strings.TrimSpace(d.Role))
	d.Department = strings.TrimSpace(d.Department)
	d.Email = strings.TrimSpace(d.Email)
	d.Phone = strings.TrimSpace(d.Phone)
}

func (d UpdateUserDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("username", d.Username).Required().MaxLength(64)
	v.Field("role", d.Role).Required().OneOf(internal.ErrCodeInvalidRole, Roles...)
	v.Field("department", d.Department).MaxLength(100)
	v.Field("email", d.Email).Email()
	v.Field("phone", d.Phone).Phone()
	return v.Validate()
}

// UpdateProfileDTO changes the caller's own contact details. An empty
// password keeps the current one.
type UpdateProfileDTO struct {
	Email    string `json:"email" form:"email"`
	Phone    string `json:"phone" form:"phone"`
	Password string `json:"password" form:"password"`
}

func (d *UpdateProfileDTO) Normalize() {
	d.Email = strings.TrimSpace(d.Email)
	d.Phone = strings.TrimSpace(d.Phone)
}

func (d UpdateProfileDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("email", d.Email).Email()
	v.Field("phone", d.Phone).Phone()
	v.Field("password", d.Password).MaxLength(72)
	return v.Validate()
}

type UserResponse struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Role       string    `json:"role"`
	Department string    `json:"department"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	CreatedAt  time.Time `json:"created_at"`
}

type UsersResponse struct {
	Users []UserResponse `json:"users"`
}

// FormResponse is the model behind the register and edit forms.
type FormResponse struct {
	Roles       []string      `json:"roles"`
	Departments []string      `json:"departments"`
	User        *UserResponse `json:"user,omitempty"`
}
