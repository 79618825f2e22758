package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/filehub/internal"
	userDatamodel "github.com/frahmantamala/filehub/internal/core/datamodel/user"
	"github.com/frahmantamala/filehub/internal/department"
	"golang.org/x/crypto/bcrypt"
)

var ErrDuplicateUsername = errors.New("duplicate username")

type Repository interface {
	Create(ctx context.Context, u *userDatamodel.User) error
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	GetByUsername(ctx context.Context, username string) (*userDatamodel.User, error)
	List(ctx context.Context) ([]*userDatamodel.User, error)
	Update(ctx context.Context, u *userDatamodel.User) error
	Delete(ctx context.Context, id int64) (bool, error)
	Count(ctx context.Context) (int64, error)
}

type DepartmentChecker interface {
	GetActiveDepartments(ctx context.Context) ([]department.DepartmentResponse, error)
	IsValidDepartment(ctx context.Context, name string) bool
}

type Service struct {
	repo        Repository
	departments DepartmentChecker
	bcryptCost  int
	logger      *slog.Logger
}

func NewService(repo Repository, departments DepartmentChecker, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:        repo,
		departments: departments,
		bcryptCost:  bcryptCost,
		logger:      logger,
	}
}

func invalidDepartment(name string) *internal.AppError {
	return internal.NewValidationFieldError("department", fmt.Sprintf("unknown department %q", name), internal.ErrCodeInvalidDept)
}

func (s *Service) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", internal.NewInternalError("failed to hash password", err)
	}
	return string(hash), nil
}

// Register creates an account. Only admins reach it through the router.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*User, error) {
	dto.Normalize()
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}
	if dto.Department != "" && !s.departments.IsValidDepartment(ctx, dto.Department) {
		return nil, invalidDepartment(dto.Department)
	}

	existing, err := s.repo.GetByUsername(ctx, dto.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to look up username: %w", err)
	}
	if existing != nil {
		return nil, internal.ErrUsernameTaken
	}

	hash, err := s.hashPassword(dto.Password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Username:     dto.Username,
		PasswordHash: hash,
		Role:         dto.Role,
		Department:   dto.Department,
		Email:        dto.Email,
		Phone:        dto.Phone,
	}
	data := ToDataModel(u)
	if err := s.repo.Create(ctx, data); err != nil {
		if errors.Is(err, ErrDuplicateUsername) {
			return nil, internal.ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered", "user_id", data.ID, "username", data.Username, "role", data.Role)
	return FromDataModel(data), nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	if u == nil {
		return nil, internal.ErrUserNotFound
	}
	return FromDataModel(u), nil
}

func (s *Service) List(ctx context.Context) ([]*User, error) {
	data, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	users := make([]*User, 0, len(data))
	for _, u := range data {
		users = append(users, FromDataModel(u))
	}
	return users, nil
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

// Update is the admin edit of another account.
func (s *Service) Update(ctx context.Context, id int64, dto UpdateUserDTO) (*User, error) {
	dto.Normalize()
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	data, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	if data == nil {
		return nil, internal.ErrUserNotFound
	}

	if dto.Department != "" && dto.Department != data.Department && !s.departments.IsValidDepartment(ctx, dto.Department) {
		return nil, invalidDepartment(dto.Department)
	}

	if dto.Username != data.Username {
		other, err := s.repo.GetByUsername(ctx, dto.Username)
		if err != nil {
			return nil, fmt.Errorf("failed to look up username: %w", err)
		}
		if other != nil && other.ID != id {
			return nil, internal.ErrUsernameTaken
		}
	}

	data.Username = dto.Username
	data.Role = dto.Role
	data.Department = dto.Department
	data.Email = dto.Email
	data.Phone = dto.Phone

	if err := s.repo.Update(ctx, data); err != nil {
		if errors.Is(err, ErrDuplicateUsername) {
			return nil, internal.ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.Info("user updated", "user_id", id, "username", data.Username, "role", data.Role)
	return FromDataModel(data), nil
}

// Delete removes an account. actorID is the admin performing the deletion.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	if actorID == id {
		return internal.ErrCannotDeleteSelf
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if !deleted {
		return internal.ErrUserNotFound
	}

	s.logger.Info("user deleted", "user_id", id, "deleted_by", actorID)
	return nil
}

func (s *Service) UpdateProfile(ctx context.Context, id int64, dto UpdateProfileDTO) (*User, error) {
	dto.Normalize()
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	data, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	if data == nil {
		return nil, internal.ErrUserNotFound
	}

	data.Email = dto.Email
	data.Phone = dto.Phone
	if dto.Password != "" {
		hash, err := s.hashPassword(dto.Password)
		if err != nil {
			return nil, err
		}
		data.PasswordHash = hash
	}

	if err := s.repo.Update(ctx, data); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.logger.Info("profile updated", "user_id", id, "password_changed", dto.Password != "")
	return FromDataModel(data), nil
}

// FormOptions lists the choices offered by the register and edit forms.
func (s *Service) FormOptions(ctx context.Context) (FormResponse, error) {
	departments, err := s.departments.GetActiveDepartments(ctx)
	if err != nil {
		return FormResponse{}, err
	}
	names := make([]string, 0, len(departments))
	for _, d := range departments {
		names = append(names, d.Name)
	}
	return FormResponse{Roles: Roles, Departments: names}, nil
}
