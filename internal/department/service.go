package department

import (
	"context"
	"log/slog"

	departmentDatamodel "github.com/frahmantamala/filehub/internal/core/datamodel/department"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*departmentDatamodel.Department, error)
	GetByName(ctx context.Context, name string) (*departmentDatamodel.Department, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) GetActiveDepartments(ctx context.Context) ([]DepartmentResponse, error) {
	dataDepartments, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to get departments from repository", "error", err)
		return nil, err
	}

	responses := make([]DepartmentResponse, 0, len(dataDepartments))
	for _, dataDepartment := range dataDepartments {
		d := FromDataModel(dataDepartment)
		if d.IsActiveDepartment() {
			responses = append(responses, d.ToResponse())
		}
	}

	s.logger.Debug("retrieved departments", "count", len(responses))
	return responses, nil
}

// IsValidDepartment reports whether name is an active department. Lookup
// failures count as invalid.
func (s *Service) IsValidDepartment(ctx context.Context, name string) bool {
	if name == "" {
		return false
	}
	d, err := s.repo.GetByName(ctx, name)
	if err != nil {
		s.logger.Warn("error checking department validity", "name", name, "error", err)
		return false
	}
	return d != nil && d.IsActive
}
