package dashboard

import (
	"context"
	"fmt"
	"log/slog"
)

type Repository interface {
	FileStats(ctx context.Context, recent int) (*Stats, error)
	CountUsers(ctx context.Context) (int64, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Stats summarises the file repository for the landing page.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	stats, err := s.repo.FileStats(ctx, RecentLimit)
	if err != nil {
		s.logger.Error("failed to load file stats", "error", err)
		return nil, fmt.Errorf("failed to load file stats: %w", err)
	}

	users, err := s.repo.CountUsers(ctx)
	if err != nil {
		s.logger.Error("failed to count users", "error", err)
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	stats.TotalUsers = users

	if stats.ByDepartment == nil {
		stats.ByDepartment = []DepartmentCount{}
	}
	if stats.BySource == nil {
		stats.BySource = []SourceCount{}
	}
	if stats.RecentFiles == nil {
		stats.RecentFiles = []RecentFile{}
	}
	return stats, nil
}
