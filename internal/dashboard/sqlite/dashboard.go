package sqlite

import (
	"context"
	"fmt"

	"github.com/frahmantamala/filehub/internal/dashboard"
	"github.com/frahmantamala/filehub/internal/database"
	"github.com/jmoiron/sqlx"
)

const (
	countFilesQuery   = `SELECT COUNT(*) FROM files`
	byDepartmentQuery = `SELECT department, COUNT(*) AS count FROM files GROUP BY department ORDER BY count DESC, department ASC`
	bySourceQuery     = `SELECT source, COUNT(*) AS count FROM files GROUP BY source ORDER BY source ASC`
	recentFilesQuery  = `SELECT id, file_name, department, source, uploaded_by, created_at FROM files ORDER BY created_at DESC, id DESC LIMIT ?`
	countUsersQuery   = `SELECT COUNT(*) FROM users`
)

// DashboardRepository runs read-only reporting queries with sqlx over the
// handles owned by the current unit of work.
type DashboardRepository struct {
	conns database.Conns
}

func NewDashboardRepository(conns database.Conns) dashboard.Repository {
	return &DashboardRepository{conns: conns}
}

// sqlxConn wraps the gorm handle; closing is left to release.
func (r *DashboardRepository) sqlxConn(ctx context.Context, name database.Name) (*sqlx.DB, func(), error) {
	db, release, err := r.conns.Conn(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("get %s sql handle: %w", name, err)
	}
	return sqlx.NewDb(sqlDB, "sqlite3"), release, nil
}

func (r *DashboardRepository) FileStats(ctx context.Context, recent int) (*dashboard.Stats, error) {
	db, release, err := r.sqlxConn(ctx, database.Files)
	if err != nil {
		return nil, err
	}
	defer release()

	var stats dashboard.Stats
	if err := db.GetContext(ctx, &stats.TotalFiles, countFilesQuery); err != nil {
		return nil, fmt.Errorf("count files: %w", err)
	}
	if err := db.SelectContext(ctx, &stats.ByDepartment, byDepartmentQuery); err != nil {
		return nil, fmt.Errorf("files by department: %w", err)
	}
	if err := db.SelectContext(ctx, &stats.BySource, bySourceQuery); err != nil {
		return nil, fmt.Errorf("files by source: %w", err)
	}
	if err := db.SelectContext(ctx, &stats.RecentFiles, recentFilesQuery, recent); err != nil {
		return nil, fmt.Errorf("recent files: %w", err)
	}
	return &stats, nil
}

func (r *DashboardRepository) CountUsers(ctx context.Context) (int64, error) {
	db, release, err := r.sqlxConn(ctx, database.Users)
	if err != nil {
		return 0, err
	}
	defer release()

	var count int64
	if err := db.GetContext(ctx, &count, countUsersQuery); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}
