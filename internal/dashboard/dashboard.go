package dashboard

import (
	"time"

	"github.com/frahmantamala/filehub/internal"
)

// RecentLimit is how many of the newest files the dashboard shows.
const RecentLimit = 5

type DepartmentCount struct {
	Department string `db:"department" json:"department"`
	Count      int64  `db:"count" json:"count"`
}

type SourceCount struct {
	Source string `db:"source" json:"source"`
	Count  int64  `db:"count" json:"count"`
}

type RecentFile struct {
	ID         int64     `db:"id" json:"id"`
	FileName   string    `db:"file_name" json:"file_name"`
	Department string    `db:"department" json:"department"`
	Source     string    `db:"source" json:"source"`
	UploadedBy string    `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type Stats struct {
	TotalFiles   int64             `json:"total_files"`
	TotalUsers   int64             `json:"total_users"`
	ByDepartment []DepartmentCount `json:"by_department"`
	BySource     []SourceCount     `json:"by_source"`
	RecentFiles  []RecentFile      `json:"recent_files"`
}

type Response struct {
	User  *internal.Principal `json:"user"`
	Stats *Stats              `json:"stats"`
}
