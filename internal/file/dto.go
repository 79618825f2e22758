package file

import (
	"io"
	"strings"
	"time"

	"github.com/frahmantamala/filehub/internal"
	"github.com/frahmantamala/filehub/internal/core/common/validation"
)

// ListFilter selects files by department equality and file name substring.
// Both are optional; together they are a conjunction.
type ListFilter struct {
	Department string
	Search     string
}

func (f ListFilter) Normalize() ListFilter {
	f.Department = strings.TrimSpace(f.Department)
	if strings.EqualFold(f.Department, AllDepartments) {
		f.Department = ""
	}
	f.Search = strings.TrimSpace(f.Search)
	return f
}

type UploadDTO struct {
	FileName    string
	ContentType string
	Department  string
	Project     string
	Content     io.Reader
}

func (d UploadDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("file_name", d.FileName).Required().MaxLength(255).NotNumeric(internal.ErrCodeInvalidFileName)
	v.Field("department", d.Department).Required()
	v.Field("project", d.Project).MaxLength(255).NotNumeric(internal.ErrCodeInvalidProject)
	return v.Validate()
}

type UpdateFileDTO struct {
	FileName   string `json:"file_name" form:"file_name"`
	Project    string `json:"project" form:"project"`
	Department string `json:"department" form:"department"`
}

func (d *UpdateFileDTO) Normalize() {
	d.FileName = strings.TrimSpace(d.FileName)
	d.Project = strings.TrimSpace(d.Project)
	d.Department = strings.TrimSpace(d.Department)
}

func (d UpdateFileDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("file_name", d.FileName).Required().MaxLength(255).NotNumeric(internal.ErrCodeInvalidFileName)
	v.Field("project", d.Project).Required().MaxLength(255).NotNumeric(internal.ErrCodeInvalidProject)
	v.Field("department", d.Department).Required()
	return v.Validate()
}

type FileResponse struct {
	ID          int64     `json:"id"`
	FileName    string    `json:"file_name"`
	FileType    string    `json:"file_type"`
	FileSize    int64     `json:"file_size"`
	Department  string    `json:"department"`
	Project     string    `json:"project"`
	UploadedBy  string    `json:"uploaded_by"`
	Source      string    `json:"source"`
	ChannelName string    `json:"channel_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	DownloadURL string    `json:"download_url"`
}

type FilesResponse struct {
	Files      []FileResponse `json:"files"`
	Department string         `json:"department"`
	Search     string         `json:"search"`
}
