package file

import (
	"errors"
	"time"

	filemodel "github.com/frahmantamala/filehub/internal/core/datamodel/file"
)

var ErrDuplicateName = errors.New("duplicate file name")

// AllDepartments is the filter value that disables department filtering.
const AllDepartments = "all"

type File struct {
	ID          int64     `json:"id"`
	FileName    string    `json:"file_name"`
	FileType    string    `json:"file_type"`
	FilePath    string    `json:"file_path"`
	FileSize    int64     `json:"file_size"`
	Department  string    `json:"department"`
	Project     string    `json:"project"`
	UploadedBy  string    `json:"uploaded_by"`
	UploaderID  string    `json:"uploader_id,omitempty"`
	Source      string    `json:"source"`
	MessageID   string    `json:"message_id,omitempty"`
	ChannelID   string    `json:"channel_id,omitempty"`
	ChannelName string    `json:"channel_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (f *File) IsFromChat() bool {
	return f.Source == filemodel.SourceDiscord
}

func (f *File) ToResponse() FileResponse {
	return FileResponse{
		ID:          f.ID,
		FileName:    f.FileName,
		FileType:    f.FileType,
		FileSize:    f.FileSize,
		Department:  f.Department,
		Project:     f.Project,
		UploadedBy:  f.UploadedBy,
		Source:      f.Source,
		ChannelName: f.ChannelName,
		CreatedAt:   f.CreatedAt,
		DownloadURL: "/download/" + f.FileName,
	}
}

func ToDataModel(f *File) *filemodel.File {
	return &filemodel.File{
		ID:          f.ID,
		FileName:    f.FileName,
		FileType:    f.FileType,
		FilePath:    f.FilePath,
		FileSize:    f.FileSize,
		Department:  f.Department,
		Project:     f.Project,
		UploadedBy:  f.UploadedBy,
		UploaderID:  f.UploaderID,
		Source:      f.Source,
		MessageID:   f.MessageID,
		ChannelID:   f.ChannelID,
		ChannelName: f.ChannelName,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

func FromDataModel(f *filemodel.File) *File {
	return &File{
		ID:          f.ID,
		FileName:    f.FileName,
		FileType:    f.FileType,
		FilePath:    f.FilePath,
		FileSize:    f.FileSize,
		Department:  f.Department,
		Project:     f.Project,
		UploadedBy:  f.UploadedBy,
		UploaderID:  f.UploaderID,
		Source:      f.Source,
		MessageID:   f.MessageID,
		ChannelID:   f.ChannelID,
		ChannelName: f.ChannelName,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}
