package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"path/filepath"
	"strconv"
	"time"

	"github.com/frahmantamala/filehub/internal"
	filemodel "github.com/frahmantamala/filehub/internal/core/datamodel/file"
	"github.com/frahmantamala/filehub/internal/core/events"
	"github.com/frahmantamala/filehub/internal/metrics"
	"github.com/frahmantamala/filehub/internal/storage"
	"github.com/spf13/afero"
)

// Repository interface defines the data access methods for file records
type Repository interface {
	Create(ctx context.Context, f *filemodel.File) error
	GetByID(ctx context.Context, id int64) (*filemodel.File, error)
	GetByName(ctx context.Context, name string) (*filemodel.File, error)
	NameExists(ctx context.Context, name string) (bool, error)
	List(ctx context.Context, filter ListFilter) ([]*filemodel.File, error)
	Update(ctx context.Context, f *filemodel.File) error
	Delete(ctx context.Context, id int64) (bool, error)
	// Transaction runs fn against a repository bound to one transaction.
	Transaction(ctx context.Context, fn func(tx Repository) error) error
}

// Store holds the artifacts behind file records.
type Store interface {
	Path(name string) string
	Save(name string, r io.Reader, maxBytes int64) (string, int64, error)
	Open(name string) (afero.File, error)
	Exists(name string) (bool, error)
	Rename(oldName, newName string) error
	Remove(name string) error
}

type DepartmentChecker interface {
	IsValidDepartment(ctx context.Context, name string) bool
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Service handles file repository business logic
type Service struct {
	repo        Repository
	store       Store
	departments DepartmentChecker
	events      EventPublisher
	maxFileSize int64
	logger      *slog.Logger
}

func NewService(repo Repository, store Store, departments DepartmentChecker, publisher EventPublisher, maxFileSize int64, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		store:       store,
		departments: departments,
		events:      publisher,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

func invalidDepartment(name string) *internal.AppError {
	return internal.NewValidationFieldError("department", fmt.Sprintf("unknown department %q", name), internal.ErrCodeInvalidDept)
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, e); err != nil {
		s.logger.Warn("failed to publish file event", "event_type", e.EventType(), "error", err)
	}
}

// nameTaken reports a collision in either the records or the storage dir.
func (s *Service) nameTaken(ctx context.Context, name string) (bool, error) {
	exists, err := s.repo.NameExists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("failed to check file name: %w", err)
	}
	if exists {
		return true, nil
	}
	onDisk, err := s.store.Exists(name)
	if err != nil {
		return false, fmt.Errorf("failed to check storage: %w", err)
	}
	return onDisk, nil
}

// List returns files matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*File, error) {
	data, err := s.repo.List(ctx, filter.Normalize())
	if err != nil {
		s.logger.Error("failed to list files", "error", err)
		return nil, err
	}

	files := make([]*File, 0, len(data))
	for _, f := range data {
		files = append(files, FromDataModel(f))
	}
	return files, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*File, error) {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	if f == nil {
		return nil, internal.ErrFileNotFound
	}
	return FromDataModel(f), nil
}

// Upload stores a manually uploaded file and records it.
func (s *Service) Upload(ctx context.Context, actor *internal.Principal, dto UploadDTO) (*File, error) {
	name, err := storage.SanitizeFilename(dto.FileName)
	if err != nil {
		return nil, internal.NewValidationFieldError("file_name", "file name is invalid", internal.ErrCodeInvalidFileName)
	}
	dto.FileName = name
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}
	if !s.departments.IsValidDepartment(ctx, dto.Department) {
		return nil, invalidDepartment(dto.Department)
	}

	taken, err := s.nameTaken(ctx, name)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, internal.ErrFileNameTaken
	}

	path, size, err := s.store.Save(name, dto.Content, s.maxFileSize)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, internal.NewValidationFieldError("file", fmt.Sprintf("file exceeds the %d byte limit", s.maxFileSize), internal.ErrCodeValidationFailed)
		}
		return nil, internal.NewInternalError("failed to store file", err)
	}

	contentType := dto.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(name))
	}

	record := &filemodel.File{
		FileName:   name,
		FileType:   contentType,
		FilePath:   path,
		FileSize:   size,
		Department: dto.Department,
		Project:    dto.Project,
		UploadedBy: actor.Username,
		UploaderID: strconv.FormatInt(actor.ID, 10),
		Source:     filemodel.SourceManual,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, record); err != nil {
		if rmErr := s.store.Remove(name); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			s.logger.Error("failed to remove artifact after insert failure", "file_name", name, "error", rmErr)
		}
		if errors.Is(err, ErrDuplicateName) {
			return nil, internal.ErrFileNameTaken
		}
		return nil, fmt.Errorf("failed to record file: %w", err)
	}

	metrics.FilesIngestedTotal.WithLabelValues(filemodel.SourceManual).Inc()
	s.publish(ctx, events.NewFileEvent(events.EventTypeFileUploaded, record, actor.Username))
	s.logger.Info("file uploaded", "file_id", record.ID, "file_name", name, "size", size, "user_id", actor.ID)
	return FromDataModel(record), nil
}

// Open looks up a file by name and opens its artifact. The caller closes it.
func (s *Service) Open(ctx context.Context, name string) (*File, afero.File, error) {
	f, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get file: %w", err)
	}
	if f == nil {
		return nil, nil, internal.ErrFileNotFound
	}

	artifact, err := s.store.Open(f.FileName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("file record without artifact", "file_id", f.ID, "file_name", f.FileName)
			return nil, nil, internal.ErrArtifactNotFound
		}
		return nil, nil, internal.NewInternalError("failed to open file", err)
	}
	return FromDataModel(f), artifact, nil
}

// Update edits name, project and department. The row update and the
// artifact rename happen in one transaction: a failed rename rolls the row
// back, and a failed commit moves the artifact back.
func (s *Service) Update(ctx context.Context, actor *internal.Principal, id int64, dto UpdateFileDTO) (*File, error) {
	dto.Normalize()
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}
	newName, err := storage.SanitizeFilename(dto.FileName)
	if err != nil || newName != dto.FileName {
		return nil, internal.NewValidationFieldError("file_name", "file name contains invalid characters", internal.ErrCodeInvalidFileName)
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	if current == nil {
		return nil, internal.ErrFileNotFound
	}

	if dto.Department != current.Department && !s.departments.IsValidDepartment(ctx, dto.Department) {
		return nil, invalidDepartment(dto.Department)
	}

	oldName := current.FileName
	renaming := newName != oldName
	if renaming {
		taken, err := s.nameTaken(ctx, newName)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, internal.ErrFileNameTaken
		}
	}

	updated := *current
	updated.FileName = newName
	updated.Project = dto.Project
	updated.Department = dto.Department
	if renaming {
		updated.FilePath = s.store.Path(newName)
	}

	renamed := false
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.Update(ctx, &updated); err != nil {
			return err
		}
		if renaming {
			if err := s.store.Rename(oldName, newName); err != nil {
				return &renameError{err: err}
			}
			renamed = true
		}
		return nil
	})
	if err != nil {
		if renamed {
			// fn succeeded, so the commit failed
			if rbErr := s.store.Rename(newName, oldName); rbErr != nil {
				s.logger.Error("failed to restore artifact name after commit failure",
					"file_id", id, "from", newName, "to", oldName, "error", rbErr)
			}
		}
		var re *renameError
		switch {
		case errors.As(err, &re) && errors.Is(re.err, fs.ErrNotExist):
			return nil, internal.ErrArtifactNotFound
		case errors.As(err, &re):
			appErr := internal.NewInternalError("failed to rename file", re.err)
			appErr.Code = internal.ErrCodeRenameFailed
			return nil, appErr
		case errors.Is(err, ErrDuplicateName):
			return nil, internal.ErrFileNameTaken
		}
		return nil, fmt.Errorf("failed to update file: %w", err)
	}

	if renaming {
		s.publish(ctx, events.NewFileRenamedEvent(&updated, oldName, actor.Username))
	}
	s.logger.Info("file updated", "file_id", id, "file_name", newName, "renamed", renaming, "user_id", actor.ID)
	return FromDataModel(&updated), nil
}

type renameError struct {
	err error
}

func (e *renameError) Error() string {
	return "rename artifact: " + e.err.Error()
}

func (e *renameError) Unwrap() error {
	return e.err
}

// Delete removes the record, then the artifact. A missing artifact is not an
// error.
func (s *Service) Delete(ctx context.Context, actor *internal.Principal, id int64) error {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get file: %w", err)
	}
	if current == nil {
		return internal.ErrFileNotFound
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	if !deleted {
		return internal.ErrFileNotFound
	}

	if err := s.store.Remove(current.FileName); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("artifact already missing", "file_id", id, "file_name", current.FileName)
		} else {
			s.logger.Error("failed to remove artifact", "file_id", id, "file_name", current.FileName, "error", err)
		}
	}

	s.publish(ctx, events.NewFileEvent(events.EventTypeFileDeleted, current, actor.Username))
	s.logger.Info("file deleted", "file_id", id, "file_name", current.FileName, "user_id", actor.ID)
	return nil
}
