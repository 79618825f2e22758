package events

import (
	"time"

	filemodel "github.com/frahmantamala/filehub/internal/core/datamodel/file"
	"github.com/google/uuid"
)

const (
	EventTypeFileIngested = "file.ingested"
	EventTypeFileUploaded = "file.uploaded"
	EventTypeFileRenamed  = "file.renamed"
	EventTypeFileDeleted  = "file.deleted"
)

var FileEventTypes = []string{
	EventTypeFileIngested,
	EventTypeFileUploaded,
	EventTypeFileRenamed,
	EventTypeFileDeleted,
}

type FileEvent struct {
	BaseEvent
	File         filemodel.File `json:"file"`
	PreviousName string         `json:"previous_name,omitempty"`
	Actor        string         `json:"actor,omitempty"`
}

func NewFileEvent(eventType string, f *filemodel.File, actor string) *FileEvent {
	return &FileEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"file_id":    f.ID,
				"file_name":  f.FileName,
				"file_path":  f.FilePath,
				"source":     f.Source,
				"department": f.Department,
			},
		},
		File:  *f,
		Actor: actor,
	}
}

func NewFileRenamedEvent(f *filemodel.File, previousName, actor string) *FileEvent {
	e := NewFileEvent(EventTypeFileRenamed, f, actor)
	e.PreviousName = previousName
	e.Data["previous_name"] = previousName
	return e
}
