package ingest

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"path/filepath"
	"time"

	filemodel "github.com/frahmantamala/filehub/internal/core/datamodel/file"
	"github.com/frahmantamala/filehub/internal/core/events"
	"github.com/frahmantamala/filehub/internal/file"
	"github.com/frahmantamala/filehub/internal/metrics"
	"github.com/frahmantamala/filehub/internal/storage"
)

const (
	ReasonConflict    = "conflict"
	ReasonInvalidName = "invalid_name"
	ReasonDownload    = "download"
	ReasonStore       = "store"
	ReasonInsert      = "insert"
)

// Recorder is the part of the file repository ingestion writes through.
type Recorder interface {
	NameExists(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, f *filemodel.File) error
}

type Store interface {
	Save(name string, r io.Reader, maxBytes int64) (string, int64, error)
	Remove(name string) error
}

type UnitRunner interface {
	RunInUnit(ctx context.Context, fn func(ctx context.Context) error) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Skipped struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

type Result struct {
	MessageID string    `json:"message_id"`
	Stored    []string  `json:"stored"`
	Skipped   []Skipped `json:"skipped"`
	Links     []string  `json:"links"`
}

type AdapterConfig struct {
	DefaultDepartment string
	MaxFileSize       int64
}

// Adapter downloads message attachments into the store and records them.
type Adapter struct {
	units      UnitRunner
	recorder   Recorder
	store      Store
	downloader Downloader
	events     EventPublisher
	cfg        AdapterConfig
	logger     *slog.Logger
}

func NewAdapter(units UnitRunner, recorder Recorder, store Store, downloader Downloader, publisher EventPublisher, cfg AdapterConfig, logger *slog.Logger) *Adapter {
	return &Adapter{
		units:      units,
		recorder:   recorder,
		store:      store,
		downloader: downloader,
		events:     publisher,
		cfg:        cfg,
		logger:     logger,
	}
}

// Ingest stores every attachment of msg it can. Per-attachment failures are
// logged and reported in the result; only a failure to run the unit of work
// or a cancelled context is returned as an error.
func (a *Adapter) Ingest(ctx context.Context, msg Message) (*Result, error) {
	result := &Result{
		MessageID: msg.ID,
		Stored:    []string{},
		Skipped:   []Skipped{},
		Links:     msg.AllLinks(),
	}
	if result.Links == nil {
		result.Links = []string{}
	}

	log := a.logger.With("message_id", msg.ID, "channel", msg.ChannelName, "uploader", msg.AuthorName)
	if len(result.Links) > 0 {
		log.Info("links collected", "count", len(result.Links), "links", result.Links)
	}

	err := a.units.RunInUnit(ctx, func(ctx context.Context) error {
		for _, att := range msg.Attachments {
			if err := ctx.Err(); err != nil {
				return err
			}
			name, reason := a.ingestAttachment(ctx, log, msg, att)
			if reason != "" {
				metrics.IngestFailuresTotal.WithLabelValues(reason).Inc()
				result.Skipped = append(result.Skipped, Skipped{Filename: att.Filename, Reason: reason})
				continue
			}
			result.Stored = append(result.Stored, name)
		}
		return nil
	})

	log.Info("message ingested",
		"attachments", len(msg.Attachments),
		"stored", len(result.Stored),
		"skipped", len(result.Skipped))
	return result, err
}

func (a *Adapter) ingestAttachment(ctx context.Context, log *slog.Logger, msg Message, att Attachment) (string, string) {
	name, err := storage.SanitizeFilename(att.Filename)
	if err != nil {
		log.Warn("attachment skipped: invalid file name", "filename", att.Filename)
		return "", ReasonInvalidName
	}
	log = log.With("file_name", name)

	exists, err := a.recorder.NameExists(ctx, name)
	if err != nil {
		log.Error("attachment skipped: name check failed", "error", err)
		return "", ReasonInsert
	}
	if exists {
		log.Warn("attachment skipped: file name already recorded")
		return "", ReasonConflict
	}

	body, err := a.downloader.Download(ctx, att.URL)
	if err != nil {
		log.Error("attachment skipped: download failed", "url", att.URL, "error", err)
		return "", ReasonDownload
	}
	path, size, err := a.store.Save(name, body, a.cfg.MaxFileSize)
	_ = body.Close()
	if err != nil {
		log.Error("attachment skipped: could not store download", "error", err)
		return "", ReasonStore
	}

	fileType := att.ContentType
	if fileType == "" {
		fileType = mime.TypeByExtension(filepath.Ext(name))
	}
	createdAt := msg.Timestamp.UTC()
	if msg.Timestamp.IsZero() {
		createdAt = time.Now().UTC()
	}

	record := &filemodel.File{
		FileName:    name,
		FileType:    fileType,
		FilePath:    path,
		FileSize:    size,
		Department:  a.cfg.DefaultDepartment,
		UploadedBy:  msg.AuthorName,
		UploaderID:  msg.AuthorID,
		Source:      filemodel.SourceDiscord,
		MessageID:   msg.ID,
		ChannelID:   msg.ChannelID,
		ChannelName: msg.ChannelName,
		CreatedAt:   createdAt,
	}
	if err := a.recorder.Create(ctx, record); err != nil {
		if errors.Is(err, file.ErrDuplicateName) {
			// keep the artifact for the winning record; its bytes may come
			// from either message since both saves target the same path
			log.Warn("attachment skipped: file name recorded concurrently")
			return "", ReasonConflict
		}
		if rmErr := a.store.Remove(name); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			log.Error("failed to remove artifact after insert failure", "error", rmErr)
		}
		log.Error("attachment skipped: insert failed", "error", err)
		return "", ReasonInsert
	}

	metrics.FilesIngestedTotal.WithLabelValues(filemodel.SourceDiscord).Inc()
	if a.events != nil {
		if err := a.events.Publish(ctx, events.NewFileEvent(events.EventTypeFileIngested, record, msg.AuthorName)); err != nil {
			log.Warn("failed to publish ingest event", "error", err)
		}
	}
	log.Info("attachment stored", "file_id", record.ID, "size", size, "path", path)
	return name, ""
}
