package ingest

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/frahmantamala/filehub/internal/core/events"
)

// AuditFile is the per-record report written next to the activity log.
const AuditFile = "file_operations.txt"

const auditTimeLayout = "2006-01-02 15:04:05"

// AuditLog appends a multi-line report for every file event.
type AuditLog struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

func NewAuditLog(w io.Writer) *AuditLog {
	return &AuditLog{w: w, now: time.Now}
}

func (a *AuditLog) Subscribe(bus *events.EventBus) {
	for _, eventType := range events.FileEventTypes {
		bus.Subscribe(eventType, a.Handle)
	}
}

func (a *AuditLog) Handle(ctx context.Context, event events.Event) error {
	fe, ok := event.(*events.FileEvent)
	if !ok {
		return fmt.Errorf("unexpected event %T for %s", event, event.EventType())
	}
	f := fe.File

	group := f.ChannelName
	if group == "" {
		group = "-"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s | \n%s\n\n", a.now().Format(auditTimeLayout), strings.Repeat("__", 45))
	fmt.Fprintf(&b, "FILE OPERATION LOG: %s\n", fe.EventType())
	fmt.Fprintf(&b, "%s\n", strings.Repeat("-", 45))
	fmt.Fprintf(&b, "FILE NAME:    %s\n", f.FileName)
	if fe.PreviousName != "" {
		fmt.Fprintf(&b, "PREVIOUS:     %s\n", fe.PreviousName)
	}
	fmt.Fprintf(&b, "FILE TYPE:    %s\n", f.FileType)
	fmt.Fprintf(&b, "FILE PATH:    %s\n", f.FilePath)
	fmt.Fprintf(&b, "USER:         %s (ID: %s)\n", fe.Actor, f.UploaderID)
	fmt.Fprintf(&b, "GROUP/DM:     %s\n", group)
	fmt.Fprintf(&b, "MESSAGE ID:   %s\n", f.MessageID)
	fmt.Fprintf(&b, "CHANNEL ID:   %s\n", f.ChannelID)
	fmt.Fprintf(&b, "\n%s\n", strings.Repeat("- ", 45))

	a.mu.Lock()
	defer a.mu.Unlock()
	_, err := io.WriteString(a.w, b.String())
	return err
}
