package ingest_test

import (
	"bytes"
	"context"

	filemodel "github.com/frahmantamala/filehub/internal/core/datamodel/file"
	"github.com/frahmantamala/filehub/internal/core/events"
	"github.com/frahmantamala/filehub/internal/ingest"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("AuditLog", func() {
	record := &filemodel.File{
		ID:          3,
		FileName:    "report.pdf",
		FileType:    "application/pdf",
		FilePath:    "downloads/report.pdf",
		UploaderID:  "222",
		MessageID:   "111",
		ChannelID:   "333",
		ChannelName: "general",
		Source:      filemodel.SourceDiscord,
	}

	It("appends a report for each file event on the bus", func() {
		var buf bytes.Buffer
		bus := events.NewEventBus(quietLogger())
		ingest.NewAuditLog(&buf).Subscribe(bus)

		Expect(bus.Publish(context.Background(), events.NewFileEvent(events.EventTypeFileIngested, record, "bob"))).To(Succeed())
		bus.Wait()

		out := buf.String()
		Expect(out).To(ContainSubstring("FILE OPERATION LOG: file.ingested"))
		Expect(out).To(ContainSubstring("FILE NAME:    report.pdf"))
		Expect(out).To(ContainSubstring("FILE PATH:    downloads/report.pdf"))
		Expect(out).To(ContainSubstring("USER:         bob (ID: 222)"))
		Expect(out).To(ContainSubstring("GROUP/DM:     general"))
		Expect(out).To(ContainSubstring("MESSAGE ID:   111"))
	})

	It("includes the previous name of renamed files", func() {
		var buf bytes.Buffer
		audit := ingest.NewAuditLog(&buf)

		Expect(audit.Handle(context.Background(), events.NewFileRenamedEvent(record, "draft.pdf", "root"))).To(Succeed())
		Expect(buf.String()).To(ContainSubstring("PREVIOUS:     draft.pdf"))
	})

	It("rejects events that do not describe a file", func() {
		audit := ingest.NewAuditLog(&bytes.Buffer{})
		err := audit.Handle(context.Background(), events.BaseEvent{Type: events.EventTypeFileDeleted})
		Expect(err).To(HaveOccurred())
	})
})
