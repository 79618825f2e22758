package ingest_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	filemodel "github.com/frahmantamala/filehub/internal/core/datamodel/file"
	"github.com/frahmantamala/filehub/internal/core/events"
	"github.com/frahmantamala/filehub/internal/database"
	"github.com/frahmantamala/filehub/internal/database/dbtest"
	"github.com/frahmantamala/filehub/internal/file"
	fileSqlite "github.com/frahmantamala/filehub/internal/file/sqlite"
	"github.com/frahmantamala/filehub/internal/ingest"
	"github.com/frahmantamala/filehub/internal/storage"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/afero"
)

// fakeDownloader serves bodies by URL; unknown URLs fail.
type fakeDownloader struct {
	mu     sync.Mutex
	bodies map[string]string
	calls  []string
}

func (d *fakeDownloader) Download(ctx context.Context, url string) (io.ReadCloser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, url)
	body, ok := d.bodies[url]
	if !ok {
		return nil, errors.New("download returned status 404")
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

type failingRecorder struct {
	file.Repository
}

func (failingRecorder) Create(ctx context.Context, f *filemodel.File) error {
	return errors.New("disk I/O error")
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*events.FileEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e.(*events.FileEvent))
	return nil
}

var _ = Describe("Adapter", func() {
	var (
		ctx        context.Context
		registry   *database.Registry
		repo       file.Repository
		fs         afero.Fs
		store      *storage.LocalStore
		downloader *fakeDownloader
		publisher  *recordingPublisher
		adapter    *ingest.Adapter
		sentAt     time.Time
	)

	newAdapter := func(recorder ingest.Recorder) *ingest.Adapter {
		return ingest.NewAdapter(registry, recorder, store, downloader, publisher,
			ingest.AdapterConfig{DefaultDepartment: "General", MaxFileSize: 1024}, quietLogger())
	}

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		registry, err = dbtest.NewRegistry(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())
		repo = fileSqlite.NewFileRepository(registry)

		fs = afero.NewMemMapFs()
		store, err = storage.NewLocalStore(fs, "downloads")
		Expect(err).NotTo(HaveOccurred())

		downloader = &fakeDownloader{bodies: map[string]string{
			"https://cdn.example.com/1/report.pdf": "pdf bytes",
			"https://cdn.example.com/2/photo.png":  "png bytes",
		}}
		publisher = &recordingPublisher{}
		adapter = newAdapter(repo)
		sentAt = time.Date(2024, 7, 1, 12, 30, 0, 0, time.UTC)
	})

	message := func(attachments ...ingest.Attachment) ingest.Message {
		return ingest.Message{
			ID:          "111",
			AuthorID:    "222",
			AuthorName:  "bob",
			ChannelID:   "333",
			ChannelName: "general",
			Content:     "files for the review https://wiki.example.com/page",
			Attachments: attachments,
			Timestamp:   sentAt,
		}
	}

	report := ingest.Attachment{Filename: "report.pdf", URL: "https://cdn.example.com/1/report.pdf", ContentType: "application/pdf"}
	photo := ingest.Attachment{Filename: "photo.png", URL: "https://cdn.example.com/2/photo.png"}

	It("records one file per attachment and reports links", func() {
		result, err := adapter.Ingest(ctx, message(report, photo))
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Stored).To(Equal([]string{"report.pdf", "photo.png"}))
		Expect(result.Skipped).To(BeEmpty())
		Expect(result.Links).To(Equal([]string{"https://wiki.example.com/page"}))

		files, err := repo.List(ctx, file.ListFilter{})
		Expect(err).NotTo(HaveOccurred())
		Expect(files).To(HaveLen(2))

		stored, _ := repo.GetByName(ctx, "report.pdf")
		Expect(stored.Source).To(Equal(filemodel.SourceDiscord))
		Expect(stored.Department).To(Equal("General"))
		Expect(stored.UploadedBy).To(Equal("bob"))
		Expect(stored.UploaderID).To(Equal("222"))
		Expect(stored.MessageID).To(Equal("111"))
		Expect(stored.ChannelName).To(Equal("general"))
		Expect(stored.FilePath).To(Equal(store.Path("report.pdf")))
		Expect(stored.FileType).To(Equal("application/pdf"))
		Expect(stored.FileSize).To(Equal(int64(len("pdf bytes"))))
		Expect(stored.CreatedAt.Equal(sentAt)).To(BeTrue())

		photoRecord, _ := repo.GetByName(ctx, "photo.png")
		Expect(photoRecord.FileType).To(Equal("image/png"))

		data, err := afero.ReadFile(fs, store.Path("photo.png"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("png bytes"))

		Expect(publisher.events).To(HaveLen(2))
		Expect(publisher.events[0].EventType()).To(Equal(events.EventTypeFileIngested))
		Expect(publisher.events[0].Actor).To(Equal("bob"))
	})

	It("keeps going after a failed download", func() {
		broken := ingest.Attachment{Filename: "broken.zip", URL: "https://cdn.example.com/404/broken.zip"}

		result, err := adapter.Ingest(ctx, message(broken, photo))
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Stored).To(Equal([]string{"photo.png"}))
		Expect(result.Skipped).To(Equal([]ingest.Skipped{{Filename: "broken.zip", Reason: ingest.ReasonDownload}}))

		missing, _ := repo.GetByName(ctx, "broken.zip")
		Expect(missing).To(BeNil())
		exists, _ := afero.Exists(fs, store.Path("broken.zip"))
		Expect(exists).To(BeFalse())
	})

	It("skips names that are already recorded without downloading", func() {
		_, err := adapter.Ingest(ctx, message(report))
		Expect(err).NotTo(HaveOccurred())
		downloader.calls = nil

		result, err := adapter.Ingest(ctx, message(report))
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Skipped).To(Equal([]ingest.Skipped{{Filename: "report.pdf", Reason: ingest.ReasonConflict}}))
		Expect(downloader.calls).To(BeEmpty())
	})

	It("sanitizes attachment names", func() {
		downloader.bodies["https://cdn.example.com/3/x"] = "x"
		result, err := adapter.Ingest(ctx, message(ingest.Attachment{Filename: "../../q3 report?.txt", URL: "https://cdn.example.com/3/x"}))
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Stored).To(Equal([]string{"q3 report_.txt"}))
	})

	It("skips attachments whose name cannot be used", func() {
		result, err := adapter.Ingest(ctx, message(ingest.Attachment{Filename: "..", URL: "https://cdn.example.com/1/report.pdf"}))
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Skipped).To(Equal([]ingest.Skipped{{Filename: "..", Reason: ingest.ReasonInvalidName}}))
	})

	It("skips attachments over the size limit", func() {
		downloader.bodies["https://cdn.example.com/4/big.bin"] = strings.Repeat("b", 4096)
		result, err := adapter.Ingest(ctx, message(ingest.Attachment{Filename: "big.bin", URL: "https://cdn.example.com/4/big.bin"}))
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Skipped).To(Equal([]ingest.Skipped{{Filename: "big.bin", Reason: ingest.ReasonStore}}))
	})

	It("removes the artifact when the insert fails", func() {
		adapter = newAdapter(failingRecorder{Repository: repo})

		result, err := adapter.Ingest(ctx, message(photo))
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Skipped).To(Equal([]ingest.Skipped{{Filename: "photo.png", Reason: ingest.ReasonInsert}}))

		exists, _ := afero.Exists(fs, store.Path("photo.png"))
		Expect(exists).To(BeFalse())
		Expect(publisher.events).To(BeEmpty())
	})

	It("produces no records for links alone", func() {
		result, err := adapter.Ingest(ctx, message())
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Stored).To(BeEmpty())
		Expect(result.Links).To(HaveLen(1))

		files, _ := repo.List(ctx, file.ListFilter{})
		Expect(files).To(BeEmpty())
	})

	It("stops when the context is cancelled", func() {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := adapter.Ingest(cancelled, message(report))
		Expect(err).To(MatchError(context.Canceled))
	})
})
