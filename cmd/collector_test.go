package cmd

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/frahmantamala/filehub/internal/collector"
	"github.com/frahmantamala/filehub/internal/ingest"
	"github.com/frahmantamala/filehub/internal/storage"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/afero"
)

type explodingSink struct{}

func (explodingSink) Deliver(context.Context, ingest.Message) error {
	panic("sink blew up")
}

// eventGateway dispatches each message on its own goroutine, the way the
// discord session runs handlers.
type eventGateway struct {
	messages []ingest.Message
}

func (g *eventGateway) Open(ctx context.Context, l *collector.Listener) error {
	for _, msg := range g.messages {
		go l.HandleMessage(ctx, msg)
	}
	return nil
}

func (g *eventGateway) Close() error { return nil }

var _ = Describe("runCollector", func() {
	It("returns the handler failure instead of crashing the process", func() {
		lg := slog.New(slog.NewTextHandler(io.Discard, nil))
		l := collector.NewListener(explodingSink{}, collector.Config{AdminRoleName: "Admin"}, lg)
		gw := &eventGateway{messages: []ingest.Message{{
			ID:          "1",
			GuildID:     "g",
			Attachments: []ingest.Attachment{{Filename: "r.pdf", URL: "https://cdn/r.pdf"}},
		}}}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		err := runCollector(ctx, l, gw, lg)
		Expect(err).To(MatchError(ContainSubstring("sink blew up")))
		Expect(ctx.Err()).NotTo(HaveOccurred())
		Expect(l.State()).To(Equal(collector.StateDisconnected))
	})
})

var _ = Describe("localEndpoint", func() {
	It("names the store root", func() {
		store, err := storage.NewLocalStore(afero.NewMemMapFs(), "./downloads/")
		Expect(err).NotTo(HaveOccurred())
		Expect(localEndpoint(store)).To(Equal("local ingestion into downloads"))
	})
})
