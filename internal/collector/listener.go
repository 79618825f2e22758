// Package collector watches chat channels and hands collectable messages to a
// Sink.
package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/frahmantamala/filehub/internal/ingest"
	"github.com/frahmantamala/filehub/internal/metrics"
)

type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateReady
	StateListening
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateListening:
		return "listening"
	default:
		return "disconnected"
	}
}

// Sink receives collectable messages: the ingest pool, or a forwarder to a
// remote instance.
type Sink interface {
	Deliver(ctx context.Context, msg ingest.Message) error
}

// Gateway connects the listener to a chat service. Open returns once the
// connection is established; events are then pushed into the listener.
type Gateway interface {
	Open(ctx context.Context, l *Listener) error
	Close() error
}

type Config struct {
	AdminRoleName string
	// APIEndpoint is reported by collector_status.
	APIEndpoint string
}

type Listener struct {
	sink   Sink
	cfg    Config
	logger *slog.Logger

	active atomic.Bool
	state  atomic.Int32

	shutdown     chan struct{}
	shutdownOnce sync.Once

	failed   chan struct{}
	failOnce sync.Once
	failErr  error
}

func NewListener(sink Sink, cfg Config, logger *slog.Logger) *Listener {
	l := &Listener{
		sink:     sink,
		cfg:      cfg,
		logger:   logger,
		shutdown: make(chan struct{}),
		failed:   make(chan struct{}),
	}
	l.SetActive(true)
	return l
}

func (l *Listener) Active() bool {
	return l.active.Load()
}

func (l *Listener) SetActive(active bool) {
	l.active.Store(active)
	if active {
		metrics.CollectorActive.Set(1)
	} else {
		metrics.CollectorActive.Set(0)
	}
}

func (l *Listener) State() State {
	return State(l.state.Load())
}

func (l *Listener) setState(s State) {
	prev := State(l.state.Swap(int32(s)))
	if prev != s {
		l.logger.Info("collector state changed", "from", prev.String(), "to", s.String())
	}
}

// ShutdownRequested is closed once an admin runs the shutdown command.
func (l *Listener) ShutdownRequested() <-chan struct{} {
	return l.shutdown
}

// Fail stops Run with err. Only the first failure is kept.
func (l *Listener) Fail(err error) {
	l.failOnce.Do(func() {
		l.failErr = err
		close(l.failed)
	})
}

// Recover must be deferred directly by event handlers. A panic is logged and
// turned into a Fail, so the collector goes down without taking the process
// with it.
func (l *Listener) Recover(event string) {
	rec := recover()
	if rec == nil {
		return
	}
	l.logger.Error("collector handler panicked", "event", event, "panic", rec, "stack", string(debug.Stack()))
	l.Fail(fmt.Errorf("%s handler panic: %v", event, rec))
}

// HandleReady registers the slash commands once the gateway session is ready.
func (l *Listener) HandleReady(ctx context.Context, register func(ctx context.Context, commands []Command) error) error {
	defer l.Recover("ready")
	l.setState(StateReady)
	if err := register(ctx, Commands); err != nil {
		l.logger.Error("failed to register commands", "error", err)
		return fmt.Errorf("register commands: %w", err)
	}
	l.logger.Info("commands registered", "count", len(Commands))
	l.setState(StateListening)
	return nil
}

// HandleMessage delivers msg to the sink unless it should be ignored. It
// reports whether the message was handed over.
func (l *Listener) HandleMessage(ctx context.Context, msg ingest.Message) bool {
	defer l.Recover("message")
	switch {
	case !l.Active(), msg.GuildID == "", msg.AuthorBot, !msg.Collectable():
		metrics.MessagesCollectedTotal.WithLabelValues("ignored").Inc()
		return false
	}

	if msg.Links == nil {
		msg.Links = ingest.ExtractLinks(msg.Content)
	}
	l.logger.Info("collecting message",
		"message_id", msg.ID,
		"author", msg.AuthorName,
		"channel", msg.ChannelName,
		"attachments", len(msg.Attachments),
		"links", len(msg.Links))

	if err := l.sink.Deliver(ctx, msg); err != nil {
		metrics.MessagesCollectedTotal.WithLabelValues("rejected").Inc()
		l.logger.Error("failed to deliver message", "message_id", msg.ID, "error", err)
		return false
	}
	metrics.MessagesCollectedTotal.WithLabelValues("delivered").Inc()
	return true
}

// Run opens the gateway and blocks until ctx is done, shutdown is requested
// or a handler fails. A handler failure is returned and never restarted.
func (l *Listener) Run(ctx context.Context, gw Gateway) error {
	l.setState(StateConnecting)
	if err := gw.Open(ctx, l); err != nil {
		l.setState(StateDisconnected)
		return fmt.Errorf("open gateway: %w", err)
	}

	var failure error
	select {
	case <-ctx.Done():
	case <-l.shutdown:
		l.logger.Info("collector shutdown requested")
	case <-l.failed:
		failure = l.failErr
		l.logger.Error("collector stopped after handler failure", "error", failure)
	}

	err := gw.Close()
	l.setState(StateDisconnected)
	if err != nil {
		err = fmt.Errorf("close gateway: %w", err)
	}
	return errors.Join(failure, err)
}
