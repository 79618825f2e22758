package ingest

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/frahmantamala/filehub/internal/metrics"
)

var (
	ErrQueueFull  = errors.New("ingest queue full")
	ErrPoolClosed = errors.New("ingest pool closed")
)

type Ingester interface {
	Ingest(ctx context.Context, msg Message) (*Result, error)
}

type PoolConfig struct {
	Workers   int
	QueueSize int
}

type Worker struct {
	ID     int
	Jobs   <-chan Message
	Logger *slog.Logger
}

func NewWorker(id int, jobs <-chan Message, logger *slog.Logger) *Worker {
	return &Worker{
		ID:     id,
		Jobs:   jobs,
		Logger: logger,
	}
}

// Start consumes jobs until the queue is closed and drained.
func (w *Worker) Start(wg *sync.WaitGroup, processFunc func(Message)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		for msg := range w.Jobs {
			w.Logger.Debug("worker processing message", "worker_id", w.ID, "message_id", msg.ID)
			processFunc(msg)
		}
		w.Logger.Debug("worker shutting down", "worker_id", w.ID)
	}()
}

// Pool is a bounded queue in front of a fixed set of ingestion workers.
type Pool struct {
	ingester   Ingester
	logger     *slog.Logger
	jobQueue   chan Message
	maxWorkers int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

func NewPool(ingester Ingester, cfg PoolConfig, logger *slog.Logger) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := cfg.Workers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 100
	}

	p := &Pool{
		ingester:   ingester,
		logger:     logger,
		jobQueue:   make(chan Message, queueSize),
		maxWorkers: maxWorkers,
		ctx:        ctx,
		cancel:     cancel,
	}

	for i := 0; i < p.maxWorkers; i++ {
		NewWorker(i, p.jobQueue, logger).Start(&p.wg, p.process)
	}
	logger.Info("ingest worker pool started", "max_workers", p.maxWorkers, "queue_size", queueSize)
	return p
}

// Deliver queues msg without blocking.
func (p *Pool) Deliver(ctx context.Context, msg Message) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.jobQueue <- msg:
		metrics.IngestQueueDepth.Set(float64(len(p.jobQueue)))
		p.logger.Debug("message queued", "message_id", msg.ID, "queue_length", len(p.jobQueue))
		return nil
	default:
		p.logger.Warn("ingest queue full, rejecting message",
			"message_id", msg.ID,
			"queue_capacity", cap(p.jobQueue))
		return ErrQueueFull
	}
}

// process never lets a panic escape the worker; the message is skipped.
func (p *Pool) process(msg Message) {
	defer func() {
		if rec := recover(); rec != nil {
			p.logger.Error("message ingestion panicked, skipping message",
				"message_id", msg.ID,
				"panic", rec,
				"stack", string(debug.Stack()))
		}
	}()
	metrics.IngestQueueDepth.Set(float64(len(p.jobQueue)))
	if _, err := p.ingester.Ingest(p.ctx, msg); err != nil {
		p.logger.Error("message ingestion failed", "message_id", msg.ID, "error", err)
	}
}

// Shutdown stops accepting messages and waits for queued ones to finish.
// When ctx expires first, in-flight downloads are cancelled.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.logger.Info("shutting down ingest worker pool", "pending", len(p.jobQueue))
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.jobQueue)
		p.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.logger.Info("ingest worker pool shutdown complete")
		return nil
	case <-ctx.Done():
		p.cancel()
		<-done
		p.logger.Warn("ingest worker pool shutdown timed out, in-flight work cancelled")
		return ctx.Err()
	}
}
