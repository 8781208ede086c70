package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/decisions-tracker/internal/governor"
	"github.com/joseph-ayodele/decisions-tracker/internal/ingest"
)

// Runner is the part of the governor the queue drives.
type Runner interface {
	ResumeAutoPaused() int
	Run(ctx context.Context) error
	Status() string
}

// ProcessorQueue ingests watched files and runs the governor once the
// backlog is empty.
type ProcessorQueue struct {
	ingestor ingest.Ingestor
	runner   Runner
	logger   *slog.Logger
	workers  int
	timeout  time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	runCtx    context.Context
	cancelRun context.CancelFunc

	mu     sync.Mutex
	closed bool
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

// WithIngestTimeout bounds hashing and opening one file.
func WithIngestTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewProcessorQueue(in ingest.Ingestor, r Runner, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		ingestor: in,
		runner:   r,
		logger:   logger,
		workers:  1,
		timeout:  30 * time.Second,
		ch:       make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.runCtx, q.cancelRun = context.WithCancel(context.Background())
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					q.handle(workerID, job)
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) handle(workerID int, job Job) {
	if job.Path != "" {
		ctx, cancel := context.WithTimeout(q.runCtx, q.timeout)
		res, err := q.ingestor.IngestPath(ctx, job.Path)
		cancel()
		switch {
		case err != nil:
			q.logger.Error("ingest failed", "worker_id", workerID, "path", job.Path, "trace_id", job.TraceID, "error", err)
		case res.Deduplicated:
			q.logger.Info("ingest skipped duplicate", "worker_id", workerID, "path", job.Path, "doc_id", res.DocID)
		default:
			q.logger.Info("ingested file", "worker_id", workerID, "path", job.Path, "doc_id", res.DocID)
		}
	}

	// Batch bursts: run once the backlog is drained.
	if len(q.ch) > 0 {
		return
	}
	if n := q.runner.ResumeAutoPaused(); n > 0 {
		q.logger.Info("resuming auto-paused documents", "count", n)
	}
	err := q.runner.Run(q.runCtx)
	switch {
	case errors.Is(err, governor.ErrAlreadyRunning):
		q.logger.Debug("governor already running", "worker_id", workerID)
	case err != nil:
		q.logger.Error("governor run failed", "worker_id", workerID, "error", err)
	default:
		q.logger.Info("governor run finished", "worker_id", workerID, "status", q.runner.Status())
	}
}

func (q *ProcessorQueue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "path", job.Path)
		return nil
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now().UTC()
	}
	select {
	case q.ch <- job:
		q.logger.Debug("queued job", "path", job.Path, "force", job.Force)
	default:
		q.logger.Warn("queue full, applying backpressure", "path", job.Path)
		q.ch <- job
	}
	return nil
}

// Trigger asks for a governor run without new input.
func (q *ProcessorQueue) Trigger(ctx context.Context) error {
	return q.Enqueue(ctx, Job{})
}

// Shutdown stops accepting jobs, interrupts the current run at its next
// page boundary and waits for workers to exit.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()
	q.cancelRun()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
