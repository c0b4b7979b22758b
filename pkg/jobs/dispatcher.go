package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/openlearn/courseware-server/pkg/metrics"
)

// Task represents a unit of background work.
type Task interface {
	Name() string
	Execute(ctx context.Context) error
}

// ErrQueueFull is returned by Enqueue when the backlog is saturated.
var ErrQueueFull = errors.New("task queue is full")

// Dispatcher executes fire-and-forget background tasks on a fixed worker pool.
// Tasks carry no result channel: callers that need an outcome should not use
// the dispatcher. There is no ordering guarantee between tasks.
type Dispatcher struct {
	tasks   chan Task
	logger  *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc

	mu      sync.Mutex
	started bool
}

// NewDispatcher creates a dispatcher with the given worker count and backlog.
func NewDispatcher(logger *slog.Logger, workers, backlog int) *Dispatcher {
	if workers <= 0 {
		workers = 4
	}
	if backlog <= 0 {
		backlog = 256
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		tasks:   make(chan Task, backlog),
		logger:  logger,
		timeout: 5 * time.Minute,
		ctx:     ctx,
		cancel:  cancel,
	}

	d.start(workers)
	return d
}

func (d *Dispatcher) start(workers int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true

	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}

	d.logger.Info("task dispatcher started", "workers", workers)
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for {
		select {
		case task, ok := <-d.tasks:
			if !ok {
				return
			}
			d.run(task)
		case <-d.ctx.Done():
			return
		}
	}
}

func (d *Dispatcher) run(task Task) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("task panic", "name", task.Name(), "panic", r)
			metrics.CountTaskRun(task.Name(), "error")
		}
	}()

	ctx, cancel := context.WithTimeout(d.ctx, d.timeout)
	defer cancel()

	start := time.Now()
	if err := task.Execute(ctx); err != nil {
		d.logger.Error("task execution failed", "name", task.Name(), "error", err, "duration", time.Since(start))
		metrics.CountTaskRun(task.Name(), "error")
		return
	}

	d.logger.Debug("task completed", "name", task.Name(), "duration", time.Since(start))
	metrics.CountTaskRun(task.Name(), "ok")
}

// Enqueue submits a task for asynchronous execution. It never blocks; when the
// backlog is full the task is dropped and ErrQueueFull returned.
func (d *Dispatcher) Enqueue(task Task) error {
	select {
	case d.tasks <- task:
		return nil
	default:
		d.logger.Warn("task dropped, queue full", "name", task.Name())
		return ErrQueueFull
	}
}

// Stop cancels running tasks and waits for the workers to exit.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return
	}
	d.started = false
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
	d.logger.Info("task dispatcher stopped")
}
