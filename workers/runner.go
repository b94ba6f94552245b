// Package workers runs the directory's queue consumers with bounded
// per-job-type concurrency.
package workers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	gojob "github.com/goliatone/go-botdir/adapters/gojob"
	"github.com/goliatone/go-botdir/core"
	glog "github.com/goliatone/go-logger/glog"
)

const defaultNackDelay = 30 * time.Second

// Config bounds how many deliveries of each job type run at once. Job types
// without an explicit bound share DefaultConcurrency.
type Config struct {
	Concurrency        map[string]int
	DefaultConcurrency int
	NackDelay          time.Duration
}

func DefaultRunnerConfig() Config {
	return ConfigFromCore(core.DefaultConfig())
}

// ConfigFromCore derives worker bounds from the directory config: manifest
// fetches and verification polls each get their configured concurrency.
func ConfigFromCore(cfg core.Config) Config {
	manifestWorkers := cfg.Manifest.Concurrency
	if manifestWorkers < 1 {
		manifestWorkers = 1
	}
	pollWorkers := cfg.Verification.Concurrency
	if pollWorkers < 1 {
		pollWorkers = 1
	}
	return Config{
		Concurrency: map[string]int{
			core.JobTypeManifestFetch:     manifestWorkers,
			core.JobTypeVerificationCheck: pollWorkers,
		},
		DefaultConcurrency: 1,
		NackDelay:          defaultNackDelay,
	}
}

// Runner dequeues deliveries and dispatches them to registered handlers.
// Handler errors nack with a delay so the queue redelivers; deliveries whose
// not-before deadline has not passed are nacked back with the remaining wait.
type Runner struct {
	config   Config
	logger   core.Logger
	dequeuer core.JobDequeuer
	handlers map[string]core.JobHandler
	slots    map[string]chan struct{}
	now      func() time.Time
}

type Option func(*Runner)

func WithLogger(logger core.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}

func NewRunner(cfg Config, dequeuer core.JobDequeuer, handlers map[string]core.JobHandler, options ...Option) (*Runner, error) {
	if dequeuer == nil {
		return nil, fmt.Errorf("workers: dequeuer is required")
	}
	if len(handlers) == 0 {
		return nil, fmt.Errorf("workers: at least one job handler is required")
	}
	if cfg.DefaultConcurrency < 1 {
		cfg.DefaultConcurrency = 1
	}
	if cfg.NackDelay <= 0 {
		cfg.NackDelay = defaultNackDelay
	}

	runner := &Runner{
		config:   cfg,
		dequeuer: dequeuer,
		handlers: make(map[string]core.JobHandler, len(handlers)),
		slots:    map[string]chan struct{}{},
		now:      time.Now,
	}
	for jobID, handler := range handlers {
		jobID = strings.TrimSpace(jobID)
		if jobID == "" || handler == nil {
			return nil, fmt.Errorf("workers: handler registration requires a job id and handler")
		}
		runner.handlers[jobID] = handler
		limit := cfg.Concurrency[jobID]
		if limit < 1 {
			limit = cfg.DefaultConcurrency
		}
		runner.slots[jobID] = make(chan struct{}, limit)
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(runner)
	}
	runner.logger = glog.Ensure(runner.logger)
	if runner.now == nil {
		runner.now = time.Now
	}
	return runner, nil
}

// Run consumes deliveries until the context is canceled. It blocks; callers
// usually start it in a goroutine.
func (r *Runner) Run(ctx context.Context) error {
	if r == nil || r.dequeuer == nil {
		return fmt.Errorf("workers: runner is not configured")
	}
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		delivery, err := r.dequeuer.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			r.logger.Warn("dequeue failed", "error", err.Error())
			continue
		}
		if delivery == nil {
			continue
		}

		msg := delivery.Message()
		if msg == nil {
			_ = delivery.Ack(ctx)
			continue
		}
		jobID := strings.TrimSpace(msg.JobID)

		handler, ok := r.handlers[jobID]
		if !ok {
			r.logger.Warn("no handler for job", "job_id", jobID)
			_ = delivery.Nack(ctx, core.JobNackOptions{
				DeadLetter: true,
				Reason:     "no handler registered for " + jobID,
			})
			continue
		}

		// Delayed jobs circle back through the queue until eligible.
		if remaining := gojob.RemainingDelay(msg, r.now); remaining > 0 {
			_ = delivery.Nack(ctx, core.JobNackOptions{
				Delay:   remaining,
				Requeue: true,
				Reason:  "not yet eligible",
			})
			continue
		}

		slot := r.slots[jobID]
		select {
		case slot <- struct{}{}:
		case <-ctx.Done():
			_ = delivery.Nack(ctx, core.JobNackOptions{Requeue: true, Reason: "shutdown"})
			return ctx.Err()
		}

		wg.Add(1)
		go func(delivery core.JobDelivery, msg *core.JobExecutionMessage) {
			defer wg.Done()
			defer func() { <-slot }()
			r.process(ctx, handler, delivery, msg)
		}(delivery, msg)
	}
}

func (r *Runner) process(ctx context.Context, handler core.JobHandler, delivery core.JobDelivery, msg *core.JobExecutionMessage) {
	startedAt := r.now()
	err := handler.Process(ctx, msg.Parameters)
	duration := r.now().Sub(startedAt)
	if err != nil {
		r.logger.Error("job processing failed",
			"job_id", msg.JobID,
			"duration_ms", duration.Milliseconds(),
			"error", err.Error(),
		)
		_ = delivery.Nack(ctx, core.JobNackOptions{
			Delay:   r.config.NackDelay,
			Requeue: true,
			Reason:  err.Error(),
		})
		return
	}
	r.logger.Debug("job processed",
		"job_id", msg.JobID,
		"duration_ms", duration.Milliseconds(),
	)
	if ackErr := delivery.Ack(ctx); ackErr != nil {
		r.logger.Warn("ack failed", "job_id", msg.JobID, "error", ackErr.Error())
	}
}
