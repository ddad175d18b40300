// Package jobs runs background work through asynq: periodic report cache
// warmup and ad-hoc tasks enqueued by the API.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/Dinhh-Chan/accounting-web-sub000/internal/report"
)

const (
	QueueDefault = "default"

	TaskReportWarmup = "report:warmup"
)

// ReportWarmupPayload carries the reference instant for the warmup run. A
// zero At means "now".
type ReportWarmupPayload struct {
	At time.Time `json:"at"`
}

// NewReportWarmupTask builds the warmup task.
func NewReportWarmupTask(payload ReportWarmupPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportWarmup, body), nil
}

// ReportWarmupHandler recomputes and caches the revenue reports for the
// current month and year.
func ReportWarmupHandler(reports *report.Service, logger zerolog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload ReportWarmupPayload
		if len(task.Payload()) > 0 {
			if err := json.Unmarshal(task.Payload(), &payload); err != nil {
				return err
			}
		}
		at := payload.At
		if at.IsZero() {
			at = time.Now()
		}
		if err := reports.Warm(ctx, at); err != nil {
			logger.Error().Err(err).Msg("report warmup failed")
			return err
		}
		logger.Info().Time("at", at).Msg("report cache warmed")
		return nil
	}
}

// Worker wraps the asynq server and scheduler.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
}

// WorkerConfig collects dependencies for the worker process.
type WorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Logger      zerolog.Logger
	Reports     *report.Service
	WarmupCron  string
	Concurrency int
}

// NewWorker wires handlers and cron entries.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if cfg.Reports == nil {
		return nil, errors.New("jobs: report service is required")
	}
	server := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: workerConcurrency(cfg.Concurrency),
		Queues:      map[string]int{QueueDefault: 1},
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskReportWarmup, ReportWarmupHandler(cfg.Reports, cfg.Logger))

	var scheduler *asynq.Scheduler
	if cfg.WarmupCron != "" {
		scheduler = asynq.NewScheduler(cfg.RedisOpts, &asynq.SchedulerOpts{Location: time.UTC})
		task, err := NewReportWarmupTask(ReportWarmupPayload{})
		if err != nil {
			return nil, err
		}
		if _, err := scheduler.Register(cfg.WarmupCron, task, asynq.Queue(QueueDefault)); err != nil {
			return nil, err
		}
	}

	return &Worker{server: server, mux: mux, scheduler: scheduler}, nil
}

func workerConcurrency(n int) int {
	if n <= 0 {
		return 5
	}
	return n
}

// Run processes jobs until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("jobs: worker not configured")
	}
	if w.scheduler != nil {
		if err := w.scheduler.Start(); err != nil {
			return err
		}
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	select {
	case <-ctx.Done():
		if w.scheduler != nil {
			w.scheduler.Shutdown()
		}
		w.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		if w.scheduler != nil {
			w.scheduler.Shutdown()
		}
		return err
	}
}

// Client enqueues tasks from the API process.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an enqueue-only client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// EnqueueReportWarmup schedules an immediate warmup run.
func (c *Client) EnqueueReportWarmup(ctx context.Context, at time.Time) (*asynq.TaskInfo, error) {
	task, err := NewReportWarmupTask(ReportWarmupPayload{At: at})
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
