package calls

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

const TaskRetryCall = "calls.retry"

type RetryCallPayload struct {
	Identity    string    `json:"identity"`
	ScheduledAt time.Time `json:"scheduledAt"`
}

func NewRetryCallTask(payload RetryCallPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRetryCall, data), nil
}

func ParseRetryCallPayload(task *asynq.Task) (RetryCallPayload, error) {
	var payload RetryCallPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return RetryCallPayload{}, err
	}
	return payload, nil
}

// RedisConnOpt converts go-redis options into asynq connection options.
func RedisConnOpt(opt *redis.Options) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:         opt.Addr,
		Username:     opt.Username,
		Password:     opt.Password,
		DB:           opt.DB,
		DialTimeout:  opt.DialTimeout,
		ReadTimeout:  opt.ReadTimeout,
		WriteTimeout: opt.WriteTimeout,
		PoolSize:     opt.PoolSize,
		TLSConfig:    opt.TLSConfig,
	}
}

// QueueScheduler enqueues retries on Redis so they survive a restart of the API process.
// A RetryWorker must consume the queue.
type QueueScheduler struct {
	client *asynq.Client
	queue  string
}

func NewQueueScheduler(opt asynq.RedisConnOpt, queue string) *QueueScheduler {
	if queue == "" {
		queue = "default"
	}
	return &QueueScheduler{client: asynq.NewClient(opt), queue: queue}
}

func (q *QueueScheduler) Schedule(ctx context.Context, identity string, delay time.Duration) error {
	task, err := NewRetryCallTask(RetryCallPayload{Identity: identity, ScheduledAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	// One task id per retry, never reused.
	_, err = q.client.EnqueueContext(ctx, task,
		asynq.ProcessIn(delay),
		asynq.Queue(q.queue),
		asynq.TaskID(uuid.NewString()),
		asynq.MaxRetry(0),
	)
	if err != nil {
		return fmt.Errorf("calls: enqueue retry: %w", err)
	}
	return nil
}

func (q *QueueScheduler) Close() error {
	if q == nil || q.client == nil {
		return nil
	}
	return q.client.Close()
}

// OutboundPlacer is the part of the orchestrator the retry worker drives.
type OutboundPlacer interface {
	PlaceOutboundCall(ctx context.Context, identity string) Outcome
}

// RetryWorker consumes calls.retry tasks and dials the lead again.
type RetryWorker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	placer OutboundPlacer
	log    *slog.Logger
}

func NewRetryWorker(opt asynq.RedisConnOpt, queue string, placer OutboundPlacer, log *slog.Logger) *RetryWorker {
	if queue == "" {
		queue = "default"
	}
	if log == nil {
		log = slog.Default()
	}
	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: 4,
		Queues:      map[string]int{queue: 1},
	})

	w := &RetryWorker{server: server, mux: asynq.NewServeMux(), placer: placer, log: log}
	w.mux.HandleFunc(TaskRetryCall, w.handleRetryCall)
	return w
}

// Run processes tasks until ctx is done.
func (w *RetryWorker) Run(ctx context.Context) error {
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("calls: retry worker: %w", err)
	}
	<-ctx.Done()
	w.server.Shutdown()
	return nil
}

func (w *RetryWorker) handleRetryCall(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseRetryCallPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	w.log.Info("executing retry", "to", payload.Identity)
	outcome := w.placer.PlaceOutboundCall(ctx, payload.Identity)
	w.log.Debug("retry finished", "to", payload.Identity, "outcome", outcome)
	return nil
}
