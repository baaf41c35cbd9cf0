package gojob

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-credbroker/core"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"
)

const (
	JobIDEvictIdleSessions     = "credbroker.session.evict_idle"
	JobIDMigrateLegacySettings = "credbroker.settings.migrate"
)

// MaintenanceService is the slice of the broker the maintenance jobs drive.
type MaintenanceService interface {
	EvictIdleSessions(ctx context.Context) int
	MigrateLegacySettings(ctx context.Context) (int, error)
}

// RetryPolicy defines queue retry bounds to avoid unbounded retry loops.
type RetryPolicy struct {
	MaxAttempts     int
	MaxDelay        time.Duration
	DeadLetterOnMax bool
}

// Normalize enforces bounded retry behavior for a nack operation.
func (p RetryPolicy) Normalize(opts queue.NackOptions, attempt int) queue.NackOptions {
	out := opts
	out.Reason = strings.TrimSpace(out.Reason)
	if out.Delay < 0 {
		out.Delay = 0
	}
	if p.MaxDelay > 0 && out.Delay > p.MaxDelay {
		out.Delay = p.MaxDelay
	}
	if out.DeadLetter {
		out.Requeue = false
	}
	if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
		out.Requeue = false
		if p.DeadLetterOnMax || out.DeadLetter {
			out.DeadLetter = true
		}
	}
	if !out.Requeue && !out.DeadLetter {
		out.Requeue = true
	}
	return out
}

// ToExecutionMessage maps a broker maintenance message to go-job.
func ToExecutionMessage(msg *core.MaintenanceJobMessage) *job.ExecutionMessage {
	if msg == nil {
		return nil
	}
	return &job.ExecutionMessage{
		JobID:          strings.TrimSpace(msg.JobID),
		Parameters:     copyAnyMap(msg.Parameters),
		IdempotencyKey: strings.TrimSpace(msg.IdempotencyKey),
		DedupPolicy:    job.DeduplicationPolicy(strings.TrimSpace(msg.DedupPolicy)),
	}
}

// FromExecutionMessage maps a go-job message into the broker contract.
func FromExecutionMessage(msg *job.ExecutionMessage) *core.MaintenanceJobMessage {
	if msg == nil {
		return nil
	}
	return &core.MaintenanceJobMessage{
		JobID:          strings.TrimSpace(msg.JobID),
		Parameters:     copyAnyMap(msg.Parameters),
		IdempotencyKey: strings.TrimSpace(msg.IdempotencyKey),
		DedupPolicy:    strings.TrimSpace(string(msg.DedupPolicy)),
	}
}

type EnqueuerAdapter struct {
	enqueuer queue.Enqueuer
}

func NewEnqueuerAdapter(enqueuer queue.Enqueuer) *EnqueuerAdapter {
	return &EnqueuerAdapter{enqueuer: enqueuer}
}

func (a *EnqueuerAdapter) Enqueue(ctx context.Context, msg *core.MaintenanceJobMessage) error {
	if a == nil || a.enqueuer == nil {
		return fmt.Errorf("gojob: enqueuer is not configured")
	}
	if msg == nil {
		return fmt.Errorf("gojob: maintenance message is required")
	}
	return a.enqueuer.Enqueue(ctx, ToExecutionMessage(msg))
}

// MaintenanceRunner drains the maintenance queue and dispatches each job to
// the broker. Failed jobs are nacked under the retry policy.
type MaintenanceRunner struct {
	service  MaintenanceService
	dequeuer queue.Dequeuer
	policy   RetryPolicy
}

func NewMaintenanceRunner(service MaintenanceService, dequeuer queue.Dequeuer, policy RetryPolicy) *MaintenanceRunner {
	return &MaintenanceRunner{service: service, dequeuer: dequeuer, policy: policy}
}

func (r *MaintenanceRunner) RunOnce(ctx context.Context) error {
	if r == nil || r.dequeuer == nil {
		return fmt.Errorf("gojob: dequeuer is not configured")
	}
	delivery, err := r.dequeuer.Dequeue(ctx)
	if err != nil {
		return err
	}
	return r.Process(ctx, delivery, 0)
}

func (r *MaintenanceRunner) Process(ctx context.Context, delivery queue.Delivery, attempt int) error {
	if r == nil || r.service == nil {
		return fmt.Errorf("gojob: maintenance service is not configured")
	}
	if delivery == nil {
		return fmt.Errorf("gojob: delivery is required")
	}
	msg := FromExecutionMessage(delivery.Message())
	if err := r.dispatch(ctx, msg); err != nil {
		return delivery.Nack(ctx, r.policy.Normalize(queue.NackOptions{
			Requeue: true,
			Reason:  err.Error(),
		}, attempt))
	}
	return delivery.Ack(ctx)
}

func (r *MaintenanceRunner) dispatch(ctx context.Context, msg *core.MaintenanceJobMessage) error {
	if msg == nil {
		return fmt.Errorf("gojob: empty maintenance message")
	}
	switch msg.JobID {
	case JobIDEvictIdleSessions:
		r.service.EvictIdleSessions(ctx)
		return nil
	case JobIDMigrateLegacySettings:
		_, err := r.service.MigrateLegacySettings(ctx)
		return err
	default:
		return fmt.Errorf("gojob: unknown maintenance job %q", msg.JobID)
	}
}

// MetricsHook reports worker lifecycle events to the broker metrics recorder.
type MetricsHook struct {
	metrics core.MetricsRecorder
}

func NewMetricsHook(metrics core.MetricsRecorder) *MetricsHook {
	return &MetricsHook{metrics: metrics}
}

func (h *MetricsHook) OnStart(ctx context.Context, event worker.Event) {
	h.record(ctx, "credbroker.job.start", event)
}

func (h *MetricsHook) OnSuccess(ctx context.Context, event worker.Event) {
	h.record(ctx, "credbroker.job.success", event)
}

func (h *MetricsHook) OnFailure(ctx context.Context, event worker.Event) {
	h.record(ctx, "credbroker.job.failure", event)
}

func (h *MetricsHook) OnRetry(ctx context.Context, event worker.Event) {
	h.record(ctx, "credbroker.job.retry", event)
}

func (h *MetricsHook) record(ctx context.Context, name string, event worker.Event) {
	if h == nil || h.metrics == nil {
		return
	}
	message := event.Message
	if message == nil && event.Delivery != nil {
		message = event.Delivery.Message()
	}
	jobID := ""
	if message != nil {
		jobID = message.JobID
	}
	h.metrics.IncCounter(ctx, name, 1, map[string]string{"job_id": jobID})
	if event.Duration > 0 {
		h.metrics.ObserveHistogram(ctx, "credbroker.job.duration_ms", float64(event.Duration.Milliseconds()), map[string]string{"job_id": jobID})
	}
}

func copyAnyMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

var (
	_ core.MaintenanceEnqueuer = (*EnqueuerAdapter)(nil)
	_ worker.Hook              = (*MetricsHook)(nil)
)
