// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"

	"telehealth-agent/internal/common/metrics"
)

// JobHandler is the signature every telehealth worker's Handle method satisfies.
type JobHandler func(client worker.JobClient, job entities.Job)

// JobRecorder receives one observation per handled job.
type JobRecorder interface {
	RecordJobProcessed(ctx context.Context, taskType, status string)
	RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string)
}

// WorkerOptions tunes a job worker subscription.
type WorkerOptions struct {
	MaxJobsActive int
	Timeout       time.Duration
	PollInterval  time.Duration
	Recorder      JobRecorder
}

// Job statuses reported to the recorder.
const (
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
	JobStatusBPMNError = "bpmn_error"
	JobStatusPanicked  = "panicked"
	JobStatusUnknown   = "unknown"
)

type CamundaWorker struct {
	worker   worker.JobWorker
	logger   *zap.Logger
	taskType string
}

// NewWorker opens a job worker for taskType. Handler panics are logged and
// the job is failed so the broker can redeliver it.
func NewWorker(client zbc.Client, taskType string, opts WorkerOptions, handler JobHandler, logger *zap.Logger) *CamundaWorker {
	builder := client.NewJobWorker().
		JobType(taskType).
		Handler(wrapHandler(taskType, handler, opts.Recorder, logger)).
		MaxJobsActive(opts.MaxJobsActive)

	if opts.Timeout > 0 {
		builder = builder.Timeout(opts.Timeout)
	}
	if opts.PollInterval > 0 {
		builder = builder.PollInterval(opts.PollInterval)
	}

	return &CamundaWorker{
		worker:   builder.Open(),
		logger:   logger,
		taskType: taskType,
	}
}

// wrapHandler adds panic recovery and, with a recorder, per-job metrics.
func wrapHandler(taskType string, handler JobHandler, recorder JobRecorder, logger *zap.Logger) worker.JobHandler {
	return func(jc worker.JobClient, job entities.Job) {
		tracked := &trackingJobClient{JobClient: jc, status: JobStatusUnknown}
		start := time.Now()

		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		defer func() {
			metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()
			metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(time.Since(start).Seconds())
			if tracked.status == JobStatusCompleted {
				metrics.WorkerJobsCompleted.WithLabelValues(taskType).Inc()
			}
		}()

		if recorder != nil {
			defer func() {
				ctx := context.Background()
				recorder.RecordJobProcessed(ctx, taskType, tracked.status)
				recorder.RecordJobDuration(ctx, taskType, time.Since(start), tracked.status)
			}()
		}
		defer func() {
			if r := recover(); r != nil {
				tracked.status = JobStatusPanicked
				logger.Error("handler panicked",
					zap.String("taskType", taskType),
					zap.Int64("jobKey", job.Key),
					zap.Any("panic", r))
				_, _ = jc.NewFailJobCommand().
					JobKey(job.Key).
					Retries(job.Retries - 1).
					ErrorMessage("handler panicked").
					Send(context.Background())
			}
		}()

		handler(tracked, job)
	}
}

// trackingJobClient remembers the last command a handler opened.
type trackingJobClient struct {
	worker.JobClient
	status string
}

func (c *trackingJobClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	c.status = JobStatusCompleted
	return c.JobClient.NewCompleteJobCommand()
}

func (c *trackingJobClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	c.status = JobStatusFailed
	return c.JobClient.NewFailJobCommand()
}

func (c *trackingJobClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	c.status = JobStatusBPMNError
	return c.JobClient.NewThrowErrorCommand()
}

func (w *CamundaWorker) TaskType() string {
	return w.taskType
}

// Stop closes the subscription and waits for in-flight jobs.
func (w *CamundaWorker) Stop() {
	w.logger.Info("stopping worker", zap.String("taskType", w.taskType))
	w.worker.Close()
	w.worker.AwaitClose()
}
