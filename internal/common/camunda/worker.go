package camunda

import (
	"context"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"cropsense-workers/internal/common/config"
	"cropsense-workers/internal/common/errors"
	"cropsense-workers/internal/common/logger"
	"cropsense-workers/internal/common/metrics"
	"cropsense-workers/internal/common/observability"
)

// JobHandler processes one job and reports its outcome to the broker. The
// returned error is the failure that was reported, or nil on completion.
type JobHandler func(client worker.JobClient, job entities.Job) error

type CamundaWorker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

// NewWorker opens a job worker for taskType.
func NewWorker(
	client zbc.Client,
	taskType string,
	cfg config.WorkerConfig,
	handler JobHandler,
	obs *observability.Observability,
	log logger.Logger,
) *CamundaWorker {
	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(Instrument(taskType, handler, obs, log)).
		MaxJobsActive(cfg.MaxJobsActive).
		Timeout(config.GetDuration(cfg.Timeout)).
		Name(taskType).
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": cfg.MaxJobsActive,
		"timeoutMs":     cfg.Timeout,
	})

	return &CamundaWorker{
		worker:   jobWorker,
		logger:   log,
		taskType: taskType,
	}
}

// Instrument wraps handler with job metrics, a span and panic recovery.
func Instrument(taskType string, handler JobHandler, obs *observability.Observability, log logger.Logger) worker.JobHandler {
	errHandler := errors.NewErrorHandler(log)

	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		defer metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()

		ctx, span := obs.StartSpan(context.Background(), taskType)
		defer span.End()

		err := runHandler(client, job, handler, errHandler)

		status := "success"
		if err != nil {
			status = "failed"
			metrics.WorkerJobsFailed.WithLabelValues(taskType, string(errors.AsStandardError(err).Code)).Inc()
		} else {
			metrics.WorkerJobsCompleted.WithLabelValues(taskType).Inc()
		}

		elapsed := time.Since(start)
		metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
		obs.RecordJobProcessed(ctx, taskType, status)
		obs.RecordJobDuration(ctx, taskType, elapsed, status)
	}
}

func runHandler(client worker.JobClient, job entities.Job, handler JobHandler, errHandler *errors.ErrorHandler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
			errHandler.HandleJobError(context.Background(), client, job, err)
		}
	}()
	return handler(client, job)
}

func (w *CamundaWorker) Stop() {
	w.logger.Info("stopping worker", map[string]interface{}{"taskType": w.taskType})
	w.worker.Close()
	w.worker.AwaitClose()
}
