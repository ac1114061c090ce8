package camunda

import (
	stderrors "errors"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"cropsense-workers/internal/common/errors"
	"cropsense-workers/internal/common/logger"
	"cropsense-workers/internal/common/metrics"
)

func testJob() entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 7, Type: "instrument-test", Retries: 3, Variables: "{}"}}
}

func TestInstrument_RecordsOutcome(t *testing.T) {
	taskType := "instrument-test-" + t.Name()
	log := logger.NewTestLogger(t)

	ok := Instrument(taskType, func(worker.JobClient, entities.Job) error { return nil }, nil, log)
	ok(nil, testJob())
	ok(nil, testJob())
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.WorkerJobsCompleted.WithLabelValues(taskType)))

	failing := Instrument(taskType, func(worker.JobClient, entities.Job) error {
		return errors.NewUnsupportedCropError("kiwi")
	}, nil, log)
	failing(nil, testJob())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WorkerJobsFailed.WithLabelValues(taskType, "UNSUPPORTED_CROP")))

	plain := Instrument(taskType, func(worker.JobClient, entities.Job) error {
		return stderrors.New("boom")
	}, nil, log)
	plain(nil, testJob())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WorkerJobsFailed.WithLabelValues(taskType, "INTERNAL_ERROR")))

	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.WorkerJobsActive.WithLabelValues(taskType)))
}
