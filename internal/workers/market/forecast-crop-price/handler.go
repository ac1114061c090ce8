// internal/workers/market/forecast-crop-price/handler.go
package forecastcropprice

import (
	"context"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"cropsense-workers/internal/common/errors"
	"cropsense-workers/internal/common/logger"
	"cropsense-workers/internal/common/observability"
	"cropsense-workers/internal/common/validation"
	"cropsense-workers/internal/market/forecast"
)

const (
	TaskType = "forecast-crop-price"
)

// Forecaster returns a forecast and whether it was cached.
type Forecaster interface {
	Forecast(ctx context.Context, crop, location string) (forecast.Result, bool)
}

type Handler struct {
	config     *Config
	forecaster Forecaster
	obs        *observability.Observability
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, fc Forecaster, obs *observability.Observability, log logger.Logger) (*Handler, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		forecaster: fc,
		obs:        obs,
		errHandler: errors.NewErrorHandler(log),
		logger:     log,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := parseInput(job)
	if err == nil {
		var output *Output
		if output, err = h.execute(ctx, input); err == nil {
			return h.completeJob(ctx, client, job, output)
		}
	}

	h.errHandler.HandleJobError(ctx, client, job, err)
	return err
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	crop := strings.TrimSpace(input.Crop)
	location := strings.TrimSpace(input.Location)
	if crop == "" || location == "" {
		return nil, errors.NewInvalidInputError("crop and location must be non-empty")
	}

	type result struct {
		res    forecast.Result
		cached bool
		err    error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- result{err: fmt.Errorf("forecast panic: %v", p)}
			}
		}()
		res, cached := h.forecaster.Forecast(ctx, crop, location)
		done <- result{res: res, cached: cached}
	}()

	var r result
	select {
	case r = <-done:
	case <-ctx.Done():
		return nil, errors.NewProcessingTimeoutError(TaskType)
	}
	if r.err != nil {
		return nil, errors.NewForecastFailedError(r.err).WithMetadata("crop", crop)
	}

	h.obs.RecordForecast(ctx, r.res.CropKey, r.res.Trend, r.res.PctChange)
	h.logger.Info("forecast produced", map[string]interface{}{
		"crop":       r.res.CropKey,
		"state":      r.res.State,
		"startPrice": r.res.StartPrice,
		"endPrice":   r.res.EndPrice,
		"trend":      r.res.Trend,
		"cached":     r.cached,
	})

	return &Output{Result: r.res, Cached: r.cached}, nil
}

func parseInput(job entities.Job) (*Input, error) {
	vars, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInputParseError(err)
	}

	var input Input
	schema := GetInputSchema()
	res, err := validation.DecodeInput(vars, schema, &input)
	if err != nil {
		return nil, errors.NewInputParseError(err)
	}
	if !res.Valid {
		return nil, errors.NewInvalidInputError(strings.Join(res.GetErrorMessages(), "; ")).
			WithMetadata("invalidFields", res.FieldsWithErrors(schema))
	}
	return &input, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
		return errors.NewBrokerRejectedError("complete", err)
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
		return errors.NewBrokerUnavailableError("complete", err)
	}
	return nil
}
