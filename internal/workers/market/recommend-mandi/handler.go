// internal/workers/market/recommend-mandi/handler.go
package recommendmandi

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"cropsense-workers/internal/common/errors"
	"cropsense-workers/internal/common/logger"
	"cropsense-workers/internal/common/metrics"
	"cropsense-workers/internal/common/observability"
	"cropsense-workers/internal/common/validation"
	"cropsense-workers/internal/market/forecast"
	"cropsense-workers/internal/market/recommend"
	"cropsense-workers/internal/market/refdata"
)

const (
	TaskType = "recommend-mandi"
)

type Forecaster interface {
	Forecast(ctx context.Context, crop, location string) (forecast.Result, bool)
}

type Recommender interface {
	RecommendFrom(crop, location string, fc forecast.Result) (*recommend.Result, error)
}

// Notifier delivers the SMS alert. It returns the provider message id.
type Notifier interface {
	Send(ctx context.Context, phoneNumber, message string) (string, error)
}

type Handler struct {
	config      *Config
	forecaster  Forecaster
	recommender Recommender
	notifier    Notifier
	obs         *observability.Observability
	errHandler  *errors.ErrorHandler
	logger      logger.Logger
}

type HandlerOptions struct {
	Config        *Config
	Forecaster    Forecaster
	Recommender   Recommender
	Notifier      Notifier
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	if opts.Config == nil {
		opts.Config = LoadConfig()
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Forecaster == nil || opts.Recommender == nil {
		return nil, fmt.Errorf("%s needs a forecaster and a recommender", TaskType)
	}
	if opts.Config.SMSEnabled && opts.Notifier == nil {
		return nil, fmt.Errorf("sms enabled for %s without a notifier", TaskType)
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:      opts.Config,
		forecaster:  opts.Forecaster,
		recommender: opts.Recommender,
		notifier:    opts.Notifier,
		obs:         opts.Observability,
		errHandler:  errors.NewErrorHandler(log),
		logger:      log,
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

	type outcome struct {
		res    *recommend.Result
		cached bool
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- outcome{err: fmt.Errorf("recommendation panic: %v", p)}
			}
		}()
		fc, cached := h.forecaster.Forecast(ctx, crop, location)
		res, err := h.recommender.RecommendFrom(crop, location, fc)
		done <- outcome{res, cached, err}
	}()

	var o outcome
	select {
	case o = <-done:
	case <-ctx.Done():
		return nil, errors.NewProcessingTimeoutError(TaskType)
	}
	if o.err != nil {
		if stderrors.Is(o.err, recommend.ErrUnsupportedCrop) {
			return nil, errors.NewUnsupportedCropError(crop).WithMetadata("crop", crop)
		}
		return nil, errors.NewRecommendationFailedError(o.err)
	}
	res := o.res

	metrics.RecommendationsServed.WithLabelValues(res.CropKey, strconv.FormatBool(res.Fallback)).Inc()
	h.obs.RecordRecommendation(ctx, res.CropKey, float64(res.ExpectedProfitPerQt))
	h.logger.Info("recommendation produced", map[string]interface{}{
		"recommendationId": res.RecommendationID,
		"crop":             res.CropKey,
		"state":            res.State,
		"bestMandi":        res.BestMandi,
		"netPrice":         res.NetPrice,
		"confidence":       res.Confidence,
		"fallback":         res.Fallback,
	})

	out := &Output{Result: res, ForecastCached: o.cached}
	if phone := strings.TrimSpace(input.PhoneNumber); phone != "" {
		out.SMSSent = h.notify(ctx, phone, res)
	}
	return out, nil
}

// notify reports delivery failures in the log only; the recommendation
// itself has already succeeded.
func (h *Handler) notify(ctx context.Context, phone string, res *recommend.Result) bool {
	if !h.config.SMSEnabled || h.notifier == nil {
		return false
	}
	id, err := h.notifier.Send(ctx, phone, FormatSMS(res))
	if err != nil {
		stdErr := errors.AsStandardError(err)
		h.logger.Warn("sms alert not delivered", map[string]interface{}{
			"recommendationId": res.RecommendationID,
			"errorCode":        string(stdErr.Code),
			"error":            stdErr.Details,
		})
		return false
	}
	h.logger.Info("sms alert sent", map[string]interface{}{
		"recommendationId": res.RecommendationID,
		"messageId":        id,
	})
	return true
}

// FormatSMS renders the short alert sent to the farmer.
func FormatSMS(res *recommend.Result) string {
	crop := res.CropKey
	if crop == refdata.DefaultCropKey {
		crop = res.Crop
	}
	crop = refdata.TitleState(crop)
	return fmt.Sprintf("CropSense: sell %s at %s, %s (%.1f km). Net ₹%d/qt, +₹%d/qt vs local. Confidence %d%%.",
		crop, res.BestMandi, res.BestMandiState, res.DistanceKm, res.NetPrice, res.ExpectedProfitPerQt, res.ConfidencePct)
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
