package forecastcropprice

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropsense-workers/internal/common/config"
	"cropsense-workers/internal/common/errors"
	"cropsense-workers/internal/common/logger"
	"cropsense-workers/internal/market/forecast"
	"cropsense-workers/internal/market/forecastcache"
	"cropsense-workers/internal/market/refdata"
)

var fixedNow = time.Date(2025, time.January, 25, 6, 0, 0, 0, time.UTC)

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	raw, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               TaskType,
		ProcessInstanceKey: key * 10,
		Retries:            3,
		CustomHeaders:      "{}",
		Variables:          string(raw),
	}}
}

func newCachedForecaster(t *testing.T) (*forecastcache.Forecaster, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := forecast.DefaultConfig()
	cfg.ModelEnabled = false
	cfg.NoiseMode = forecast.NoiseHashed
	svc := forecast.NewService(refdata.NewCatalog(), cfg, logger.NewNoOpLogger(),
		forecast.WithClock(func() time.Time { return fixedNow }))

	return forecastcache.NewForecaster(svc, forecastcache.NewStore(client, time.Hour), logger.NewNoOpLogger()), mr
}

type slowForecaster struct{}

func (slowForecaster) Forecast(ctx context.Context, _, _ string) (forecast.Result, bool) {
	<-ctx.Done()
	time.Sleep(10 * time.Millisecond)
	return forecast.Result{}, false
}

type panickingForecaster struct{}

func (panickingForecaster) Forecast(context.Context, string, string) (forecast.Result, bool) {
	panic("forecast: non-positive start price 0 for wheat/punjab")
}

func TestNewHandler(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{"default config", LoadConfig(), false},
		{"zero timeout", &Config{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewHandler(tt.config, slowForecaster{}, nil, logger.NewNoOpLogger())
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, h)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, h)
		})
	}
}

func TestHandler_Execute(t *testing.T) {
	fc, mr := newCachedForecaster(t)
	h, err := NewHandler(LoadConfig(), fc, nil, logger.NewTestLogger(t))
	require.NoError(t, err)

	out, err := h.Execute(context.Background(), &Input{Crop: " Wheat ", Location: "Ludhiana, Punjab"})
	require.NoError(t, err)

	assert.False(t, out.Cached)
	assert.Len(t, out.PredictedPrices, forecast.Days)
	assert.Equal(t, "wheat", out.CropKey)
	assert.Equal(t, "punjab", out.State)
	assert.Equal(t, "quintal", out.Unit)
	assert.Equal(t, out.PredictedPrices[0], out.StartPrice)
	assert.Equal(t, forecast.Trend(out.PctChange), out.Trend)
	assert.NotEmpty(t, mr.Keys())

	again, err := h.Execute(context.Background(), &Input{Crop: "Wheat", Location: "Ludhiana, Punjab"})
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, out.PredictedPrices, again.PredictedPrices)
}

func TestHandler_ExecuteOutputVariables(t *testing.T) {
	fc, _ := newCachedForecaster(t)
	h, err := NewHandler(LoadConfig(), fc, nil, logger.NewNoOpLogger())
	require.NoError(t, err)

	out, err := h.Execute(context.Background(), &Input{Crop: "onion", Location: "Nashik"})
	require.NoError(t, err)

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	var vars map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &vars))

	for _, key := range []string{"predicted_prices", "start_price", "end_price", "pct_change", "trend", "confidence_score", "cached"} {
		assert.Contains(t, vars, key)
	}
}

func TestHandler_ExecuteBlankInput(t *testing.T) {
	h, err := NewHandler(LoadConfig(), slowForecaster{}, nil, logger.NewNoOpLogger())
	require.NoError(t, err)

	_, err = h.Execute(context.Background(), &Input{Crop: "  ", Location: "Delhi"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.AsStandardError(err).Code)
}

func TestHandler_ExecuteTimeout(t *testing.T) {
	h, err := NewHandler(&Config{Timeout: 20 * time.Millisecond}, slowForecaster{}, nil, logger.NewNoOpLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = h.Execute(ctx, &Input{Crop: "rice", Location: "Cuttack"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeProcessingTimeout, errors.AsStandardError(err).Code)
}

func TestHandler_ExecuteForecastPanic(t *testing.T) {
	h, err := NewHandler(LoadConfig(), panickingForecaster{}, nil, logger.NewNoOpLogger())
	require.NoError(t, err)

	_, err = h.Execute(context.Background(), &Input{Crop: "wheat", Location: "Ludhiana"})
	require.Error(t, err)
	stdErr := errors.AsStandardError(err)
	assert.Equal(t, errors.ErrCodeForecastFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
	assert.Contains(t, stdErr.Details, "non-positive start price")
	assert.Equal(t, "wheat", stdErr.Metadata["crop"])
}

func TestParseInput(t *testing.T) {
	tests := []struct {
		name       string
		vars       map[string]interface{}
		wantCode   errors.ErrorCode
		wantFields []string
	}{
		{"valid", map[string]interface{}{"crop": "maize", "location": "Davangere", "farmerId": "f-1"}, "", nil},
		{"missing crop", map[string]interface{}{"location": "Delhi"}, errors.ErrCodeInvalidInput, []string{"crop"}},
		{"blank location", map[string]interface{}{"crop": "maize", "location": "   "}, errors.ErrCodeInvalidInput, []string{"location"}},
		{"wrong type", map[string]interface{}{"crop": 12, "location": "Delhi"}, errors.ErrCodeInvalidInput, []string{"crop"}},
		{"both missing", map[string]interface{}{}, errors.ErrCodeInvalidInput, []string{"crop", "location"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := parseInput(createMockJob(1, tt.vars))
			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.Equal(t, "maize", input.Crop)
				assert.Equal(t, "Davangere", input.Location)
				return
			}
			require.Error(t, err)
			stdErr := errors.AsStandardError(err)
			assert.Equal(t, tt.wantCode, stdErr.Code)
			assert.Equal(t, tt.wantFields, stdErr.Metadata["invalidFields"])
		})
	}
}

func TestParseInput_MalformedVariables(t *testing.T) {
	job := entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 1, Variables: "{not json"}}
	_, err := parseInput(job)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInputParseFailed, errors.AsStandardError(err).Code)
}

func TestDescribe(t *testing.T) {
	a := Describe(config.WorkerConfig{Enabled: true, Timeout: 10000, MaxRetries: 3})

	assert.Equal(t, TaskType, a.TaskType)
	assert.Equal(t, "10s", a.Timeout)
	assert.Equal(t, 3, a.Retries)
	assert.Contains(t, a.OutputKeys, "predicted_prices")
	assert.Contains(t, a.ErrorCodes, "INVALID_INPUT")
	assert.Contains(t, a.ErrorCodes, "FORECAST_FAILED")
	assert.Equal(t, []interface{}{"crop", "location"}, a.InputSchema["required"])
}
