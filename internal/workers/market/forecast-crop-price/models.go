// internal/workers/market/forecast-crop-price/models.go
package forecastcropprice

import (
	"cropsense-workers/internal/common/config"
	"cropsense-workers/internal/common/errors"
	"cropsense-workers/internal/common/validation"
	"cropsense-workers/internal/market/forecast"
	"cropsense-workers/pkg/registry"
)

type Input struct {
	Crop     string `json:"crop"`
	Location string `json:"location"`
}

// Output is the forecast payload plus whether it was served from the cache.
type Output struct {
	forecast.Result
	Cached bool `json:"cached"`
}

const nonBlank = `\S`

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:                 "object",
		Required:             []string{"crop", "location"},
		AdditionalProperties: true,
		Properties: map[string]validation.Property{
			"crop": {
				Type:        "string",
				Description: "Crop name as typed by the farmer",
				MinLength:   validation.IntPtr(1),
				MaxLength:   validation.IntPtr(64),
				Pattern:     validation.StringPtr(nonBlank),
			},
			"location": {
				Type:        "string",
				Description: "Free-text location, e.g. \"Ludhiana, Punjab\"",
				MinLength:   validation.IntPtr(1),
				MaxLength:   validation.IntPtr(128),
				Pattern:     validation.StringPtr(nonBlank),
			},
		},
	}
}

// Describe returns the registry entry for this worker.
func Describe(wcfg config.WorkerConfig) registry.Activity {
	schema, _ := registry.SchemaMap(GetInputSchema())
	return registry.Activity{
		ID:          "market." + TaskType,
		DisplayName: "Forecast crop price",
		Description: "14-day mandi price forecast for a crop at a location",
		Category:    "market",
		TaskType:    TaskType,
		InputSchema: schema,
		OutputKeys: []string{
			"predicted_prices", "start_price", "end_price", "pct_change", "trend", "confidence_score", "cached",
		},
		ErrorCodes: codeStrings(
			errors.ErrCodeInvalidInput, errors.ErrCodeInputParseFailed, errors.ErrCodeForecastFailed, errors.ErrCodeProcessingTimeout,
		),
		Timeout: config.GetDuration(wcfg.Timeout).String(),
		Retries: wcfg.MaxRetries,
		Enabled: wcfg.Enabled,
	}
}

func codeStrings(codes ...errors.ErrorCode) []string {
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = string(c)
	}
	return out
}
