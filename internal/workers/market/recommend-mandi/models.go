// internal/workers/market/recommend-mandi/models.go
package recommendmandi

import (
	"cropsense-workers/internal/common/config"
	"cropsense-workers/internal/common/errors"
	"cropsense-workers/internal/common/validation"
	"cropsense-workers/internal/market/recommend"
	"cropsense-workers/pkg/registry"
)

type Input struct {
	Crop        string `json:"crop"`
	Location    string `json:"location"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

type Output struct {
	*recommend.Result
	ForecastCached bool `json:"forecastCached"`
	SMSSent        bool `json:"smsSent"`
}

const (
	nonBlank    = `\S`
	e164Pattern = `^\+[1-9][0-9]{7,14}$`
)

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:                 "object",
		Required:             []string{"crop", "location"},
		AdditionalProperties: true,
		Properties: map[string]validation.Property{
			"crop": {
				Type:      "string",
				MinLength: validation.IntPtr(1),
				MaxLength: validation.IntPtr(64),
				Pattern:   validation.StringPtr(nonBlank),
			},
			"location": {
				Type:      "string",
				MinLength: validation.IntPtr(1),
				MaxLength: validation.IntPtr(128),
				Pattern:   validation.StringPtr(nonBlank),
			},
			"phoneNumber": {
				Type:        "string",
				Description: "E.164 number that receives the SMS alert",
				Pattern:     validation.StringPtr(e164Pattern),
			},
		},
	}
}

// Describe returns the registry entry for this worker.
func Describe(wcfg config.WorkerConfig) registry.Activity {
	schema, _ := registry.SchemaMap(GetInputSchema())
	return registry.Activity{
		ID:          "market." + TaskType,
		DisplayName: "Recommend mandi",
		Description: "Ranks nearby mandis by net price, distance, tier and demand",
		Category:    "market",
		TaskType:    TaskType,
		InputSchema: schema,
		OutputKeys: []string{
			"best_mandi", "best_mandi_state", "distance_km", "predicted_price", "net_price", "transport_cost",
			"expected_profit_per_qt", "confidence", "confidence_pct", "explanation", "top_mandis", "smsSent",
		},
		ErrorCodes: codeStrings(
			errors.ErrCodeInvalidInput, errors.ErrCodeInputParseFailed, errors.ErrCodeUnsupportedCrop,
			errors.ErrCodeRecommendationFailed, errors.ErrCodeProcessingTimeout,
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
