// Package errors maps worker failures to Zeebe job outcomes.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode is an internal error code. BPMN error codes use the same strings.
type ErrorCode string

const (
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrCodeUnsupportedCrop  ErrorCode = "UNSUPPORTED_CROP"
	ErrCodeInputParseFailed ErrorCode = "INPUT_PARSE_FAILED"

	ErrCodeForecastFailed       ErrorCode = "FORECAST_FAILED"
	ErrCodeRecommendationFailed ErrorCode = "RECOMMENDATION_FAILED"
	ErrCodeProcessingTimeout    ErrorCode = "PROCESSING_TIMEOUT"

	ErrCodeCacheUnavailable        ErrorCode = "CACHE_UNAVAILABLE"
	ErrCodeReferenceDataLoadFailed ErrorCode = "REFERENCE_DATA_LOAD_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeBrokerUnavailable ErrorCode = "BROKER_UNAVAILABLE"
	ErrCodeBrokerRejected    ErrorCode = "BROKER_REJECTED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key to the error and returns it.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// BPMNError is the error thrown into the process instance.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns the process variables set with the error.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Job input failed validation", details, false, nil)
}

func NewInputParseError(err error) *StandardError {
	return newError(ErrCodeInputParseFailed, "Job variables could not be parsed", err.Error(), false, err)
}

func NewUnsupportedCropError(crop string) *StandardError {
	return newError(ErrCodeUnsupportedCrop, "Crop is not supported",
		fmt.Sprintf("crop: %s", crop), false, nil)
}

func NewForecastFailedError(err error) *StandardError {
	return newError(ErrCodeForecastFailed, "Price forecast failed", err.Error(), true, err)
}

func NewRecommendationFailedError(err error) *StandardError {
	return newError(ErrCodeRecommendationFailed, "Market recommendation failed", err.Error(), true, err)
}

func NewProcessingTimeoutError(taskType string) *StandardError {
	return newError(ErrCodeProcessingTimeout, "Job processing timed out",
		fmt.Sprintf("taskType: %s", taskType), true, nil)
}

// NewCacheUnavailableError is logged, never thrown; the cache is optional.
func NewCacheUnavailableError(err error) *StandardError {
	return newError(ErrCodeCacheUnavailable, "Forecast cache unavailable", err.Error(), true, err)
}

func NewReferenceDataLoadFailedError(err error) *StandardError {
	return newError(ErrCodeReferenceDataLoadFailed, "Market reference data could not be loaded", err.Error(), true, err)
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("channel: %s, error: %s", channel, err.Error()), true, err)
}

func NewBrokerUnavailableError(operation string, err error) *StandardError {
	return newError(ErrCodeBrokerUnavailable, "Zeebe gateway unavailable",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true, err)
}

func NewBrokerRejectedError(operation string, err error) *StandardError {
	return newError(ErrCodeBrokerRejected, "Zeebe gateway rejected the command",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), false, err)
}

// GetRetryCount returns how many times a code should be retried.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeForecastFailed,
		ErrCodeRecommendationFailed,
		ErrCodeReferenceDataLoadFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeBrokerUnavailable:
		return 3
	case ErrCodeProcessingTimeout, ErrCodeCacheUnavailable:
		return 2
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// AsStandardError unwraps err to a StandardError, or wraps it as INTERNAL_ERROR.
func AsStandardError(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false, err)
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory groups codes for dashboards.
func GetErrorCategory(code ErrorCode) string {
	s := string(code)
	switch {
	case strings.Contains(s, "INPUT") || strings.Contains(s, "CROP"):
		return "VALIDATION"
	case strings.Contains(s, "FORECAST") || strings.Contains(s, "RECOMMENDATION"):
		return "ENGINE"
	case strings.Contains(s, "CACHE") || strings.Contains(s, "REFERENCE_DATA"):
		return "STORAGE"
	case strings.Contains(s, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(s, "BROKER"):
		return "BROKER"
	case strings.Contains(s, "TIMEOUT"):
		return "TIMEOUT"
	default:
		return "OTHER"
	}
}
