package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	cause := stderrors.New("boom")

	tests := []struct {
		name      string
		err       *StandardError
		code      ErrorCode
		retryable bool
		retries   int
		category  string
	}{
		{"invalid input", NewInvalidInputError("crop: required"), ErrCodeInvalidInput, false, 0, "VALIDATION"},
		{"parse", NewInputParseError(cause), ErrCodeInputParseFailed, false, 0, "VALIDATION"},
		{"unsupported crop", NewUnsupportedCropError("dragonfruit"), ErrCodeUnsupportedCrop, false, 0, "VALIDATION"},
		{"forecast", NewForecastFailedError(cause), ErrCodeForecastFailed, true, 3, "ENGINE"},
		{"recommendation", NewRecommendationFailedError(cause), ErrCodeRecommendationFailed, true, 3, "ENGINE"},
		{"timeout", NewProcessingTimeoutError("recommend-mandi"), ErrCodeProcessingTimeout, true, 2, "TIMEOUT"},
		{"cache", NewCacheUnavailableError(cause), ErrCodeCacheUnavailable, true, 2, "STORAGE"},
		{"refdata", NewReferenceDataLoadFailedError(cause), ErrCodeReferenceDataLoadFailed, true, 3, "STORAGE"},
		{"sms", NewNotificationSendFailedError("sms", cause), ErrCodeNotificationSendFailed, true, 3, "NOTIFICATION"},
		{"broker down", NewBrokerUnavailableError("topology", cause), ErrCodeBrokerUnavailable, true, 3, "BROKER"},
		{"broker rejected", NewBrokerRejectedError("complete", cause), ErrCodeBrokerRejected, false, 0, "BROKER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.retryable, tt.err.Retryable)
			assert.False(t, tt.err.Timestamp.IsZero())
			assert.Equal(t, tt.category, GetErrorCategory(tt.code))

			bpmn := ConvertToBPMNError(tt.err)
			assert.Equal(t, string(tt.code), bpmn.Code)
			assert.Equal(t, tt.retries, bpmn.Retries)
			assert.Equal(t, string(tt.code), bpmn.ErrorVariables["originalErrorCode"])
		})
	}
}

func TestStandardError_Unwrap(t *testing.T) {
	cause := stderrors.New("redis down")
	err := NewCacheUnavailableError(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "CACHE_UNAVAILABLE")
}

func TestAsStandardError(t *testing.T) {
	wrapped := fmt.Errorf("context: %w", NewUnsupportedCropError("kiwi"))
	assert.Equal(t, ErrCodeUnsupportedCrop, AsStandardError(wrapped).Code)

	plain := AsStandardError(stderrors.New("unexpected"))
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.False(t, plain.Retryable)
	assert.Equal(t, "unexpected", plain.Details)
}

func TestConvertToBPMNError_NonRetryableHasNoRetries(t *testing.T) {
	err := NewForecastFailedError(stderrors.New("x"))
	err.Retryable = false
	assert.Equal(t, 0, ConvertToBPMNError(err).Retries)
}

func TestBPMNError_Variables(t *testing.T) {
	stdErr := NewUnsupportedCropError("kiwi").WithMetadata("crop", "kiwi")
	vars := ConvertToBPMNError(stdErr).ToErrorVariables()

	require.Contains(t, vars, "crop")
	assert.Equal(t, "kiwi", vars["crop"])
	assert.Equal(t, "UNSUPPORTED_CROP", vars["errorCode"])
	assert.Equal(t, "Crop is not supported", vars["errorMessage"])
	assert.Equal(t, false, vars["retryable"])
}

func TestIsRetryableErrorCode(t *testing.T) {
	assert.True(t, IsRetryableErrorCode(ErrCodeForecastFailed))
	assert.False(t, IsRetryableErrorCode(ErrCodeInvalidInput))
	assert.False(t, IsRetryableErrorCode(ErrCodeInternal))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}
