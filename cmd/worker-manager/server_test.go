package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropsense-workers/pkg/registry"
)

func TestHTTPHandler(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name       string
		path       string
		checks     map[string]readinessCheck
		model      bool
		wantStatus int
		wantSource string
	}{
		{"health", "/health", nil, false, http.StatusOK, ""},
		{"ready with model", "/ready", map[string]readinessCheck{"zeebe": ok, "redis": ok}, true, http.StatusOK, "model"},
		{"ready on formula", "/ready", map[string]readinessCheck{"zeebe": ok}, false, http.StatusOK, "formula"},
		{"not ready", "/ready", map[string]readinessCheck{"zeebe": down, "redis": ok}, true, http.StatusServiceUnavailable, "model"},
		{"metrics", "/metrics", nil, false, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHTTPHandler(tt.checks, func() bool { return tt.model }, &registry.ActivityRegistry{})
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantSource == "" {
				return
			}
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantSource, body["priceSource"])
			if tt.wantStatus != http.StatusOK {
				deps := body["dependencies"].(map[string]interface{})
				assert.Equal(t, "connection refused", deps["zeebe"])
				assert.Equal(t, "ok", deps["redis"])
			}
		})
	}
}

func TestHTTPHandler_Registry(t *testing.T) {
	reg, err := registry.New("1.0.0", registry.Activity{ID: "market.recommend-mandi", TaskType: "recommend-mandi", Enabled: true})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	newHTTPHandler(nil, func() bool { return true }, reg).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/registry", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got registry.ActivityRegistry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Activities, 1)
	assert.Equal(t, "recommend-mandi", got.Activities[0].TaskType)
}

func TestHTTPHandler_RegistryLookup(t *testing.T) {
	reg, err := registry.New("1.0.0",
		registry.Activity{ID: "market.forecast-crop-price", TaskType: "forecast-crop-price", Retries: 3},
		registry.Activity{ID: "market.recommend-mandi", TaskType: "recommend-mandi", Retries: 3},
	)
	require.NoError(t, err)
	h := newHTTPHandler(nil, func() bool { return true }, reg)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantID     string
	}{
		{"known task type", "/registry?taskType=recommend-mandi", http.StatusOK, "market.recommend-mandi"},
		{"unknown task type", "/registry?taskType=send-email", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantID == "" {
				return
			}
			var got registry.Activity
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.wantID, got.ID)
			assert.Equal(t, 3, got.Retries)
		})
	}
}
