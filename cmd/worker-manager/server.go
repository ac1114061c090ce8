package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cropsense-workers/pkg/registry"
)

type readinessCheck func(ctx context.Context) error

// newHTTPHandler serves /health, /ready, /registry and /metrics. /ready
// fails when any dependency check fails; the price model state is reported
// but optional. /registry?taskType=x returns a single activity.
func newHTTPHandler(checks map[string]readinessCheck, modelActive func() bool, reg *registry.ActivityRegistry) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		names := make([]string, 0, len(checks))
		for name := range checks {
			names = append(names, name)
		}
		sort.Strings(names)

		status := http.StatusOK
		deps := make(map[string]string, len(checks))
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				deps[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			deps[name] = "ok"
		}

		mode := "formula"
		if modelActive() {
			mode = "model"
		}
		body := map[string]interface{}{
			"status":       "ready",
			"dependencies": deps,
			"priceSource":  mode,
		}
		if status != http.StatusOK {
			body["status"] = "not ready"
		}
		writeJSON(w, status, body)
	})

	mux.HandleFunc("/registry", func(w http.ResponseWriter, r *http.Request) {
		taskType := r.URL.Query().Get("taskType")
		if taskType == "" {
			writeJSON(w, http.StatusOK, reg)
			return
		}
		a, ok := reg.Find(taskType)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]interface{}{"error": "unknown task type", "taskType": taskType})
			return
		}
		writeJSON(w, http.StatusOK, a)
	})

	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
