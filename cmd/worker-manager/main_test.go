package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"staff-loans/internal/common/config"
	"staff-loans/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMux_Ready(t *testing.T) {
	healthy := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name       string
		checks     map[string]readinessCheck
		wantStatus int
		wantState  string
	}{
		{"all dependencies up", map[string]readinessCheck{"redis": healthy, "postgres": healthy}, http.StatusOK, "ready"},
		{"redis down", map[string]readinessCheck{"redis": down, "postgres": healthy}, http.StatusServiceUnavailable, "not ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newMux(tt.checks, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantState, body.Status)
			assert.Len(t, body.Checks, len(tt.checks))
		})
	}
}

func TestMux_HealthAndMetrics(t *testing.T) {
	mux := newMux(nil, []string{"compute-affordability"})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "compute-affordability")

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWorkerTimeout(t *testing.T) {
	cfg := &config.Config{Workers: map[string]config.WorkerConfig{
		"compute-affordability": {Enabled: true, Timeout: 2500},
	}}
	assert.Equal(t, 2500*time.Millisecond, workerTimeout(cfg, "compute-affordability", time.Second))
	assert.Equal(t, time.Second, workerTimeout(cfg, "resume-loan-position", time.Second))
}

func TestRetryWithBackoff(t *testing.T) {
	attempts := 0
	err := retryWithBackoff(func() error {
		attempts++
		if attempts < 2 {
			return errors.New("not yet")
		}
		return nil
	}, 3, time.Millisecond, logger.NewTestLogger(t), "probe")
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)

	err = retryWithBackoff(func() error { return errors.New("down") }, 2, time.Millisecond, logger.NewNoOpLogger(), "probe")
	assert.ErrorContains(t, err, "probe failed after 2 attempts")
}
