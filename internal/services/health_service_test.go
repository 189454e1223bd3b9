package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nhsdash/internal/shared/testutil"
)

func TestHealthService_HealthCheck(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	reporter := new(MockDatasetReporter)
	reporter.On("Ready").Return(nil)
	reporter.On("Stats").Return(DatasetStats{Rows: 4, Providers: 3})

	hub := new(MockClientCounter)
	hub.On("ClientCount").Return(2)

	hs := NewHealthService("1.0.0", "", reporter, hub, logger)
	status := hs.HealthCheck(context.Background())

	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "1.0.0", status.Version)
	assert.Contains(t, status.Runtime, "goroutines")

	require.Contains(t, status.Components, "dataset")
	dataset := status.Components["dataset"]
	assert.Equal(t, StatusReady, dataset.Status)
	assert.Equal(t, "4 rows from 3 providers", dataset.Message)
	assert.Equal(t, DatasetStats{Rows: 4, Providers: 3}, dataset.Details)

	assert.Equal(t, map[string]int{"clients": 2}, status.Components["websocket"].Details)

	reporter.AssertExpectations(t)
	hub.AssertExpectations(t)
}

func TestHealthService_ReadinessCheck(t *testing.T) {
	tests := []struct {
		name       string
		readyErr   error
		wantStatus string
	}{
		{name: "dataset loaded", readyErr: nil, wantStatus: "ready"},
		{name: "dataset missing", readyErr: ErrDatasetNotLoaded, wantStatus: "not_ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, handler := testutil.NewTestLogger(t)

			reporter := new(MockDatasetReporter)
			reporter.On("Ready").Return(tt.readyErr)
			reporter.On("Stats").Return(DatasetStats{Rows: 4, Providers: 3}).Maybe()

			hs := NewHealthService("1.0.0", "", reporter, nil, logger)
			status := hs.ReadinessCheck(context.Background())

			assert.Equal(t, tt.wantStatus, status.Status)
			assert.Equal(t, tt.readyErr == nil, hs.IsReady(context.Background()))
			if tt.readyErr != nil {
				assert.True(t, handler.ContainsMessage("component not ready"))
				testutil.AssertLogAttr(t, handler, "component_name", "dataset")
			}
		})
	}
}

func TestHealthService_NoDataset(t *testing.T) {
	hs := NewHealthService("1.0.0", "", nil, nil, nil)

	assert.Equal(t, "degraded", hs.HealthCheck(context.Background()).Status)
	assert.Equal(t, "not_ready", hs.ReadinessCheck(context.Background()).Status)
}

func TestHealthService_LivenessAndVersion(t *testing.T) {
	hs := NewHealthService("1.0.0", "2026-01-01T00:00:00Z", nil, nil, nil)

	live := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", live.Status)
	assert.Contains(t, live.Runtime, "go_version")

	version := hs.Version()
	assert.Equal(t, "1.0.0", version["version"])
	assert.Equal(t, "2026-01-01T00:00:00Z", version["build_time"])
	assert.Contains(t, version, "os")
}
