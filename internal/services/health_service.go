package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"nhsdash/internal/infrastructure"
)

// Health states reported by HealthService.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
	StatusAlive    = "alive"
)

// DatasetReporter is the part of DashboardService the health checks need.
type DatasetReporter interface {
	Ready() error
	Stats() DatasetStats
}

// ClientCounter reports connected websocket clients.
type ClientCounter interface {
	ClientCount() int
}

// HealthStatus is the body of every health endpoint.
type HealthStatus struct {
	Status     string                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version"`
	Runtime    map[string]interface{}     `json:"runtime,omitempty"`
	Components map[string]ComponentHealth `json:"services,omitempty"`
}

// ComponentHealth is the state of one dependency.
type ComponentHealth struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// HealthService answers the health, readiness, liveness and version
// endpoints. The dashboard is ready once its dataset has loaded; websocket
// clients are reported but never make it unready.
type HealthService struct {
	version   string
	buildTime string
	dataset   DatasetReporter
	hub       ClientCounter
	started   time.Time
	logger    *slog.Logger
}

// NewHealthService creates a health service. dataset and hub may be nil.
func NewHealthService(version, buildTime string, dataset DatasetReporter, hub ClientCounter, logger *slog.Logger) *HealthService {
	return &HealthService{
		version:   version,
		buildTime: buildTime,
		dataset:   dataset,
		hub:       hub,
		started:   time.Now(),
		logger:    infrastructure.WithComponent(logger, "health_service"),
	}
}

func (hs *HealthService) components() map[string]ComponentHealth {
	return map[string]ComponentHealth{
		"dataset":   hs.datasetHealth(),
		"websocket": hs.websocketHealth(),
	}
}

// HealthCheck reports "ok", or "degraded" while the dataset is unavailable,
// with runtime statistics.
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     StatusOK,
		Timestamp:  time.Now(),
		Version:    hs.version,
		Runtime:    infrastructure.CollectSystemStats(hs.started).FormatStats(),
		Components: hs.components(),
	}
	if status.Components["dataset"].Status != StatusReady {
		status.Status = StatusDegraded
	}

	hs.logger.DebugContext(ctx, "health check", slog.String("status", status.Status))
	return status
}

// ReadinessCheck reports "ready" when every component is ready.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     StatusReady,
		Timestamp:  time.Now(),
		Version:    hs.version,
		Components: hs.components(),
	}
	for name, c := range status.Components {
		if c.Status == StatusReady {
			continue
		}
		status.Status = StatusNotReady
		hs.logger.WarnContext(ctx, "component not ready",
			slog.String("component_name", name),
			slog.String("message", c.Message))
	}
	return status
}

// IsReady reports whether ReadinessCheck would answer "ready".
func (hs *HealthService) IsReady(ctx context.Context) bool {
	return hs.ReadinessCheck(ctx).Status == StatusReady
}

// LivenessCheck always reports "alive".
func (hs *HealthService) LivenessCheck(context.Context) HealthStatus {
	return HealthStatus{
		Status:    StatusAlive,
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.started).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version describes the running build.
func (hs *HealthService) Version() map[string]interface{} {
	v := map[string]interface{}{
		"version":    hs.version,
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"start_time": hs.started.Format(time.RFC3339),
		"uptime":     time.Since(hs.started).Seconds(),
	}
	if hs.buildTime != "" {
		v["build_time"] = hs.buildTime
	}
	return v
}

func (hs *HealthService) datasetHealth() ComponentHealth {
	if hs.dataset == nil {
		return ComponentHealth{Status: StatusNotReady, Message: ErrDatasetNotLoaded.Error()}
	}
	if err := hs.dataset.Ready(); err != nil {
		return ComponentHealth{Status: StatusNotReady, Message: err.Error()}
	}
	stats := hs.dataset.Stats()
	return ComponentHealth{
		Status:  StatusReady,
		Message: fmt.Sprintf("%d rows from %d providers", stats.Rows, stats.Providers),
		Details: stats,
	}
}

func (hs *HealthService) websocketHealth() ComponentHealth {
	h := ComponentHealth{Status: StatusReady}
	if hs.hub != nil {
		h.Details = map[string]int{"clients": hs.hub.ClientCount()}
	}
	return h
}
