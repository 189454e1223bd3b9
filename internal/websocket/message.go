package websocket

import (
	"context"
	"time"

	"nhsdash/internal/dashboard"
	"nhsdash/internal/services"
)

// Message types
const (
	TypeConnection = "connection"
	TypeSelect     = "select"
	TypeHeartbeat  = "heartbeat"
	TypeView       = "view"
	TypeStatus     = "status"
	TypeError      = "error"
)

// ViewRenderer renders one dashboard selection. It is satisfied by
// services.DashboardService.
type ViewRenderer interface {
	RenderView(ctx context.Context, view, provider string) (services.RenderedView, error)
}

// ClientMessage is a message sent by the browser.
type ClientMessage struct {
	Type     string `json:"type"`
	View     string `json:"view,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// ConnectionMessage greets a newly registered client.
type ConnectionMessage struct {
	Type      string `json:"type"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	ClientID  string `json:"client_id"`
	TraceID   string `json:"trace_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

// ViewMessage carries a rendered selection back to the client.
type ViewMessage struct {
	Type      string             `json:"type"`
	View      string             `json:"view"`
	Provider  string             `json:"provider"`
	Artifact  dashboard.Artifact `json:"artifact"`
	HTML      string             `json:"html"`
	Timestamp string             `json:"timestamp"`
}

// StatusMessage announces a server state change to every client.
type StatusMessage struct {
	Type      string `json:"type"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// ErrorMessage reports a failed request.
type ErrorMessage struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	View      string `json:"view,omitempty"`
	Provider  string `json:"provider,omitempty"`
	Timestamp string `json:"timestamp"`
}

func timestamp() string {
	return time.Now().Format(time.RFC3339)
}
