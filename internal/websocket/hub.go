package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"nhsdash/internal/dashboard"
	"nhsdash/internal/dataset"
	"nhsdash/internal/infrastructure"
)

// HubStats are the hub's lifetime counters.
type HubStats struct {
	Clients      int   `json:"active_clients"`
	Connections  int64 `json:"total_connections"`
	Sent         int64 `json:"messages_sent"`
	Received     int64 `json:"messages_received"`
	RenderErrors int64 `json:"render_errors"`
}

// Hub tracks connected dashboard clients and answers their view
// selections. Only the Run loop adds clients, removes them, or closes
// their send channels.
type Hub struct {
	renderer ViewRenderer
	metrics  *infrastructure.BusinessMetrics
	logger   *slog.Logger

	mu      sync.RWMutex
	clients map[*Client]struct{}

	joins  chan *Client
	leaves chan *Client
	notify chan []byte

	connections  atomic.Int64
	sent         atomic.Int64
	received     atomic.Int64
	renderErrors atomic.Int64

	lifecycle sync.Mutex
	running   bool
	stopped   bool
	quit      chan struct{}
	done      chan struct{}
}

// NewHub creates a hub that renders selections with renderer. metrics may
// be nil.
func NewHub(renderer ViewRenderer, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *Hub {
	return &Hub{
		renderer: renderer,
		metrics:  metrics,
		logger:   infrastructure.WithComponent(logger, "websocket.hub"),
		clients:  make(map[*Client]struct{}),
		joins:    make(chan *Client),
		leaves:   make(chan *Client),
		notify:   make(chan []byte, 16),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the hub loop in the background. Starting a running or
// stopped hub does nothing.
func (h *Hub) Start() {
	h.lifecycle.Lock()
	defer h.lifecycle.Unlock()
	if h.running || h.stopped {
		return
	}
	h.running = true
	go h.Run()
}

// Run is the hub loop. It returns after Stop, having closed every
// client's send channel.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.quit:
			h.dropAll()
			h.logger.Info("hub stopped")
			return
		case c := <-h.joins:
			h.add(c)
		case c := <-h.leaves:
			h.remove(c)
		case msg := <-h.notify:
			h.fanOut(msg)
		}
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.connections.Add(1)

	ctx := c.context()
	h.metrics.RecordWebSocketClient(ctx, 1)
	h.logger.InfoContext(ctx, "client connected",
		slog.String("client_id", c.id),
		slog.String("remote_addr", c.remoteAddr),
		slog.Int("clients", n))

	h.send(c, ConnectionMessage{
		Type:      TypeConnection,
		Status:    "connected",
		Message:   "Connected to dashboard updates",
		ClientID:  c.id,
		TraceID:   c.traceID,
		Timestamp: timestamp(),
	})
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	if !ok {
		return
	}
	c.closeSend()

	ctx := c.context()
	h.metrics.RecordWebSocketClient(ctx, -1)
	h.logger.InfoContext(ctx, "client disconnected",
		slog.String("client_id", c.id),
		slog.Int("clients", n),
		slog.Duration("connected_for", time.Since(c.connectedAt)))
}

func (h *Hub) dropAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.closeSend()
		delete(h.clients, c)
	}
}

func (h *Hub) fanOut(msg []byte) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	dropped := 0
	for _, c := range targets {
		if c.enqueue(msg) {
			h.sent.Add(1)
		} else {
			dropped++
		}
	}
	if dropped > 0 {
		h.logger.Warn("broadcast dropped for slow clients",
			slog.Int("clients", len(targets)),
			slog.Int("dropped", dropped))
	}
}

// Register hands a client to the hub loop. It returns false once the hub
// has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.joins <- c:
		return true
	case <-h.quit:
		return false
	}
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.leaves <- c:
	case <-h.quit:
	}
}

// BroadcastStatus queues a status notice for every connected client. It
// never blocks on a hub that is not running.
func (h *Hub) BroadcastStatus(status, message string) {
	data, err := json.Marshal(StatusMessage{
		Type:      TypeStatus,
		Status:    status,
		Message:   message,
		Timestamp: timestamp(),
	})
	if err != nil {
		h.logger.Error("failed to encode status", slog.String("error", err.Error()))
		return
	}

	select {
	case h.notify <- data:
	case <-h.quit:
	default:
		h.logger.Warn("status notice dropped, hub backlog full", slog.String("status", status))
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats returns a snapshot of the hub counters.
func (h *Hub) Stats() HubStats {
	return HubStats{
		Clients:      h.ClientCount(),
		Connections:  h.connections.Load(),
		Sent:         h.sent.Load(),
		Received:     h.received.Load(),
		RenderErrors: h.renderErrors.Load(),
	}
}

// Stop ends the hub loop and waits until it has closed every client.
// It may be called more than once.
func (h *Hub) Stop() {
	h.lifecycle.Lock()
	if h.stopped {
		h.lifecycle.Unlock()
		return
	}
	h.stopped = true
	wasRunning := h.running
	h.running = false
	h.lifecycle.Unlock()

	close(h.quit)
	if wasRunning {
		<-h.done
	}
}

// handleMessage answers one frame read from c.
func (h *Hub) handleMessage(ctx context.Context, c *Client, raw []byte) {
	h.received.Add(1)

	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.logger.WarnContext(ctx, "undecodable client message",
			slog.String("client_id", c.id),
			slog.String("error", err.Error()))
		h.send(c, ErrorMessage{Type: TypeError, Message: "invalid message: expected JSON", Timestamp: timestamp()})
		return
	}

	switch msg.Type {
	case TypeHeartbeat:
		c.logger.DebugContext(ctx, "heartbeat")
	case TypeSelect:
		h.handleSelect(ctx, c, msg)
	default:
		h.send(c, ErrorMessage{
			Type:      TypeError,
			Message:   "unsupported message type: " + msg.Type,
			Timestamp: timestamp(),
		})
	}
}

// handleSelect renders the selected view for the selected provider,
// defaulting either when blank.
func (h *Hub) handleSelect(ctx context.Context, c *Client, msg ClientMessage) {
	view, provider := msg.View, msg.Provider
	if view == "" {
		view = dashboard.DefaultView
	}
	if provider == "" {
		provider = dataset.AllProviders
	}

	rendered, err := h.renderer.RenderView(ctx, view, provider)
	if err == nil {
		h.send(c, ViewMessage{
			Type:      TypeView,
			View:      view,
			Provider:  provider,
			Artifact:  rendered.Artifact,
			HTML:      string(rendered.HTML),
			Timestamp: timestamp(),
		})
		return
	}

	h.renderErrors.Add(1)
	text := "Unknown view: " + view
	if !errors.Is(err, dashboard.ErrUnknownView) {
		text = "failed to render view"
		h.logger.ErrorContext(ctx, "view rendering failed",
			slog.String("client_id", c.id),
			slog.String("view", view),
			slog.String("provider", provider),
			slog.String("error", err.Error()))
	}
	h.send(c, ErrorMessage{
		Type:      TypeError,
		Message:   text,
		View:      view,
		Provider:  provider,
		Timestamp: timestamp(),
	})
}

// send encodes v and queues it for c, dropping it if c's buffer is full
// or closed.
func (h *Hub) send(c *Client, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("failed to encode message",
			slog.String("client_id", c.id),
			slog.String("error", err.Error()))
		return
	}

	if !c.enqueue(data) {
		h.logger.Warn("client buffer full or closed, message dropped",
			slog.String("client_id", c.id))
		return
	}
	h.sent.Add(1)
}
