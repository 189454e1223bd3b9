package config

import "time"

// Application constants
const (
	// Application Info
	AppName     = "NHS Patient Wait Time Dashboard"
	AppSubtitle = "Analyzing and optimizing patient wait times across NHS facilities to improve efficiency and patient outcomes."
	AppVersion  = "1.0.0"
	ServiceName = "nhsdash"

	// EnvPrefix namespaces every environment variable, e.g. NHSDASH_SERVER_PORT.
	EnvPrefix = "NHSDASH"

	// Server
	DefaultPort = 8501

	// Rate Limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	// WebSocket
	WebSocketPingPeriod      = 30 * time.Second
	WebSocketPongWait        = 60 * time.Second
	WebSocketReadBufferSize  = 1024
	WebSocketWriteBufferSize = 1024
	WebSocketMaxMessageSize  = 4096

	// File Paths (relative to the working directory, then the executable)
	DefaultDataFile = "NHS Calls.csv"
	DefaultLogFile  = "logs/nhsdash.log"

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// Charts
	DefaultChartAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"
)

// API endpoints
const (
	DashboardEndpoint = "/api/dashboard"
	HealthEndpoint    = "/api/health"
	VersionEndpoint   = "/api/version"
	MetricsEndpoint   = "/metrics"
	WebSocketEndpoint = "/ws"
)
