package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration.
//
// Defaults live in Default. The envconfig tags carry no default values so
// that only variables actually present in the environment override the
// file and default layers.
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
	Dashboard DashboardConfig `yaml:"dashboard" envconfig:"DASHBOARD"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig holds listener and timeout settings.
type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"HOST"`
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// SecurityConfig covers CORS origins and request rate limiting.
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig is a token bucket shared by all clients.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig configures the application logger.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// PathsConfig locates the dataset. Relative paths resolve against the
// executable directory.
type PathsConfig struct {
	DataFile string `yaml:"data_file" envconfig:"DATA_FILE"`
}

// WebSocketConfig tunes the live view connection.
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT"`
	MaxMessageSize  int64         `yaml:"max_message_size" envconfig:"MAX_MESSAGE_SIZE"`
}

// DashboardConfig controls view rendering.
type DashboardConfig struct {
	CacheEnabled bool   `yaml:"cache_enabled" envconfig:"CACHE_ENABLED"`
	WarmCache    bool   `yaml:"warm_cache" envconfig:"WARM_CACHE"`
	ChartWidth   string `yaml:"chart_width" envconfig:"CHART_WIDTH"`
	ChartHeight  string `yaml:"chart_height" envconfig:"CHART_HEIGHT"`
	AssetsHost   string `yaml:"assets_host" envconfig:"ASSETS_HOST"`
}

// TelemetryConfig controls OpenTelemetry metrics and tracing.
type TelemetryConfig struct {
	Environment            string        `yaml:"environment" envconfig:"ENVIRONMENT"`
	EnableMetrics          bool          `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
	EnableTracing          bool          `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	TraceExporter          string        `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
	SampleRatio            float64       `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO"`
	RuntimeMetricsInterval time.Duration `yaml:"runtime_metrics_interval" envconfig:"RUNTIME_METRICS_INTERVAL"`
}

// Load builds the configuration from defaults, the optional config file
// and NHSDASH_* environment variables, in increasing precedence.
func Load() (*Config, error) {
	return LoadFile(getConfigFilePath())
}

// LoadFile is Load with an explicit config file. An empty path skips the
// file layer.
func LoadFile(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg. Keys absent from the file
// keep their current values.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// DataFilePath returns the resolved dataset path.
func (c *Config) DataFilePath() string {
	paths, err := GetPaths()
	if err != nil {
		return c.Paths.DataFile
	}
	return paths.Resolve(c.Paths.DataFile)
}

// LogFilePath returns the resolved log file path.
func (c *Config) LogFilePath() string {
	paths, err := GetPaths()
	if err != nil {
		return c.Logging.FilePath
	}
	return paths.Resolve(c.Logging.FilePath)
}

// validate normalizes the logging section and reports every invalid
// setting at once, so a broken deployment is fixed in one pass.
func (c *Config) validate() error {
	c.normalizeLogging()

	var errs []error
	check := func(ok bool, format string, args ...interface{}) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	srv := c.Server
	check(srv.Port > 0 && srv.Port <= 65535, "server.port %d out of range", srv.Port)
	check(srv.ReadTimeout > 0, "server.read_timeout must be positive")
	check(srv.WriteTimeout > 0, "server.write_timeout must be positive")
	check(srv.RequestTimeout >= 0, "server.request_timeout must not be negative")

	check(c.Paths.DataFile != "", "paths.data_file must be set")

	sec := c.Security
	check(!sec.EnableCORS || len(sec.AllowedOrigins) > 0,
		"security.allowed_origins must not be empty while CORS is enabled")
	check(!sec.RateLimit.Enabled || (sec.RateLimit.RPS > 0 && sec.RateLimit.Burst > 0),
		"security.rate_limit rps and burst must be positive")

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		check(false, "logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}

	check(c.Dashboard.ChartWidth != "" && c.Dashboard.ChartHeight != "",
		"dashboard chart width and height must be set")
	check(c.Telemetry.SampleRatio >= 0 && c.Telemetry.SampleRatio <= 1,
		"telemetry.sample_ratio %v outside [0, 1]", c.Telemetry.SampleRatio)

	return errors.Join(errs...)
}

// normalizeLogging replaces unknown formats and outputs with their
// defaults instead of failing.
func (c *Config) normalizeLogging() {
	lc := &c.Logging
	if lc.Format != "json" && lc.Format != "text" {
		lc.Format = DefaultLogFormat
	}
	switch lc.Output {
	case "console", "file", "both":
	default:
		lc.Output = "console"
	}
	if lc.Output != "console" && lc.FilePath == "" {
		lc.FilePath = DefaultLogFile
	}
}

// configFileCandidates are tried in order when NHSDASH_CONFIG_FILE is unset.
var configFileCandidates = []string{
	"config.yaml",
	"configs/config.yaml",
	"../configs/config.yaml",
}

// getConfigFilePath picks the config file, or "" to run on defaults and
// environment only.
func getConfigFilePath() string {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG_FILE"); explicit != "" {
		return explicit
	}
	for _, candidate := range configFileCandidates {
		if FileExists(candidate) {
			return candidate
		}
	}
	return ""
}

// Default is the configuration used when neither a file nor the
// environment sets a value.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            DefaultPort,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			RequestTimeout:  30 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8501", "http://127.0.0.1:8501"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   DefaultLogFormat,
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Paths: PathsConfig{
			DataFile: DefaultDataFile,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  WebSocketReadBufferSize,
			WriteBufferSize: WebSocketWriteBufferSize,
			PingPeriod:      WebSocketPingPeriod,
			PongWait:        WebSocketPongWait,
			MaxMessageSize:  WebSocketMaxMessageSize,
		},
		Dashboard: DashboardConfig{
			CacheEnabled: true,
			WarmCache:    true,
			ChartWidth:   "100%",
			ChartHeight:  "450px",
			AssetsHost:   DefaultChartAssetsHost,
		},
		Telemetry: TelemetryConfig{
			Environment:            "development",
			EnableMetrics:          true,
			EnableTracing:          false,
			TraceExporter:          "stdout",
			SampleRatio:            1.0,
			RuntimeMetricsInterval: 15 * time.Second,
		},
	}
}
