package infrastructure

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"nhsdash/internal/config"
)

// Values of LoggingConfig.Output.
const (
	OutputConsole = "console"
	OutputFile    = "file"
	OutputBoth    = "both"
)

var (
	appLogger *slog.Logger
	logOnce   sync.Once

	logFileMu sync.Mutex
	logFile   *os.File
)

// InitializeLogger builds the application logger from cfg, writing the
// console side to stdout, and installs it as slog's default. Later calls
// return the first logger unchanged.
func InitializeLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	var err error
	logOnce.Do(func() {
		appLogger, err = NewLogger(cfg, os.Stdout)
		if appLogger != nil {
			slog.SetDefault(appLogger)
		}
	})
	return appLogger, err
}

// GetLogger returns the application logger, or slog's default before
// InitializeLogger has run.
func GetLogger() *slog.Logger {
	if appLogger == nil {
		return slog.Default()
	}
	return appLogger
}

// NewLogger builds a JSON (or, with Format "text", logfmt) logger whose
// records carry the context's trace_id.
func NewLogger(cfg config.LoggingConfig, console io.Writer) (*slog.Logger, error) {
	out, err := logWriter(cfg, console)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{
		AddSource: cfg.Development,
		Level:     parseLogLevel(cfg.Level),
	}

	var h slog.Handler = slog.NewJSONHandler(out, opts)
	if strings.EqualFold(cfg.Format, "text") {
		h = slog.NewTextHandler(out, opts)
	}
	return slog.New(traceHandler{h}), nil
}

func logWriter(cfg config.LoggingConfig, console io.Writer) (io.Writer, error) {
	output := strings.ToLower(cfg.Output)
	if output != OutputFile && output != OutputBoth {
		return console, nil
	}

	f, err := openLogFile(cfg.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	if output == OutputFile {
		return f, nil
	}
	return io.MultiWriter(console, f), nil
}

// parseLogLevel accepts slog's level names in any case, plus "warning".
// Anything else is info.
func parseLogLevel(name string) slog.Level {
	if strings.EqualFold(name, "warning") {
		return slog.LevelWarn
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// openLogFile appends to path, creating its directory. The file replaces
// any previously opened one, which is closed.
func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}

	logFileMu.Lock()
	prev := logFile
	logFile = f
	logFileMu.Unlock()

	if prev != nil {
		prev.Close()
	}
	return f, nil
}

// CloseLogFile closes the log file opened by the last file-backed logger.
// It is safe to call when none is open.
func CloseLogFile() error {
	logFileMu.Lock()
	defer logFileMu.Unlock()

	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// ResetLoggerForTesting forgets the application logger so the next
// InitializeLogger builds a new one.
func ResetLoggerForTesting() {
	CloseLogFile()
	appLogger = nil
	logOnce = sync.Once{}
}
