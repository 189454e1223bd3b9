package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths holds the two directories relative paths are resolved against.
type Paths struct {
	WorkingDir    string
	ExecutableDir string
}

// GetPaths resolves the working and executable directories.
func GetPaths() (*Paths, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}

	// Resolve symlinks to get the actual executable location
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}

	return &Paths{WorkingDir: wd, ExecutableDir: filepath.Dir(exe)}, nil
}

// Resolve maps a configured path to an absolute one. Absolute paths are
// returned cleaned. A relative path that exists under the working
// directory wins; otherwise one that exists next to the executable;
// otherwise the working-directory form is returned so callers report a
// path the user recognises.
func (p *Paths) Resolve(path string) string {
	if path == "" {
		return ""
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}

	fromWD := filepath.Join(p.WorkingDir, path)
	if FileExists(fromWD) {
		return fromWD
	}
	if p.ExecutableDir != "" {
		fromExe := filepath.Join(p.ExecutableDir, path)
		if FileExists(fromExe) {
			return fromExe
		}
	}
	return fromWD
}

// EnsureDirectories creates the directories holding each of files.
func (p *Paths) EnsureDirectories(files ...string) error {
	for _, f := range files {
		if f == "" {
			continue
		}
		dir := filepath.Dir(p.Resolve(f))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// LogPathResolution logs where the configured files resolved to.
func (p *Paths) LogPathResolution(logger *slog.Logger, cfg *Config) {
	if logger == nil {
		return
	}
	data := p.Resolve(cfg.Paths.DataFile)
	logger.Info("path resolution summary",
		slog.Group("directories",
			slog.String("working", p.WorkingDir),
			slog.String("executable", p.ExecutableDir),
		),
		slog.Group("files",
			slog.String("data", data),
			slog.Bool("data_exists", FileExists(data)),
			slog.String("log", p.Resolve(cfg.Logging.FilePath)),
		))
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
