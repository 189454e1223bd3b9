package main

import (
	"embed"
	"io/fs"
	"log/slog"
	"os"

	"nhsdash/internal/app"
)

// Dashboard script and stylesheet, served under /static.
//
//go:embed all:frontend/*
var frontendFiles embed.FS

func main() {
	assets, err := frontendFS(frontendFiles)
	if err != nil {
		slog.Warn("Frontend embedding failed, static assets disabled", slog.String("error", err.Error()))
	}

	application, err := app.NewApplication(assets)
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// frontendFS roots files at frontend/ and checks the dashboard script is
// present.
func frontendFS(files fs.FS) (fs.FS, error) {
	sub, err := fs.Sub(files, "frontend")
	if err != nil {
		return nil, err
	}
	if _, err := fs.Stat(sub, "static/dashboard.js"); err != nil {
		return nil, err
	}
	return sub, nil
}
