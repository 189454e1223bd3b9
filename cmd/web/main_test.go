package main

import (
	"embed"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/frontend/*
var testFrontendFiles embed.FS

func TestFrontendFS(t *testing.T) {
	tests := []struct {
		name    string
		files   fs.FS
		wantErr bool
	}{
		{
			name:  "embedded frontend",
			files: frontendFiles,
		},
		{
			name: "test frontend",
			files: func() fs.FS {
				sub, err := fs.Sub(testFrontendFiles, "testdata")
				require.NoError(t, err)
				return sub
			}(),
		},
		{
			name:    "missing script",
			files:   fstest.MapFS{"frontend/static/dashboard.css": &fstest.MapFile{Data: []byte("body{}")}},
			wantErr: true,
		},
		{
			name:    "empty",
			files:   fstest.MapFS{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, err := frontendFS(tt.files)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, sub)
				return
			}
			require.NoError(t, err)

			data, err := fs.ReadFile(sub, "static/dashboard.js")
			require.NoError(t, err)
			assert.NotEmpty(t, data)
		})
	}
}

func TestEmbeddedAssets(t *testing.T) {
	sub, err := frontendFS(frontendFiles)
	require.NoError(t, err)

	css, err := fs.ReadFile(sub, "static/dashboard.css")
	require.NoError(t, err)
	assert.Contains(t, string(css), "#content")

	js, err := fs.ReadFile(sub, "static/dashboard.js")
	require.NoError(t, err)
	assert.Contains(t, string(js), `type: "select"`)
	assert.Contains(t, string(js), "data-option")
}
