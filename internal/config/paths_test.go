package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nhsdash/internal/shared/testutil"
)

func TestGetPaths(t *testing.T) {
	paths, err := GetPaths()
	require.NoError(t, err)

	wd, _ := os.Getwd()
	assert.Equal(t, wd, paths.WorkingDir)
	assert.True(t, filepath.IsAbs(paths.ExecutableDir))
}

func TestPathsResolve(t *testing.T) {
	wd := t.TempDir()
	exe := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(wd, "here.csv"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(exe, "there.csv"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(exe, "here.csv"), nil, 0o644))

	p := &Paths{WorkingDir: wd, ExecutableDir: exe}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "absolute", in: filepath.Join(exe, "x", "..", "abs.csv"), want: filepath.Join(exe, "abs.csv")},
		{name: "working dir wins", in: "here.csv", want: filepath.Join(wd, "here.csv")},
		{name: "executable dir fallback", in: "there.csv", want: filepath.Join(exe, "there.csv")},
		{name: "missing reports working dir", in: "NHS Calls.csv", want: filepath.Join(wd, "NHS Calls.csv")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Resolve(tt.in))
		})
	}
}

func TestEnsureDirectories(t *testing.T) {
	wd := t.TempDir()
	p := &Paths{WorkingDir: wd}

	require.NoError(t, p.EnsureDirectories("logs/nhsdash.log", "", "nested/deeper/file.txt"))

	assert.DirExists(t, filepath.Join(wd, "logs"))
	assert.DirExists(t, filepath.Join(wd, "nested", "deeper"))
}

func TestLogPathResolution(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	p := &Paths{WorkingDir: t.TempDir()}

	p.LogPathResolution(logger, Default())
	p.LogPathResolution(nil, Default())

	assert.True(t, handler.ContainsMessage("path resolution summary"))
	assert.Equal(t, 1, handler.Count())
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "present.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	assert.True(t, FileExists(file))
	assert.True(t, FileExists(dir))
	assert.False(t, FileExists(filepath.Join(dir, "absent.txt")))
}
