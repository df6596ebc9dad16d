package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestNewWritesJSONToStderrAndFile(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	var stderr bytes.Buffer
	path := filepath.Join(t.TempDir(), "app.log")
	logger, cleanup, err := newLogger(&stderr, Options{Level: "warn", File: path, MaxSizeMB: 1})
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("activity saved", "activity_id", 7)
	cleanup()

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(stderr.Bytes()), &entry))
	assert.Equal(t, "activity saved", entry["msg"])
	assert.Equal(t, float64(7), entry["activity_id"])

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, stderr.String(), string(data))
}

func TestNewFailsOnUnwritableFile(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0600))

	_, _, err := newLogger(&bytes.Buffer{}, Options{File: filepath.Join(blocker, "app.log")})
	assert.Error(t, err)
}
