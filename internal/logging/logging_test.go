package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"comics-blog/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLogLevel(" error "))
	assert.Equal(t, slog.LevelInfo, parseLogLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("verbose"))
}

func TestNewHandler(t *testing.T) {
	var buf bytes.Buffer
	slog.New(newHandler("json", &buf, nil)).Info("dataset loaded", "rows", 2)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "dataset loaded", record["msg"])
	assert.EqualValues(t, 2, record["rows"])

	buf.Reset()
	slog.New(newHandler("text", &buf, nil)).Info("dataset loaded", "rows", 2)
	assert.Contains(t, buf.String(), "msg=\"dataset loaded\" rows=2")
}

func TestInitWritesLogFile(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	path := filepath.Join(t.TempDir(), "logs", "server.log")
	logger, closer, err := Init(&config.Config{LogFile: path, LogLevel: "warn", LogFormat: "json"})
	require.NoError(t, err)

	logger.Info("not written")
	logger.Warn("written", "component", "test")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"msg":"written"`)
}
