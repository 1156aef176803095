package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}

func TestNewWritesFileAndConsole(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "send_invoice.log")
	var console bytes.Buffer

	logger, closer, err := New(logFile, "warn", &console)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("invoice rejected", "file", "inv1.xml")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)

	for _, out := range []string{string(data), console.String()} {
		assert.Contains(t, out, "invoice rejected")
		assert.Contains(t, out, "file=inv1.xml")
		assert.NotContains(t, out, "hidden")
	}
}
