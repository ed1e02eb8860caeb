package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewWithWritersMirrorsLines(t *testing.T) {
	var console, file bytes.Buffer
	log := NewWithWriters(zapcore.InfoLevel, &console, &file)

	log.Infof("Processing hashtag: #%s", "golang")
	log.Debug("hidden")
	require.NoError(t, log.Sync())

	assert.Equal(t, console.String(), file.String())
	assert.Contains(t, console.String(), " - INFO - Processing hashtag: #golang")
	assert.NotContains(t, console.String(), "hidden")
}

func TestNewAppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bot.log")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("previous run\n"), 0644))

	log, closeFn, err := New(path, zapcore.InfoLevel)
	require.NoError(t, err)
	log.Error("Failed to capture screenshot")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "previous run", lines[0])
	assert.Contains(t, lines[1], "ERROR - Failed to capture screenshot")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("WARNING"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("bogus"))
}
