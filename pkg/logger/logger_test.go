package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSetsLevelAndFormat(t *testing.T) {
	cfg := LoggingConfig{Level: "debug", Format: "json", Output: "stdout"}
	log := New(cfg)
	assert.Equal(t, "debug", log.GetLevel().String())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
}

func TestNewCreatesLogFile(t *testing.T) {
	originalWD, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(originalWD) })

	temp := t.TempDir()
	require.NoError(t, os.Chdir(temp))

	log := New(LoggingConfig{Level: "info", Format: "text", Output: "file", FilePrefix: "test"})
	log.Info("hello")

	path := filepath.Join("logs", "test.log")
	data, err := os.ReadFile(path)
	require.NoError(t, err, "expected log file")
	assert.NotEmpty(t, data, "expected log file to contain data")
}

func TestWithErrorAttachesErrorField(t *testing.T) {
	log := NewDefault("test")
	entry := log.WithError(os.ErrNotExist)
	assert.Equal(t, os.ErrNotExist, entry.Data["error"])
}

func TestWithSourceAttachesSourceFields(t *testing.T) {
	log := NewDefault("test")
	entry := log.WithSource("src-1", "workflow")
	assert.Equal(t, "src-1", entry.Data["source_id"])
	assert.Equal(t, "workflow", entry.Data["source_kind"])
}
