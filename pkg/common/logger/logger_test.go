package logger_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/utkarsh5026/sourcevault/pkg/common/logger"
)

func TestLogLevels(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logger.New(logger.Config{
		Level:  logger.LevelInfo,
		Format: logger.FormatText,
		Output: buf,
	})

	log.Debug("debug message")
	if strings.Contains(buf.String(), "debug message") {
		t.Error("debug message should not appear at Info level")
	}

	log.Info("info message")
	if !strings.Contains(buf.String(), "info message") {
		t.Error("info message should appear at Info level")
	}
}

func TestJSONFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logger.New(logger.Config{
		Level:  logger.LevelDebug,
		Format: logger.FormatJSON,
		Output: buf,
	})

	log.Info("object written", "hash", "abc123")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "object written", record["msg"])
	assert.Equal(t, "abc123", record["hash"])
}

func TestComponent(t *testing.T) {
	buf := &bytes.Buffer{}
	base := logger.New(logger.Config{Level: logger.LevelInfo, Format: logger.FormatText, Output: buf})

	logger.Component(base, "refs").Info("updated")
	assert.Contains(t, buf.String(), "component=refs")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]logger.Level{
		"debug":   logger.LevelDebug,
		"INFO":    logger.LevelInfo,
		"":        logger.LevelInfo,
		"warning": logger.LevelWarn,
		"error":   logger.LevelError,
	}
	for in, want := range tests {
		got, err := logger.ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := logger.ParseLevel("loud")
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := logger.ParseFormat("json")
	require.NoError(t, err)
	assert.Equal(t, logger.FormatJSON, f)

	_, err = logger.ParseFormat("xml")
	assert.Error(t, err)
}

func TestDiscard(t *testing.T) {
	logger.Discard().Error("dropped")
}
