package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentroll/internal/config"
	"rentroll/internal/log"
)

func TestSetupLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLoggerTo(&buf, "warn", log.ComponentApp)
	logger.Info("hidden")
	logger.Warn("visible")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "visible")

	buf.Reset()
	SetupLoggerTo(&buf, "chatty", log.ComponentWorker)
	assert.Contains(t, buf.String(), "Unknown log level")
	assert.Contains(t, buf.String(), "component=worker")
}

func TestInitBackendMemory(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLoggerTo(&buf, "info", log.ComponentApp)

	cfg := &config.Config{DataBackend: config.BackendMemory, AlertAdvanceNoticeDays: 14}
	res, err := InitBackend(context.Background(), logger, cfg, nil)
	require.NoError(t, err)

	settings, err := res.Store.AlertSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 14, settings.AdvanceNoticeDays)
	assert.Contains(t, buf.String(), "Initialized memory backend")
}

func TestInitBackendRejectsUnknown(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLoggerTo(&buf, "info", log.ComponentApp)
	_, err := InitBackend(context.Background(), logger, &config.Config{DataBackend: "sheets"}, nil)
	assert.Error(t, err)
}
