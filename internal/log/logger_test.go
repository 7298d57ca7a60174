package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level slog.Level, component string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(Config{Level: level, Component: component, Output: &buf}), &buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoggerAddsComponentOnce(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo, ComponentAlerts)

	logger.Info("scan done", FieldAlertCount, 3)
	out := buf.String()
	assert.Contains(t, out, "component=alerts")
	assert.Contains(t, out, "alert_count=3")
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("component=")))

	buf.Reset()
	logger.WithComponent(ComponentWorker).Warn("retry")
	assert.Contains(t, buf.String(), "component=worker")
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("component=")))

	buf.Reset()
	logger.Info("explicit", FieldComponent, ComponentHTTP)
	assert.Contains(t, buf.String(), "component=http")
	assert.NotContains(t, buf.String(), "component=alerts")
}

func TestLoggerRespectsLevel(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelWarn, ComponentApp)
	logger.Info("hidden")
	logger.Debug("hidden")
	assert.Empty(t, buf.String())
	logger.Error("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestContextRoundTrip(t *testing.T) {
	logger, _ := newBufferLogger(slog.LevelInfo, ComponentHTTP)
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))
	assert.Equal(t, "unknown", FromContext(context.Background()).Component())
}

func TestAccessLogLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "level=INFO"},
		{http.StatusNotFound, "level=WARN"},
		{http.StatusInternalServerError, "level=ERROR"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			logger, buf := newBufferLogger(slog.LevelInfo, ComponentHTTP)
			h := Middleware(logger)(
				RequestIDMiddleware(func(*http.Request) string { return "req-1" })(
					AccessLog(NewStructuredLogger(logger), func(*http.Request) string { return "10.0.0.1" })(
						http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
							w.WriteHeader(tt.status)
						}))))

			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/alerts?as_of=2024-01-01", nil))

			out := buf.String()
			assert.Contains(t, out, tt.level)
			assert.Contains(t, out, "request_id=req-1")
			assert.Contains(t, out, "client_ip=10.0.0.1")
			assert.Contains(t, out, "path=/api/alerts")
		})
	}
}

func TestStructuredLoggerHelpers(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo, ComponentApp)
	sl := NewStructuredLogger(logger)

	sl.LogAlertPublished(context.Background(), "id-1", "lease", "high", "2024-02-01")
	assert.Contains(t, buf.String(), "alert_id=id-1")
	assert.Contains(t, buf.String(), "operation=publish")

	buf.Reset()
	sl.LogError(context.Background(), "publish failed", errors.New("boom"), ComponentAMQP, OpPublish, nil)
	assert.Contains(t, buf.String(), "error=boom")
	assert.Contains(t, buf.String(), "component=amqp")
}
