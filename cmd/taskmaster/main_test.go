package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/taskmaster/internal/config"
	"github.com/fyrsmithlabs/taskmaster/internal/logging"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestMainIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	port := freePort(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SERVER_HTTP_HOST", "127.0.0.1")
	t.Setenv("SERVER_HTTP_PORT", fmt.Sprint(port))
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("LLM_API_KEY", "")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx, "")
	}()

	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	var resp *http.Response
	require.Eventually(t, func() bool {
		r, err := http.Get(base + "/health")
		if err != nil {
			return false
		}
		resp = r
		return true
	}, 5*time.Second, 50*time.Millisecond)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Without an API key the routed endpoint fails per request, not at startup.
	aiResp, err := http.Post(base+"/api/ai", "application/json", strings.NewReader(`{"text":"add milk"}`))
	require.NoError(t, err)
	defer aiResp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, aiResp.StatusCode)
	var envelope struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(aiResp.Body).Decode(&envelope))
	assert.False(t, envelope.OK)
	assert.Contains(t, envelope.Error, "llm api key missing")

	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shutdown in time")
	}
}

func TestLoggingConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Level = "trace"
	cfg.Logging.Format = "console"

	lc, err := loggingConfig(cfg, modeServe, false)
	require.NoError(t, err)
	assert.Equal(t, logging.TraceLevel, lc.Level)
	assert.Equal(t, "console", lc.Format)
	assert.True(t, lc.Output.Stdout)
	assert.False(t, lc.Output.OTEL)

	lc, err = loggingConfig(cfg, modeStdio, true)
	require.NoError(t, err)
	assert.False(t, lc.Output.Stdout)
	assert.True(t, lc.Output.Stderr)
	assert.True(t, lc.Output.OTEL)

	cfg.Logging.Level = "loud"
	_, err = loggingConfig(cfg, modeServe, false)
	assert.Error(t, err)

	cfg.Logging.Level = "warn"
	lc, err = loggingConfig(cfg, modeServe, false)
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, lc.Level)
}

func TestTelemetryConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Telemetry.Enabled = true
	cfg.Telemetry.Endpoint = "collector:4318"
	cfg.Telemetry.Protocol = "http/protobuf"
	cfg.Telemetry.ServiceVersion = "1.2.3"
	cfg.Telemetry.Insecure = false

	tc := telemetryConfig(cfg)
	assert.True(t, tc.Enabled)
	assert.Equal(t, "collector:4318", tc.Endpoint)
	assert.Equal(t, "http/protobuf", tc.Protocol)
	assert.Equal(t, "taskmaster", tc.ServiceName)
	assert.Equal(t, "1.2.3", tc.ServiceVersion)
	assert.False(t, tc.Insecure)
	assert.NoError(t, tc.Validate())
}
