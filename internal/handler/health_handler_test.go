package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/art-exam-api/internal/config"
	"github.com/noah-isme/art-exam-api/internal/handler"
)

func healthApp(checks map[string]handler.HealthCheckFunc) *fiber.App {
	app := fiber.New()
	cfg := config.Config{AppName: "Art Exam API", AppEnv: "test", StorageDriver: config.StorageDriverLocal}
	handler.NewHealthHandler(cfg, checks, zerolog.Nop()).Register(app)
	return app
}

func readHealth(t *testing.T, app *fiber.App) (int, envelope, handler.HealthResponse) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	var payload handler.HealthResponse
	body := env.Data
	if !env.Success {
		body = env.Details
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	return resp.StatusCode, env, payload
}

func TestHealthReportsDependencies(t *testing.T) {
	app := healthApp(map[string]handler.HealthCheckFunc{
		"redis":    func(context.Context) error { return nil },
		"database": func(context.Context) error { return nil },
	})

	status, env, payload := readHealth(t, app)
	require.Equal(t, http.StatusOK, status)
	require.True(t, env.Success)
	require.Equal(t, "ok", payload.Status)
	require.Equal(t, "local", payload.StorageDriver)
	require.Len(t, payload.Dependencies, 2)
	require.Equal(t, "database", payload.Dependencies[0].Name)
	require.True(t, payload.Dependencies[0].Healthy)
}

func TestHealthDegradesWhenDependencyFails(t *testing.T) {
	app := healthApp(map[string]handler.HealthCheckFunc{
		"database": func(context.Context) error { return nil },
		"nats":     func(context.Context) error { return errors.New("nats connection RECONNECTING") },
	})

	status, env, payload := readHealth(t, app)
	require.Equal(t, http.StatusServiceUnavailable, status)
	require.False(t, env.Success)
	require.Equal(t, "service degraded", env.Message)
	require.Equal(t, "degraded", payload.Status)
	require.Equal(t, "nats", payload.Dependencies[1].Name)
	require.False(t, payload.Dependencies[1].Healthy)
	require.Contains(t, payload.Dependencies[1].Error, "RECONNECTING")
}

func TestHealthWithoutChecks(t *testing.T) {
	status, _, payload := readHealth(t, healthApp(nil))
	require.Equal(t, http.StatusOK, status)
	require.Empty(t, payload.Dependencies)
}
