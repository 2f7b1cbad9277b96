package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("PORT", "")
	t.Setenv("APP_ENV", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "dev", cfg.AppEnv)
	require.Equal(t, ":8081", cfg.HTTPAddr)
	require.Equal(t, 20*time.Second, cfg.Backend.Timeout)
	require.Equal(t, "/metrics", cfg.MetricsPath)
	require.Equal(t, "@every 1m", cfg.Queue.Schedule)
	require.Equal(t, 20, cfg.Stats.MaxPages)
}

func TestLoad_PortAndOrigins(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("PORT", "9090")
	t.Setenv("CONSOLE_ALLOWED_ORIGINS", " https://desk.example.org , ,http://localhost:5173")
	t.Setenv("BACKEND_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr)
	require.Equal(t, []string{"https://desk.example.org", "http://localhost:5173"}, cfg.ConsoleAllowedOrigins)
	require.Equal(t, 3*time.Second, cfg.Backend.Timeout)
}

func TestLoad_ProdRequiresViewerSecret(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("VIEWER_TOKEN_SECRET", "")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("VIEWER_TOKEN_SECRET", "s3cret")
	cfg, err := Load()
	require.NoError(t, err)
	require.True(t, cfg.IsProd())
}

func TestLoad_RejectsUnknownTimezone(t *testing.T) {
	t.Setenv("SCHEDULE_TIMEZONE", "Mars/Olympus")
	_, err := Load()
	require.Error(t, err)
}
