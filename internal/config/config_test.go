package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "dev", cfg.AppEnv)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "Working on it...", cfg.PlaceholderText)
	require.Equal(t, 3, cfg.MaxRetries)
	require.Equal(t, 2*time.Second, cfg.RetryDelay)
	require.Equal(t, 10*time.Second, cfg.RequestTimeout)
	require.Empty(t, cfg.EngineWebhookURL)
	require.Empty(t, cfg.CallbackURL())
}

func TestLoad_EngineRequiresPublicBaseURL(t *testing.T) {
	t.Setenv("ENGINE_WEBHOOK_URL", "https://engine.example.com/hook")

	cfg, err := Load()
	require.Nil(t, cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "PUBLIC_BASE_URL")
}

func TestLoad_CallbackURL(t *testing.T) {
	t.Setenv("ENGINE_WEBHOOK_URL", "https://engine.example.com/hook")
	t.Setenv("PUBLIC_BASE_URL", "https://relay.example.com/")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "https://relay.example.com/callback", cfg.CallbackURL())
}

func TestLoad_RetriesMustBePositive(t *testing.T) {
	t.Setenv("DISPATCH_MAX_RETRIES", "0")

	cfg, err := Load()
	require.Nil(t, cfg)
	require.Error(t, err)
}

func TestLoad_TokenRequiredOutsideDev(t *testing.T) {
	t.Setenv("APP_ENV", "prod")

	cfg, err := Load()
	require.Nil(t, cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "CHAT_API_TOKEN")

	t.Setenv("CHAT_API_TOKEN", "tok")
	cfg, err = Load()
	require.NoError(t, err)
	require.Equal(t, "tok", cfg.ChatAPIToken)
}

func TestLoad_DurationsAndLimits(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "3s")
	t.Setenv("DISPATCH_RETRY_DELAY", "250ms")
	t.Setenv("RL_WINDOW_SECONDS", "30")
	t.Setenv("SWEEP_AFTER", "5m")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 3*time.Second, cfg.RequestTimeout)
	require.Equal(t, 250*time.Millisecond, cfg.RetryDelay)
	require.Equal(t, 30*time.Second, cfg.RLWindow)
	require.Equal(t, 5*time.Minute, cfg.SweepAfter)
}
