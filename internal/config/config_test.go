package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadNoFileReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 0.5, cfg.AIRatio)
	require.Equal(t, 30, cfg.RateLimitMaxRequests)
	require.Equal(t, 60, cfg.RateLimitWindowSeconds)
	require.Equal(t, 40, cfg.Session.MaxMessages)
	require.Equal(t, 20, cfg.Session.KeepVerbatim)
}

func TestLoadFilePartialOverridesKeepDefaultsForOmittedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ai_ratio: 0.75\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 0.75, cfg.AIRatio)
	require.Equal(t, 30, cfg.RateLimitMaxRequests) // untouched default
}

func TestLoadRejectsWildcardCORSOutsideDebug(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cors_origins: [\"*\"]\ndebug: false\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadAllowsWildcardCORSInDebug(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cors_origins: [\"*\"]\ndebug: true\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.True(t, cfg.Debug)
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ai_ratio: 0.75\n"), 0o644))

	t.Setenv("TUTOR_AI_RATIO", "0.2")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 0.2, cfg.AIRatio)
}

func TestProviderAPIKeyEnvOverride(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-test-key")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "sk-test-key", cfg.LLM.Providers["anthropic"].APIKey)
}
