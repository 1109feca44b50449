package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "https://www.litres.ru", cfg.Host.BaseURL)
	assert.Equal(t, 8, cfg.Downloads.MaxWorkers)
	assert.Equal(t, []string{"pdf", "fb2", "mp3"}, cfg.Downloads.Formats)
	assert.Equal(t, 24*time.Hour, cfg.Downloads.MetadataTTL)
	assert.Equal(t, 30*time.Second, cfg.Network.Timeout)
	assert.Equal(t, time.Second, cfg.Network.Delay)
	assert.Equal(t, 2, cfg.Network.RetryAttempts)
	assert.Equal(t, 15*time.Second, cfg.Network.RateLimitWait)
	assert.Equal(t, 65, cfg.Render.Quality)
	assert.Equal(t, 300, cfg.Render.DPI)
	assert.Empty(t, cfg.Metrics.Addr)
}

func TestNormalizeClamps(t *testing.T) {
	cfg := &Config{}
	cfg.Downloads.MaxWorkers = 0
	cfg.Network.RetryAttempts = -1
	cfg.Render.Quality = 250
	cfg.Host.BaseURL = "https://example.com/"

	cfg.normalize()

	assert.Equal(t, 1, cfg.Downloads.MaxWorkers)
	assert.Equal(t, 1, cfg.Network.RetryAttempts)
	assert.Equal(t, 100, cfg.Render.Quality)
	assert.Equal(t, "https://example.com", cfg.Host.BaseURL)
}

func TestLoadFromFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "downloads:\n  max_workers: 3\nnetwork:\n  delay: 250ms\nrender:\n  quality: 90\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Downloads.MaxWorkers)
	assert.Equal(t, 250*time.Millisecond, cfg.Network.Delay)
	assert.Equal(t, 90, cfg.Render.Quality)
	// untouched keys keep defaults
	assert.Equal(t, 2, cfg.Network.RetryAttempts)
}

func TestLoadEnvOverride(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("LITDL_DOWNLOADS_MAX_WORKERS", "5")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Downloads.MaxWorkers)
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()
	assert.Equal(t, filepath.Join(home, "books"), expandPath("~/books"))
	assert.Equal(t, "/abs/books", expandPath("/abs/books"))
}
