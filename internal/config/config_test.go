package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"VAULT_DIR", "EMBED_BASE_URL", "ENRICH_WORKERS", "OCR_ENABLED"} {
		os.Unsetenv(k)
	}
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "./vault", cfg.VaultDir)
	require.Equal(t, "http://127.0.0.1:8090", cfg.Embedding.BaseURL)
	require.False(t, cfg.OCREnabled)
	require.Equal(t, 1048576, cfg.MaxExtractedTextBytes)
}

func TestLoadOverridesFromEnv(t *testing.T) {
	t.Setenv("VAULT_DIR", "/tmp/myvault")
	t.Setenv("OCR_ENABLED", "true")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "/tmp/myvault", cfg.VaultDir)
	require.True(t, cfg.OCREnabled)
}
