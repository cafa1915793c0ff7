// Package config loads AltDump's configuration from the environment (with
// an optional .env overlay) and an optional vault.yaml for the structured
// bits that don't belong in env vars.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EmbeddingConfig configures the pluggable embedding endpoint. The engine
// treats whatever answers here as a black box.
type EmbeddingConfig struct {
	BaseURL   string `env:"EMBED_BASE_URL" envDefault:"http://127.0.0.1:8090"`
	Path      string `env:"EMBED_PATH" envDefault:"/v1/embeddings"`
	Model     string `env:"EMBED_MODEL" envDefault:"local-minilm"`
	APIKey    string `env:"EMBED_API_KEY"`
	APIHeader string `env:"EMBED_API_HEADER" envDefault:"Authorization"`
	TimeoutS  int    `env:"EMBED_TIMEOUT_SECONDS" envDefault:"10"`
}

func (c EmbeddingConfig) Timeout() time.Duration {
	if c.TimeoutS <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutS) * time.Second
}

// LLMConfig configures the optional, disabled-by-default metadata-enrichment
// language model.
type LLMConfig struct {
	Enabled  bool   `env:"LLM_ENRICH_ENABLED" envDefault:"false"`
	BaseURL  string `env:"LLM_BASE_URL"`
	APIKey   string `env:"LLM_API_KEY"`
	Model    string `env:"LLM_MODEL"`
	TimeoutS int    `env:"LLM_TIMEOUT_SECONDS" envDefault:"15"`
}

func (c LLMConfig) Timeout() time.Duration {
	if c.TimeoutS <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.TimeoutS) * time.Second
}

// OverlayConfig tunes the interaction state machine's timings. Tests shrink
// these to avoid real sleeps.
type OverlayConfig struct {
	HoldThreshold    time.Duration `env:"OVERLAY_HOLD_THRESHOLD_MS" envDefault:"400ms"`
	KeyUpDebounce    time.Duration `env:"OVERLAY_KEYUP_DEBOUNCE_MS" envDefault:"50ms"`
	ConfirmationTime time.Duration `env:"OVERLAY_CONFIRMATION_MS" envDefault:"1500ms"`
}

// Config is the root configuration object.
type Config struct {
	VaultDir     string `env:"VAULT_DIR" envDefault:"./vault"`
	LogPath      string `env:"LOG_PATH" envDefault:"altdump.log"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	EnrichWorkers int   `env:"ENRICH_WORKERS" envDefault:"0"` // 0 => runtime.NumCPU()
	OCREnabled    bool  `env:"OCR_ENABLED" envDefault:"false"`
	SweepCron     string `env:"SWEEP_CRON" envDefault:"0 */6 * * *"`
	MaxExtractedTextBytes int `env:"MAX_EXTRACTED_TEXT_BYTES" envDefault:"1048576"` // 1 MiB
	MaxPDFBytes           int `env:"MAX_PDF_BYTES" envDefault:"10485760"`           // 10 MiB

	Embedding EmbeddingConfig
	LLM       LLMConfig
	Overlay   OverlayConfig

	// Categorization, populated from vault.yaml if present; otherwise
	// model.NewExtensionRules falls back to the built-in
	// model.DefaultExtensionCategories and model.DefaultRejectExtensions.
	ExtensionRules ExtensionRulesFile `env:"-" yaml:"-"`
}

// ExtensionRulesFile is the optional structured overlay for the controller's
// allow/reject extension lists. Kept separate from env because it is
// naturally a list, not a scalar.
type ExtensionRulesFile struct {
	Allow map[string]string `yaml:"allow"` // extension (no dot) -> category
	Deny  []string          `yaml:"deny"`  // extensions refused outright
}

// Load reads configuration from the environment (optionally via .env) and
// overlays vault.yaml if it exists next to the working directory or under
// VaultDir.
func Load() (Config, error) {
	_ = godotenv.Overload()

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}

	for _, path := range []string{"vault.yaml", strings.TrimRight(cfg.VaultDir, "/") + "/vault.yaml"} {
		b, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var overlay struct {
			ExtensionRules ExtensionRulesFile `yaml:"extension_rules"`
		}
		if err := yaml.Unmarshal(b, &overlay); err == nil {
			if len(overlay.ExtensionRules.Allow) > 0 {
				cfg.ExtensionRules.Allow = overlay.ExtensionRules.Allow
			}
			if len(overlay.ExtensionRules.Deny) > 0 {
				cfg.ExtensionRules.Deny = overlay.ExtensionRules.Deny
			}
		}
		break
	}

	return cfg, nil
}
