package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the service configuration, read from the environment.
type Config struct {
	Port      string `env:"PORT" envDefault:"8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	GeminiAPIKey      string        `env:"GEMINI_API_KEY"`
	GeminiModel       string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	GeminiBaseURL     string        `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com"`
	NoEmbedURL        string        `env:"NOEMBED_URL" envDefault:"https://noembed.com/embed"`
	GenerationTimeout time.Duration `env:"GENERATION_TIMEOUT" envDefault:"60s"`

	// Playback delays. These are product-tuned, not hard guarantees.
	PrimingDelay     time.Duration `env:"PRIMING_DELAY" envDefault:"500ms"`
	FirstRevealDelay time.Duration `env:"FIRST_REVEAL_DELAY" envDefault:"1s"`
	RevealInterval   time.Duration `env:"REVEAL_INTERVAL" envDefault:"10s"`
	OverlayDuration  time.Duration `env:"OVERLAY_DURATION" envDefault:"7s"`
	EndGrace         time.Duration `env:"END_GRACE" envDefault:"2s"`
	EmbedAPIPoll     time.Duration `env:"EMBED_API_POLL" envDefault:"100ms"`

	SubmitRateLimit  int           `env:"SUBMIT_RATE_LIMIT" envDefault:"10"`
	SubmitRateWindow time.Duration `env:"SUBMIT_RATE_WINDOW" envDefault:"1m"`
	SessionIdleTTL   time.Duration `env:"SESSION_IDLE_TTL" envDefault:"30m"`
}

// Load reads the .env file from the current working directory and sets
// environment variables. If .env does not exist, Load returns an error but
// callers can ignore it and use system env or defaults. Pass one or more paths
// to load from specific files; with no paths, ".env" is used.
func Load(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	return godotenv.Load(paths...)
}

// Parse reads Config from the environment, applying defaults.
func Parse() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return c, nil
}
