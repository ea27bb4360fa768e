package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	KanaFromProvider = "provider"
	KanaLocal        = "local"

	HintsFromProvider = "provider"
	HintsGemini       = "gemini"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/arcade.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	SPADir   string     `env:"SPA_DIR" envDefault:"web/dist"`

	APIURL     string        `env:"API_URL" envDefault:"http://localhost:8000"`
	APITimeout time.Duration `env:"API_TIMEOUT" envDefault:"15s"`

	// RedisURL is optional. Without it rate limits are kept in memory.
	RedisURL string `env:"REDIS_URL"`

	KanaSource   string `env:"KANA_SOURCE" envDefault:"provider"`
	HintSource   string `env:"HINT_SOURCE" envDefault:"provider"`
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`

	SaladTimeLimit    int           `env:"SALAD_TIME_LIMIT" envDefault:"60"`
	SaladKanaPerRound int           `env:"SALAD_KANA_PER_ROUND" envDefault:"10"`
	RoundTTL          time.Duration `env:"ROUND_TTL" envDefault:"30m"`
	JournalRetention  time.Duration `env:"JOURNAL_RETENTION" envDefault:"2160h"`

	ReadingsEnabled bool `env:"READINGS_ENABLED" envDefault:"true"`
	AuditLog        bool `env:"AUDIT_LOG" envDefault:"true"`
}

// Load reads the environment, after merging any .env files given (or ".env"
// when none are). Variables already set win over the files.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.KanaSource {
	case KanaFromProvider, KanaLocal:
	default:
		return fmt.Errorf("KANA_SOURCE must be %q or %q, got %q", KanaFromProvider, KanaLocal, c.KanaSource)
	}
	switch c.HintSource {
	case HintsFromProvider:
	case HintsGemini:
		if c.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY is required when HINT_SOURCE is gemini")
		}
	default:
		return fmt.Errorf("HINT_SOURCE must be %q or %q, got %q", HintsFromProvider, HintsGemini, c.HintSource)
	}
	if c.APIURL == "" {
		return errors.New("API_URL is required")
	}
	if c.SaladTimeLimit <= 0 || c.SaladKanaPerRound <= 0 {
		return errors.New("salad time limit and kana per round must be positive")
	}
	if c.RoundTTL <= 0 {
		return errors.New("ROUND_TTL must be positive")
	}
	return nil
}
