package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the process configuration, read from the environment.
type Config struct {
	Port        string `env:"PORT"         envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	ViewsDir    string `env:"VIEWS_DIR"    envDefault:"./views"`
	CatalogSeed string `env:"CATALOG_SEED"`

	AutosaveDelay       time.Duration `env:"AUTOSAVE_DELAY"        envDefault:"2s"`
	DecisionRevealDelay time.Duration `env:"DECISION_REVEAL_DELAY" envDefault:"2s"`
	AnimationDuration   time.Duration `env:"ANIMATION_DURATION"    envDefault:"1s"`
	SessionIdleTimeout  time.Duration `env:"SESSION_IDLE_TIMEOUT"  envDefault:"30m"`

	FFProbePath string `env:"FFPROBE_PATH" envDefault:"ffprobe"`

	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	R2Endpoint      string `env:"R2_DEV_ENDPOINT"`
	R2Bucket        string `env:"R2_BUCKET"     envDefault:"story-audio"`
	R2PublicURL     string `env:"R2_PUBLIC_URL"`
}

// R2Enabled reports whether recordings go to the R2 bucket instead of
// process memory.
func (c Config) R2Enabled() bool {
	return c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

// Load reads .env files, when present, and then the environment.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Printf("Warning: no .env file loaded: %v", err)
		} else {
			return Config{}, fmt.Errorf("load .env: %w", err)
		}
	}
	return Parse()
}

// Parse reads the environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
