package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// Configuration holds everything the pipeline and the API server need,
// loaded from the environment (optionally seeded by a .env file).
type Configuration struct {
	OpusAPIKey  string `env:"OPUSCLIP_API_KEY"`
	OpusBaseURL string `env:"OPUSCLIP_BASE_URL" envDefault:"https://api.opus.pro/api"`

	// SuggestAPIKey is optional; without it the parameter-suggestion
	// service is treated as absent and defaults apply.
	SuggestAPIKey string `env:"GEMINI_API_KEY"`

	Address     string `env:"ADDRESS" envDefault:":8080"`
	OutputDir   string `env:"OUTPUT_DIR" envDefault:"output"`
	TrainingDir string `env:"TRAINING_DIR" envDefault:"training_data"`
	UploadDir   string `env:"UPLOAD_DIR" envDefault:"uploads"`

	Concurrency           int `env:"CONCURRENCY" envDefault:"10"`
	PollIntervalSeconds   int `env:"POLL_INTERVAL_SECONDS" envDefault:"10"`
	AcquireTimeoutSeconds int `env:"ACQUIRE_TIMEOUT_SECONDS" envDefault:"600"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// PollInterval returns the transcript-status poll interval.
func (c *Configuration) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// AcquireTimeout returns the per-video acquisition deadline.
func (c *Configuration) AcquireTimeout() time.Duration {
	return time.Duration(c.AcquireTimeoutSeconds) * time.Second
}

// Load reads configuration from the environment. A missing .env file is
// fine; variables may be set directly.
func Load() (*Configuration, error) {
	_ = godotenv.Load()

	cfg := &Configuration{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	return cfg, nil
}
