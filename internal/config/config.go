package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Engines the pipeline can run on.
const (
	EngineONNX   = "onnx"
	EngineOpenAI = "openai"
)

type Config struct {
	BatchSize        int     `env:"BATCH_SIZE"        envDefault:"8"`
	Engine           string  `env:"ENGINE"            envDefault:"onnx"`
	MaxNewTokens     int     `env:"MAX_NEW_TOKENS"    envDefault:"0"`
	MinNewTokens     int     `env:"MIN_NEW_TOKENS"    envDefault:"0"`
	Temperature      float64 `env:"TEMPERATURE"       envDefault:"0"`
	TopK             int     `env:"TOP_K"             envDefault:"0"`
	DownloadProgress bool    `env:"DOWNLOAD_PROGRESS" envDefault:"true"`

	OpenAIAPIKey          string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL         string        `env:"OPENAI_BASE_URL"`
	OpenAIMaxOutputTokens int64         `env:"OPENAI_MAX_OUTPUT_TOKENS" envDefault:"512"`
	OpenAIMaxInputTokens  int           `env:"OPENAI_MAX_INPUT_TOKENS"  envDefault:"12288"`
	OpenAIEncoding        string        `env:"OPENAI_ENCODING"          envDefault:"cl100k_base"`
	OpenAIRequestInterval time.Duration `env:"OPENAI_REQUEST_INTERVAL"  envDefault:"0s"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.BatchSize < 1 {
		return Config{}, fmt.Errorf("BATCH_SIZE must be positive, got %d", cfg.BatchSize)
	}

	if cfg.Engine != EngineONNX && cfg.Engine != EngineOpenAI {
		return Config{}, fmt.Errorf(
			"ENGINE must be %q or %q, got %q",
			EngineONNX,
			EngineOpenAI,
			cfg.Engine,
		)
	}

	return cfg, nil
}
