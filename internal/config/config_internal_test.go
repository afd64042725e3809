package config

import (
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()

	keys := []string{
		"BATCH_SIZE",
		"ENGINE",
		"MAX_NEW_TOKENS",
		"MIN_NEW_TOKENS",
		"TEMPERATURE",
		"TOP_K",
		"DOWNLOAD_PROGRESS",
		"OPENAI_API_KEY",
		"OPENAI_BASE_URL",
		"OPENAI_MAX_OUTPUT_TOKENS",
		"OPENAI_MAX_INPUT_TOKENS",
		"OPENAI_ENCODING",
		"OPENAI_REQUEST_INTERVAL",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected config to load, got %v", err)
	}

	if cfg.BatchSize != 8 {
		t.Fatalf("expected default batch size 8, got %d", cfg.BatchSize)
	}

	if cfg.Engine != EngineONNX {
		t.Fatalf("expected default engine %q, got %q", EngineONNX, cfg.Engine)
	}

	if !cfg.DownloadProgress {
		t.Fatal("expected download progress to default to true")
	}

	if cfg.OpenAIMaxOutputTokens != 512 || cfg.OpenAIMaxInputTokens != 12288 {
		t.Fatalf(
			"expected default token budgets 512/12288, got %d/%d",
			cfg.OpenAIMaxOutputTokens,
			cfg.OpenAIMaxInputTokens,
		)
	}

	if cfg.OpenAIEncoding != "cl100k_base" {
		t.Fatalf("expected default encoding cl100k_base, got %q", cfg.OpenAIEncoding)
	}
}

func TestLoadReadsOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("BATCH_SIZE", "4")
	t.Setenv("ENGINE", "openai")
	t.Setenv("TEMPERATURE", "0.7")
	t.Setenv("TOP_K", "50")
	t.Setenv("DOWNLOAD_PROGRESS", "false")

	t.Setenv("OPENAI_REQUEST_INTERVAL", "250ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected config to load, got %v", err)
	}

	if cfg.BatchSize != 4 || cfg.Engine != EngineOpenAI {
		t.Fatalf("expected batch size 4 and engine openai, got %d and %q", cfg.BatchSize, cfg.Engine)
	}

	if cfg.OpenAIRequestInterval != 250*time.Millisecond {
		t.Fatalf("expected request interval 250ms, got %v", cfg.OpenAIRequestInterval)
	}

	if cfg.Temperature != 0.7 || cfg.TopK != 50 {
		t.Fatalf("expected temperature 0.7 and top-k 50, got %g and %d", cfg.Temperature, cfg.TopK)
	}

	if cfg.DownloadProgress {
		t.Fatal("expected download progress to be disabled")
	}
}

func TestLoadRejectsNonPositiveBatchSize(t *testing.T) {
	clearEnv(t)
	t.Setenv("BATCH_SIZE", "0")

	if _, err := Load(); err == nil {
		t.Fatal("expected a batch size error")
	}
}

func TestLoadRejectsUnknownEngine(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENGINE", "tgi")

	_, err := Load()
	if err == nil {
		t.Fatal("expected an engine error")
	}

	if !strings.Contains(err.Error(), "tgi") {
		t.Fatalf("expected error to name the engine, got %v", err)
	}
}
