package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/multierr"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.VideoDB.BaseURL != "https://api.videodb.io" {
		t.Errorf("VideoDB.BaseURL = %q", cfg.VideoDB.BaseURL)
	}
	if cfg.VideoDB.Collection != "vibecut_videos" {
		t.Errorf("VideoDB.Collection = %q", cfg.VideoDB.Collection)
	}
	if cfg.Indexing.MaxConcurrency != 3 {
		t.Errorf("Indexing.MaxConcurrency = %d, want 3", cfg.Indexing.MaxConcurrency)
	}
	if cfg.Retrieval.PerQueryLimit != 10 {
		t.Errorf("Retrieval.PerQueryLimit = %d, want 10", cfg.Retrieval.PerQueryLimit)
	}
	if cfg.Retrieval.EarlyStopFraction != 0.8 {
		t.Errorf("Retrieval.EarlyStopFraction = %v, want 0.8", cfg.Retrieval.EarlyStopFraction)
	}
	if cfg.Server.BodyLimitMB != 500 {
		t.Errorf("Server.BodyLimitMB = %d, want 500", cfg.Server.BodyLimitMB)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("VIDEODB_COLLECTION", "trailers")
	t.Setenv("INDEXING_MAX_CONCURRENCY", "7")
	t.Setenv("LLM_MODEL", "gpt-4.1-mini")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.VideoDB.Collection != "trailers" {
		t.Errorf("VideoDB.Collection = %q, want trailers", cfg.VideoDB.Collection)
	}
	if cfg.Indexing.MaxConcurrency != 7 {
		t.Errorf("Indexing.MaxConcurrency = %d, want 7", cfg.Indexing.MaxConcurrency)
	}
	if cfg.LLM.Model != "gpt-4.1-mini" {
		t.Errorf("LLM.Model = %q", cfg.LLM.Model)
	}
}

func TestLoad_SecretFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "videodb_key")
	if err := os.WriteFile(path, []byte("sk-from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VIDEODB_API_KEY", "")
	t.Setenv("VIDEODB_API_KEY_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.VideoDB.APIKey != "sk-from-file" {
		t.Errorf("VideoDB.APIKey = %q, want sk-from-file", cfg.VideoDB.APIKey)
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := &Config{
		Server:    ServerConfig{Port: "8000", BodyLimitMB: 0},
		Indexing:  IndexingConfig{MaxConcurrency: 0},
		Retrieval: RetrievalConfig{PerQueryLimit: 10, EarlyStopFraction: 1.5, SearchType: "fuzzy"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if got := len(multierr.Errors(err)); got != 4 {
		t.Errorf("expected 4 problems, got %d: %v", got, err)
	}
	if !strings.Contains(err.Error(), "early_stop_fraction") {
		t.Errorf("missing early_stop_fraction problem: %v", err)
	}
}
