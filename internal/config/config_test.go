package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Config{
		Database:  DatabaseConfig{Addrs: []string{"localhost:6379"}},
		Embedding: EmbeddingConfig{APIKey: "sk-test"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"http.port", cfg.HTTP.Port, 8080},
		{"embedding.model", cfg.Embedding.Model, "text-embedding-3-small"},
		{"embedding.dimensions", cfg.Embedding.Dimensions, 1536},
		{"embedding.batch_size", cfg.Embedding.BatchSize, 64},
		{"index.name", cfg.Index.Name, "bylawbot:chunks:idx"},
		{"index.key_prefix", cfg.Index.KeyPrefix, "bylawbot:chunk:"},
		{"index.algorithm", cfg.Index.Algorithm, "hnsw"},
		{"search.cache_capacity", cfg.Search.CacheCapacity, 100},
		{"search.cache_ttl", cfg.Search.CacheTTL(), 5 * time.Minute},
		{"search.sweep_interval", cfg.Search.SweepInterval(), time.Minute},
		{"ingest.max_chunk_tokens", cfg.Ingest.MaxChunkTokens, 512},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"bad port", func(c *Config) { c.HTTP.Port = 70000 }, "http.port"},
		{"no addrs", func(c *Config) { c.Database.Addrs = nil }, "database.addrs is required"},
		{"no api key", func(c *Config) { c.Embedding.APIKey = "" }, "embedding.api_key is required"},
		{"unknown provider", func(c *Config) { c.Embedding.Provider = "cohere" }, "embedding.provider"},
		{"negative cache ttl", func(c *Config) { c.Embedding.CacheTTLHours = -1 }, "cache_ttl_hours"},
		{"unknown algorithm", func(c *Config) { c.Index.Algorithm = "ivf" }, "index.algorithm"},
		{"sweep longer than ttl", func(c *Config) { c.Search.SweepIntervalSec = 600 }, "sweep_interval_sec"},
		{"empty api key entry", func(c *Config) { c.Auth.APIKeys = []string{"a", " "} }, "auth.api_keys[1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q, want it to mention %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("BYLAWBOT_TEST_KEY", "sk-from-env")

	data := []byte(`
database:
  addrs: ["${BYLAWBOT_TEST_REDIS:-localhost:6379}"]
embedding:
  api_key: ${BYLAWBOT_TEST_KEY}
search:
  cache_ttl_sec: 120
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Embedding.APIKey != "sk-from-env" {
		t.Errorf("api_key = %q, want sk-from-env", cfg.Embedding.APIKey)
	}
	if cfg.Database.Addrs[0] != "localhost:6379" {
		t.Errorf("addrs[0] = %q, want default", cfg.Database.Addrs[0])
	}
	if cfg.Search.CacheTTL() != 2*time.Minute {
		t.Errorf("cache ttl = %v, want 2m", cfg.Search.CacheTTL())
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Error("expected parse error")
	}
	if _, err := Parse([]byte("http:\n  port: 8080\n")); err == nil {
		t.Error("expected validation error")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	content := "database:\n  addrs: [\"redis:6379\"]\nembedding:\n  api_key: k\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Database.Addrs[0] != "redis:6379" {
		t.Errorf("addrs[0] = %q", cfg.Database.Addrs[0])
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if got := GetEnv(); got != "local" {
		t.Errorf("GetEnv() = %q, want local", got)
	}
	t.Setenv("ENV", "prod")
	if got := GetEnv(); got != "prod" {
		t.Errorf("GetEnv() = %q, want prod", got)
	}
}

func TestLoad_Local(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-local")
	t.Setenv("REDIS_ADDR", "")

	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("Load(local): %v", err)
	}
	if cfg.Database.Addrs[0] != "localhost:6379" {
		t.Errorf("addrs[0] = %q, want localhost:6379", cfg.Database.Addrs[0])
	}
	if cfg.Embedding.CacheTTL() != 720*time.Hour {
		t.Errorf("embedding cache ttl = %v", cfg.Embedding.CacheTTL())
	}
	if len(cfg.Auth.APIKeys) != 0 {
		t.Errorf("api_keys = %v, want none", cfg.Auth.APIKeys)
	}
}
