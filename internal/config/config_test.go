package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("KEYS_FILE", filepath.Join(t.TempDir(), "missing.txt"))

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MouserAPIBaseURL != "https://api.mouser.com/api/v1" {
		t.Fatalf("base url = %q", cfg.MouserAPIBaseURL)
	}
	if cfg.MouserRateLimitPS != 2 || cfg.MouserMaxResults != 50 {
		t.Fatalf("catalog defaults wrong: %+v", cfg)
	}
	if cfg.RankTopN != 10 || cfg.AllowObsolete {
		t.Fatalf("rank defaults wrong: %+v", cfg)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("KEYS_FILE", filepath.Join(t.TempDir(), "missing.txt"))
	t.Setenv("MOUSER_API_KEY", "env-key")
	t.Setenv("MOUSER_RATE_LIMIT_RPS", "5")
	t.Setenv("RANK_ALLOW_OBSOLETE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MouserAPIKey != "env-key" {
		t.Fatalf("api key = %q", cfg.MouserAPIKey)
	}
	if cfg.MouserRateLimitPS != 5 {
		t.Fatalf("rate limit = %d", cfg.MouserRateLimitPS)
	}
	if !cfg.AllowObsolete {
		t.Fatal("bool override lost")
	}
}

func TestLoadKeysFileFallback(t *testing.T) {
	keysPath := filepath.Join(t.TempDir(), "keys.txt")
	content := "MouserAPIkey=file-mouser-key\nGeminiKey=file-gemini-key\n"
	if err := os.WriteFile(keysPath, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("KEYS_FILE", keysPath)

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MouserAPIKey != "file-mouser-key" {
		t.Fatalf("mouser key = %q", cfg.MouserAPIKey)
	}
	if cfg.GeminiAPIKey != "file-gemini-key" {
		t.Fatalf("gemini key = %q", cfg.GeminiAPIKey)
	}
}

func TestLoadEnvWinsOverKeysFile(t *testing.T) {
	keysPath := filepath.Join(t.TempDir(), "keys.txt")
	if err := os.WriteFile(keysPath, []byte("MouserAPIkey=file-key\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("KEYS_FILE", keysPath)
	t.Setenv("MOUSER_API_KEY", "env-key")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MouserAPIKey != "env-key" {
		t.Fatalf("env should win, got %q", cfg.MouserAPIKey)
	}
}

func TestRequire(t *testing.T) {
	var cfg Config
	if err := cfg.Require("MOUSER_API_KEY", ""); err == nil {
		t.Fatal("expected error for empty value")
	}
	if err := cfg.Require("MOUSER_API_KEY", "set"); err != nil {
		t.Fatal(err)
	}
}
