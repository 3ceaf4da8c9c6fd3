package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestDir(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error = %v", err)
	}
	if filepath.Base(dir) != ".exemplar" {
		t.Errorf("Dir() = %q, want ending with .exemplar", dir)
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("Dir() = %q, want absolute path", dir)
	}
}

func TestEnsureDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir, err := EnsureDir()
	if err != nil {
		t.Fatalf("EnsureDir() error = %v", err)
	}
	if want := filepath.Join(home, ".exemplar"); dir != want {
		t.Errorf("EnsureDir() = %q, want %q", dir, want)
	}
	for _, sub := range []string{"logs", "fixtures"} {
		if _, err := os.Stat(filepath.Join(dir, sub)); err != nil {
			t.Errorf("EnsureDir() should create %s: %v", sub, err)
		}
	}
}

func TestDefaultLocalConfig(t *testing.T) {
	cfg := DefaultLocalConfig()

	if cfg.Daemon.Port != 7433 || cfg.Daemon.Bind != "127.0.0.1" || cfg.Daemon.LogLevel != "info" {
		t.Errorf("Daemon = %+v", cfg.Daemon)
	}
	if cfg.LLM.DefaultProvider != "auto" {
		t.Errorf("LLM.DefaultProvider = %q, want auto", cfg.LLM.DefaultProvider)
	}
	for _, name := range []string{"claude", "deepseek", "openai", "ollama"} {
		if _, ok := cfg.LLM.Providers[name]; !ok {
			t.Errorf("missing default provider %q", name)
		}
	}
	if cfg.Generator.MaxTokens != 2000 || cfg.Generator.Temperature != 0.7 {
		t.Errorf("Generator = %+v", cfg.Generator)
	}
	if cfg.Storage.Backend != BackendSQLite {
		t.Errorf("Storage.Backend = %q, want sqlite", cfg.Storage.Backend)
	}
	if cfg.Queue.Enabled {
		t.Error("queue should be disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLocalConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*LocalConfig)
		wantErr bool
	}{
		{"defaults", func(*LocalConfig) {}, false},
		{"port zero", func(c *LocalConfig) { c.Daemon.Port = 0 }, true},
		{"port too high", func(c *LocalConfig) { c.Daemon.Port = 70000 }, true},
		{"negative rate limit", func(c *LocalConfig) { c.Daemon.GenerateRateLimit = -1 }, true},
		{"rate limit disabled", func(c *LocalConfig) { c.Daemon.GenerateRateLimit = 0 }, false},
		{"file backend", func(c *LocalConfig) { c.Storage.Backend = BackendFile }, false},
		{"memory backend", func(c *LocalConfig) { c.Storage.Backend = BackendMemory }, false},
		{"unknown backend", func(c *LocalConfig) { c.Storage.Backend = "mongo" }, true},
		{"postgres without url", func(c *LocalConfig) { c.Storage.Backend = BackendPostgres }, true},
		{"postgres with url", func(c *LocalConfig) {
			c.Storage.Backend = BackendPostgres
			c.Storage.DatabaseURL = "postgres://localhost/exemplar"
		}, false},
		{"queue without url", func(c *LocalConfig) {
			c.Queue.Enabled = true
			c.Queue.URL = ""
		}, true},
		{"custom chain", func(c *LocalConfig) { c.Extraction.Strategies = []string{"json", "smart"} }, false},
		{"unknown strategy", func(c *LocalConfig) { c.Extraction.Strategies = []string{"magic"} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultLocalConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLocalConfig_StoragePath(t *testing.T) {
	dir := "/home/u/.exemplar"
	tests := []struct {
		backend string
		path    string
		want    string
	}{
		{BackendSQLite, "", filepath.Join(dir, "exemplar.db")},
		{BackendFile, "", filepath.Join(dir, "fixtures")},
		{BackendSQLite, "/data/x.db", "/data/x.db"},
	}
	for _, tt := range tests {
		cfg := DefaultLocalConfig()
		cfg.Storage.Backend = tt.backend
		cfg.Storage.Path = tt.path
		if got := cfg.StoragePath(dir); got != tt.want {
			t.Errorf("StoragePath(%s, %q) = %q, want %q", tt.backend, tt.path, got, tt.want)
		}
	}
}

func TestLoadSecrets(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultLocalConfig()

	secrets := "providers:\n  claude:\n    api_key: sk-claude\n  deepseek:\n    api_key: sk-deepseek\n  unknown:\n    api_key: ignored\n"
	if err := os.WriteFile(filepath.Join(dir, "secrets.yaml"), []byte(secrets), 0600); err != nil {
		t.Fatal(err)
	}

	if err := loadSecrets(dir, cfg); err != nil {
		t.Fatalf("loadSecrets() error = %v", err)
	}
	if got := cfg.LLM.Providers["claude"].APIKey; got != "sk-claude" {
		t.Errorf("claude APIKey = %q", got)
	}
	if got := cfg.LLM.Providers["deepseek"].APIKey; got != "sk-deepseek" {
		t.Errorf("deepseek APIKey = %q", got)
	}
	if _, ok := cfg.LLM.Providers["unknown"]; ok {
		t.Error("unknown providers should not be added")
	}
}

func TestLoadSecrets_Missing(t *testing.T) {
	if err := loadSecrets(t.TempDir(), DefaultLocalConfig()); err != nil {
		t.Errorf("loadSecrets() error = %v, want nil when the file is absent", err)
	}
}

func TestLoadSecrets_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "secrets.yaml"), []byte("invalid: yaml: content:"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := loadSecrets(dir, DefaultLocalConfig()); err == nil {
		t.Error("loadSecrets() should fail on invalid YAML")
	}
}

func TestLoadLocalConfig_DefaultsWhenNoFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadLocalConfig()
	if err != nil {
		t.Fatalf("LoadLocalConfig() error = %v", err)
	}
	if cfg.Daemon.Port != 7433 {
		t.Errorf("Daemon.Port = %d, want default 7433", cfg.Daemon.Port)
	}
}

func TestLoadLocalConfig_MergesFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".exemplar")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}

	content := `daemon:
  port: 9999
storage:
  backend: file
extraction:
  strategies: [json, structured]
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadLocalConfig()
	if err != nil {
		t.Fatalf("LoadLocalConfig() error = %v", err)
	}
	if cfg.Daemon.Port != 9999 {
		t.Errorf("Daemon.Port = %d, want 9999", cfg.Daemon.Port)
	}
	if cfg.Daemon.Bind != "127.0.0.1" {
		t.Errorf("Daemon.Bind = %q, want default kept", cfg.Daemon.Bind)
	}
	if cfg.Storage.Backend != BackendFile {
		t.Errorf("Storage.Backend = %q, want file", cfg.Storage.Backend)
	}
	if len(cfg.Extraction.Strategies) != 2 {
		t.Errorf("Extraction.Strategies = %v", cfg.Extraction.Strategies)
	}
}

func TestLoadLocalConfig_InvalidYAML(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".exemplar")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("daemon: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadLocalConfig(); err == nil {
		t.Error("LoadLocalConfig() should fail on invalid YAML")
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := DefaultLocalConfig()
	cfg.Daemon.Port = 8123
	cfg.Queue.Enabled = true
	if err := SaveLocalConfig(cfg); err != nil {
		t.Fatalf("SaveLocalConfig() error = %v", err)
	}
	if err := SaveSecrets(map[string]string{"claude": "sk-round-trip"}); err != nil {
		t.Fatalf("SaveSecrets() error = %v", err)
	}

	loaded, err := LoadLocalConfig()
	if err != nil {
		t.Fatalf("LoadLocalConfig() error = %v", err)
	}
	if loaded.Daemon.Port != 8123 || !loaded.Queue.Enabled {
		t.Errorf("loaded = %+v", loaded)
	}
	if got := loaded.LLM.Providers["claude"].APIKey; got != "sk-round-trip" {
		t.Errorf("claude APIKey = %q, want sk-round-trip", got)
	}
}

func TestSaveLocalConfig_OmitsAPIKeys(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := DefaultLocalConfig()
	cfg.LLM.Providers["claude"].APIKey = "sk-secret"
	if err := SaveLocalConfig(cfg); err != nil {
		t.Fatal(err)
	}

	dir, _ := Dir()
	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		t.Fatalf("config.yaml is not valid YAML: %v", err)
	}
	if strings.Contains(string(data), "sk-secret") {
		t.Error("config.yaml must not contain API keys")
	}
}

func TestSaveSecrets_Permissions(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if err := SaveSecrets(map[string]string{"deepseek": "sk"}); err != nil {
		t.Fatal(err)
	}
	dir, _ := Dir()
	info, err := os.Stat(filepath.Join(dir, "secrets.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("secrets.yaml mode = %o, want 600", perm)
	}
}
