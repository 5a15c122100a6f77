// file: internal/config/persistence_test.go
// version: 2.0.0
// guid: 5e6f7a8b-9c0d-1e2f-3a4b-5c6d7e8f9a0b

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func resetConfigTestState() {
	viper.Reset()
	AppConfig = Config{}
}

func TestConfigFilePath(t *testing.T) {
	resetConfigTestState()
	t.Cleanup(resetConfigTestState)

	AppConfig.CachePath = "/data/cache/resolutions.db"
	if got := ConfigFilePath(); got != "/data/cache/config.yaml" {
		t.Errorf("expected config next to cache, got %q", got)
	}
}

func TestSaveAndLoadConfigFile(t *testing.T) {
	resetConfigTestState()
	t.Cleanup(resetConfigTestState)

	dir := t.TempDir()
	AppConfig.CachePath = filepath.Join(dir, "resolutions.db")
	AppConfig.CacheType = "pebble"
	AppConfig.UserAgent = "test-agent/1.0"
	AppConfig.TimeoutMS = 15000
	AppConfig.WikidataEnabled = true
	AppConfig.EnableAIRanking = true
	AppConfig.APIKeys.OpenAI = "sk-secret"

	if err := SaveConfigToFile(); err != nil {
		t.Fatalf("SaveConfigToFile failed: %v", err)
	}

	path := filepath.Join(dir, "config.yaml")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected config file at %s: %v", path, err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("expected 0600 permissions, got %v", info.Mode().Perm())
	}

	// Clear secrets; file load should fill the gaps.
	cachePath := AppConfig.CachePath
	AppConfig = Config{CachePath: cachePath}
	if err := LoadConfigFromFile(); err != nil {
		t.Fatalf("LoadConfigFromFile failed: %v", err)
	}
	if AppConfig.APIKeys.OpenAI != "sk-secret" {
		t.Errorf("expected openai key restored from file, got %q", AppConfig.APIKeys.OpenAI)
	}
	if AppConfig.UserAgent != "test-agent/1.0" {
		t.Errorf("expected user agent restored from file, got %q", AppConfig.UserAgent)
	}
	if !AppConfig.EnableAIRanking {
		t.Error("expected enable_ai_ranking restored from file")
	}
}

func TestLoadConfigFromFileKeepsExistingValues(t *testing.T) {
	resetConfigTestState()
	t.Cleanup(resetConfigTestState)

	dir := t.TempDir()
	AppConfig.CachePath = filepath.Join(dir, "resolutions.db")

	data := []byte("openai_api_key: from-file\nuser_agent: file-agent\n")
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0o600); err != nil {
		t.Fatal(err)
	}

	AppConfig.APIKeys.OpenAI = "from-env"
	if err := LoadConfigFromFile(); err != nil {
		t.Fatalf("LoadConfigFromFile failed: %v", err)
	}

	// File must not override a value that is already set.
	if AppConfig.APIKeys.OpenAI != "from-env" {
		t.Errorf("expected existing key kept, got %q", AppConfig.APIKeys.OpenAI)
	}
	// But it fills the gap for unset values.
	if AppConfig.UserAgent != "file-agent" {
		t.Errorf("expected user agent from file, got %q", AppConfig.UserAgent)
	}
}

func TestLoadConfigFromFileMissingFile(t *testing.T) {
	resetConfigTestState()
	t.Cleanup(resetConfigTestState)

	AppConfig.CachePath = filepath.Join(t.TempDir(), "resolutions.db")
	if err := LoadConfigFromFile(); err != nil {
		t.Errorf("missing config file should not be an error, got %v", err)
	}
}

func TestLoadConfigFromFileMalformedYAML(t *testing.T) {
	resetConfigTestState()
	t.Cleanup(resetConfigTestState)

	dir := t.TempDir()
	AppConfig.CachePath = filepath.Join(dir, "resolutions.db")
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("{not yaml"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := LoadConfigFromFile(); err != nil {
		t.Errorf("malformed yaml should be tolerated, got %v", err)
	}
}
