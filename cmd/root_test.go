// file: cmd/root_test.go
// version: 2.0.0
// guid: 7eae8d0c-7fda-4f45-8f73-5d1e0c7c9f1a

package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/canonmap/canonmap/internal/config"
	"github.com/spf13/viper"
)

func TestInitConfigCreatesCacheDirectory(t *testing.T) {
	tempDir := t.TempDir()
	cacheDir := filepath.Join(tempDir, "cache", "resolutions.db")

	origCfgFile := cfgFile
	origCachePath := cachePath
	origConfig := config.AppConfig
	defer func() {
		cfgFile = origCfgFile
		cachePath = origCachePath
		config.AppConfig = origConfig
	}()

	cfgFile = filepath.Join(tempDir, "config.yaml")
	cachePath = cacheDir

	viper.Reset()
	initConfig()

	if _, err := os.Stat(filepath.Dir(cacheDir)); err != nil {
		t.Fatalf("expected cache directory to exist: %v", err)
	}
}

func TestInitConfigUsesHomeConfig(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, ".canonmap.yaml")
	if err := os.WriteFile(configPath, []byte("cache_path: /tmp/cache\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	origCfgFile := cfgFile
	origCachePath := cachePath
	origConfig := config.AppConfig
	defer func() {
		cfgFile = origCfgFile
		cachePath = origCachePath
		config.AppConfig = origConfig
	}()

	t.Setenv("HOME", tempDir)
	cfgFile = ""
	cachePath = ""

	viper.Reset()
	initConfig()

	if config.AppConfig.CachePath != "/tmp/cache" {
		t.Fatalf("expected cache path from home config, got %q", config.AppConfig.CachePath)
	}
}

func TestNewResolverUsesAppConfig(t *testing.T) {
	origConfig := config.AppConfig
	defer func() {
		config.AppConfig = origConfig
	}()

	config.AppConfig = config.Config{
		WikidataEnabled: true,
		TimeoutMS:       5000,
	}
	if r := newResolver(); r == nil {
		t.Fatal("expected a resolver instance")
	}
}

func TestInitCacheStoreNoPath(t *testing.T) {
	origConfig := config.AppConfig
	defer func() {
		config.AppConfig = origConfig
	}()

	config.AppConfig = config.Config{}
	closer, err := initCacheStore()
	if err != nil {
		t.Fatalf("expected no error without a cache path, got %v", err)
	}
	closer()
}

func TestResolveCommandRejectsUnknownType(t *testing.T) {
	origType := entityType
	defer func() { entityType = origType }()

	entityType = "sculpture"
	if err := resolveCmd.RunE(resolveCmd, []string{"x"}); err == nil {
		t.Fatal("expected error for unknown entity type")
	}
}
