// file: internal/config/persistence.go
// version: 2.0.0
// guid: 9c8d7e6f-5a4b-3c2d-1e0f-9a8b7c6d5e4f

package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFilePath returns the path to the YAML config file next to the cache.
func ConfigFilePath() string {
	if AppConfig.CachePath != "" {
		return filepath.Join(filepath.Dir(AppConfig.CachePath), "config.yaml")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".canonmap", "config.yaml")
	}
	return ""
}

// LoadConfigFromFile loads settings from the YAML config file as a fallback.
// File values only fill in gaps so flags and env vars keep priority.
func LoadConfigFromFile() error {
	path := ConfigFilePath()
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fileConfig map[string]any
	if err := yaml.Unmarshal(data, &fileConfig); err != nil {
		log.Printf("Warning: Failed to parse config file %s: %v", path, err)
		return nil
	}

	applied := 0

	// Only fill in values that are currently empty/default.
	stringFallbacks := map[string]*string{
		"google_api_key":   &AppConfig.APIKeys.Google,
		"google_engine_id": &AppConfig.APIKeys.GoogleEngineID,
		"openai_api_key":   &AppConfig.APIKeys.OpenAI,
		"openai_model":     &AppConfig.OpenAIModel,
		"cache_path":       &AppConfig.CachePath,
		"user_agent":       &AppConfig.UserAgent,
	}
	for key, ptr := range stringFallbacks {
		if *ptr == "" {
			if val, ok := fileConfig[key].(string); ok && val != "" {
				*ptr = val
				applied++
				log.Printf("[INFO] Loaded %s from config file", key)
			}
		}
	}

	if !AppConfig.EnableAIRanking {
		if val, ok := fileConfig["enable_ai_ranking"].(bool); ok && val {
			AppConfig.EnableAIRanking = true
			applied++
			log.Printf("[INFO] Loaded enable_ai_ranking from config file")
		}
	}

	if applied > 0 {
		log.Printf("Applied %d settings from config file %s", applied, path)
	}
	return nil
}

// SaveConfigToFile writes key settings to a YAML config file next to the
// cache. Secrets are stored in plaintext, so the file is written with 0600
// permissions.
func SaveConfigToFile() error {
	path := ConfigFilePath()
	if path == "" {
		return fmt.Errorf("cannot determine config file path")
	}

	fileConfig := map[string]any{
		"cache_path":          AppConfig.CachePath,
		"cache_type":          AppConfig.CacheType,
		"user_agent":          AppConfig.UserAgent,
		"timeout_ms":          AppConfig.TimeoutMS,
		"log_level":           AppConfig.LogLevel,
		"wikidata_enabled":    AppConfig.WikidataEnabled,
		"openlibrary_enabled": AppConfig.OpenLibraryEnabled,
		"enable_ai_ranking":   AppConfig.EnableAIRanking,
	}

	// Only write secrets if they're set (plaintext in file, file permissions protect them)
	if AppConfig.APIKeys.Google != "" {
		fileConfig["google_api_key"] = AppConfig.APIKeys.Google
	}
	if AppConfig.APIKeys.GoogleEngineID != "" {
		fileConfig["google_engine_id"] = AppConfig.APIKeys.GoogleEngineID
	}
	if AppConfig.APIKeys.OpenAI != "" {
		fileConfig["openai_api_key"] = AppConfig.APIKeys.OpenAI
	}
	if AppConfig.OpenAIModel != "" {
		fileConfig["openai_model"] = AppConfig.OpenAIModel
	}

	data, err := yaml.Marshal(fileConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	// Write with restrictive permissions since it may contain secrets
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	log.Printf("Configuration saved to file: %s", path)
	return nil
}
