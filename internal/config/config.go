// file: internal/config/config.go
// version: 2.0.0
// guid: 7b8c9d0e-1f2a-3b4c-5d6e-7f8a9b0c1d2e

package config

import (
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	CachePath    string
	CacheType    string // "pebble" (default) or "sqlite"
	EnableSQLite bool   // Must be true to use SQLite (safety flag)
	UserAgent    string
	TimeoutMS    int
	LogLevel     string

	WikidataEnabled    bool
	OpenLibraryEnabled bool
	EnableAIRanking    bool
	OpenAIModel        string

	APIKeys struct {
		Google         string
		GoogleEngineID string
		OpenAI         string
	}
}

var AppConfig Config

const defaultUserAgent = "canonmap/2.0 (+https://github.com/canonmap/canonmap)"

// InitConfig initializes the application configuration
func InitConfig() {
	// Set defaults
	viper.SetDefault("cache_type", "pebble")
	viper.SetDefault("enable_sqlite3_i_know_the_risks", false)
	viper.SetDefault("wikidata_enabled", true)
	viper.SetDefault("openlibrary_enabled", true)
	viper.SetDefault("timeout_ms", 30000)
	viper.SetDefault("user_agent", defaultUserAgent)

	AppConfig = Config{
		CachePath:          viper.GetString("cache_path"),
		CacheType:          viper.GetString("cache_type"),
		EnableSQLite:       viper.GetBool("enable_sqlite3_i_know_the_risks"),
		UserAgent:          viper.GetString("user_agent"),
		TimeoutMS:          viper.GetInt("timeout_ms"),
		LogLevel:           viper.GetString("log_level"),
		WikidataEnabled:    viper.GetBool("wikidata_enabled"),
		OpenLibraryEnabled: viper.GetBool("openlibrary_enabled"),
		EnableAIRanking:    viper.GetBool("enable_ai_ranking"),
		OpenAIModel:        viper.GetString("openai_model"),
	}

	// API Keys
	AppConfig.APIKeys.Google = viper.GetString("api_keys.google")
	AppConfig.APIKeys.GoogleEngineID = viper.GetString("api_keys.google_engine_id")
	AppConfig.APIKeys.OpenAI = viper.GetString("api_keys.openai")

	// Normalize cache type
	if AppConfig.CacheType == "sqlite3" {
		AppConfig.CacheType = "sqlite"
	}
	if AppConfig.CacheType == "" {
		AppConfig.CacheType = "pebble"
	}
	if AppConfig.TimeoutMS <= 0 {
		AppConfig.TimeoutMS = 30000
	}
}
