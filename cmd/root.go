// file: cmd/root.go
// version: 2.0.0
// guid: 6a7b8c9d-0e1f-2a3b-4c5d-6e7f8a9b0c1d

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/canonmap/canonmap/internal/cachestore"
	"github.com/canonmap/canonmap/internal/config"
	"github.com/canonmap/canonmap/internal/entity"
	"github.com/canonmap/canonmap/internal/resolver"
	"github.com/canonmap/canonmap/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string
var cachePath string
var cacheType string
var enableSQLite bool
var entityType string
var bookAuthor string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "canonmap",
	Short: "Resolve cultural/media entity names to canonical URLs",
	Long: `Canonmap maps free-text names of movies, books, games, albums and other
cultural entities to a single canonical URL plus metadata.

It queries Wikidata, Open Library and web search in priority order,
resolving ambiguity with deterministic heuristics before falling back
to AI-assisted ranking.`,
}

// newResolver builds a resolver from the loaded application config.
func newResolver() *resolver.Resolver {
	cfg := resolver.Config{
		WikidataEnabled:    config.AppConfig.WikidataEnabled,
		OpenLibraryEnabled: config.AppConfig.OpenLibraryEnabled,
		GoogleAPIKey:       config.AppConfig.APIKeys.Google,
		GoogleEngineID:     config.AppConfig.APIKeys.GoogleEngineID,
		OpenAIAPIKey:       config.AppConfig.APIKeys.OpenAI,
		OpenAIModel:        config.AppConfig.OpenAIModel,
		AIEnabled:          config.AppConfig.EnableAIRanking,
		UserAgent:          config.AppConfig.UserAgent,
		StageTimeout:       time.Duration(config.AppConfig.TimeoutMS) * time.Millisecond,
	}
	var opts []resolver.Option
	if cachestore.GlobalStore != nil {
		opts = append(opts, resolver.WithStore(cachestore.GlobalStore))
	}
	return resolver.New(cfg, opts...)
}

// initCacheStore opens the persistent resolution cache when a path is set.
func initCacheStore() (func(), error) {
	if config.AppConfig.CachePath == "" {
		return func() {}, nil
	}
	if err := cachestore.InitializeStore(
		config.AppConfig.CacheType,
		config.AppConfig.CachePath,
		config.AppConfig.EnableSQLite,
	); err != nil {
		return nil, fmt.Errorf("failed to initialize cache store: %w", err)
	}
	fmt.Printf("Using cache: %s (%s)\n", config.AppConfig.CachePath, config.AppConfig.CacheType)
	return func() { cachestore.CloseStore() }, nil
}

func printResolved(resolved *entity.Resolved) error {
	out, err := json.MarshalIndent(resolved, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve <query>",
	Short: "Resolve a single entity name",
	Long:  `Resolve a free-text entity name of the given type to a canonical URL.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		typ, err := entity.ParseType(entityType)
		if err != nil {
			return err
		}

		closer, err := initCacheStore()
		if err != nil {
			return err
		}
		defer closer()

		resolved, err := newResolver().ResolveEntity(cmd.Context(), args[0], typ)
		if err != nil {
			return err
		}
		if resolved == nil {
			fmt.Printf("Could not resolve %q (%s)\n", args[0], typ)
			os.Exit(1)
		}
		return printResolved(resolved)
	},
}

// resolveBookCmd represents the resolve-book command
var resolveBookCmd = &cobra.Command{
	Use:   "resolve-book <title>",
	Short: "Resolve a book title with an optional author hint",
	Long:  `Resolve a book title to a canonical URL, using the author to disambiguate.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		closer, err := initCacheStore()
		if err != nil {
			return err
		}
		defer closer()

		resolved, err := newResolver().ResolveBook(cmd.Context(), args[0], bookAuthor)
		if err != nil {
			return err
		}
		if resolved == nil {
			fmt.Printf("Could not resolve book %q\n", args[0])
			os.Exit(1)
		}
		return printResolved(resolved)
	},
}

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the resolution API server",
	Long:  `Start the HTTP server exposing the resolution pipeline and metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		closer, err := initCacheStore()
		if err != nil {
			return err
		}
		defer closer()

		fmt.Println("Starting canonmap API server...")

		srv := server.NewServer(newResolver())
		cfg := server.GetDefaultServerConfig()

		// Override with command line flags if provided
		if port := cmd.Flag("port").Value.String(); port != "" {
			cfg.Port = port
		}
		if host := cmd.Flag("host").Value.String(); host != "" {
			cfg.Host = host
		}
		if rt := cmd.Flag("read-timeout").Value.String(); rt != "" {
			if d, err := time.ParseDuration(rt); err == nil {
				cfg.ReadTimeout = d
			}
		}
		if wt := cmd.Flag("write-timeout").Value.String(); wt != "" {
			if d, err := time.ParseDuration(wt); err == nil {
				cfg.WriteTimeout = d
			}
		}
		if it := cmd.Flag("idle-timeout").Value.String(); it != "" {
			if d, err := time.ParseDuration(it); err == nil {
				cfg.IdleTimeout = d
			}
		}

		return srv.Start(cfg)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.canonmap.yaml)")
	rootCmd.PersistentFlags().StringVar(&cachePath, "cache", "", "path to the persistent resolution cache")
	rootCmd.PersistentFlags().StringVar(&cacheType, "cache-type", "pebble", "cache type: pebble (default) or sqlite")
	rootCmd.PersistentFlags().BoolVar(&enableSQLite, "enable-sqlite3-i-know-the-risks", false, "enable SQLite3 cache (WARNING: cross-compilation issues, PebbleDB recommended)")
	rootCmd.PersistentFlags().String("google-key", "", "web search API key")
	rootCmd.PersistentFlags().String("google-cx", "", "web search engine id")
	rootCmd.PersistentFlags().String("openai-key", "", "OpenAI API key for AI ranking")

	viper.BindPFlag("cache_path", rootCmd.PersistentFlags().Lookup("cache"))
	viper.BindPFlag("cache_type", rootCmd.PersistentFlags().Lookup("cache-type"))
	viper.BindPFlag("enable_sqlite3_i_know_the_risks", rootCmd.PersistentFlags().Lookup("enable-sqlite3-i-know-the-risks"))
	viper.BindPFlag("api_keys.google", rootCmd.PersistentFlags().Lookup("google-key"))
	viper.BindPFlag("api_keys.google_engine_id", rootCmd.PersistentFlags().Lookup("google-cx"))
	viper.BindPFlag("api_keys.openai", rootCmd.PersistentFlags().Lookup("openai-key"))

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(resolveBookCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(diagnosticsCmd)

	// Per-command flags
	resolveCmd.Flags().StringVar(&entityType, "type", "movie", "entity type (movie, tv_show, book, video_game, physical_game, album, song, podcast, artist, other)")
	resolveBookCmd.Flags().StringVar(&bookAuthor, "author", "", "author name used as a disambiguation hint")

	serveCmd.Flags().String("port", "8080", "port to run the API server on")
	serveCmd.Flags().String("host", "localhost", "host to bind the API server to")
	serveCmd.Flags().String("read-timeout", "15s", "read timeout (e.g. 15s, 1m)")
	serveCmd.Flags().String("write-timeout", "15s", "write timeout (e.g. 15s, 1m)")
	serveCmd.Flags().String("idle-timeout", "60s", "idle timeout (e.g. 60s, 2m)")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".canonmap")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}

	// Ensure cache directory exists
	if cachePath != "" {
		cacheDir := filepath.Dir(cachePath)
		if cacheDir != "." {
			if err := os.MkdirAll(cacheDir, 0755); err != nil {
				fmt.Printf("Error creating cache directory: %v\n", err)
			}
		}
	}

	config.InitConfig()

	// Fill secrets from the config file next to the cache when flags and
	// env left gaps.
	if err := config.LoadConfigFromFile(); err != nil {
		fmt.Printf("Warning: Could not load config file: %v\n", err)
	}
}
