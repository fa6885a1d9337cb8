package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"groundqa/config"
	"groundqa/internal/adapter/cache"
	"groundqa/internal/adapter/extract"
	"groundqa/internal/adapter/generator"
	"groundqa/internal/adapter/store"
	"groundqa/internal/port"
	"groundqa/internal/usecase"
)

var (
	cfgFile  string
	cfg      *config.Config
	rootDir  string
	logLevel string
	logger   *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "groundqa",
	Short: "Grounded question answering over local documents",
	Long: `groundqa ingests text, Markdown and PDF files, retrieves the passages
that best cover a question's keywords, and answers with citations that are
checked against the retrieved passages.

Example usage:
  groundqa ingest ./docs                 # Ingest a directory
  groundqa query -q "retention policy"   # Show ranked evidence
  groundqa ask -q "how long are logs kept?"`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		// A missing .env file is fine.
		_ = godotenv.Load(filepath.Join(rootDir, ".env"))

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		logger = newLogger(cfg.Logging)
		slog.SetDefault(logger)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./groundqa.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "data directory (default is current directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}

// newLogger builds the process logger. Logs go to stderr so command
// output on stdout stays machine readable.
func newLogger(lc config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(lc.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// openStore opens the document store under dir. With mustExist set a
// missing store is reported instead of created.
func openStore(dir string, mustExist bool) (*store.BoltStore, error) {
	dbPath := config.StoreDBPath(dir)
	if mustExist {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("no document store found. Run 'groundqa ingest' first")
		}
	} else if err := config.EnsureDataDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	st, err := store.NewBoltStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open document store: %w", err)
	}
	return st, nil
}

func newTextCache(cfg *config.Config) *cache.TextCache {
	return cache.NewTextCache(cfg.Retrieve.TextCacheSize, cfg.Retrieve.TextCacheTTL)
}

func newRetriever(cfg *config.Config, st port.DocumentStore) (*usecase.RetrieveUseCase, error) {
	return usecase.NewRetrieveUseCase(st, extract.NewExtractor(cfg.Ingest.MaxFileBytes),
		usecase.WithLogger(logger),
		usecase.WithWorkers(cfg.Retrieve.Workers),
		usecase.WithChunking(cfg.Retrieve.ChunkSize, cfg.Retrieve.ChunkOverlap),
		usecase.WithTextCache(newTextCache(cfg)),
	)
}

func newGenerator(gc config.GeneratorConfig, logger *slog.Logger) (port.Generator, error) {
	switch gc.Provider {
	case "openai":
		return generator.NewOpenAIGenerator(gc, logger)
	case "mock":
		return generator.NewMockGenerator(), nil
	default:
		return nil, fmt.Errorf("unsupported generator provider: %s", gc.Provider)
	}
}

func retryPolicy(gc config.GeneratorConfig) generator.RetryPolicy {
	return generator.RetryPolicy{
		MaxAttempts:     gc.MaxAttempts,
		RetryableStatus: gc.RetryableStatus,
		BaseDelay:       gc.BaseDelay,
		MaxDelay:        gc.MaxDelay,
	}
}
