// Package main implements the decisions CLI: run documents through the
// extraction pipeline, review candidates and export kept decisions.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/decisions-tracker/internal/common"
	"github.com/joseph-ayodele/decisions-tracker/internal/repository"
)

var (
	configPath string
	logLevel   string
	dsn        string
	version    = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "decisions",
	Short: "Extract decision candidates from reports and memos",
	Long: `decisions reads PDFs, text files and memos, scores every sentence and
clause for decision language, and stores the candidates for review.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("DECISIONS_CONFIG"), "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "override database.dsn")
}

// env is what every subcommand needs: config, logger and an open store.
type env struct {
	cfg    *common.Config
	logger *slog.Logger
	db     *repository.DB
	store  *repository.Store
}

func setup(ctx context.Context) (*env, error) {
	cfg, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if dsn != "" {
		cfg.Database.DSN = dsn
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Log.NewLogger()
	slog.SetDefault(logger)

	db, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close(logger)
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, db: db, store: repository.NewStore(db, logger)}, nil
}

func (e *env) Close() {
	e.db.Close(e.logger)
}
