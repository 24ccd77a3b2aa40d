package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seportal/searchd/internal/config"
	logpkg "github.com/seportal/searchd/internal/logger"
)

func newReindexCmd() *cobra.Command {
	var recreateIndex bool

	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Run one full indexing pass and exit",
		Long: "Fetches the portal content snapshot, purges the vector index " +
			"and re-embeds every item. Equivalent to POST /init-embeddings.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReindex(cmd, recreateIndex)
		},
	}
	cmd.Flags().BoolVar(&recreateIndex, "recreate-index", false,
		"drop and recreate the FT index definition (required after changing embedding dimensions)")
	return cmd
}

func runReindex(cmd *cobra.Command, recreateIndex bool) error {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	deps, err := buildServices(cfg, logger)
	if err != nil {
		return err
	}
	defer deps.store.Close()

	if recreateIndex {
		if err := deps.repo.DropIndex(cmd.Context()); err != nil {
			return fmt.Errorf("drop index: %w", err)
		}
		logger.Info("index definition dropped")
	}

	report, err := deps.indexer.Reindex(cmd.Context())
	if err != nil {
		logger.Error("indexing run failed", zap.Error(err))
		return fmt.Errorf("reindex: %w", err)
	}

	cmd.Printf("indexed %d of %d items, %d failed, %d purged\n",
		report.Indexed(), len(report.Results), report.Failed(), report.Purged)
	if !report.Snapshot.Complete {
		for _, f := range report.Snapshot.Failures {
			cmd.Printf("unreachable source: %s\n", f.Source)
		}
	}
	return nil
}
