// Package cli wires the ingestion components into the caselaw command.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/caselaw-ingest/internal/common"
	"github.com/joseph-ayodele/caselaw-ingest/internal/logger"
)

var (
	cfg *common.Config
	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "caselaw",
	Short: "Capture court judgments and structure them into documents",
	Long: `caselaw stores crawled judgment records with their PDF text, extracts
structured metadata from each document with an LLM, and keeps one
document per reference id.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg = common.LoadConfig()
		l, err := logger.New(cfg.Log.Mode, cfg.Log.File)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		log = l
		return nil
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		if log != nil {
			log.Sync()
		}
	},
}

// Execute runs the root command with a context cancelled on SIGINT/SIGTERM.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}
