package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/caselaw-ingest/internal/entity"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context(), cfg, log, false)
		if err != nil {
			return err
		}
		defer a.close(log)
		cmd.Println("schema up to date")
		return nil
	},
}

var dbhealthCmd = &cobra.Command{
	Use:   "dbhealth",
	Short: "Ping the database and print row counts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, cfg, log, false)
		if err != nil {
			return err
		}
		defer a.close(log)

		if err := a.store.HealthCheck(ctx, time.Second, log); err != nil {
			cmd.PrintErrf("DB health: FAIL (%v)\n", err)
			return err
		}
		cmd.Println("DB health: OK")

		for _, t := range []struct {
			name  string
			model any
		}{
			{"metadata_raw", &entity.MetadataRaw{}},
			{"raw_documents", &entity.RawDocument{}},
			{"documents", &entity.Document{}},
		} {
			var n int64
			if err := a.store.DB.WithContext(ctx).Model(t.model).Count(&n).Error; err != nil {
				return err
			}
			cmd.Printf("- %-14s %d\n", t.name, n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd, dbhealthCmd)
}
