package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/caselaw-ingest/internal/export"
	"github.com/joseph-ayodele/caselaw-ingest/internal/repository"
)

var (
	exportOut          string
	exportFromYear     int
	exportToYear       int
	exportJurisdiction string
	exportCourt        string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write structured documents to an XLSX workbook",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "documents.xlsx", "output XLSX path")
	exportCmd.Flags().IntVar(&exportFromYear, "from-year", 0, "earliest judgment year")
	exportCmd.Flags().IntVar(&exportToYear, "to-year", 0, "latest judgment year")
	exportCmd.Flags().StringVar(&exportJurisdiction, "jurisdiction", "", "only this jurisdiction")
	exportCmd.Flags().StringVar(&exportCourt, "court", "", "only this court")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, log, false)
	if err != nil {
		return err
	}
	defer a.close(log)

	data, err := export.NewService(a.docs, log).DocumentsXLSX(ctx, repository.DocumentFilter{
		FromYear:     exportFromYear,
		ToYear:       exportToYear,
		Jurisdiction: exportJurisdiction,
		Court:        exportCourt,
	})
	if err != nil {
		return err
	}
	if err := os.WriteFile(exportOut, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", exportOut, err)
	}
	cmd.Printf("wrote %s (%d bytes)\n", exportOut, len(data))
	return nil
}
