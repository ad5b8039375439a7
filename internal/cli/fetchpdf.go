package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/caselaw-ingest/internal/llm"
	"github.com/joseph-ayodele/caselaw-ingest/internal/pdf"
)

var fetchPDFOut string

var fetchPDFCmd = &cobra.Command{
	Use:   "fetch-pdf <url>",
	Short: "Download one PDF and print or save its text",
	Args:  cobra.ExactArgs(1),
	RunE:  runFetchPDF,
}

func init() {
	fetchPDFCmd.Flags().StringVar(&fetchPDFOut, "out", "", "file to write the extracted text to")
	rootCmd.AddCommand(fetchPDFCmd)
}

func runFetchPDF(cmd *cobra.Command, args []string) error {
	f := pdf.NewFetcher(pdf.Config{
		MaxBytes:  cfg.PDF.MaxBytes,
		Timeout:   cfg.PDF.Timeout,
		Pdftotext: cfg.PDF.Pdftotext,
	}, log)

	res, err := f.Fetch(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if fetchPDFOut != "" {
		if err := os.WriteFile(fetchPDFOut, []byte(res.Text), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", fetchPDFOut, err)
		}
		cmd.Printf("wrote %d pages of text to %s\n", res.Pages, fetchPDFOut)
		return nil
	}
	cmd.Printf("fetched %d pages from %s\n\n", res.Pages, res.URL)
	cmd.Println(llm.TruncateRunes(res.Text, 2000))
	return nil
}
