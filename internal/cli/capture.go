package cli

import (
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/caselaw-ingest/internal/async"
	"github.com/joseph-ayodele/caselaw-ingest/internal/ingest"
)

var (
	captureDescriptor string
	captureRecords    string
	capturePDFField   string
	captureBatchSize  int
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Store crawled records with their PDF text and structure them",
	Long: `Reads crawler output (a JSON array or JSON lines of string maps) and a
YAML crawl descriptor. Records are captured in batches of --batch-size; each
batch is stored and then structured before the next one on the same crawl.`,
	RunE: runCapture,
}

func init() {
	captureCmd.Flags().StringVarP(&captureDescriptor, "descriptor", "d", "", "crawl descriptor YAML (required)")
	captureCmd.Flags().StringVarP(&captureRecords, "records", "r", "", "records file, JSON or JSONL (default stdin)")
	captureCmd.Flags().StringVar(&capturePDFField, "pdf-field", "", "record column holding the PDF link (overrides the descriptor)")
	captureCmd.Flags().IntVar(&captureBatchSize, "batch-size", 10, "records per captured batch")
	_ = captureCmd.MarkFlagRequired("descriptor")
	rootCmd.AddCommand(captureCmd)
}

func runCapture(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	descriptor, err := ingest.LoadDescriptor(captureDescriptor)
	if err != nil {
		return err
	}

	in := os.Stdin
	if captureRecords != "" && captureRecords != "-" {
		f, err := os.Open(captureRecords)
		if err != nil {
			return fmt.Errorf("open records: %w", err)
		}
		defer f.Close()
		in = f
	}
	records, err := ingest.LoadRecords(in)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		cmd.Println("No records to capture.")
		return nil
	}

	a, err := newApp(ctx, cfg, log, true)
	if err != nil {
		return err
	}
	defer a.close(log)

	var (
		mu       sync.Mutex
		stored   int
		skipped  int
		failures int
	)
	q := async.NewCaptureQueue(a.intake, log,
		async.WithWorkers(cfg.Intake.Workers),
		async.WithResultHandler(func(r async.Result) {
			mu.Lock()
			defer mu.Unlock()
			stored += r.Summary.Stored
			skipped += len(r.Summary.Skipped)
			if r.Err != nil {
				failures++
				cmd.PrintErrf("batch %s failed: %v\n", r.Job.ID, r.Err)
				return
			}
			if b := r.Summary.Batch; b != nil {
				cmd.Printf("batch %s: stored=%d committed=%d duplicates=%d failed=%d\n",
					r.MetadataID, r.Summary.Stored, b.Committed, b.Duplicates, b.Failed)
			}
		}),
	)

	for _, chunk := range ingest.Chunk(records, captureBatchSize) {
		job := async.Job{Descriptor: descriptor, Records: chunk, PDFLinkField: capturePDFField}
		if err := q.Enqueue(ctx, job); err != nil {
			q.Shutdown(ctx)
			return err
		}
	}
	q.Shutdown(ctx)

	cmd.Printf("captured %d records: stored=%d skipped=%d failed_batches=%d\n", len(records), stored, skipped, failures)
	if failures > 0 {
		return fmt.Errorf("%d batch(es) failed", failures)
	}
	return nil
}
