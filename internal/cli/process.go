package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/caselaw-ingest/internal/ingest"
	"github.com/joseph-ayodele/caselaw-ingest/internal/pipeline"
)

var (
	processCount int
	processJSON  bool
)

var processCmd = &cobra.Command{
	Use:   "process <metadata-id>",
	Short: "Structure the newest raw documents of a captured batch",
	Args:  cobra.ExactArgs(1),
	RunE:  runProcess,
}

func init() {
	processCmd.Flags().IntVarP(&processCount, "count", "n", 10, "number of newest raw documents to process")
	processCmd.Flags().BoolVar(&processJSON, "json", false, "print the summary as JSON")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	metaID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid metadata id: %w", err)
	}

	a, err := newApp(ctx, cfg, log, true)
	if err != nil {
		return err
	}
	defer a.close(log)

	meta, err := a.metadata.GetByID(ctx, metaID)
	if err != nil {
		return err
	}
	if !processJSON {
		cmd.Printf("processing %s (%s)\n", meta.ID, meta.FetchURI)
	}

	return processAndReport(cmd, a.orchestrator, metaID)
}

// processAndReport runs one batch and prints its outcomes. A commit failure
// still prints the summary before the error is returned.
func processAndReport(cmd *cobra.Command, proc ingest.BatchProcessor, metaID uuid.UUID) error {
	summary, err := proc.ProcessBatch(cmd.Context(), metaID, processCount)
	var fatal *pipeline.FatalBatchError
	if err != nil && !errors.As(err, &fatal) {
		return err
	}

	if processJSON {
		out := struct {
			pipeline.BatchSummary
			Outcomes []outcomeView `json:"Outcomes"`
		}{BatchSummary: summary}
		for _, o := range summary.Outcomes {
			out.Outcomes = append(out.Outcomes, newOutcomeView(o))
		}
		b, mErr := json.MarshalIndent(out, "", "  ")
		if mErr != nil {
			return mErr
		}
		cmd.Println(string(b))
	} else {
		for _, o := range summary.Outcomes {
			line := fmt.Sprintf("%-18s %s %s", o.State, o.RawDocumentID, o.ReferenceID)
			if o.Err != nil {
				line += "  (" + o.Err.Error() + ")"
			}
			cmd.Println(line)
		}
		cmd.Printf("read=%d committed=%d duplicates=%d failed=%d\n",
			summary.Read, summary.Committed, summary.Duplicates, summary.Failed)
	}
	return err
}

type outcomeView struct {
	RawDocumentID uuid.UUID `json:"raw_document_id"`
	ReferenceID   string    `json:"reference_id,omitempty"`
	State         string    `json:"state"`
	Error         string    `json:"error,omitempty"`
}

func newOutcomeView(o pipeline.RecordOutcome) outcomeView {
	v := outcomeView{RawDocumentID: o.RawDocumentID, ReferenceID: o.ReferenceID, State: string(o.State)}
	if o.Err != nil {
		v.Error = o.Err.Error()
	}
	return v
}
