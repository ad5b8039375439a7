// Package pipeline turns captured raw documents into deduplicated,
// structured documents.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/caselaw-ingest/constants"
	"github.com/joseph-ayodele/caselaw-ingest/internal/common"
	"github.com/joseph-ayodele/caselaw-ingest/internal/entity"
	"github.com/joseph-ayodele/caselaw-ingest/internal/llm"
	"github.com/joseph-ayodele/caselaw-ingest/internal/logger"
	"github.com/joseph-ayodele/caselaw-ingest/internal/repository"
)

type Config struct {
	// Concurrency bounds in-flight extraction calls. 1 runs them sequentially.
	Concurrency int
	// MaxAttempts is passed to the extractor for every record.
	MaxAttempts int
}

// Orchestrator coordinates extraction and the deduplicated insert of one
// metadata batch at a time.
type Orchestrator struct {
	Logger    *logger.Logger
	Cfg       Config
	Raws      repository.RawDocumentRepository
	Docs      repository.DocumentRepository
	Extractor llm.FieldExtractor
}

func NewOrchestrator(
	log *logger.Logger,
	cfg Config,
	raws repository.RawDocumentRepository,
	docs repository.DocumentRepository,
	fe llm.FieldExtractor,
) *Orchestrator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	return &Orchestrator{
		Logger:    logger.OrNop(log).With("component", "Orchestrator"),
		Cfg:       cfg,
		Raws:      raws,
		Docs:      docs,
		Extractor: fe,
	}
}

type extraction struct {
	result llm.ExtractionResult
	err    error
}

// ProcessBatch structures the n newest raw documents of a metadata batch.
// Per-record failures are reported in the summary; only infrastructure
// failures are returned as errors. A commit failure returns a
// *FatalBatchError together with the summary.
func (o *Orchestrator) ProcessBatch(ctx context.Context, metadataID uuid.UUID, n int) (BatchSummary, error) {
	summary := BatchSummary{MetadataID: metadataID, Requested: n}
	ctx = common.WithBatchID(ctx, metadataID.String())
	log := o.Logger.With("metadata_id", metadataID)
	start := time.Now()

	raws, err := o.Raws.ListNewest(ctx, metadataID, n)
	if err != nil {
		return summary, fmt.Errorf("read raw documents: %w", err)
	}
	summary.Read = len(raws)
	if len(raws) == 0 {
		log.Info("pipeline.batch.empty", "requested", n)
		return summary, nil
	}
	log.Info("pipeline.batch.start", "records", len(raws), "concurrency", o.Cfg.Concurrency)

	extracted := o.extractAll(ctx, raws)

	batch, err := o.Docs.Begin(ctx)
	if err != nil {
		return summary, fmt.Errorf("begin batch: %w", err)
	}
	defer func() {
		if err := batch.Rollback(); err != nil {
			log.Warn("pipeline.batch.rollback_error", "error", err)
		}
	}()

	summary.Outcomes = make([]RecordOutcome, len(raws))
	for i := range raws {
		summary.Outcomes[i] = o.stage(ctx, batch, &raws[i], extracted[i])
	}

	if err := batch.Commit(); err != nil {
		for i := range summary.Outcomes {
			if summary.Outcomes[i].State == constants.StateStaged {
				summary.Outcomes[i].State = constants.StateInsertFailed
				summary.Outcomes[i].Err = err
			}
		}
		summary.tally()
		log.Error("pipeline.batch.commit_failed", "error", err)
		return summary, &FatalBatchError{MetadataID: metadataID, Cause: err}
	}
	for i := range summary.Outcomes {
		if summary.Outcomes[i].State == constants.StateStaged {
			summary.Outcomes[i].State = constants.StateCommitted
		}
	}
	summary.tally()

	log.Info("pipeline.batch.done",
		"committed", summary.Committed,
		"duplicates", summary.Duplicates,
		"failed", summary.Failed,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return summary, nil
}

// extractAll runs the extractor for every raw document with bounded
// concurrency. Results keep the input order.
func (o *Orchestrator) extractAll(ctx context.Context, raws []entity.RawDocument) []extraction {
	out := make([]extraction, len(raws))
	var g errgroup.Group
	g.SetLimit(o.Cfg.Concurrency)
	for i := range raws {
		raw := &raws[i]
		g.Go(func() error {
			out[i] = o.extractOne(ctx, raw)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (o *Orchestrator) extractOne(ctx context.Context, raw *entity.RawDocument) extraction {
	var payload map[string]any
	if err := json.Unmarshal(raw.Payload, &payload); err != nil {
		return extraction{err: fmt.Errorf("%w: decode payload: %v", common.ErrInvalidInput, err)}
	}
	ctx = common.WithRecordID(ctx, raw.ID.String())
	res, err := o.Extractor.Extract(ctx, payload, raw.PDFRaw, o.Cfg.MaxAttempts)
	return extraction{result: res, err: err}
}

// stage applies the dedup rule and inserts one document behind its own
// savepoint. It must be called in processing order.
func (o *Orchestrator) stage(ctx context.Context, batch repository.Batch, raw *entity.RawDocument, ex extraction) RecordOutcome {
	out := RecordOutcome{RawDocumentID: raw.ID, PDFURI: raw.PDFURI, State: constants.StateFetched}
	log := o.Logger.With("raw_document_id", raw.ID)

	if ex.err != nil {
		out.State, out.Err = constants.StateExtractionFailed, ex.err
		log.Error("pipeline.record.extraction_failed", "pdf_uri", raw.PDFURI, "error", ex.err)
		return out
	}
	out.State = constants.StateExtracted

	res := ex.result
	ref := strings.TrimSpace(res.ReferenceID)
	if ref == "" {
		ref = constants.UnknownValue
	}
	out.ReferenceID = ref

	exists, err := batch.Exists(ctx, ref)
	if err != nil {
		out.State, out.Err = constants.StateInsertFailed, err
		log.Error("pipeline.record.dedup_check_failed", "reference_id", ref, "error", err)
		return out
	}
	if exists {
		out.State = constants.StateDuplicateSkipped
		log.Info("pipeline.record.duplicate", "reference_id", ref)
		return out
	}
	out.State = constants.StateValidated

	rawID := raw.ID
	doc := &entity.Document{
		ReferenceID:    ref,
		Title:          strings.TrimSpace(res.Title),
		DocType:        strings.TrimSpace(res.DocType),
		Jurisdiction:   res.Jurisdiction,
		Court:          res.Court,
		AuthorityLevel: res.AuthorityLevel,
		Tags:           res.Tags,
		Citation:       res.Citation,
		Year:           llm.YearFromDate(res.Date),
		LegalStatus:    res.LegalStatus,
		RawContentURI:  raw.PDFURI,
		RawContent:     raw.PDFRaw,
		RawDocumentID:  &rawID,
	}
	if err := batch.Stage(doc); err != nil {
		out.State, out.Err = constants.StateInsertFailed, err
		return out
	}
	if err := batch.Flush(ctx); err != nil {
		out.State, out.Err = constants.StateInsertFailed, err
		if errors.Is(err, repository.ErrConflict) {
			log.Warn("pipeline.record.conflict", "reference_id", ref, "error", err)
		} else {
			log.Error("pipeline.record.insert_failed", "reference_id", ref, "error", err)
		}
		return out
	}
	out.State = constants.StateStaged
	out.DocumentID = doc.ID
	log.Debug("pipeline.record.staged", "reference_id", ref, "document_id", doc.ID)
	return out
}
