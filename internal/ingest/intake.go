// Package ingest captures crawler output as raw provenance rows and hands
// each captured batch to the structuring pipeline.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/caselaw-ingest/constants"
	"github.com/joseph-ayodele/caselaw-ingest/internal/common"
	"github.com/joseph-ayodele/caselaw-ingest/internal/logger"
	"github.com/joseph-ayodele/caselaw-ingest/internal/pdf"
	"github.com/joseph-ayodele/caselaw-ingest/internal/pipeline"
	"github.com/joseph-ayodele/caselaw-ingest/internal/repository"
)

// PDFFetcher downloads one PDF and returns its text.
type PDFFetcher interface {
	Fetch(ctx context.Context, url string) (pdf.Text, error)
}

// BatchProcessor structures the newest n raw documents of a batch.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, metadataID uuid.UUID, n int) (pipeline.BatchSummary, error)
}

type Config struct {
	FetchConcurrency int
}

// SkippedRecord is a crawled record that produced no raw document.
type SkippedRecord struct {
	Index  int
	PDFURI string
	Err    error
}

type CaptureSummary struct {
	MetadataID uuid.UUID
	Received   int
	Stored     int
	Skipped    []SkippedRecord
	// Batch is nil when nothing was stored.
	Batch *pipeline.BatchSummary
}

type Intake struct {
	Logger    *logger.Logger
	Cfg       Config
	Metadata  repository.MetadataRepository
	Raws      repository.RawDocumentRepository
	Fetcher   PDFFetcher
	Processor BatchProcessor
}

func NewIntake(
	log *logger.Logger,
	cfg Config,
	meta repository.MetadataRepository,
	raws repository.RawDocumentRepository,
	fetcher PDFFetcher,
	processor BatchProcessor,
) *Intake {
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = 4
	}
	return &Intake{
		Logger:    logger.OrNop(log).With("component", "Intake"),
		Cfg:       cfg,
		Metadata:  meta,
		Raws:      raws,
		Fetcher:   fetcher,
		Processor: processor,
	}
}

type fetched struct {
	doc *repository.NewRawDocument
	err error
	uri string
}

// Capture stores one crawled batch and processes it. Records whose PDF link
// is missing, invalid or cannot be fetched are skipped and reported. The
// returned id is stable for a given descriptor.
func (in *Intake) Capture(ctx context.Context, descriptor MetadataDescriptor, records []Record, pdfLinkField string) (uuid.UUID, CaptureSummary, error) {
	summary := CaptureSummary{Received: len(records)}
	if err := descriptor.Validate(); err != nil {
		return uuid.Nil, summary, err
	}
	if strings.TrimSpace(pdfLinkField) == "" {
		pdfLinkField = descriptor.PDFLinkField
	}
	if strings.TrimSpace(pdfLinkField) == "" {
		return uuid.Nil, summary, common.NewAppError("VALIDATION_ERROR", "pdf link field is required", common.ErrValidation)
	}

	metaID, err := in.Metadata.ResolveOrCreate(ctx, descriptor.FetchURI, descriptor.Delimiter, descriptor.Structure)
	if err != nil {
		return uuid.Nil, summary, fmt.Errorf("resolve metadata batch: %w", err)
	}
	summary.MetadataID = metaID
	ctx = common.WithBatchID(ctx, metaID.String())
	log := in.Logger.With("metadata_id", metaID)
	start := time.Now()
	log.Info("ingest.capture.start", "records", len(records), "pdf_link_field", pdfLinkField)

	results := in.fetchAll(ctx, records, pdfLinkField)

	docs := make([]repository.NewRawDocument, 0, len(results))
	for i, r := range results {
		if r.err != nil {
			summary.Skipped = append(summary.Skipped, SkippedRecord{Index: i, PDFURI: r.uri, Err: r.err})
			log.Warn("ingest.record.skipped", "index", i, "pdf_uri", r.uri, "error", r.err)
			continue
		}
		docs = append(docs, *r.doc)
	}
	if err := ctx.Err(); err != nil {
		return metaID, summary, err
	}

	if _, err := in.Raws.CreateBatch(ctx, metaID, docs); err != nil {
		return metaID, summary, err
	}
	summary.Stored = len(docs)
	log.Info("ingest.capture.stored",
		"stored", summary.Stored,
		"skipped", len(summary.Skipped),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if summary.Stored == 0 {
		return metaID, summary, nil
	}
	batch, err := in.Processor.ProcessBatch(ctx, metaID, summary.Stored)
	summary.Batch = &batch
	if err != nil {
		return metaID, summary, fmt.Errorf("process batch: %w", err)
	}
	return metaID, summary, nil
}

func (in *Intake) fetchAll(ctx context.Context, records []Record, field string) []fetched {
	out := make([]fetched, len(records))
	var g errgroup.Group
	g.SetLimit(in.Cfg.FetchConcurrency)
	for i, rec := range records {
		uri, err := pdfLink(rec, field)
		if err != nil {
			out[i] = fetched{err: err, uri: uri}
			continue
		}
		g.Go(func() error {
			out[i] = in.fetchOne(ctx, rec, uri)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (in *Intake) fetchOne(ctx context.Context, rec Record, uri string) fetched {
	if err := ctx.Err(); err != nil {
		return fetched{err: err, uri: uri}
	}
	text, err := in.Fetcher.Fetch(ctx, uri)
	if err != nil {
		return fetched{err: err, uri: uri}
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fetched{err: err, uri: uri}
	}
	return fetched{
		uri: uri,
		doc: &repository.NewRawDocument{
			Payload:   payload,
			PDFURI:    uri,
			PDFRaw:    text.Text,
			PageCount: text.Pages,
		},
	}
}

// pdfLink returns the record's PDF URL or a validation error when it is
// missing, blank, the crawler's "N/A" marker, or not an absolute URL.
func pdfLink(rec Record, field string) (string, error) {
	uri := strings.TrimSpace(rec[field])
	if uri == "" || strings.EqualFold(uri, constants.MissingLinkValue) {
		return uri, common.ValidationError{Field: field, Value: uri, Message: "missing pdf link"}
	}
	if verr := common.AbsoluteURL(field, uri); verr != nil {
		return uri, *verr
	}
	return uri, nil
}
