package cli

import (
	"context"
	"fmt"

	"github.com/joseph-ayodele/caselaw-ingest/internal/common"
	"github.com/joseph-ayodele/caselaw-ingest/internal/ingest"
	"github.com/joseph-ayodele/caselaw-ingest/internal/llm"
	"github.com/joseph-ayodele/caselaw-ingest/internal/llm/gemini"
	"github.com/joseph-ayodele/caselaw-ingest/internal/llm/openai"
	"github.com/joseph-ayodele/caselaw-ingest/internal/logger"
	"github.com/joseph-ayodele/caselaw-ingest/internal/pdf"
	"github.com/joseph-ayodele/caselaw-ingest/internal/pipeline"
	"github.com/joseph-ayodele/caselaw-ingest/internal/repository"
)

// app holds the wired components for one command invocation.
type app struct {
	store        *repository.Store
	metadata     repository.MetadataRepository
	raws         repository.RawDocumentRepository
	docs         repository.DocumentRepository
	fetcher      *pdf.Fetcher
	orchestrator *pipeline.Orchestrator
	intake       *ingest.Intake
	closers      []func() error
}

func openStore(ctx context.Context, c *common.Config, log *logger.Logger) (*repository.Store, error) {
	store, err := repository.Open(ctx, repository.Config{
		DSN:              c.Database.URL,
		MaxConns:         c.Database.MaxConns,
		MinConns:         c.Database.MinConns,
		MaxConnLifetime:  c.Database.MaxConnLifetime,
		MaxConnIdleTime:  c.Database.MaxConnIdleTime,
		DialTimeout:      c.Database.DialTimeout,
		StatementTimeout: c.Database.StatementTimeout,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := repository.Migrate(ctx, store.DB); err != nil {
		store.Close(log)
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return store, nil
}

func newGenerator(ctx context.Context, c *common.Config, log *logger.Logger) (llm.Generator, func() error, error) {
	switch c.LLM.Provider {
	case "openai":
		return openai.NewClient(openai.Config{
			APIKey:      c.LLM.OpenAIAPIKey,
			BaseURL:     c.LLM.OpenAIURL,
			Model:       c.LLM.OpenAIModel,
			Temperature: c.LLM.Temperature,
			Timeout:     c.LLM.Timeout,
			JSONMode:    true,
		}, log), nil, nil
	default:
		g, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:      c.LLM.GeminiAPIKey,
			Model:       c.LLM.GeminiModel,
			Temperature: c.LLM.Temperature,
			Timeout:     c.LLM.Timeout,
		}, log)
		if err != nil {
			return nil, nil, err
		}
		return g, g.Close, nil
	}
}

// newApp wires every component. withLLM is false for commands that never
// call the provider.
func newApp(ctx context.Context, c *common.Config, log *logger.Logger, withLLM bool) (*app, error) {
	if err := c.Validate(withLLM); err != nil {
		return nil, err
	}
	store, err := openStore(ctx, c, log)
	if err != nil {
		return nil, err
	}

	a := &app{
		store:    store,
		metadata: repository.NewMetadataRepository(store.DB, log),
		raws:     repository.NewRawDocumentRepository(store.DB, log),
		docs:     repository.NewDocumentRepository(store.DB, log),
		fetcher: pdf.NewFetcher(pdf.Config{
			MaxBytes:  c.PDF.MaxBytes,
			Timeout:   c.PDF.Timeout,
			Pdftotext: c.PDF.Pdftotext,
		}, log),
	}
	if !withLLM {
		return a, nil
	}

	gen, closeGen, err := newGenerator(ctx, c, log)
	if err != nil {
		a.close(log)
		return nil, err
	}
	if closeGen != nil {
		a.closers = append(a.closers, closeGen)
	}
	extractor := llm.NewExtractor(gen, llm.Config{
		MaxAttempts:       c.Extract.MaxAttempts,
		BaseDelay:         c.Extract.Backoff,
		RequestsPerSecond: c.Extract.RequestsPerSecond,
	}, log)
	a.orchestrator = pipeline.NewOrchestrator(log, pipeline.Config{
		Concurrency: c.Extract.Concurrency,
		MaxAttempts: c.Extract.MaxAttempts,
	}, a.raws, a.docs, extractor)
	a.intake = ingest.NewIntake(log, ingest.Config{FetchConcurrency: c.Intake.FetchConcurrency},
		a.metadata, a.raws, a.fetcher, a.orchestrator)
	return a, nil
}

func (a *app) close(log *logger.Logger) {
	for _, c := range a.closers {
		if err := c(); err != nil {
			log.Warn("close error", "error", err)
		}
	}
	a.store.Close(log)
}
