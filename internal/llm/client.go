package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/joseph-ayodele/caselaw-ingest/internal/common"
	"github.com/joseph-ayodele/caselaw-ingest/internal/logger"
)

const rawSnippetLen = 500

type Config struct {
	// MaxAttempts is used when Extract is called with maxAttempts <= 0.
	MaxAttempts int
	// BaseDelay is multiplied by the attempt number between attempts.
	BaseDelay time.Duration
	// RequestsPerSecond caps provider calls; 0 disables the limiter.
	RequestsPerSecond float64
	Burst             int
}

// Extractor turns document text into an ExtractionResult through a
// Generator, retrying failed attempts with linear backoff.
type Extractor struct {
	gen     Generator
	cfg     Config
	limiter *rate.Limiter
	logger  *logger.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

func NewExtractor(gen Generator, cfg Config, log *logger.Logger) *Extractor {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay < 0 {
		cfg.BaseDelay = 0
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return &Extractor{
		gen:     gen,
		cfg:     cfg,
		limiter: limiter,
		logger:  logger.OrNop(log).With("component", "Extractor", "provider", gen.Name()),
		sleep:   sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Extract runs up to maxAttempts provider calls and returns the first
// response that parses and validates. Context cancellation ends the retry
// loop immediately.
func (e *Extractor) Extract(ctx context.Context, payload map[string]any, documentText string, maxAttempts int) (ExtractionResult, error) {
	if maxAttempts <= 0 {
		maxAttempts = e.cfg.MaxAttempts
	}
	prompt, err := BuildPrompt(payload, documentText)
	if err != nil {
		return ExtractionResult{}, fmt.Errorf("%w: build prompt: %v", common.ErrInvalidInput, err)
	}

	log := e.logger
	if id := common.BatchIDFromContext(ctx); id != "" {
		log = log.With("metadata_id", id)
	}
	if id := common.RecordIDFromContext(ctx); id != "" {
		log = log.With("raw_document_id", id)
	}

	var (
		lastErr error
		lastRaw string
		attempt int
	)
	for attempt = 1; attempt <= maxAttempts; attempt++ {
		start := time.Now()
		res, raw, err := e.attempt(ctx, prompt)
		if err == nil {
			log.Info("llm.extract.ok",
				"attempt", attempt,
				"reference_id", res.ReferenceID,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return res, nil
		}
		lastErr = err
		if raw != "" {
			lastRaw = raw
		}
		if ctx.Err() != nil {
			break
		}
		log.Warn("llm.extract.attempt_failed",
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		if attempt == maxAttempts {
			break
		}
		if err := e.sleep(ctx, time.Duration(attempt)*e.cfg.BaseDelay); err != nil {
			lastErr = err
			break
		}
	}
	if attempt > maxAttempts {
		attempt = maxAttempts
	}

	failed := &ExtractionFailedError{
		Attempts:   attempt,
		Last:       lastErr,
		RawSnippet: TruncateRunes(lastRaw, rawSnippetLen),
	}
	log.Error("llm.extract.failed", "attempts", failed.Attempts, "error", lastErr, "raw_snippet", failed.RawSnippet)
	return ExtractionResult{}, failed
}

func (e *Extractor) attempt(ctx context.Context, prompt string) (ExtractionResult, string, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return ExtractionResult{}, "", err
		}
	}
	raw, err := e.gen.Generate(ctx, SystemInstruction, prompt)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return ExtractionResult{}, "", err
		}
		return ExtractionResult{}, "", fmt.Errorf("%w: %w", common.ErrTransientService, err)
	}
	obj, span, err := ParseObject(raw)
	if err != nil {
		return ExtractionResult{}, raw, err
	}
	if err := ValidateFields(span); err != nil {
		return ExtractionResult{}, raw, &FormatError{Reason: "schema validation failed", Raw: raw, Cause: err}
	}
	return Normalize(obj), raw, nil
}
