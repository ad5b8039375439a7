package main

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"time"

	"github.com/joseph-ayodele/caselaw-ingest/internal/common"
	"github.com/joseph-ayodele/caselaw-ingest/internal/llm"
	"github.com/joseph-ayodele/caselaw-ingest/internal/llm/gemini"
	"github.com/joseph-ayodele/caselaw-ingest/internal/llm/openai"
	"github.com/joseph-ayodele/caselaw-ingest/internal/logger"
	"github.com/joseph-ayodele/caselaw-ingest/internal/pdf"
)

// Fetches one judgment PDF and runs field extraction on it repeatedly, to
// eyeball how stable the provider's answers are.
func main() {
	cfg := common.LoadConfig()
	log, err := logger.New(cfg.Log.Mode, cfg.Log.File)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if len(os.Args) < 2 {
		log.Error("usage: llm <pdf_url> [times]")
		os.Exit(2)
	}
	url := os.Args[1]
	times := 3
	if len(os.Args) >= 3 {
		if n, err := strconv.Atoi(os.Args[2]); err == nil && n > 0 {
			times = n
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	text, err := pdf.NewFetcher(pdf.Config{
		MaxBytes:  cfg.PDF.MaxBytes,
		Timeout:   cfg.PDF.Timeout,
		Pdftotext: cfg.PDF.Pdftotext,
	}, log).Fetch(ctx, url)
	if err != nil {
		log.Error("fetch pdf", "url", url, "error", err)
		os.Exit(1)
	}

	var gen llm.Generator
	switch cfg.LLM.Provider {
	case "openai":
		gen = openai.NewClient(openai.Config{
			APIKey:   cfg.LLM.OpenAIAPIKey,
			BaseURL:  cfg.LLM.OpenAIURL,
			Model:    cfg.LLM.OpenAIModel,
			Timeout:  cfg.LLM.Timeout,
			JSONMode: true,
		}, log)
	default:
		g, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:  cfg.LLM.GeminiAPIKey,
			Model:   cfg.LLM.GeminiModel,
			Timeout: cfg.LLM.Timeout,
		}, log)
		if err != nil {
			log.Error("gemini client", "error", err)
			os.Exit(1)
		}
		defer g.Close()
		gen = g
	}

	extractor := llm.NewExtractor(gen, llm.Config{
		MaxAttempts: cfg.Extract.MaxAttempts,
		BaseDelay:   cfg.Extract.Backoff,
	}, log)

	payload := map[string]any{"pdf_link": url}
	for i := 1; i <= times; i++ {
		start := time.Now()
		res, err := extractor.Extract(ctx, payload, text.Text, cfg.Extract.MaxAttempts)
		if err != nil {
			log.Error("extract.run.fail", "iter", i, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
			continue
		}
		out, _ := json.Marshal(res)
		log.Info("extract.run.ok", "iter", i, "pages", text.Pages,
			"elapsed_ms", time.Since(start).Milliseconds(), "result", string(out))
	}
}
