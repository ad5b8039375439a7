// Package pdf downloads PDF documents and extracts their plain text.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/joseph-ayodele/caselaw-ingest/constants"
	"github.com/joseph-ayodele/caselaw-ingest/internal/logger"
)

var (
	ErrDownloadTooLarge  = errors.New("pdf download exceeds size limit")
	ErrNotPDFContentType = errors.New("url does not appear to be a pdf")
	ErrDownloadFailed    = errors.New("pdf download failed")
	ErrExtractionFailed  = errors.New("pdf text extraction failed")
)

// Text is the extracted content of one PDF.
type Text struct {
	URL   string
	Text  string
	Pages int
}

type Config struct {
	MaxBytes  int64         // default constants.MaxPDFBytes
	Timeout   time.Duration // per request; default 60s
	Pdftotext string        // fallback extractor binary; default "pdftotext"
}

type Option func(*Fetcher)

func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.http = c }
}

func WithRunner(r Runner) Option {
	return func(f *Fetcher) { f.runner = r }
}

// Fetcher is safe for concurrent use.
type Fetcher struct {
	cfg    Config
	http   *http.Client
	runner Runner
	logger *logger.Logger
}

func NewFetcher(cfg Config, log *logger.Logger, opts ...Option) *Fetcher {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = constants.MaxPDFBytes
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	log = logger.OrNop(log).With("component", "PDFFetcher")
	f := &Fetcher{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		runner: execRunner{logger: log},
		logger: log,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads url and extracts its text.
func (f *Fetcher) Fetch(ctx context.Context, url string) (Text, error) {
	data, err := f.Download(ctx, url)
	if err != nil {
		return Text{}, err
	}
	text, pages, err := f.ExtractText(ctx, data)
	if err != nil {
		f.logger.Error("pdf.extract.failed", "url", url, "error", err)
		return Text{}, err
	}
	f.logger.Info("pdf.fetched", "url", url, "pages", pages, "bytes", len(data))
	return Text{URL: url, Text: text, Pages: pages}, nil
}

// Download streams url into memory. A HEAD request first checks the
// advertised size and content type; if HEAD itself fails the GET proceeds
// and the size bound is enforced while streaming.
func (f *Fetcher) Download(ctx context.Context, url string) ([]byte, error) {
	f.logger.Info("pdf.download.start", "url", url)

	if err := f.precheck(ctx, url); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			f.logger.Warn("pdf.download.body_close_error", "url", url, "error", err)
		}
	}(resp.Body)

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("%w: %s: status %d", ErrDownloadFailed, url, resp.StatusCode)
	}
	if resp.ContentLength > f.cfg.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrDownloadTooLarge, resp.ContentLength, f.cfg.MaxBytes)
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(resp.Body, f.cfg.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	if n > f.cfg.MaxBytes {
		return nil, fmt.Errorf("%w: limit %d bytes", ErrDownloadTooLarge, f.cfg.MaxBytes)
	}

	f.logger.Info("pdf.download.ok", "url", url, "kb", float64(n)/1024)
	return buf.Bytes(), nil
}

func (f *Fetcher) precheck(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	resp, err := f.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", ErrDownloadFailed, ctx.Err())
		}
		f.logger.Warn("pdf.head.error", "url", url, "error", err)
		return nil
	}
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		f.logger.Warn("pdf.head.status", "url", url, "status", resp.StatusCode)
		return nil
	}

	if cl := resp.Header.Get("Content-Length"); cl != "" {
		if size, err := strconv.ParseInt(cl, 10, 64); err == nil && size > f.cfg.MaxBytes {
			return fmt.Errorf("%w: %d bytes (limit %d)", ErrDownloadTooLarge, size, f.cfg.MaxBytes)
		}
	}
	if ct := resp.Header.Get("Content-Type"); !constants.IsAcceptedPDFContentType(ct) {
		return fmt.Errorf("%w: content-type %q", ErrNotPDFContentType, ct)
	}
	return nil
}
