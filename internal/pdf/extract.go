package pdf

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	lpdf "github.com/ledongthuc/pdf"
)

// ExtractText returns the document text and page count. The in-process
// reader is tried first; pdftotext is used when it errors or finds no text.
func (f *Fetcher) ExtractText(ctx context.Context, data []byte) (string, int, error) {
	text, pages, err := readPages(data)
	if err == nil && strings.TrimSpace(text) != "" {
		return text, pages, nil
	}
	if err != nil {
		f.logger.Warn("pdf.extract.primary_failed", "error", err)
	} else {
		f.logger.Warn("pdf.extract.primary_empty", "pages", pages)
	}

	fbText, fbPages, fbErr := f.pdftotext(ctx, data)
	if fbErr != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrExtractionFailed, fbErr)
	}
	if pages > 0 {
		fbPages = pages
	}
	return fbText, fbPages, nil
}

func readPages(data []byte) (text string, pages int, err error) {
	// the reader panics on some malformed xref tables
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	r, err := lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, err
	}
	pages = r.NumPage()
	parts := make([]string, 0, pages)
	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		t, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if t = strings.TrimSpace(t); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n"), pages, nil
}

func (f *Fetcher) pdftotext(ctx context.Context, data []byte) (string, int, error) {
	tmp, err := os.CreateTemp("", "caselaw-*.pdf")
	if err != nil {
		return "", 0, err
	}
	defer func() {
		if err := os.Remove(tmp.Name()); err != nil {
			f.logger.Warn("pdf.tempfile.remove_error", "path", tmp.Name(), "error", err)
		}
	}()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", 0, err
	}
	if err := tmp.Close(); err != nil {
		return "", 0, err
	}

	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := f.runner.Run(ctx, f.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", tmp.Name(), "-")
	if err != nil {
		return "", 0, fmt.Errorf("%s: %v: %s", f.cfg.Pdftotext, err, truncate(string(errb), 512))
	}
	// a form-feed terminates each page
	text := strings.TrimRight(string(out), "\f\n")
	pages := 1 + strings.Count(text, "\f")
	if strings.TrimSpace(text) == "" {
		return "", 0, fmt.Errorf("%s produced no text", f.cfg.Pdftotext)
	}
	return text, pages, nil
}
