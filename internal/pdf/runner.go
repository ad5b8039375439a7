package pdf

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joseph-ayodele/caselaw-ingest/internal/common"
	"github.com/joseph-ayodele/caselaw-ingest/internal/logger"
)

// stderrLogCap bounds how much converter chatter reaches the log.
const stderrLogCap = 8 << 10

// Runner executes the external text converter. Tests substitute a stub so
// no pdftotext install is needed.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct {
	logger *logger.Logger
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	log := r.logger.With("converter", name)
	if id := common.RecordIDFromContext(ctx); id != "" {
		log = log.With("raw_document_id", id)
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	elapsed := time.Since(start).Milliseconds()

	switch {
	case errors.Is(err, exec.ErrNotFound):
		log.Error("pdf.converter.missing", "error", err, "hint", "install poppler-utils or set PDFTOTEXT_BIN")
	case err != nil:
		log.Error("pdf.converter.failed",
			"args", strings.Join(args, " "),
			"elapsed_ms", elapsed,
			"error", err,
			"stderr", truncate(stderr.String(), stderrLogCap),
		)
	default:
		log.Debug("pdf.converter.ok", "elapsed_ms", elapsed, "text_bytes", stdout.Len())
	}
	return stdout.Bytes(), stderr.Bytes(), err
}

// truncate cuts s to at most max bytes without splitting a UTF-8 sequence.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "...(truncated)"
}
