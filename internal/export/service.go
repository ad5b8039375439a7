package export

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/caselaw-ingest/internal/entity"
	"github.com/joseph-ayodele/caselaw-ingest/internal/logger"
	"github.com/joseph-ayodele/caselaw-ingest/internal/repository"
)

const sheetName = "Documents"

// Service produces XLSX workbooks of structured documents.
type Service struct {
	docs   repository.DocumentRepository
	logger *logger.Logger
}

func NewService(docs repository.DocumentRepository, log *logger.Logger) *Service {
	return &Service{docs: docs, logger: logger.OrNop(log).With("component", "ExportService")}
}

var headers = []string{
	"Reference ID",
	"Title",
	"Type",
	"Jurisdiction",
	"Court",
	"Authority Level",
	"Year",
	"Citation",
	"Tags",
	"Legal Status",
	"Source URI",
}

// DocumentsXLSX returns a workbook (as bytes) with one row per document
// matching filter.
func (s *Service) DocumentsXLSX(ctx context.Context, filter repository.DocumentFilter) ([]byte, error) {
	start := time.Now()

	docs, err := s.docs.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("export.xlsx.close_error", "error", err)
		}
	}()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
	}
	for i := range docs {
		if err := writeRow(f, i+2, &docs[i]); err != nil {
			return nil, err
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 22) // reference
	_ = f.SetColWidth(sheetName, "B", "B", 48) // title
	_ = f.SetColWidth(sheetName, "C", "F", 18)
	_ = f.SetColWidth(sheetName, "G", "G", 8) // year
	_ = f.SetColWidth(sheetName, "H", "I", 30)
	_ = f.SetColWidth(sheetName, "J", "J", 14)
	_ = f.SetColWidth(sheetName, "K", "K", 60) // uri

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(docs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, row int, d *entity.Document) error {
	var year any = ""
	if d.Year > 0 {
		year = d.Year
	}
	values := []any{
		d.ReferenceID,
		truncate(d.Title, 250),
		d.DocType,
		d.Jurisdiction,
		d.Court,
		d.AuthorityLevel,
		year,
		d.Citation,
		d.Tags,
		d.LegalStatus,
		d.RawContentURI,
	}
	cell, _ := excelize.CoordinatesToCellName(1, row)
	return f.SetSheetRow(sheetName, cell, &values)
}

func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
