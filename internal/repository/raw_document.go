package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/joseph-ayodele/caselaw-ingest/internal/entity"
	"github.com/joseph-ayodele/caselaw-ingest/internal/logger"
)

// NewRawDocument is the input for one captured record.
type NewRawDocument struct {
	Payload   []byte
	PDFURI    string
	PDFRaw    string
	PageCount int
}

type RawDocumentRepository interface {
	// CreateBatch stores all rows in a single transaction, in order.
	CreateBatch(ctx context.Context, metadataID uuid.UUID, docs []NewRawDocument) ([]uuid.UUID, error)
	// ListNewest returns up to n rows of the batch, newest first.
	ListNewest(ctx context.Context, metadataID uuid.UUID, n int) ([]entity.RawDocument, error)
}

type rawDocumentRepository struct {
	db     *gorm.DB
	logger *logger.Logger
	now    func() time.Time
}

func NewRawDocumentRepository(db *gorm.DB, logger *logger.Logger) RawDocumentRepository {
	return &rawDocumentRepository{
		db:     db,
		logger: logger.With("repo", "RawDocumentRepository"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *rawDocumentRepository) CreateBatch(ctx context.Context, metadataID uuid.UUID, docs []NewRawDocument) ([]uuid.UUID, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	rows := make([]entity.RawDocument, len(docs))
	ids := make([]uuid.UUID, len(docs))
	base := r.now()
	for i, d := range docs {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, err
		}
		payload := d.Payload
		if len(payload) == 0 {
			payload = []byte("{}")
		}
		ids[i] = id
		rows[i] = entity.RawDocument{
			ID:         id,
			MetadataID: metadataID,
			Payload:    datatypes.JSON(payload),
			PDFURI:     d.PDFURI,
			PDFRaw:     d.PDFRaw,
			PageCount:  d.PageCount,
			// strictly increasing so capture order survives the newest-first read
			CreatedAt: base.Add(time.Duration(i) * time.Microsecond),
		}
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&rows, 100).Error
	})
	if err != nil {
		r.logger.Error("failed to store raw documents", "metadata_id", metadataID, "count", len(rows), "error", err)
		return nil, fmt.Errorf("store raw documents: %w", err)
	}
	r.logger.Info("raw_documents.stored", "metadata_id", metadataID, "count", len(rows))
	return ids, nil
}

func (r *rawDocumentRepository) ListNewest(ctx context.Context, metadataID uuid.UUID, n int) ([]entity.RawDocument, error) {
	if n <= 0 {
		return nil, nil
	}
	var rows []entity.RawDocument
	err := r.db.WithContext(ctx).
		Where("metadata_id = ?", metadataID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(n).
		Find(&rows).Error
	if err != nil {
		r.logger.Error("failed to list raw documents", "metadata_id", metadataID, "error", err)
		return nil, err
	}
	return rows, nil
}
