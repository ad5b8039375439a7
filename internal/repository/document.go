package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/joseph-ayodele/caselaw-ingest/internal/entity"
	"github.com/joseph-ayodele/caselaw-ingest/internal/logger"
)

// DocumentFilter narrows List. Zero values mean no constraint.
type DocumentFilter struct {
	FromYear     int
	ToYear       int
	Jurisdiction string
	Court        string
	Limit        int
}

type DocumentRepository interface {
	// FindByReferenceID looks at committed rows only; it returns nil, nil
	// when no document has the id.
	FindByReferenceID(ctx context.Context, referenceID string) (*entity.Document, error)
	List(ctx context.Context, filter DocumentFilter) ([]entity.Document, error)
	// Begin opens a unit of work for one ingestion batch.
	Begin(ctx context.Context) (Batch, error)
}

type documentRepository struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewDocumentRepository(db *gorm.DB, logger *logger.Logger) DocumentRepository {
	return &documentRepository{
		db:     db,
		logger: logger.With("repo", "DocumentRepository"),
	}
}

func (r *documentRepository) FindByReferenceID(ctx context.Context, referenceID string) (*entity.Document, error) {
	var doc entity.Document
	err := r.db.WithContext(ctx).Where("reference_id = ?", referenceID).Take(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to find document", "reference_id", referenceID, "error", err)
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) List(ctx context.Context, filter DocumentFilter) ([]entity.Document, error) {
	q := r.db.WithContext(ctx).Model(&entity.Document{})
	if filter.FromYear > 0 {
		q = q.Where("year >= ?", filter.FromYear)
	}
	if filter.ToYear > 0 {
		q = q.Where("year <= ?", filter.ToYear)
	}
	if filter.Jurisdiction != "" {
		q = q.Where("jurisdiction = ?", filter.Jurisdiction)
	}
	if filter.Court != "" {
		q = q.Where("court = ?", filter.Court)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var docs []entity.Document
	if err := q.Order("year").Order("reference_id").Find(&docs).Error; err != nil {
		r.logger.Error("failed to list documents", "error", err)
		return nil, err
	}
	return docs, nil
}

func (r *documentRepository) Begin(ctx context.Context) (Batch, error) {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		r.logger.Error("failed to begin document batch", "error", tx.Error)
		return nil, fmt.Errorf("begin document batch: %w", tx.Error)
	}
	return newDocumentBatch(tx, r.logger), nil
}
