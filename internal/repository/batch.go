package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/joseph-ayodele/caselaw-ingest/internal/entity"
	"github.com/joseph-ayodele/caselaw-ingest/internal/logger"
)

var errBatchClosed = errors.New("document batch already committed or rolled back")

// Batch is the transactional view of the documents table used while
// structuring one metadata batch.
type Batch interface {
	Exists(ctx context.Context, referenceID string) (bool, error)
	IsStaged(referenceID string) bool
	Stage(doc *entity.Document) error
	Flush(ctx context.Context) error
	Commit() error
	Rollback() error
}

var _ Batch = (*DocumentBatch)(nil)

// DocumentBatch is the unit of work for one ingestion batch. Staged documents
// are visible to Exists before they are flushed, and each flushed document is
// isolated behind its own savepoint so a conflict only discards that row.
//
// A DocumentBatch is not safe for concurrent use.
type DocumentBatch struct {
	tx      *gorm.DB
	logger  *logger.Logger
	staged  map[string]struct{}
	pending []*entity.Document
	seq     int
	closed  bool
}

func newDocumentBatch(tx *gorm.DB, logger *logger.Logger) *DocumentBatch {
	return &DocumentBatch{
		tx:     tx,
		logger: logger,
		staged: make(map[string]struct{}),
	}
}

// Exists reports whether referenceID is already staged in this batch or
// present in committed state as seen from inside the transaction.
func (b *DocumentBatch) Exists(ctx context.Context, referenceID string) (bool, error) {
	if b.closed {
		return false, errBatchClosed
	}
	if b.IsStaged(referenceID) {
		return true, nil
	}
	var count int64
	err := b.tx.WithContext(ctx).Model(&entity.Document{}).
		Where("reference_id = ?", referenceID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check reference id: %w", err)
	}
	return count > 0, nil
}

func (b *DocumentBatch) IsStaged(referenceID string) bool {
	_, ok := b.staged[referenceID]
	return ok
}

// Stage queues doc for insert. ID and CreatedAt are filled when unset.
func (b *DocumentBatch) Stage(doc *entity.Document) error {
	if b.closed {
		return errBatchClosed
	}
	if doc.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		doc.ID = id
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	b.staged[doc.ReferenceID] = struct{}{}
	b.pending = append(b.pending, doc)
	return nil
}

// Flush inserts pending documents in staging order. On the first failure the
// offending document is rolled back to its savepoint and unstaged, and the
// error is returned; documents after it stay pending. A uniqueness violation
// is reported as ErrConflict.
func (b *DocumentBatch) Flush(ctx context.Context) error {
	if b.closed {
		return errBatchClosed
	}
	tx := b.tx.WithContext(ctx)
	for len(b.pending) > 0 {
		doc := b.pending[0]
		b.pending = b.pending[1:]
		b.seq++
		sp := fmt.Sprintf("doc_%d", b.seq)

		if err := tx.SavePoint(sp).Error; err != nil {
			delete(b.staged, doc.ReferenceID)
			return fmt.Errorf("savepoint: %w", err)
		}
		if err := tx.Create(doc).Error; err != nil {
			delete(b.staged, doc.ReferenceID)
			if rbErr := tx.RollbackTo(sp).Error; rbErr != nil {
				b.logger.Error("failed to roll back to savepoint", "savepoint", sp, "error", rbErr)
				return errors.Join(err, rbErr)
			}
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: reference_id %q: %v", ErrConflict, doc.ReferenceID, err)
			}
			return fmt.Errorf("insert document %q: %w", doc.ReferenceID, err)
		}
	}
	return nil
}

func (b *DocumentBatch) Commit() error {
	if b.closed {
		return errBatchClosed
	}
	b.closed = true
	return b.tx.Commit().Error
}

// Rollback discards the batch. It is a no-op after Commit so it can be
// deferred.
func (b *DocumentBatch) Rollback() error {
	if b.closed {
		return nil
	}
	b.closed = true
	return b.tx.Rollback().Error
}
