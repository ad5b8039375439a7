package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/joseph-ayodele/caselaw-ingest/internal/common"
	"github.com/joseph-ayodele/caselaw-ingest/internal/entity"
	"github.com/joseph-ayodele/caselaw-ingest/internal/logger"
)

type MetadataRepository interface {
	// ResolveOrCreate returns the id of the batch for this crawl
	// configuration, creating it on first use.
	ResolveOrCreate(ctx context.Context, fetchURI, delimiter string, structure []string) (uuid.UUID, error)
	// GetByID returns common.ErrNotFound when no batch has the id.
	GetByID(ctx context.Context, id uuid.UUID) (*entity.MetadataRaw, error)
}

type metadataRepository struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewMetadataRepository(db *gorm.DB, logger *logger.Logger) MetadataRepository {
	return &metadataRepository{
		db:     db,
		logger: logger.With("repo", "MetadataRepository"),
	}
}

func (r *metadataRepository) ResolveOrCreate(ctx context.Context, fetchURI, delimiter string, structure []string) (uuid.UUID, error) {
	key, err := json.Marshal(structure)
	if err != nil {
		return uuid.Nil, err
	}

	if id, err := r.lookup(ctx, fetchURI, delimiter, string(key)); err != nil || id != uuid.Nil {
		return id, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, err
	}
	row := &entity.MetadataRaw{
		ID:           id,
		FetchURI:     fetchURI,
		Delimiter:    delimiter,
		Structure:    datatypes.JSON(key),
		StructureKey: string(key),
		CreatedAt:    time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		if isUniqueViolation(err) {
			// lost a race with a concurrent capture of the same configuration
			return r.lookup(ctx, fetchURI, delimiter, string(key))
		}
		r.logger.Error("failed to create metadata batch", "fetch_uri", fetchURI, "error", err)
		return uuid.Nil, fmt.Errorf("create metadata batch: %w", err)
	}
	r.logger.Info("metadata.created", "metadata_id", id, "fetch_uri", fetchURI)
	return id, nil
}

func (r *metadataRepository) lookup(ctx context.Context, fetchURI, delimiter, key string) (uuid.UUID, error) {
	var row entity.MetadataRaw
	err := r.db.WithContext(ctx).
		Where("fetch_uri = ? AND delimiter = ? AND structure_key = ?", fetchURI, delimiter, key).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, nil
	}
	if err != nil {
		r.logger.Error("failed to look up metadata batch", "fetch_uri", fetchURI, "error", err)
		return uuid.Nil, err
	}
	return row.ID, nil
}

func (r *metadataRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.MetadataRaw, error) {
	var row entity.MetadataRaw
	err := r.db.WithContext(ctx).Take(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("metadata batch %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("failed to load metadata batch", "metadata_id", id, "error", err)
		return nil, err
	}
	return &row, nil
}
