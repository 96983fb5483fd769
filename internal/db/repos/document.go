// Package repos provides database repository implementations
package repos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/partsdesk/partsdesk/internal/db"
	"github.com/partsdesk/partsdesk/internal/db/models"
)

// WriteFunc computes the new body of a document from its current state.
// current is nil when the document does not exist yet.
type WriteFunc func(current *models.Document) ([]byte, error)

// DocumentRepository handles database operations for documents
type DocumentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a new instance of DocumentRepository
func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{
		db: db,
	}
}

// Get retrieves a document by path
func (r *DocumentRepository) Get(ctx context.Context, path string) (*models.Document, error) {
	var doc models.Document
	err := r.db.WithContext(ctx).Where(models.Document{Path: path}).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListByCollection retrieves every document directly inside a collection, ordered by path
func (r *DocumentRepository) ListByCollection(ctx context.Context, collection string) ([]models.Document, error) {
	var docs []models.Document
	err := r.db.WithContext(ctx).
		Where(models.Document{Collection: collection}).
		Order(models.DocumentPathField).
		Find(&docs).Error
	return docs, err
}

// Overwrite replaces the body of a document, creating it when missing. The
// write is a single upsert that increments the stored version, so concurrent
// writers never conflict and the last commit wins.
func (r *DocumentRepository) Overwrite(ctx context.Context, path string, data []byte) (*models.Document, error) {
	if err := models.ValidatePath(path); err != nil {
		return nil, err
	}

	var written models.Document
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		doc := models.Document{Path: path, Data: data, Version: 1, CreatedAt: now, UpdatedAt: now}
		updates := clause.AssignmentColumns([]string{models.DocumentDataField, "updated_at"})
		updates = append(updates, clause.Assignment{
			Column: clause.Column{Name: models.DocumentVersionField},
			Value:  gorm.Expr(models.DocumentTable + "." + models.DocumentVersionField + " + 1"),
		})
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: models.DocumentPathField}},
			DoUpdates: updates,
		}).Create(&doc).Error
		if err != nil {
			return err
		}
		// The row stays locked by this transaction, so the read returns this write
		return tx.Where(models.Document{Path: path}).First(&written).Error
	})
	if err != nil {
		return nil, err
	}
	return &written, nil
}

// Write runs a read-modify-write of one document inside a transaction. The
// update is conditional on the version that was read, so a change committed
// between the read and the update fails with ErrVersionConflict instead of
// being lost. When expectedVersion is set the write is also rejected unless
// the stored version matches it (0 meaning "must not exist").
func (r *DocumentRepository) Write(ctx context.Context, path string, fn WriteFunc, expectedVersion *uint64) (*models.Document, error) {
	if err := models.ValidatePath(path); err != nil {
		return nil, err
	}

	var written models.Document
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Document
		err := tx.Where(models.Document{Path: path}).First(&current).Error
		found := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var currentVersion uint64
		if found {
			currentVersion = current.Version
		}
		if expectedVersion != nil && *expectedVersion != currentVersion {
			return fmt.Errorf("%w: %s is at version %d, expected %d", models.ErrVersionConflict, path, currentVersion, *expectedVersion)
		}

		var data []byte
		if found {
			data, err = fn(&current)
		} else {
			data, err = fn(nil)
		}
		if err != nil {
			return err
		}

		if !found {
			written = models.Document{Path: path, Data: data, Version: 1}
			if err := tx.Create(&written).Error; err != nil {
				if db.IsDuplicateKeyError(err) {
					return fmt.Errorf("%w: %s was created concurrently", models.ErrVersionConflict, path)
				}
				return err
			}
			return nil
		}

		now := time.Now()
		res := tx.Model(&models.Document{}).
			Where(models.DocumentPathField+" = ? AND "+models.DocumentVersionField+" = ?", path, current.Version).
			UpdateColumns(map[string]interface{}{
				models.DocumentDataField:    data,
				models.DocumentVersionField: current.Version + 1,
				"updated_at":                now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s changed during write", models.ErrVersionConflict, path)
		}

		written = current
		written.Data = data
		written.Version = current.Version + 1
		written.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &written, nil
}

// Delete removes a document and returns the deleted row
func (r *DocumentRepository) Delete(ctx context.Context, path string) (*models.Document, error) {
	var deleted models.Document
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(models.Document{Path: path}).First(&deleted).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrDocumentNotFound
			}
			return err
		}
		return tx.Where(models.DocumentPathField+" = ?", path).Delete(&models.Document{}).Error
	})
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}

// DeleteCollection removes every document directly inside a collection and returns them
func (r *DocumentRepository) DeleteCollection(ctx context.Context, collection string) ([]models.Document, error) {
	var deleted []models.Document
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(models.Document{Collection: collection}).Find(&deleted).Error; err != nil {
			return err
		}
		if len(deleted) == 0 {
			return nil
		}
		return tx.Where(models.DocumentCollectionField+" = ?", collection).Delete(&models.Document{}).Error
	})
	return deleted, err
}
