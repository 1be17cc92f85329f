// Package records owns the image record lifecycle: a record is created when
// the original blob lands, completed exactly once when the processed blob is
// attached, and deleted blobs-first so a partial failure never leaves a row
// pointing at a missing blob.
package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"backsnap-backend/internal/models"
)

// BlobStorage is the slice of the storage client the store needs.
type BlobStorage interface {
	UploadOriginal(userID uuid.UUID, filename string, data []byte, contentType string) (string, string, error)
	UploadProcessed(userID uuid.UUID, filename string, data []byte) (string, string, error)
	RemoveOriginal(storagePath string) error
	RemoveProcessed(storagePath string) error
}

// ImageDatabase is the slice of the database client the store needs.
type ImageDatabase interface {
	CreateImage(ctx context.Context, img *models.ImageRecord) (*models.ImageRecord, error)
	GetImage(ctx context.Context, imageID, userID uuid.UUID) (*models.ImageRecord, error)
	ListImages(ctx context.Context, userID uuid.UUID) ([]models.ImageRecord, error)
	AttachProcessed(ctx context.Context, imageID, userID uuid.UUID, processedPath, processedURL string) (*models.ImageRecord, error)
	DeleteImage(ctx context.Context, imageID, userID uuid.UUID) error
}

type Store struct {
	storage BlobStorage
	db      ImageDatabase
}

func NewStore(storage BlobStorage, db ImageDatabase) *Store {
	return &Store{storage: storage, db: db}
}

// Create uploads the original blob and then inserts the row. The blob goes
// first: a crash between the two leaves at most an orphaned blob, never a
// row without its blob. A failed insert removes the blob again.
func (s *Store) Create(ctx context.Context, userID uuid.UUID, data []byte, contentType string) (*models.ImageRecord, error) {
	if userID == uuid.Nil {
		return nil, models.NewError(models.KindUnauthenticated, "sign in to save images")
	}

	id := uuid.New()
	filename := fmt.Sprintf("%d%s", time.Now().UnixMilli(), extensionFor(contentType))

	path, url, err := s.storage.UploadOriginal(userID, filename, data, contentType)
	if err != nil {
		return nil, models.WrapError(models.KindStorage, "failed to upload original", err)
	}

	record, err := s.db.CreateImage(ctx, &models.ImageRecord{
		ID:           id,
		UserID:       userID,
		OriginalPath: path,
		OriginalURL:  url,
	})
	if err != nil {
		if rmErr := s.storage.RemoveOriginal(path); rmErr != nil {
			log.Printf("Warning: orphaned original blob %s: %v", path, rmErr)
		}
		return nil, models.WrapError(models.KindStorage, "failed to create image record", err)
	}

	return record, nil
}

// AttachProcessed uploads the processed blob and completes the record. A
// record owned by someone else, already completed, or missing reports
// NotFound and nothing is mutated.
func (s *Store) AttachProcessed(ctx context.Context, userID, imageID uuid.UUID, data []byte) (*models.ImageRecord, error) {
	filename := imageID.String() + ".png"

	path, url, err := s.storage.UploadProcessed(userID, filename, data)
	if err != nil {
		return nil, models.WrapError(models.KindStorage, "failed to upload processed image", err)
	}

	record, err := s.db.AttachProcessed(ctx, imageID, userID, path, url)
	if err != nil {
		if rmErr := s.storage.RemoveProcessed(path); rmErr != nil {
			log.Printf("Warning: orphaned processed blob %s: %v", path, rmErr)
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewError(models.KindNotFound, "image not found")
		}
		return nil, models.WrapError(models.KindStorage, "failed to update image record", err)
	}

	return record, nil
}

func (s *Store) Get(ctx context.Context, userID, imageID uuid.UUID) (*models.ImageRecord, error) {
	record, err := s.db.GetImage(ctx, imageID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewError(models.KindNotFound, "image not found")
		}
		return nil, models.WrapError(models.KindStorage, "failed to get image record", err)
	}
	return record, nil
}

// List returns the caller's records, newest first.
func (s *Store) List(ctx context.Context, userID uuid.UUID) ([]models.ImageRecord, error) {
	records, err := s.db.ListImages(ctx, userID)
	if err != nil {
		return nil, models.WrapError(models.KindStorage, "failed to list image records", err)
	}
	return records, nil
}

// Delete removes both blobs and then the row. Deleting an absent record is
// a no-op so a retry after a partial prior failure converges; the row is
// kept until the blobs are gone so a retry can still find their paths.
func (s *Store) Delete(ctx context.Context, userID, imageID uuid.UUID) error {
	record, err := s.db.GetImage(ctx, imageID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return models.WrapError(models.KindStorage, "failed to get image record", err)
	}

	if record.ProcessedPath.Valid {
		if err := s.storage.RemoveProcessed(record.ProcessedPath.String); err != nil {
			return models.WrapError(models.KindStorage, "failed to remove processed blob", err)
		}
	}
	if err := s.storage.RemoveOriginal(record.OriginalPath); err != nil {
		return models.WrapError(models.KindStorage, "failed to remove original blob", err)
	}

	if err := s.db.DeleteImage(ctx, imageID, userID); err != nil {
		return models.WrapError(models.KindStorage, "failed to delete image record", err)
	}

	return nil
}

func extensionFor(contentType string) string {
	if contentType == "image/png" {
		return ".png"
	}
	return ".jpg"
}
