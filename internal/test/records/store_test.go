package records_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backsnap-backend/internal/models"
	"backsnap-backend/internal/records"
)

type fakeStorage struct {
	uploadOriginalCalls  int
	uploadProcessedCalls int
	removedOriginals     []string
	removedProcessed     []string
	uploadOriginalErr    error
	uploadProcessedErr   error
}

func (f *fakeStorage) UploadOriginal(userID uuid.UUID, filename string, data []byte, contentType string) (string, string, error) {
	f.uploadOriginalCalls++
	if f.uploadOriginalErr != nil {
		return "", "", f.uploadOriginalErr
	}
	path := userID.String() + "/" + filename
	return path, "https://storage.example/originals/" + path, nil
}

func (f *fakeStorage) UploadProcessed(userID uuid.UUID, filename string, data []byte) (string, string, error) {
	f.uploadProcessedCalls++
	if f.uploadProcessedErr != nil {
		return "", "", f.uploadProcessedErr
	}
	path := userID.String() + "/" + filename
	return path, "https://storage.example/processed/" + path, nil
}

func (f *fakeStorage) RemoveOriginal(storagePath string) error {
	f.removedOriginals = append(f.removedOriginals, storagePath)
	return nil
}

func (f *fakeStorage) RemoveProcessed(storagePath string) error {
	f.removedProcessed = append(f.removedProcessed, storagePath)
	return nil
}

type fakeDatabase struct {
	rows      map[uuid.UUID]*models.ImageRecord
	createErr error
}

func newFakeDatabase() *fakeDatabase {
	return &fakeDatabase{rows: make(map[uuid.UUID]*models.ImageRecord)}
}

func (f *fakeDatabase) CreateImage(ctx context.Context, img *models.ImageRecord) (*models.ImageRecord, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	stored := *img
	stored.CreatedAt = time.Now()
	f.rows[img.ID] = &stored
	return &stored, nil
}

func (f *fakeDatabase) GetImage(ctx context.Context, imageID, userID uuid.UUID) (*models.ImageRecord, error) {
	img, ok := f.rows[imageID]
	if !ok || img.UserID != userID {
		return nil, sql.ErrNoRows
	}
	copied := *img
	return &copied, nil
}

func (f *fakeDatabase) ListImages(ctx context.Context, userID uuid.UUID) ([]models.ImageRecord, error) {
	var out []models.ImageRecord
	for _, img := range f.rows {
		if img.UserID == userID {
			out = append(out, *img)
		}
	}
	return out, nil
}

func (f *fakeDatabase) AttachProcessed(ctx context.Context, imageID, userID uuid.UUID, processedPath, processedURL string) (*models.ImageRecord, error) {
	img, ok := f.rows[imageID]
	if !ok || img.UserID != userID || img.ProcessedURL.Valid {
		return nil, sql.ErrNoRows
	}
	img.ProcessedPath = sql.NullString{String: processedPath, Valid: true}
	img.ProcessedURL = sql.NullString{String: processedURL, Valid: true}
	copied := *img
	return &copied, nil
}

func (f *fakeDatabase) DeleteImage(ctx context.Context, imageID, userID uuid.UUID) error {
	delete(f.rows, imageID)
	return nil
}

func TestStore_Create(t *testing.T) {
	storage := &fakeStorage{}
	db := newFakeDatabase()
	store := records.NewStore(storage, db)

	userID := uuid.New()
	record, err := store.Create(context.Background(), userID, []byte("jpeg-bytes"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, userID, record.UserID)
	assert.False(t, record.Completed())
	assert.Equal(t, 1, storage.uploadOriginalCalls)
	assert.Len(t, db.rows, 1)
}

func TestStore_Create_Unauthenticated(t *testing.T) {
	storage := &fakeStorage{}
	store := records.NewStore(storage, newFakeDatabase())

	_, err := store.Create(context.Background(), uuid.Nil, []byte("jpeg-bytes"), "image/jpeg")
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindUnauthenticated))
	assert.Equal(t, 0, storage.uploadOriginalCalls, "no blob upload without an identity")
}

func TestStore_Create_BlobFailureLeavesNoRow(t *testing.T) {
	storage := &fakeStorage{uploadOriginalErr: errors.New("bucket unavailable")}
	db := newFakeDatabase()
	store := records.NewStore(storage, db)

	_, err := store.Create(context.Background(), uuid.New(), []byte("jpeg-bytes"), "image/jpeg")
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindStorage))
	assert.Empty(t, db.rows, "row must not exist when the blob upload failed")
}

func TestStore_Create_RowFailureRemovesBlob(t *testing.T) {
	storage := &fakeStorage{}
	db := newFakeDatabase()
	db.createErr = errors.New("insert failed")
	store := records.NewStore(storage, db)

	_, err := store.Create(context.Background(), uuid.New(), []byte("jpeg-bytes"), "image/jpeg")
	require.Error(t, err)
	assert.Len(t, storage.removedOriginals, 1, "compensating blob cleanup")
}

func TestStore_AttachProcessed(t *testing.T) {
	storage := &fakeStorage{}
	db := newFakeDatabase()
	store := records.NewStore(storage, db)

	userID := uuid.New()
	record, err := store.Create(context.Background(), userID, []byte("jpeg-bytes"), "image/jpeg")
	require.NoError(t, err)

	completed, err := store.AttachProcessed(context.Background(), userID, record.ID, []byte("png-bytes"))
	require.NoError(t, err)
	assert.True(t, completed.Completed())
	assert.Equal(t, 1, storage.uploadProcessedCalls)
}

func TestStore_AttachProcessed_ForeignOwnerMutatesNothing(t *testing.T) {
	storage := &fakeStorage{}
	db := newFakeDatabase()
	store := records.NewStore(storage, db)

	owner := uuid.New()
	record, err := store.Create(context.Background(), owner, []byte("jpeg-bytes"), "image/jpeg")
	require.NoError(t, err)

	stranger := uuid.New()
	_, err = store.AttachProcessed(context.Background(), stranger, record.ID, []byte("png-bytes"))
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindNotFound))

	// The uploaded processed blob was compensated away and the row is
	// untouched.
	assert.Len(t, storage.removedProcessed, 1)
	got, err := store.Get(context.Background(), owner, record.ID)
	require.NoError(t, err)
	assert.False(t, got.Completed())
}

func TestStore_Delete_RemovesBlobsThenRow(t *testing.T) {
	storage := &fakeStorage{}
	db := newFakeDatabase()
	store := records.NewStore(storage, db)

	userID := uuid.New()
	record, err := store.Create(context.Background(), userID, []byte("jpeg-bytes"), "image/jpeg")
	require.NoError(t, err)
	_, err = store.AttachProcessed(context.Background(), userID, record.ID, []byte("png-bytes"))
	require.NoError(t, err)

	err = store.Delete(context.Background(), userID, record.ID)
	require.NoError(t, err)
	assert.Len(t, storage.removedOriginals, 1)
	assert.Len(t, storage.removedProcessed, 1)
	assert.Empty(t, db.rows)
}

func TestStore_Delete_Idempotent(t *testing.T) {
	storage := &fakeStorage{}
	db := newFakeDatabase()
	store := records.NewStore(storage, db)

	userID := uuid.New()
	record, err := store.Create(context.Background(), userID, []byte("jpeg-bytes"), "image/jpeg")
	require.NoError(t, err)

	require.NoError(t, store.Delete(context.Background(), userID, record.ID))
	// Second delete of the same id is a no-op, not an error.
	require.NoError(t, store.Delete(context.Background(), userID, record.ID))
	assert.Len(t, storage.removedOriginals, 1, "no second blob removal attempt")
}

func TestStore_Delete_ForeignOwnerIsNoOp(t *testing.T) {
	storage := &fakeStorage{}
	db := newFakeDatabase()
	store := records.NewStore(storage, db)

	owner := uuid.New()
	record, err := store.Create(context.Background(), owner, []byte("jpeg-bytes"), "image/jpeg")
	require.NoError(t, err)

	require.NoError(t, store.Delete(context.Background(), uuid.New(), record.ID))
	assert.Len(t, db.rows, 1, "foreign delete must not remove the record")
}
