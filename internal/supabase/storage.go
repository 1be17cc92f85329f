package supabase

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/google/uuid"
	storage "github.com/supabase-community/storage-go"
)

// StorageClient talks to Supabase object storage. Originals and processed
// results live in separate buckets; within a bucket every path is prefixed
// with the owning user's id, matching the bucket RLS policies.
type StorageClient struct {
	client          *storage.Client
	originalsBucket string
	processedBucket string
	baseURL         string
}

func NewStorageClient(supabaseURL, serviceRoleKey, originalsBucket, processedBucket string) (*StorageClient, error) {
	baseURL := strings.TrimSuffix(supabaseURL, "/")
	client := storage.NewClient(baseURL+"/storage/v1", serviceRoleKey, nil)

	return &StorageClient{
		client:          client,
		originalsBucket: originalsBucket,
		processedBucket: processedBucket,
		baseURL:         baseURL,
	}, nil
}

// UploadOriginal stores the source image and returns its storage path and
// public URL.
func (s *StorageClient) UploadOriginal(userID uuid.UUID, filename string, data []byte, contentType string) (string, string, error) {
	return s.upload(s.originalsBucket, userID, filename, data, contentType)
}

// UploadProcessed stores a background-removed result. Clipdrop always
// returns PNG.
func (s *StorageClient) UploadProcessed(userID uuid.UUID, filename string, data []byte) (string, string, error) {
	return s.upload(s.processedBucket, userID, filename, data, "image/png")
}

func (s *StorageClient) upload(bucket string, userID uuid.UUID, filename string, data []byte, contentType string) (string, string, error) {
	storagePath := fmt.Sprintf("%s/%s", userID.String(), filename)

	upsert := true
	_, err := s.client.UploadFile(bucket, storagePath, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to upload file: %w", err)
	}

	return storagePath, s.publicURL(bucket, storagePath), nil
}

func (s *StorageClient) publicURL(bucket, storagePath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, bucket, storagePath)
}

// RemoveOriginal and RemoveProcessed delete a single blob. Removing an
// already-absent path is not an error, which keeps record deletion
// retryable after a partial failure.
func (s *StorageClient) RemoveOriginal(storagePath string) error {
	return s.remove(s.originalsBucket, storagePath)
}

func (s *StorageClient) RemoveProcessed(storagePath string) error {
	return s.remove(s.processedBucket, storagePath)
}

func (s *StorageClient) remove(bucket, storagePath string) error {
	_, err := s.client.RemoveFile(bucket, []string{storagePath})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	return strings.Contains(err.Error(), "not_found") ||
		strings.Contains(err.Error(), "404")
}
