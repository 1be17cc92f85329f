package supabase

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"backsnap-backend/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(connectionString string) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

// NewDatabaseClientWithDB wraps an existing connection, used by tests.
func NewDatabaseClientWithDB(db *sql.DB) *DatabaseClient {
	return &DatabaseClient{db: db}
}

func (d *DatabaseClient) CreateImage(ctx context.Context, img *models.ImageRecord) (*models.ImageRecord, error) {
	var created models.ImageRecord
	err := d.db.QueryRowContext(ctx, `
		INSERT INTO images (id, user_id, original_path, original_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, original_path, original_url, processed_path, processed_url, created_at
	`, img.ID, img.UserID, img.OriginalPath, img.OriginalURL).Scan(
		&created.ID, &created.UserID, &created.OriginalPath, &created.OriginalURL,
		&created.ProcessedPath, &created.ProcessedURL, &created.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create image: %w", err)
	}

	return &created, nil
}

func (d *DatabaseClient) GetImage(ctx context.Context, imageID, userID uuid.UUID) (*models.ImageRecord, error) {
	var img models.ImageRecord
	err := d.db.QueryRowContext(ctx, `
		SELECT id, user_id, original_path, original_url, processed_path, processed_url, created_at
		FROM images
		WHERE id = $1 AND user_id = $2
	`, imageID, userID).Scan(
		&img.ID, &img.UserID, &img.OriginalPath, &img.OriginalURL,
		&img.ProcessedPath, &img.ProcessedURL, &img.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}

	return &img, nil
}

func (d *DatabaseClient) ListImages(ctx context.Context, userID uuid.UUID) ([]models.ImageRecord, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, user_id, original_path, original_url, processed_path, processed_url, created_at
		FROM images
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	defer rows.Close()

	var images []models.ImageRecord
	for rows.Next() {
		var img models.ImageRecord
		err := rows.Scan(
			&img.ID, &img.UserID, &img.OriginalPath, &img.OriginalURL,
			&img.ProcessedPath, &img.ProcessedURL, &img.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate images: %w", err)
	}

	return images, nil
}

// AttachProcessed sets the processed blob reference. The processed_url IS
// NULL guard makes the created→completed transition single-shot; a second
// attach, or an attach against someone else's record, reports no rows.
func (d *DatabaseClient) AttachProcessed(ctx context.Context, imageID, userID uuid.UUID, processedPath, processedURL string) (*models.ImageRecord, error) {
	var img models.ImageRecord
	err := d.db.QueryRowContext(ctx, `
		UPDATE images
		SET processed_path = $1, processed_url = $2
		WHERE id = $3 AND user_id = $4 AND processed_url IS NULL
		RETURNING id, user_id, original_path, original_url, processed_path, processed_url, created_at
	`, processedPath, processedURL, imageID, userID).Scan(
		&img.ID, &img.UserID, &img.OriginalPath, &img.OriginalURL,
		&img.ProcessedPath, &img.ProcessedURL, &img.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to attach processed image: %w", err)
	}

	return &img, nil
}

func (d *DatabaseClient) DeleteImage(ctx context.Context, imageID, userID uuid.UUID) error {
	_, err := d.db.ExecContext(ctx, `
		DELETE FROM images
		WHERE id = $1 AND user_id = $2
	`, imageID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// ConsumeQuota atomically claims one request from the user's daily window.
// The single upsert resets an elapsed window, increments a live one, and
// refuses to touch an exhausted one, so two racing requests can never push
// the count past the limit. No rows back means denied.
func (d *DatabaseClient) ConsumeQuota(ctx context.Context, userID uuid.UUID, limit int, now time.Time, window time.Duration) (*models.QuotaWindow, error) {
	var qw models.QuotaWindow
	err := d.db.QueryRowContext(ctx, `
		INSERT INTO quota_windows (user_id, count, window_start, window_end)
		VALUES ($1, 1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			count        = CASE WHEN quota_windows.window_end <= excluded.window_start THEN 1
			                    ELSE quota_windows.count + 1 END,
			window_start = CASE WHEN quota_windows.window_end <= excluded.window_start THEN excluded.window_start
			                    ELSE quota_windows.window_start END,
			window_end   = CASE WHEN quota_windows.window_end <= excluded.window_start THEN excluded.window_end
			                    ELSE quota_windows.window_end END
		WHERE quota_windows.window_end <= excluded.window_start OR quota_windows.count < $4
		RETURNING user_id, count, window_start, window_end
	`, userID, now, now.Add(window), limit).Scan(
		&qw.UserID, &qw.Count, &qw.WindowStart, &qw.WindowEnd,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to consume quota: %w", err)
	}

	return &qw, nil
}

// GetQuotaWindow reads the current window without consuming, for the quota
// endpoint and for reporting the reset time on denial.
func (d *DatabaseClient) GetQuotaWindow(ctx context.Context, userID uuid.UUID) (*models.QuotaWindow, error) {
	var qw models.QuotaWindow
	err := d.db.QueryRowContext(ctx, `
		SELECT user_id, count, window_start, window_end
		FROM quota_windows
		WHERE user_id = $1
	`, userID).Scan(
		&qw.UserID, &qw.Count, &qw.WindowStart, &qw.WindowEnd,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get quota window: %w", err)
	}

	return &qw, nil
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}
