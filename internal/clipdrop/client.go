// Package clipdrop wraps the Clipdrop remove-background API. The client
// performs no retries of its own; transient kinds are reported so the caller
// can decide.
package clipdrop

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"backsnap-backend/internal/models"
)

const removeBackgroundPath = "/remove-background/v1"

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Submit sends the image to the remove-background endpoint and returns the
// processed image bytes. The caller is responsible for size, format and
// resolution validation; the API bills on invalid input too.
func (c *Client) Submit(ctx context.Context, imageData []byte, mimeType string) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("image_file", filenameFor(mimeType))
	if err != nil {
		return nil, models.WrapError(models.KindTransport, "failed to build multipart form", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, models.WrapError(models.KindTransport, "failed to write image data", err)
	}
	if err := writer.Close(); err != nil {
		return nil, models.WrapError(models.KindTransport, "failed to finalize multipart form", err)
	}

	url := c.baseURL + removeBackgroundPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, models.WrapError(models.KindTransport, "failed to create request", err)
	}

	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, models.WrapError(models.KindCancelled, "request cancelled", ctx.Err())
		}
		return nil, models.WrapError(models.KindTransport, "failed to execute request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, mapStatus(resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, models.WrapError(models.KindTransport, "failed to read response body", err)
	}

	return data, nil
}

// mapStatus translates the documented Clipdrop status codes into error
// kinds. 429 and network failures are the only retryable outcomes.
func mapStatus(status int, body string) error {
	switch status {
	case http.StatusTooManyRequests:
		return models.NewError(models.KindRateLimited, "API rate limit exceeded")
	case http.StatusPaymentRequired:
		return models.NewError(models.KindQuotaExceeded, "API quota exceeded")
	case http.StatusBadRequest:
		return models.NewError(models.KindInvalidInput, "invalid image input")
	case http.StatusRequestEntityTooLarge:
		return models.NewError(models.KindPayloadTooLarge, "image too large")
	default:
		return models.NewError(models.KindUpstream,
			fmt.Sprintf("unexpected status %d: %s", status, body))
	}
}

func filenameFor(mimeType string) string {
	if mimeType == "image/png" {
		return "image.png"
	}
	return "image.jpg"
}
