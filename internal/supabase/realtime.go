package supabase

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/supabase-community/supabase-go"
)

type RealtimeClient struct {
	client *supabase.Client
}

func NewRealtimeClient(client *supabase.Client) *RealtimeClient {
	return &RealtimeClient{
		client: client,
	}
}

func (r *RealtimeClient) PublishEvent(channel string, event string, payload map[string]interface{}) error {
	// The Go client has no direct Realtime publish; row changes on the
	// images table already trigger Realtime for subscribed clients. This
	// hook exists for explicit events via the REST API if that changes.
	return nil
}

func (r *RealtimeClient) PublishImageEvent(imageID uuid.UUID, event string, payload map[string]interface{}) error {
	channel := fmt.Sprintf("image:%s", imageID.String())
	return r.PublishEvent(channel, event, payload)
}

// Event payloads
func ProcessingStartedPayload(imageID uuid.UUID) map[string]interface{} {
	return map[string]interface{}{
		"image_id": imageID.String(),
		"status":   "processing",
	}
}

func ProcessingCompletedPayload(imageID uuid.UUID, processedURL string) map[string]interface{} {
	return map[string]interface{}{
		"image_id":      imageID.String(),
		"status":        "completed",
		"processed_url": processedURL,
	}
}

func ProcessingFailedPayload(imageID uuid.UUID, errorMsg string) map[string]interface{} {
	return map[string]interface{}{
		"image_id": imageID.String(),
		"status":   "failed",
		"error":    errorMsg,
	}
}
