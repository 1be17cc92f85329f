package models

import "time"

type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type ImageResponse struct {
	ID           string    `json:"id"`
	OriginalURL  string    `json:"original_url"`
	ProcessedURL string    `json:"processed_url,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

type ImageListResponse struct {
	Images []ImageResponse `json:"images"`
}

type ProcessResponse struct {
	Image ImageResponse `json:"image"`
	Quota QuotaResponse `json:"quota"`
}

type QuotaResponse struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
}

type SessionResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	UserID       string `json:"user_id,omitempty"`
	Email        string `json:"email,omitempty"`
}

type SignUpResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	// ConfirmationSent is true when Supabase requires email confirmation
	// before the first sign-in.
	ConfirmationSent bool `json:"confirmation_sent"`
}

type OAuthSignInResponse struct {
	// AuthorizationURL is where the client finishes the OAuth flow.
	AuthorizationURL string `json:"authorization_url"`
}

// ToImageResponse flattens the nullable processed fields for the API.
func ToImageResponse(r *ImageRecord) ImageResponse {
	resp := ImageResponse{
		ID:          r.ID.String(),
		OriginalURL: r.OriginalURL,
		Status:      "created",
		CreatedAt:   r.CreatedAt,
	}
	if r.Completed() {
		resp.ProcessedURL = r.ProcessedURL.String
		resp.Status = "completed"
	}
	return resp
}
