package models

type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type OAuthSignInRequest struct {
	// Provider is the OAuth provider name, e.g. "google" or "github".
	Provider   string `json:"provider" binding:"required"`
	RedirectTo string `json:"redirect_to,omitempty"`
}

type SignOutRequest struct {
	AccessToken string `json:"access_token" binding:"required"`
}
