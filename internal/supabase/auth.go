package supabase

import (
	"github.com/supabase-community/gotrue-go/types"

	"backsnap-backend/internal/models"
)

// AuthClient wraps the Supabase GoTrue endpoints the API exposes. Tokens
// issued here are what AuthMiddleware later verifies.
type AuthClient struct {
	client *Client
}

func NewAuthClient(client *Client) *AuthClient {
	return &AuthClient{client: client}
}

func (a *AuthClient) SignUp(email, password string) (*models.SignUpResponse, error) {
	resp, err := a.client.Supabase.Auth.Signup(types.SignupRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, models.WrapError(models.KindUnauthenticated, "sign-up failed", err)
	}

	return &models.SignUpResponse{
		UserID:           resp.ID.String(),
		Email:            resp.Email,
		ConfirmationSent: resp.ConfirmationSentAt != nil,
	}, nil
}

func (a *AuthClient) SignIn(email, password string) (*models.SessionResponse, error) {
	session, err := a.client.Supabase.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, models.WrapError(models.KindUnauthenticated, "invalid credentials", err)
	}

	return &models.SessionResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		TokenType:    session.TokenType,
		ExpiresIn:    int(session.ExpiresIn),
		UserID:       session.User.ID.String(),
		Email:        session.User.Email,
	}, nil
}

// SignInWithOAuth returns the provider authorization URL; the client
// completes the flow in the browser and comes back with a Supabase session.
func (a *AuthClient) SignInWithOAuth(provider, redirectTo string) (*models.OAuthSignInResponse, error) {
	resp, err := a.client.Supabase.Auth.Authorize(types.AuthorizeRequest{
		Provider:   types.Provider(provider),
		RedirectTo: redirectTo,
	})
	if err != nil {
		return nil, models.WrapError(models.KindUpstream, "failed to build authorization URL", err)
	}

	return &models.OAuthSignInResponse{
		AuthorizationURL: resp.AuthorizationURL,
	}, nil
}

func (a *AuthClient) SignOut(accessToken string) error {
	if err := a.client.Supabase.Auth.WithToken(accessToken).Logout(); err != nil {
		return models.WrapError(models.KindUnauthenticated, "sign-out failed", err)
	}
	return nil
}
