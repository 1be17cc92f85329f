package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"backsnap-backend/internal/models"
	"backsnap-backend/internal/supabase"
)

type AuthHandler struct {
	authClient *supabase.AuthClient
}

func NewAuthHandler(authClient *supabase.AuthClient) *AuthHandler {
	return &AuthHandler{authClient: authClient}
}

// SignUp godoc
// @Summary     Create an account
// @Description Registers a new user with email and password via Supabase Auth
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body models.SignUpRequest true "Credentials"
// @Success     201 {object} models.SignUpResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /auth/signup [post]
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.WrapError(models.KindValidation, "email and password are required", err))
		return
	}

	resp, err := h.authClient.SignUp(req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// SignIn godoc
// @Summary     Sign in with email and password
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body models.SignInRequest true "Credentials"
// @Success     200 {object} models.SessionResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /auth/signin [post]
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req models.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.WrapError(models.KindValidation, "email and password are required", err))
		return
	}

	resp, err := h.authClient.SignIn(req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SignInWithOAuth godoc
// @Summary     Start an OAuth sign-in
// @Description Returns the provider authorization URL to finish in the browser
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body models.OAuthSignInRequest true "Provider"
// @Success     200 {object} models.OAuthSignInResponse
// @Failure     400 {object} models.ErrorResponse
// @Router      /auth/signin/oauth [post]
func (h *AuthHandler) SignInWithOAuth(c *gin.Context) {
	var req models.OAuthSignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.WrapError(models.KindValidation, "provider is required", err))
		return
	}

	resp, err := h.authClient.SignInWithOAuth(req.Provider, req.RedirectTo)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SignOut godoc
// @Summary     Sign out
// @Description Revokes the given Supabase session
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body models.SignOutRequest true "Session token"
// @Success     204
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /auth/signout [post]
func (h *AuthHandler) SignOut(c *gin.Context) {
	var req models.SignOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.WrapError(models.KindValidation, "access_token is required", err))
		return
	}

	if err := h.authClient.SignOut(req.AccessToken); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
