package auth

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/AntonTsoy/auth-service/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const (
	accessCookie  = "access_token"
	refreshCookie = "refresh_token"
)

type AuthHandler struct {
	service       *Service
	logger        logging.Logger
	secureCookies bool
}

func NewAuthHandler(service *Service, logger logging.Logger, secureCookies bool) *AuthHandler {
	return &AuthHandler{service: service, logger: logger.With("component", "http"), secureCookies: secureCookies}
}

// Routes mounts the auth endpoints on rg.
func (h *AuthHandler) Routes(rg *gin.RouterGroup) {
	rg.POST("/register", h.Register)
	rg.POST("/login", h.Login)
	rg.POST("/logout", h.Logout)
	rg.POST("/refresh", h.Refresh)
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.validationError(c, err)
		return
	}

	if err := h.service.Register(c.Request.Context(), req.Email, req.Password); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "account registered successfully"})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.validationError(c, err)
		return
	}

	pair, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookie, pair.RefreshToken, int(RefreshTokenTTL.Seconds()), "/", "", h.secureCookies, true)
	c.SetCookie(accessCookie, pair.AccessToken, int(AccessTokenTTL.Seconds()), "/", "", h.secureCookies, true)
	c.JSON(http.StatusOK, pair)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	refreshToken, ok := h.refreshToken(c)
	if !ok {
		return
	}

	if err := h.service.Logout(c.Request.Context(), refreshToken); err != nil {
		h.writeError(c, err)
		return
	}

	c.SetCookie(refreshCookie, "", -1, "/", "", h.secureCookies, true)
	c.SetCookie(accessCookie, "", -1, "/", "", h.secureCookies, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out successfully"})
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, ok := h.refreshToken(c)
	if !ok {
		return
	}

	accessToken, err := h.service.RefreshAccessToken(c.Request.Context(), refreshToken)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"accessToken": accessToken})
}

// refreshToken reads the token from the JSON body, falling back to the
// refresh_token cookie. An empty result is left for the service to reject.
func (h *AuthHandler) refreshToken(c *gin.Context) (string, bool) {
	var req refreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.validationError(c, err)
		return "", false
	}
	if req.RefreshToken == "" {
		req.RefreshToken, _ = c.Cookie(refreshCookie)
	}
	return req.RefreshToken, true
}

var errorStatus = []struct {
	err    error
	status int
}{
	{ErrValidation, http.StatusBadRequest},
	{ErrBadRequest, http.StatusBadRequest},
	{ErrDuplicateIdentity, http.StatusConflict},
	{ErrInvalidCredentials, http.StatusUnauthorized},
	{ErrInvalidToken, http.StatusUnauthorized},
	{ErrWrongTokenType, http.StatusUnauthorized},
	{ErrAccountNotFound, http.StatusUnauthorized},
	{ErrTokenExpired, http.StatusUnauthorized},
	{ErrTokenNotFound, http.StatusUnauthorized},
}

func (h *AuthHandler) writeError(c *gin.Context, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			c.JSON(e.status, gin.H{"error": err.Error()})
			return
		}
	}
	h.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func (h *AuthHandler) validationError(c *gin.Context, err error) {
	h.writeError(c, fmt.Errorf("%w: %s", ErrValidation, validationMessage(err)))
}

func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return "malformed request body"
	}

	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be a valid email address")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}
