package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"buyerleads/internal/pkg/response"
)

// SessionCookie carries the session JWT.
const SessionCookie = "session-token"

type CookieConfig struct {
	Secure   bool
	SameSite string
	Path     string
}

// Handler manages all HTTP interactions for authentication
type Handler struct {
	service *Service
	cookie  CookieConfig
	log     *zap.Logger
}

func NewHandler(service *Service, cookie CookieConfig, log *zap.Logger) *Handler {
	if cookie.Path == "" {
		cookie.Path = "/"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{service: service, cookie: cookie, log: log.Named("auth.http")}
}

type signInRequest struct {
	Email string `json:"email"`
}

// SignIn handles POST /api/v1/auth/signin
func (h *Handler) SignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	err := h.service.RequestMagicLink(c.Request.Context(), req.Email)
	switch {
	case err == nil:
		response.Success(c, http.StatusOK, gin.H{"message": "Check your email for a sign-in link"})
	case errors.Is(err, ErrInvalidEmail):
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Please enter a valid email address",
			map[string]string{"email": "must be a valid email address"})
	case errors.Is(err, ErrRateLimitExceeded):
		response.Error(c, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Please wait before requesting another link")
	default:
		h.log.Error("signin failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "SIGNIN_FAILED", "Failed to send sign-in link")
	}
}

// Verify handles GET /api/v1/auth/verify?token=...
func (h *Handler) Verify(c *gin.Context) {
	session, err := h.service.VerifyMagicLink(c.Request.Context(), c.Query("token"))
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Sign-in link is invalid or expired")
			return
		}
		h.log.Error("verify failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "VERIFY_FAILED", "Failed to verify sign-in link")
		return
	}

	maxAge := int(session.ExpiresAt.Sub(h.service.now()).Seconds())
	c.SetSameSite(parseSameSite(h.cookie.SameSite))
	c.SetCookie(SessionCookie, session.Token, maxAge, h.cookie.Path, "", h.cookie.Secure, true)

	response.Success(c, http.StatusOK, gin.H{
		"user":      session.User,
		"expiresAt": session.ExpiresAt,
		"token":     session.Token,
	})
}

// SignOut handles POST /api/v1/auth/signout
func (h *Handler) SignOut(c *gin.Context) {
	c.SetSameSite(parseSameSite(h.cookie.SameSite))
	c.SetCookie(SessionCookie, "", -1, h.cookie.Path, "", h.cookie.Secure, true)
	c.Status(http.StatusNoContent)
}

// DevMagicLink handles GET /api/v1/auth/dev-magic-link?email=...
func (h *Handler) DevMagicLink(c *gin.Context) {
	link, err := h.service.DevMagicLink(c.Request.Context(), c.Query("email"))
	switch {
	case err == nil:
		response.Success(c, http.StatusOK, gin.H{"url": link})
	case errors.Is(err, ErrDevOnly):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Not found")
	case errors.Is(err, ErrInvalidEmail):
		response.Error(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Please enter a valid email address")
	default:
		h.log.Error("dev magic link failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create link")
	}
}

// Me handles GET /api/v1/auth/me
func (h *Handler) Me(c *gin.Context) {
	user, err := h.service.Me(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Session user no longer exists")
			return
		}
		h.log.Error("me failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load user")
		return
	}
	response.Success(c, http.StatusOK, user)
}

func parseSameSite(mode string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
