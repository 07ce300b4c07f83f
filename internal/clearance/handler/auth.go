package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GangaMannan/CustomsClearnace/internal/identity"
	"github.com/GangaMannan/CustomsClearnace/internal/submitters"
)

// AuthHandler exchanges submitter credentials for tokens.
type AuthHandler struct {
	svc    *submitters.Service
	tokens *identity.TokenIssuer
	logger *zap.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(svc *submitters.Service, tokens *identity.TokenIssuer, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, tokens: tokens, logger: logger}
}

// Register registers auth routes on the given router group.
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	{
		auth.POST("/token", h.IssueToken)
		auth.GET("/key", h.PublicKey)
	}
}

type tokenRequest struct {
	Name   string `json:"name" binding:"required"`
	Secret string `json:"secret" binding:"required"`
}

// IssueToken handles POST /auth/token.
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tok, expires, err := h.svc.Authenticate(c.Request.Context(), req.Name, req.Secret)
	if err != nil {
		if errors.Is(err, submitters.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		h.logger.Error("authenticate submitter", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "authentication failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      tok,
		"expires_at": expires.Format(time.RFC3339),
	})
}

// PublicKey handles GET /auth/key, serving the token verification key so
// downstream services can verify submitter tokens offline.
func (h *AuthHandler) PublicKey(c *gin.Context) {
	pemStr, err := h.tokens.PublicKeyPEM()
	if err != nil {
		h.logger.Error("marshal public key", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "key unavailable"})
		return
	}
	c.Data(http.StatusOK, "application/x-pem-file", []byte(pemStr))
}
