package api

import (
	"context"
	"net/http"
	"time"

	"github.com/Domenick1991/flightshop/internal/domain"
	"github.com/gin-gonic/gin"
)

// SessionService is the part of the session manager exposed over HTTP.
type SessionService interface {
	ValidateSessionWithSecurity(ctx context.Context, token, clientIP, userAgent string) *domain.Session
	ValidateSessionForOffer(ctx context.Context, token, offerID, clientIP, userAgent string) *domain.Session
	GetSessionStats(ctx context.Context) domain.SessionStats
	PurgeExpired(ctx context.Context) (int64, error)
}

type SessionHandler struct {
	service SessionService
}

type validateSessionRequest struct {
	SessionToken string `json:"sessionToken" binding:"required"`
	OfferID      string `json:"offer_id"`
}

type validateSessionResponse struct {
	Valid     bool      `json:"valid"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func NewSessionHandler(service SessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

func (h *SessionHandler) Register(router *gin.RouterGroup) {
	router.POST("/sessions/validate", h.validate)
}

// RegisterAdmin mounts the diagnostic routes; callers guard the group.
func (h *SessionHandler) RegisterAdmin(router *gin.RouterGroup) {
	router.GET("/sessions/stats", h.stats)
	router.POST("/sessions/purge", h.purge)
}

func (h *SessionHandler) validate(c *gin.Context) {
	var req validateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	ip, ua := c.ClientIP(), c.Request.UserAgent()

	var s *domain.Session
	if req.OfferID != "" {
		s = h.service.ValidateSessionForOffer(ctx, req.SessionToken, req.OfferID, ip, ua)
	} else {
		s = h.service.ValidateSessionWithSecurity(ctx, req.SessionToken, ip, ua)
	}
	if s == nil {
		respondError(c, domain.ErrInvalidSession)
		return
	}

	c.JSON(http.StatusOK, validateSessionResponse{Valid: true, SessionID: s.ID, ExpiresAt: s.ExpiresAt})
}

func (h *SessionHandler) stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.GetSessionStats(c.Request.Context()))
}

func (h *SessionHandler) purge(c *gin.Context) {
	n, err := h.service.PurgeExpired(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": n})
}
