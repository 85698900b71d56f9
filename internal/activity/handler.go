package activity

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agri-broker/broker-portal/broker-portal-backend/internal/session"
	"agri-broker/broker-portal/broker-portal-backend/internal/users"
	"agri-broker/broker-portal/broker-portal-backend/pkg/apperrors"
)

// Handler serves the broker inbox
type Handler struct {
	service *Service
	hub     *Hub
	logger  *zap.Logger
}

func NewHandler(service *Service, hub *Hub, logger *zap.Logger) *Handler {
	return &Handler{service: service, hub: hub, logger: logger}
}

type markReadRequest struct {
	NotificationIDs []string `json:"notification_ids" binding:"required"`
}

// RegisterBrokerRoutes mounts inbox routes on the broker group
func (h *Handler) RegisterBrokerRoutes(broker *gin.RouterGroup) {
	notifications := broker.Group("/notifications")
	{
		notifications.GET("", h.unread)
		notifications.PUT("/read", h.markRead)
		notifications.GET("/count", h.count)
		notifications.GET("/history", h.history)
		notifications.GET("/ws", h.live)
	}
}

// AcceptedTrades handles GET /broker/logs/accepted-trades for brokers and financers
func (h *Handler) AcceptedTrades(c *gin.Context) {
	entries, err := h.service.AcceptedTrades(c.Request.Context(), session.UserID(c), users.Role(session.Role(c)))
	if err != nil {
		apperrors.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) unread(c *gin.Context) {
	entries, err := h.service.Unread(c.Request.Context(), session.UserID(c))
	if err != nil {
		apperrors.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) markRead(c *gin.Context) {
	var req markReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.service.MarkRead(c.Request.Context(), session.UserID(c), req.NotificationIDs)
	if err != nil {
		apperrors.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notifications marked as read", "updated": updated})
}

func (h *Handler) count(c *gin.Context) {
	count, err := h.service.UnreadCount(c.Request.Context(), session.UserID(c))
	if err != nil {
		apperrors.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *Handler) history(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	result, err := h.service.History(c.Request.Context(), session.UserID(c), page, limit)
	if err != nil {
		apperrors.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// live upgrades to a WebSocket that streams new inbox entries
func (h *Handler) live(c *gin.Context) {
	if err := h.hub.Serve(c.Writer, c.Request, session.UserID(c)); err != nil {
		h.logger.Warn("Failed to open inbox session", zap.Error(err))
	}
}
