package trades

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agri-broker/broker-portal/broker-portal-backend/internal/session"
	"agri-broker/broker-portal/broker-portal-backend/pkg/apperrors"
)

// Handler handles HTTP requests for trades
type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type broadcastRequest struct {
	TradeID string `json:"trade_id"`
}

// RegisterBrokerRoutes mounts trade routes on the broker group
func (h *Handler) RegisterBrokerRoutes(broker *gin.RouterGroup) {
	broker.POST("/trade", h.createTrade)
	broker.GET("/trades", h.listBrokerTrades)
	broker.POST("/trade/broadcast", h.broadcast)
	broker.GET("/broadcast-history", h.broadcastHistory)
}

// RegisterSupplierRoutes mounts trade routes on the supplier group
func (h *Handler) RegisterSupplierRoutes(supplier *gin.RouterGroup) {
	supplier.GET("/trades", h.listActiveTrades)
}

func (h *Handler) createTrade(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	trade, err := h.service.Create(c.Request.Context(), session.UserID(c), req)
	if err != nil {
		apperrors.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, trade)
}

func (h *Handler) listBrokerTrades(c *gin.Context) {
	list, err := h.service.ListByBroker(c.Request.Context(), session.UserID(c))
	if err != nil {
		apperrors.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) listActiveTrades(c *gin.Context) {
	list, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		apperrors.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) broadcast(c *gin.Context) {
	var req broadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Trade ID is required"})
		return
	}

	result, err := h.service.Broadcast(c.Request.Context(), session.UserID(c), req.TradeID)
	if err != nil {
		apperrors.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) broadcastHistory(c *gin.Context) {
	records, err := h.service.BroadcastHistory(c.Request.Context(), session.UserID(c))
	if err != nil {
		apperrors.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, records)
}
