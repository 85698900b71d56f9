package credit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agri-broker/broker-portal/broker-portal-backend/internal/session"
	"agri-broker/broker-portal/broker-portal-backend/pkg/apperrors"
)

// Handler handles HTTP requests for buyers and purchase orders
type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterFinancerRoutes mounts buyer credit routes on the financer group
func (h *Handler) RegisterFinancerRoutes(financer *gin.RouterGroup) {
	financer.POST("/buyers", h.addBuyer)
	financer.GET("/buyers", h.listBuyers)
	financer.PUT("/buyers/:id/credit", h.updateCredit)
	financer.GET("/purchase-orders", h.listPurchaseOrders)
	financer.GET("/summary", h.summary)
}

// RegisterBrokerRoutes mounts purchase order creation on the broker group
func (h *Handler) RegisterBrokerRoutes(broker *gin.RouterGroup) {
	broker.POST("/trades/:tradeId/purchase-orders", h.createPurchaseOrder)
}

// ListAllBuyers handles GET /financer/buyers/all for financers and brokers
func (h *Handler) ListAllBuyers(c *gin.Context) {
	options, err := h.service.ListAllBuyers(c.Request.Context())
	if err != nil {
		apperrors.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, options)
}

func (h *Handler) addBuyer(c *gin.Context) {
	var req AddBuyerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	buyer, err := h.service.AddBuyer(c.Request.Context(), session.UserID(c), req)
	if err != nil {
		apperrors.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, buyer)
}

func (h *Handler) listBuyers(c *gin.Context) {
	buyers, err := h.service.ListBuyers(c.Request.Context(), session.UserID(c))
	if err != nil {
		apperrors.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, buyers)
}

func (h *Handler) updateCredit(c *gin.Context) {
	var req UpdateCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	buyer, err := h.service.UpdateCreditLimit(c.Request.Context(), session.UserID(c), c.Param("id"), req)
	if err != nil {
		apperrors.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, buyer)
}

func (h *Handler) listPurchaseOrders(c *gin.Context) {
	list, err := h.service.ListPurchaseOrders(c.Request.Context(), session.UserID(c))
	if err != nil {
		apperrors.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) summary(c *gin.Context) {
	financer, err := h.service.Summary(c.Request.Context(), session.UserID(c))
	if err != nil {
		apperrors.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, financer)
}

func (h *Handler) createPurchaseOrder(c *gin.Context) {
	var req CreatePORequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	po, err := h.service.CreatePurchaseOrder(c.Request.Context(), session.UserID(c), c.Param("tradeId"), req)
	if err != nil {
		apperrors.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, po)
}
