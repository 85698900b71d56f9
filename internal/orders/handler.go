package orders

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agri-broker/broker-portal/broker-portal-backend/internal/session"
	"agri-broker/broker-portal/broker-portal-backend/pkg/apperrors"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler handles HTTP requests for orders and commissions
type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterBrokerRoutes mounts order and commission routes on the broker group
func (h *Handler) RegisterBrokerRoutes(broker *gin.RouterGroup) {
	broker.PUT("/orders/:orderId/confirm", h.confirm)

	commissions := broker.Group("/commissions")
	{
		commissions.GET("/summary", h.commissionSummary)
		commissions.GET("/orders", h.commissionDetails)
		commissions.GET("/export", h.exportCommissions)
		commissions.PUT("/:orderId/payment", h.recordPayment)
	}
}

// RegisterSupplierRoutes mounts order routes on the supplier group
func (h *Handler) RegisterSupplierRoutes(supplier *gin.RouterGroup) {
	supplier.POST("/orders", h.create)
	supplier.PUT("/orders/:orderId/negotiate", h.negotiate)
}

func (h *Handler) confirm(c *gin.Context) {
	order, err := h.service.Confirm(c.Request.Context(), session.UserID(c), c.Param("orderId"))
	if err != nil {
		apperrors.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) commissionSummary(c *gin.Context) {
	summary, err := h.service.CommissionSummary(c.Request.Context(), session.UserID(c))
	if err != nil {
		apperrors.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) commissionDetails(c *gin.Context) {
	details, err := h.service.CommissionDetails(c.Request.Context(), session.UserID(c))
	if err != nil {
		apperrors.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (h *Handler) exportCommissions(c *gin.Context) {
	ctx := c.Request.Context()
	brokerID := session.UserID(c)

	details, err := h.service.CommissionDetails(ctx, brokerID)
	if err != nil {
		apperrors.Respond(c, h.logger, err)
		return
	}
	summary, err := h.service.CommissionSummary(ctx, brokerID)
	if err != nil {
		apperrors.Respond(c, h.logger, err)
		return
	}

	data, err := ExportCommissions(details, summary)
	if err != nil {
		apperrors.Respond(c, h.logger, apperrors.Internal(err, "Failed to export commissions"))
		return
	}

	filename := fmt.Sprintf("commissions_%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (h *Handler) recordPayment(c *gin.Context) {
	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.service.RecordPayment(c.Request.Context(), session.UserID(c), c.Param("orderId"), req.PaymentFrom)
	if err != nil {
		apperrors.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.service.Create(c.Request.Context(), session.UserID(c), req)
	if err != nil {
		apperrors.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *Handler) negotiate(c *gin.Context) {
	var req NegotiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.service.Negotiate(c.Request.Context(), session.UserID(c), c.Param("orderId"), req)
	if err != nil {
		apperrors.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
