package users

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agri-broker/broker-portal/broker-portal-backend/internal/session"
	"agri-broker/broker-portal/broker-portal-backend/pkg/apperrors"
)

// Handler serves the broker's supplier directory
type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterBrokerRoutes mounts supplier routes on the broker group
func (h *Handler) RegisterBrokerRoutes(broker *gin.RouterGroup) {
	broker.POST("/supplier", h.addSupplier)
	broker.GET("/suppliers", h.listSuppliers)
	broker.GET("/supplier/:id", h.getSupplier)
}

func (h *Handler) addSupplier(c *gin.Context) {
	var req AddSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	supplier, err := h.service.AddSupplier(c.Request.Context(), session.UserID(c), req)
	if err != nil {
		apperrors.Respond(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, supplier)
}

func (h *Handler) listSuppliers(c *gin.Context) {
	suppliers, err := h.service.ListSuppliers(c.Request.Context())
	if err != nil {
		apperrors.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, suppliers)
}

func (h *Handler) getSupplier(c *gin.Context) {
	supplier, err := h.service.GetSupplier(c.Request.Context(), c.Param("id"))
	if err != nil {
		apperrors.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, supplier)
}
