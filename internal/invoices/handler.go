package invoices

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agri-broker/broker-portal/broker-portal-backend/internal/session"
	"agri-broker/broker-portal/broker-portal-backend/pkg/apperrors"
)

// Handler handles HTTP requests for invoices
type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterBrokerRoutes mounts invoice routes on the broker group
func (h *Handler) RegisterBrokerRoutes(broker *gin.RouterGroup) {
	broker.GET("/invoice/suppliers/:logId", h.prefill)
	broker.POST("/invoice", h.request)
	broker.POST("/invoice/pdf", h.generatePDF)
	broker.GET("/invoiceslist/details", h.listDetails)
}

// RegisterSupplierRoutes mounts invoice routes on the supplier group
func (h *Handler) RegisterSupplierRoutes(supplier *gin.RouterGroup) {
	supplier.PUT("/invoice/:id/number", h.setNumber)
}

// RegisterFileRoutes mounts the PDF download. Links are sent over chat, so
// the route sits outside the authenticated broker group.
func (h *Handler) RegisterFileRoutes(r gin.IRouter) {
	r.GET("/broker/invoices/:filename", h.download)
}

func (h *Handler) prefill(c *gin.Context) {
	prefill, err := h.service.PrefillFromLog(c.Request.Context(), session.UserID(c), c.Param("logId"))
	if err != nil {
		apperrors.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, prefill)
}

func (h *Handler) request(c *gin.Context) {
	var req InvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}
	result, err := h.service.RequestInvoice(c.Request.Context(), session.UserID(c), req)
	if err != nil {
		apperrors.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *Handler) generatePDF(c *gin.Context) {
	var req InvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}
	result, err := h.service.GeneratePDF(c.Request.Context(), session.UserID(c), req)
	if err != nil {
		apperrors.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *Handler) listDetails(c *gin.Context) {
	list, err := h.service.ListDetails(c.Request.Context(), session.UserID(c))
	if err != nil {
		apperrors.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) setNumber(c *gin.Context) {
	var req NumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invoice number is required"})
		return
	}
	invoice, err := h.service.SetInvoiceNumber(c.Request.Context(), session.UserID(c), c.Param("id"), req.InvoiceNumber)
	if err != nil {
		apperrors.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Invoice number updated successfully", "invoice": invoice})
}

func (h *Handler) download(c *gin.Context) {
	name := c.Param("filename")
	rc, err := h.service.Open(c.Request.Context(), name)
	if err != nil {
		apperrors.Respond(c, h.logger, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", `inline; filename="`+name+`"`)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		h.logger.Warn("Failed to stream invoice", zap.String("file", name), zap.Error(err))
	}
}
