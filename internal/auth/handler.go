package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agri-broker/broker-portal/broker-portal-backend/pkg/apperrors"
)

type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(s *Service, logger *zap.Logger) *Handler {
	return &Handler{service: s, logger: logger}
}

// Register handles POST /auth/register
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		apperrors.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Login handles POST /auth/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		apperrors.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
