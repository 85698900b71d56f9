package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"agri-broker/broker-portal/broker-portal-backend/internal/activity"
	"agri-broker/broker-portal/broker-portal-backend/internal/auth"
	"agri-broker/broker-portal/broker-portal-backend/internal/chat"
	"agri-broker/broker-portal/broker-portal-backend/internal/credit"
	"agri-broker/broker-portal/broker-portal-backend/internal/invoices"
	"agri-broker/broker-portal/broker-portal-backend/internal/orders"
	"agri-broker/broker-portal/broker-portal-backend/internal/trades"
	"agri-broker/broker-portal/broker-portal-backend/internal/users"
)

// Handlers groups every HTTP surface the API mounts
type Handlers struct {
	Auth     *auth.Handler
	Users    *users.Handler
	Trades   *trades.Handler
	Orders   *orders.Handler
	Credit   *credit.Handler
	Invoices *invoices.Handler
	Activity *activity.Handler
	Webhook  *chat.Webhook
}

// NewRouter builds the gin engine with public, webhook and role-gated routes
func NewRouter(tokens *auth.TokenManager, h Handlers, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
		})
	})

	auth.RegisterRoutes(router, h.Auth)
	h.Webhook.RegisterRoutes(router)
	h.Invoices.RegisterFileRoutes(router)

	authenticated := tokens.Authenticate()

	broker := router.Group("/broker", authenticated, auth.RequireRole(users.RoleBroker))
	{
		h.Users.RegisterBrokerRoutes(broker)
		h.Trades.RegisterBrokerRoutes(broker)
		h.Orders.RegisterBrokerRoutes(broker)
		h.Credit.RegisterBrokerRoutes(broker)
		h.Invoices.RegisterBrokerRoutes(broker)
		h.Activity.RegisterBrokerRoutes(broker)
	}
	router.GET("/broker/logs/accepted-trades",
		authenticated, auth.RequireRole(users.RoleBroker, users.RoleFinancer), h.Activity.AcceptedTrades)

	supplier := router.Group("/supplier", authenticated, auth.RequireRole(users.RoleSupplier))
	{
		h.Trades.RegisterSupplierRoutes(supplier)
		h.Orders.RegisterSupplierRoutes(supplier)
		h.Invoices.RegisterSupplierRoutes(supplier)
	}

	financer := router.Group("/financer", authenticated, auth.RequireRole(users.RoleFinancer))
	{
		h.Credit.RegisterFinancerRoutes(financer)
	}
	router.GET("/financer/buyers/all",
		authenticated, auth.RequireRole(users.RoleFinancer, users.RoleBroker), h.Credit.ListAllBuyers)

	return router
}

// WithCORS wraps handler with the allowed origins. "*" allows any origin.
func WithCORS(handler http.Handler, origins []string) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "Accept", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler(handler)
}

// RequestLogger logs one line per request on zap
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error("Request failed", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("Request rejected", fields...)
		default:
			logger.Info("Request handled", fields...)
		}
	}
}
