package server

import (
	"net/http"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"agri-broker/broker-portal/broker-portal-backend/internal/activity"
	"agri-broker/broker-portal/broker-portal-backend/internal/auth"
	"agri-broker/broker-portal/broker-portal-backend/internal/chat"
	"agri-broker/broker-portal/broker-portal-backend/internal/config"
	"agri-broker/broker-portal/broker-portal-backend/internal/credit"
	"agri-broker/broker-portal/broker-portal-backend/internal/invoices"
	"agri-broker/broker-portal/broker-portal-backend/internal/negotiation"
	"agri-broker/broker-portal/broker-portal-backend/internal/orders"
	"agri-broker/broker-portal/broker-portal-backend/internal/trades"
	"agri-broker/broker-portal/broker-portal-backend/internal/users"
	"agri-broker/broker-portal/broker-portal-backend/pkg/dedupe"
	"agri-broker/broker-portal/broker-portal-backend/pkg/notify"
	"agri-broker/broker-portal/broker-portal-backend/pkg/storage"
)

// Dependencies are the infrastructure clients the API is built on
type Dependencies struct {
	DB        *gorm.DB
	Notifier  *notify.Notifier
	Files     storage.FileStore
	Seen      dedupe.Store
	Publisher activity.Publisher
	Config    *config.Config
	Logger    *zap.Logger
}

// App is the assembled API
type App struct {
	Handler http.Handler
	Hub     *activity.Hub
}

// New wires repositories, services and handlers and returns the CORS-wrapped router
func New(deps Dependencies) *App {
	cfg, logger := deps.Config, deps.Logger

	userRepo := users.NewRepository(deps.DB)
	tradeRepo := trades.NewRepository(deps.DB)
	orderRepo := orders.NewRepository(deps.DB)

	hub := activity.NewHub(logger.Named("ws"), nil)
	activityService := activity.NewService(activity.NewRepository(deps.DB), hub, deps.Publisher, logger)

	rates := orders.Rates{Supplier: cfg.Commission.SupplierRate, Buyer: cfg.Commission.BuyerRate}
	tokens := auth.NewTokenManager(cfg.Security.JWTSecret, cfg.Security.TokenTTL)

	userService := users.NewService(userRepo, logger)
	tradeService := trades.NewService(tradeRepo, userRepo, activityService, deps.Notifier, logger)
	orderService := orders.NewService(orderRepo, tradeRepo, deps.Notifier, rates, logger)
	creditService := credit.NewService(credit.NewRepository(deps.DB), tradeRepo, orderRepo, userRepo, deps.Notifier, logger)
	invoiceService := invoices.NewService(invoices.NewRepository(deps.DB), orderRepo, userRepo, activityService,
		deps.Notifier, deps.Files,
		invoices.Options{FrontendURL: cfg.Server.FrontendURL, PublicURL: cfg.Server.PublicURL}, logger)

	engine := negotiation.NewEngine(tradeRepo, orderRepo, userRepo, activityService, invoiceService,
		deps.Notifier, rates, logger.Named("chat"))
	dispatcher := chat.NewDispatcher(engine, deps.Notifier, logger.Named("chat"))

	router := NewRouter(tokens, Handlers{
		Auth:     auth.NewHandler(auth.NewService(userRepo, tokens, logger), logger),
		Users:    users.NewHandler(userService, logger),
		Trades:   trades.NewHandler(tradeService, logger),
		Orders:   orders.NewHandler(orderService, logger),
		Credit:   credit.NewHandler(creditService, logger),
		Invoices: invoices.NewHandler(invoiceService, logger),
		Activity: activity.NewHandler(activityService, hub, logger),
		Webhook:  chat.NewWebhook(dispatcher, deps.Seen, cfg.WhatsApp.VerifyToken, cfg.Redis.DedupeTTL, logger.Named("webhook")),
	}, logger)

	return &App{Handler: WithCORS(router, cfg.Server.CORSOrigins), Hub: hub}
}
