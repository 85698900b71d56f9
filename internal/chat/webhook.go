package chat

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agri-broker/broker-portal/broker-portal-backend/pkg/dedupe"
	"agri-broker/broker-portal/broker-portal-backend/pkg/notify"
)

const businessAccountObject = "whatsapp_business_account"

// Envelope is the WhatsApp Cloud API webhook body
type Envelope struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string      `json:"field"`
	Value ChangeValue `json:"value"`
}

type ChangeValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Messages         []InboundMessage `json:"messages"`
}

// InboundMessage is one message sent by a user. Text is nil unless Type is "text".
type InboundMessage struct {
	ID        string       `json:"id"`
	From      string       `json:"from"`
	Timestamp string       `json:"timestamp"`
	Type      string       `json:"type"`
	Text      *MessageText `json:"text,omitempty"`
}

type MessageText struct {
	Body string `json:"body"`
}

// Dispatch runs one inbound message
type Dispatch interface {
	Dispatch(ctx context.Context, from, text string) error
}

// Webhook receives inbound chat messages
type Webhook struct {
	dispatcher  Dispatch
	seen        dedupe.Store
	verifyToken string
	dedupeTTL   time.Duration
	logger      *zap.Logger
}

func NewWebhook(dispatcher Dispatch, seen dedupe.Store, verifyToken string, dedupeTTL time.Duration, logger *zap.Logger) *Webhook {
	return &Webhook{
		dispatcher:  dispatcher,
		seen:        seen,
		verifyToken: verifyToken,
		dedupeTTL:   dedupeTTL,
		logger:      logger,
	}
}

// RegisterRoutes mounts GET and POST /webhook. Neither is authenticated.
func (w *Webhook) RegisterRoutes(r gin.IRouter) {
	r.GET("/webhook", w.verify)
	r.POST("/webhook", w.receive)
}

func (w *Webhook) verify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "" || token == "" {
		c.Status(http.StatusBadRequest)
		return
	}
	if mode != "subscribe" || w.verifyToken == "" || token != w.verifyToken {
		w.logger.Warn("Webhook verification rejected", zap.String("mode", mode))
		c.Status(http.StatusForbidden)
		return
	}
	w.logger.Info("Webhook verified")
	c.String(http.StatusOK, challenge)
}

func (w *Webhook) receive(c *gin.Context) {
	var env Envelope
	if err := c.ShouldBindJSON(&env); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook payload"})
		return
	}
	if env.Object != businessAccountObject {
		c.Status(http.StatusOK)
		return
	}

	ctx := c.Request.Context()
	for _, entry := range env.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if msg.Type != "text" || msg.Text == nil {
					w.logger.Debug("Ignoring non-text message", zap.String("type", msg.Type))
					continue
				}
				if msg.ID != "" {
					fresh, err := w.seen.Claim(ctx, "wamid:"+msg.ID, w.dedupeTTL)
					if err != nil {
						w.logger.Error("Failed to check message redelivery", zap.String("message_id", msg.ID), zap.Error(err))
						c.Status(http.StatusInternalServerError)
						return
					}
					if !fresh {
						w.logger.Info("Dropping redelivered message", zap.String("message_id", msg.ID))
						continue
					}
				}

				w.logger.Info("Received chat message",
					zap.String("message_id", msg.ID),
					zap.String("from", notify.LastTen(msg.From)),
				)
				if err := w.dispatcher.Dispatch(ctx, msg.From, msg.Text.Body); err != nil {
					w.logger.Error("Chat command failed", zap.String("message_id", msg.ID), zap.Error(err))
				}
			}
		}
	}
	c.Status(http.StatusOK)
}
