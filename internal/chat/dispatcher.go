package chat

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"agri-broker/broker-portal/broker-portal-backend/pkg/notify"
)

// Engine executes parsed commands and answers the sender itself
type Engine interface {
	AcceptTrade(ctx context.Context, from, tradeID string) error
	CounterOffer(ctx context.Context, from, tradeID string, price decimal.Decimal) error
	BrokerAccept(ctx context.Context, from, orderID string) error
	SubmitInvoiceNumber(ctx context.Context, from, invoiceID, number string) error
}

// Notifier sends a best-effort message to a phone
type Notifier interface {
	Notify(ctx context.Context, phone, body string) bool
}

// Dispatcher routes inbound chat text to the negotiation engine
type Dispatcher struct {
	engine   Engine
	notifier Notifier
	logger   *zap.Logger
}

func NewDispatcher(engine Engine, notifier Notifier, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{engine: engine, notifier: notifier, logger: logger}
}

// Dispatch parses text from a sender and runs it. Help and usage replies
// never reach the engine.
func (d *Dispatcher) Dispatch(ctx context.Context, from, text string) error {
	cmd := Parse(text)
	d.logger.Debug("Chat command received",
		zap.String("from", notify.LastTen(from)),
		zap.Int("kind", int(cmd.Kind)),
	)

	switch cmd.Kind {
	case KindAcceptTrade:
		return d.engine.AcceptTrade(ctx, from, cmd.TradeID)
	case KindCounterOffer:
		return d.engine.CounterOffer(ctx, from, cmd.TradeID, cmd.Price)
	case KindBrokerAccept:
		return d.engine.BrokerAccept(ctx, from, cmd.OrderID)
	case KindInvoiceNumber:
		return d.engine.SubmitInvoiceNumber(ctx, from, cmd.InvoiceID, cmd.Number)
	default:
		d.notifier.Notify(ctx, from, cmd.Reply)
		return nil
	}
}
