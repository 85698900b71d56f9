package negotiation

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"agri-broker/broker-portal/broker-portal-backend/internal/activity"
	"agri-broker/broker-portal/broker-portal-backend/internal/invoices"
	"agri-broker/broker-portal/broker-portal-backend/internal/orders"
	"agri-broker/broker-portal/broker-portal-backend/internal/trades"
	"agri-broker/broker-portal/broker-portal-backend/internal/users"
	"agri-broker/broker-portal/broker-portal-backend/pkg/apperrors"
	"agri-broker/broker-portal/broker-portal-backend/pkg/notify"
)

// Notifier sends a best-effort message to a phone
type Notifier interface {
	Notify(ctx context.Context, phone, body string) bool
}

// Recorder appends entries to the broker activity log
type Recorder interface {
	Record(ctx context.Context, entry *activity.Log) error
}

// InvoiceNumbers accepts a supplier's invoice number
type InvoiceNumbers interface {
	SetInvoiceNumber(ctx context.Context, supplierID, invoiceID, number string) (*invoices.Invoice, error)
}

// Engine runs the chat side of a negotiation. Every call answers the sender:
// business refusals are sent as-is, unexpected failures as a generic apology.
type Engine struct {
	trades   trades.Repository
	orders   orders.Repository
	users    users.Repository
	recorder Recorder
	invoices InvoiceNumbers
	notifier Notifier
	rates    orders.Rates
	logger   *zap.Logger
}

func NewEngine(
	tradeRepo trades.Repository,
	orderRepo orders.Repository,
	userRepo users.Repository,
	recorder Recorder,
	invoiceNumbers InvoiceNumbers,
	notifier Notifier,
	rates orders.Rates,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		trades:   tradeRepo,
		orders:   orderRepo,
		users:    userRepo,
		recorder: recorder,
		invoices: invoiceNumbers,
		notifier: notifier,
		rates:    rates,
		logger:   logger,
	}
}

// respond sends the reply produced by fn to from. Domain errors are sent as
// their message; anything else is logged, apologised for and returned.
func (e *Engine) respond(ctx context.Context, from, op string, fn func() (string, error)) error {
	reply, err := fn()
	if err != nil {
		switch apperrors.KindOf(err) {
		case apperrors.KindValidation, apperrors.KindNotFound, apperrors.KindForbidden, apperrors.KindConflict:
			e.notifier.Notify(ctx, from, apperrors.Message(err))
			return nil
		}
		e.logger.Error("Failed to process chat command",
			zap.String("op", op),
			zap.String("from", notify.LastTen(from)),
			zap.Error(err),
		)
		e.notifier.Notify(ctx, from, notify.MsgProcessingError)
		return err
	}
	e.notifier.Notify(ctx, from, reply)
	return nil
}

// supplierTrade loads the trade and the sending supplier. A non-empty
// refusal means the command stops there.
func (e *Engine) supplierTrade(ctx context.Context, from, tradeID string) (*trades.Trade, *users.User, string, error) {
	trade, err := e.trades.GetByID(ctx, tradeID)
	if err != nil {
		return nil, nil, "", err
	}
	if trade == nil {
		return nil, nil, notify.MsgTradeNotFound, nil
	}
	supplier, err := e.users.GetByPhone(ctx, from, users.RoleSupplier)
	if err != nil {
		return nil, nil, "", err
	}
	if supplier == nil {
		return nil, nil, notify.MsgNotSupplier, nil
	}
	if trade.Status != trades.StatusActive {
		return nil, nil, notify.MsgTradeInactive, nil
	}
	return trade, supplier, "", nil
}

// AcceptTrade creates a supplier_accepted order at the listed price. The
// trade itself stays active so other suppliers can still respond.
func (e *Engine) AcceptTrade(ctx context.Context, from, tradeID string) error {
	return e.respond(ctx, from, "accept_trade", func() (string, error) {
		trade, supplier, refusal, err := e.supplierTrade(ctx, from, tradeID)
		if err != nil || refusal != "" {
			return refusal, err
		}

		order := orders.NewAcceptance(trade, supplier.ID, e.rates)
		if err := e.orders.Create(ctx, order); err != nil {
			return "", err
		}

		err = e.recorder.Record(ctx, &activity.Log{
			BrokerID:   trade.BrokerID,
			Type:       activity.TypeTradeAccept,
			Message:    fmt.Sprintf("Supplier %s accepted trade for %s", supplier.FirmName, trade.Crop),
			EntityType: activity.EntityTrade,
			EntityID:   trade.ID,
			ActorID:    supplier.ID,
			ActorType:  activity.ActorSupplier,
			Details: datatypes.JSONMap{
				"crop":         trade.Crop,
				"quantity":     trade.Quantity.String(),
				"price":        notify.Money(trade.Price),
				"total_amount": notify.Money(order.TotalAmount),
				"order_id":     order.ID,
			},
		})
		if err != nil {
			return "", err
		}

		if trade.Broker != nil {
			e.notifier.Notify(ctx, trade.Broker.Phone,
				notify.OrderConfirmation(order.ID, order.Quantity, order.TotalAmount, string(order.Status)))
		}

		e.logger.Info("Trade accepted",
			zap.String("trade_id", trade.ID),
			zap.String("order_id", order.ID),
			zap.String("supplier_id", supplier.ID),
		)
		return notify.TradeAccepted(trade.Price, order.Quantity, order.TotalAmount,
			order.SupplierCommissionRate, order.SupplierCommissionAmount), nil
	})
}

// CounterOffer records a lower price from a supplier and moves the trade to negotiating
func (e *Engine) CounterOffer(ctx context.Context, from, tradeID string, price decimal.Decimal) error {
	return e.respond(ctx, from, "counter_offer", func() (string, error) {
		trade, supplier, refusal, err := e.supplierTrade(ctx, from, tradeID)
		if err != nil || refusal != "" {
			return refusal, err
		}
		price = price.Round(2)
		if !price.IsPositive() {
			return "", apperrors.Validation("Please provide a valid price")
		}
		if price.GreaterThanOrEqual(trade.Price) {
			return notify.CounterTooHigh(trade.Price), nil
		}

		if err := trades.Advance(ctx, e.trades, trade, trades.StatusNegotiating); err != nil {
			return "", err
		}

		order := orders.NewCounter(trade, supplier.ID, price)
		if err := e.orders.Create(ctx, order); err != nil {
			return "", err
		}

		err = e.recorder.Record(ctx, &activity.Log{
			BrokerID:   trade.BrokerID,
			Type:       activity.TypeCounterOffer,
			Message:    fmt.Sprintf("Supplier %s made counter offer of ₹%s/qtl", supplier.FirmName, notify.Money(price)),
			EntityType: activity.EntityOrder,
			EntityID:   order.ID,
			ActorID:    supplier.ID,
			ActorType:  activity.ActorSupplier,
			Details: datatypes.JSONMap{
				"trade_id":       trade.ID,
				"original_price": notify.Money(trade.Price),
				"counter_offer":  notify.Money(price),
				"quantity":       trade.Quantity.String(),
			},
		})
		if err != nil {
			return "", err
		}

		if trade.Broker != nil {
			e.notifier.Notify(ctx, trade.Broker.Phone, notify.NegotiationUpdate(order.ID, price))
		}

		e.logger.Info("Counter offer received",
			zap.String("trade_id", trade.ID),
			zap.String("order_id", order.ID),
			zap.String("counter_offer", price.StringFixed(2)),
		)
		return notify.CounterOfferSent(trade.Price, price, order.Quantity, order.TotalAmount), nil
	})
}

// BrokerAccept confirms a supplier_accepted order on behalf of its broker
func (e *Engine) BrokerAccept(ctx context.Context, from, orderID string) error {
	return e.respond(ctx, from, "broker_accept", func() (string, error) {
		order, err := e.orders.GetByID(ctx, orderID)
		if err != nil {
			return "", err
		}
		if order == nil {
			return notify.MsgOrderNotFound, nil
		}

		broker, err := e.users.GetByPhone(ctx, from, users.RoleBroker)
		if err != nil {
			return "", err
		}
		if broker == nil || broker.ID != order.BrokerID {
			return notify.MsgNotOrderBroker, nil
		}

		if order.Status != orders.StatusSupplierAccepted {
			return notify.MsgInvalidOrderStatus, nil
		}
		next, err := orders.Transitions.Transition(order.Status, orders.StatusConfirmed)
		if err != nil {
			return notify.MsgInvalidOrderStatus, nil
		}
		order.Status = next
		if err := e.orders.Save(ctx, order); err != nil {
			return "", err
		}

		if order.Supplier != nil {
			price := order.PricePerQtl
			if order.Trade != nil {
				price = order.Trade.Price
			}
			e.notifier.Notify(ctx, order.Supplier.Phone,
				notify.BrokerAccepted(order.ID, price, order.Quantity, order.TotalAmount))
		}

		e.logger.Info("Order accepted by broker", zap.String("order_id", order.ID), zap.String("broker_id", broker.ID))
		return notify.MsgTradeConfirmed, nil
	})
}

// SubmitInvoiceNumber stores the invoice number a supplier sent over chat
func (e *Engine) SubmitInvoiceNumber(ctx context.Context, from, invoiceID, number string) error {
	return e.respond(ctx, from, "invoice_number", func() (string, error) {
		supplier, err := e.users.GetByPhone(ctx, from, users.RoleSupplier)
		if err != nil {
			return "", err
		}
		if supplier == nil {
			return notify.MsgNotSupplier, nil
		}
		if _, err := e.invoices.SetInvoiceNumber(ctx, supplier.ID, invoiceID, number); err != nil {
			return "", err
		}
		return notify.MsgInvoiceNumberSaved, nil
	})
}
