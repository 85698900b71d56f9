package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Notifier sends best-effort messages. Delivery failures are logged and
// never returned, so a business operation cannot fail because of them.
type Notifier struct {
	gateway Gateway
	logger  *zap.Logger
	delay   time.Duration
}

// NewNotifier wraps gateway. delay separates the messages of a trade alert.
func NewNotifier(gateway Gateway, logger *zap.Logger, delay time.Duration) *Notifier {
	return &Notifier{gateway: gateway, logger: logger, delay: delay}
}

// Notify sends body to phone and reports whether it was delivered
func (n *Notifier) Notify(ctx context.Context, phone, body string) bool {
	if phone == "" {
		n.logger.Warn("Skipping notification without phone number")
		return false
	}
	if err := n.gateway.Send(ctx, phone, body); err != nil {
		n.logger.Error("Failed to deliver notification",
			zap.String("phone", LastTen(phone)),
			zap.Error(err),
		)
		return false
	}
	return true
}

// SendTrade sends the three-message trade alert in order: details, the
// accept command and the counter command, pausing between each.
func (n *Notifier) SendTrade(ctx context.Context, phone string, alert TradeAlert) bool {
	messages := []string{
		TradeDetails(alert),
		AcceptInstruction(alert.ID),
		CounterInstruction(alert.ID),
	}

	delivered := true
	for i, body := range messages {
		if i > 0 && !n.pause(ctx) {
			return false
		}
		if !n.Notify(ctx, phone, body) {
			delivered = false
		}
	}
	return delivered
}

func (n *Notifier) pause(ctx context.Context) bool {
	if n.delay <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(n.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
