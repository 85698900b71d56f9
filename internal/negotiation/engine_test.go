package negotiation

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"agri-broker/broker-portal/broker-portal-backend/internal/activity"
	"agri-broker/broker-portal/broker-portal-backend/internal/invoices"
	"agri-broker/broker-portal/broker-portal-backend/internal/orders"
	"agri-broker/broker-portal/broker-portal-backend/internal/trades"
	"agri-broker/broker-portal/broker-portal-backend/internal/users"
	"agri-broker/broker-portal/broker-portal-backend/pkg/database"
	"agri-broker/broker-portal/broker-portal-backend/pkg/notify"
	"agri-broker/broker-portal/broker-portal-backend/pkg/storage"
)

type message struct {
	phone string
	body  string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []message
}

func (n *recordingNotifier) Notify(ctx context.Context, phone, body string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, message{phone: notify.LastTen(phone), body: body})
	return true
}

func (n *recordingNotifier) to(phone string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, m := range n.sent {
		if m.phone == phone {
			out = append(out, m.body)
		}
	}
	return out
}

func (n *recordingNotifier) last(phone string) string {
	msgs := n.to(phone)
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1]
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

const (
	brokerPhone   = "9000000001"
	supplierPhone = "9000000002"
	// inbound chat numbers carry the country code
	supplierChat = "91" + supplierPhone
	brokerChat   = "91" + brokerPhone
)

type fixture struct {
	trades   trades.Repository
	orders   orders.Repository
	activity *activity.Service
	invoices *invoices.Service
	notifier *recordingNotifier
	engine   *Engine

	broker   *users.User
	supplier *users.User
	trade    *trades.Trade
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenMemory(strings.ReplaceAll(t.Name(), "/", "_"))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&users.User{}, &trades.Trade{}, &orders.Order{}, &activity.Log{}, &invoices.Invoice{}))

	userRepo := users.NewRepository(db)
	f := &fixture{
		trades:   trades.NewRepository(db),
		orders:   orders.NewRepository(db),
		activity: activity.NewService(activity.NewRepository(db), nil, nil, zap.NewNop()),
		notifier: &recordingNotifier{},
	}
	f.invoices = invoices.NewService(invoices.NewRepository(db), f.orders, userRepo, f.activity, f.notifier,
		storage.NewMemoryStore(), invoices.Options{}, zap.NewNop())
	f.engine = NewEngine(f.trades, f.orders, userRepo, f.activity, f.invoices, f.notifier,
		orders.DefaultRates(2.5, 2.5), zap.NewNop())

	ctx := context.Background()
	f.broker = &users.User{Role: users.RoleBroker, FirmName: "Agro Brokers", Phone: brokerPhone}
	f.supplier = &users.User{Role: users.RoleSupplier, FirmName: "Green Farms", Phone: supplierPhone}
	for _, u := range []*users.User{f.broker, f.supplier} {
		require.NoError(t, userRepo.Create(ctx, u))
	}
	f.trade = &trades.Trade{
		Crop:      "Wheat",
		Grade:     "A",
		Price:     dec("2000"),
		Quantity:  dec("10"),
		ValidTill: time.Now().Add(time.Hour),
		BrokerID:  f.broker.ID,
	}
	require.NoError(t, f.trades.Create(ctx, f.trade))
	return f
}

func TestWheatTradeAcceptedAndConfirmed(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	require.NoError(t, f.engine.AcceptTrade(ctx, supplierChat, f.trade.ID))

	reply := f.notifier.last(supplierPhone)
	assert.Contains(t, reply, "Trade accepted successfully!")
	assert.Contains(t, reply, "Total amount: ₹20000.00")
	assert.Contains(t, reply, "Commission rate: 2.5%")
	assert.Contains(t, reply, "Commission amount: ₹500.00")

	order, err := f.orders.LatestForTrade(ctx, f.trade.ID)
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, orders.StatusSupplierAccepted, order.Status)
	assert.True(t, order.TotalAmount.Equal(dec("20000")))
	assert.True(t, order.SupplierCommissionAmount.Equal(dec("500")))
	assert.True(t, order.BuyerCommissionAmount.Equal(dec("500")))
	assert.True(t, order.TotalCommission.Equal(dec("1000")))

	assert.Contains(t, f.notifier.last(brokerPhone), order.ID)

	trade, err := f.trades.GetByID(ctx, f.trade.ID)
	require.NoError(t, err)
	assert.Equal(t, trades.StatusActive, trade.Status)

	accepted, err := f.activity.ListByType(ctx, f.broker.ID, activity.TypeTradeAccept)
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, "Supplier Green Farms accepted trade for Wheat", accepted[0].Message)

	require.NoError(t, f.engine.BrokerAccept(ctx, brokerChat, order.ID))
	assert.Equal(t, notify.MsgTradeConfirmed, f.notifier.last(brokerPhone))
	assert.Contains(t, f.notifier.last(supplierPhone), "Broker has accepted the trade!")

	confirmed, err := f.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusConfirmed, confirmed.Status)
	assert.True(t, confirmed.TotalCommission.Equal(dec("1000")))

	require.NoError(t, f.engine.BrokerAccept(ctx, brokerChat, order.ID))
	assert.Equal(t, notify.MsgInvalidOrderStatus, f.notifier.last(brokerPhone))
}

func TestCounterOfferMovesTradeToNegotiating(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	require.NoError(t, f.engine.CounterOffer(ctx, supplierChat, f.trade.ID, dec("2000")))
	assert.Equal(t, notify.CounterTooHigh(dec("2000")), f.notifier.last(supplierPhone))

	require.NoError(t, f.engine.CounterOffer(ctx, supplierChat, f.trade.ID, dec("1800")))
	assert.Contains(t, f.notifier.last(supplierPhone), "Counter offer sent successfully!")
	assert.Contains(t, f.notifier.last(supplierPhone), "Total amount: ₹18000.00")
	assert.Contains(t, f.notifier.last(brokerPhone), "Counter Offer: ₹1800.00/qtl")

	order, err := f.orders.LatestForTrade(ctx, f.trade.ID)
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, orders.StatusNegotiating, order.Status)
	assert.True(t, order.CounterOffer.Valid)
	assert.True(t, order.CounterOffer.Decimal.Equal(dec("1800")))
	assert.True(t, order.PricePerQtl.Equal(dec("2000")))
	assert.True(t, order.TotalAmount.Equal(dec("18000")))
	assert.True(t, order.TotalCommission.IsZero())

	trade, err := f.trades.GetByID(ctx, f.trade.ID)
	require.NoError(t, err)
	assert.Equal(t, trades.StatusNegotiating, trade.Status)

	counters, err := f.activity.ListByType(ctx, f.broker.ID, activity.TypeCounterOffer)
	require.NoError(t, err)
	require.Len(t, counters, 1)
	assert.Equal(t, activity.EntityOrder, counters[0].EntityType)
	assert.Equal(t, order.ID, counters[0].EntityID)

	require.NoError(t, f.engine.AcceptTrade(ctx, supplierChat, f.trade.ID))
	assert.Equal(t, notify.MsgTradeInactive, f.notifier.last(supplierPhone))

	require.NoError(t, f.engine.BrokerAccept(ctx, brokerChat, order.ID))
	assert.Equal(t, notify.MsgInvalidOrderStatus, f.notifier.last(brokerPhone))
}

func TestCounterOfferRoundingToZeroIsRefused(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	require.NoError(t, f.engine.CounterOffer(ctx, supplierChat, f.trade.ID, dec("0.004")))
	assert.Equal(t, "Please provide a valid price", f.notifier.last(supplierPhone))
	assert.Empty(t, f.notifier.to(brokerPhone))

	order, err := f.orders.LatestForTrade(ctx, f.trade.ID)
	require.NoError(t, err)
	assert.Nil(t, order)

	trade, err := f.trades.GetByID(ctx, f.trade.ID)
	require.NoError(t, err)
	assert.Equal(t, trades.StatusActive, trade.Status)
}

func TestEngineRefusals(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	require.NoError(t, f.engine.AcceptTrade(ctx, supplierChat, "missing"))
	assert.Equal(t, notify.MsgTradeNotFound, f.notifier.last(supplierPhone))

	require.NoError(t, f.engine.AcceptTrade(ctx, "919999999999", f.trade.ID))
	assert.Equal(t, notify.MsgNotSupplier, f.notifier.last("9999999999"))

	// the broker's own number is not a supplier
	require.NoError(t, f.engine.CounterOffer(ctx, brokerChat, f.trade.ID, dec("1500")))
	assert.Equal(t, notify.MsgNotSupplier, f.notifier.last(brokerPhone))

	require.NoError(t, f.engine.BrokerAccept(ctx, brokerChat, "missing"))
	assert.Equal(t, notify.MsgOrderNotFound, f.notifier.last(brokerPhone))

	require.NoError(t, f.engine.AcceptTrade(ctx, supplierChat, f.trade.ID))
	order, err := f.orders.LatestForTrade(ctx, f.trade.ID)
	require.NoError(t, err)
	require.NotNil(t, order)

	require.NoError(t, f.engine.BrokerAccept(ctx, supplierChat, order.ID))
	assert.Equal(t, notify.MsgNotOrderBroker, f.notifier.last(supplierPhone))
}

func TestSubmitInvoiceNumberOverChat(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	require.NoError(t, f.engine.AcceptTrade(ctx, supplierChat, f.trade.ID))
	order, err := f.orders.LatestForTrade(ctx, f.trade.ID)
	require.NoError(t, err)

	result, err := f.invoices.RequestInvoice(ctx, f.broker.ID, invoices.InvoiceRequest{
		OrderID:  order.ID,
		BillFrom: "Green Farms",
		ShipFrom: f.supplier.ID,
		BillTo:   "Agro Brokers",
		ShipTo:   "Warehouse 3",
		Items:    []invoices.Item{{Crop: "Wheat", Price: dec("2000"), Quantity: dec("10")}},
	})
	require.NoError(t, err)
	assert.Contains(t, f.notifier.last(supplierPhone), "invoice "+result.Invoice.ID+" <your_invoice_number>")

	require.NoError(t, f.engine.SubmitInvoiceNumber(ctx, supplierChat, "missing", "INV-1"))
	assert.Equal(t, notify.MsgInvoiceNotFound, f.notifier.last(supplierPhone))

	require.NoError(t, f.engine.SubmitInvoiceNumber(ctx, supplierChat, result.Invoice.ID, "INV-1"))
	assert.Equal(t, notify.MsgInvoiceNumberSaved, f.notifier.last(supplierPhone))
	assert.Contains(t, f.notifier.last(brokerPhone), "Supplier Invoice Number: INV-1")

	require.NoError(t, f.engine.SubmitInvoiceNumber(ctx, supplierChat, result.Invoice.ID, "INV-2"))
	assert.Equal(t, notify.MsgInvoiceNumberExists, f.notifier.last(supplierPhone))

	require.NoError(t, f.engine.SubmitInvoiceNumber(ctx, brokerChat, result.Invoice.ID, "INV-3"))
	assert.Equal(t, notify.MsgNotSupplier, f.notifier.last(brokerPhone))
}
