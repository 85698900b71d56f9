package orders

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"agri-broker/broker-portal/broker-portal-backend/internal/trades"
	"agri-broker/broker-portal/broker-portal-backend/internal/users"
	"agri-broker/broker-portal/broker-portal-backend/pkg/apperrors"
	"agri-broker/broker-portal/broker-portal-backend/pkg/database"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, phone, body string) bool {
	args := m.Called(ctx, phone, body)
	return args.Bool(0)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	db       *gorm.DB
	repo     Repository
	trades   trades.Repository
	users    users.Repository
	notifier *MockNotifier
	service  *Service
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenMemory(strings.ReplaceAll(t.Name(), "/", "_"))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&users.User{}, &trades.Trade{}, &Order{}))

	f := &fixture{
		db:       db,
		repo:     NewRepository(db),
		trades:   trades.NewRepository(db),
		users:    users.NewRepository(db),
		notifier: new(MockNotifier),
	}
	f.service = NewService(f.repo, f.trades, f.notifier, DefaultRates(2.5, 2.5), zap.NewNop())
	return f
}

func (f *fixture) seed(t *testing.T) (broker, supplier *users.User, trade *trades.Trade) {
	t.Helper()
	ctx := context.Background()
	broker = &users.User{Role: users.RoleBroker, FirmName: "Agro Brokers", Phone: "9000000001"}
	require.NoError(t, f.users.Create(ctx, broker))
	supplier = &users.User{Role: users.RoleSupplier, FirmName: "Green Farms", Phone: "9000000002"}
	require.NoError(t, f.users.Create(ctx, supplier))
	trade = &trades.Trade{
		Crop:      "Wheat",
		Grade:     "A",
		Price:     dec("2000"),
		Quantity:  dec("10"),
		ValidTill: time.Now().Add(time.Hour),
		BrokerID:  broker.ID,
	}
	require.NoError(t, f.trades.Create(ctx, trade))
	return broker, supplier, trade
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name     string
		total    string
		rates    Rates
		supplier string
		buyer    string
	}{
		{"wheat", "20000", DefaultRates(2.5, 2.5), "500", "500"},
		{"zero rates", "18000", Rates{}, "0", "0"},
		{"rounds half away from zero", "100.20", DefaultRates(2.5, 1.25), "2.51", "1.25"},
		{"uneven", "333.33", DefaultRates(2.5, 2.5), "8.33", "8.33"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Compute(dec(tt.total), tt.rates)
			assert.True(t, c.Supplier.Equal(dec(tt.supplier)), c.Supplier.String())
			assert.True(t, c.Buyer.Equal(dec(tt.buyer)), c.Buyer.String())
			assert.True(t, c.Total.Equal(c.Supplier.Add(c.Buyer)))
		})
	}
}

func TestNextPaymentStatus(t *testing.T) {
	tests := []struct {
		current PaymentStatus
		side    PaymentSide
		want    PaymentStatus
	}{
		{PaymentPending, SideSupplier, PaymentSupplierPaid},
		{PaymentPending, SideBuyer, PaymentBuyerPaid},
		{PaymentSupplierPaid, SideBuyer, PaymentAllPaid},
		{PaymentBuyerPaid, SideSupplier, PaymentAllPaid},
		{PaymentSupplierPaid, SideSupplier, PaymentSupplierPaid},
		{PaymentBuyerPaid, SideBuyer, PaymentBuyerPaid},
		{PaymentAllPaid, SideSupplier, PaymentAllPaid},
		{PaymentAllPaid, SideBuyer, PaymentAllPaid},
	}

	for _, tt := range tests {
		got, err := NextPaymentStatus(tt.current, tt.side)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s + %s", tt.current, tt.side)
	}

	_, err := NextPaymentStatus(PaymentPending, "broker")
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestOrderTransitions(t *testing.T) {
	assert.True(t, Transitions.CanTransition(StatusSupplierAccepted, StatusConfirmed))
	assert.True(t, Transitions.CanTransition(StatusNegotiating, StatusNegotiating))
	assert.True(t, Transitions.CanTransition(StatusDelivered, StatusCompleted))
	assert.False(t, Transitions.CanTransition(StatusConfirmed, StatusConfirmed))
	assert.False(t, Transitions.CanTransition(StatusConfirmed, StatusPending))
	assert.False(t, Transitions.CanTransition(StatusBrokerAccepted, StatusNegotiating))
	assert.True(t, Transitions.IsTerminal(StatusCompleted))
}

func TestNewAcceptanceComputesCommissionOnCreate(t *testing.T) {
	f := setup(t)
	_, supplier, trade := f.seed(t)

	order := NewAcceptance(trade, supplier.ID, DefaultRates(2.5, 2.5))
	require.NoError(t, f.repo.Create(context.Background(), order))

	stored, err := f.repo.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSupplierAccepted, stored.Status)
	assert.Equal(t, PaymentPending, stored.PaymentStatus)
	assert.True(t, stored.TotalAmount.Equal(dec("20000")))
	assert.True(t, stored.SupplierCommissionAmount.Equal(dec("500")))
	assert.True(t, stored.BuyerCommissionAmount.Equal(dec("500")))
	assert.True(t, stored.TotalCommission.Equal(dec("1000")))
	assert.False(t, stored.CounterOffer.Valid)
	require.NotNil(t, stored.Trade)
	assert.Equal(t, "Wheat", stored.Trade.Crop)
}

func TestConfirmNotifiesSupplier(t *testing.T) {
	f := setup(t)
	broker, supplier, trade := f.seed(t)
	ctx := context.Background()

	order := NewAcceptance(trade, supplier.ID, f.service.Rates())
	require.NoError(t, f.repo.Create(ctx, order))

	f.notifier.On("Notify", mock.Anything, "9000000002", mock.MatchedBy(func(body string) bool {
		return strings.Contains(body, order.ID) && strings.Contains(body, "confirmed")
	})).Return(true).Once()

	_, err := f.service.Confirm(ctx, "someone-else", order.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindForbidden))

	confirmed, err := f.service.Confirm(ctx, broker.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, confirmed.Status)

	_, err = f.service.Confirm(ctx, broker.ID, order.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, err = f.service.Confirm(ctx, broker.ID, "missing")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	f.notifier.AssertExpectations(t)
}

func TestRecordPaymentAndSummary(t *testing.T) {
	f := setup(t)
	broker, supplier, trade := f.seed(t)
	ctx := context.Background()

	first := NewAcceptance(trade, supplier.ID, f.service.Rates())
	first.Status = StatusConfirmed
	require.NoError(t, f.repo.Create(ctx, first))
	second := NewAcceptance(trade, supplier.ID, f.service.Rates())
	second.Status = StatusDelivered
	require.NoError(t, f.repo.Create(ctx, second))
	open := NewAcceptance(trade, supplier.ID, f.service.Rates())
	require.NoError(t, f.repo.Create(ctx, open))

	paid, err := f.service.RecordPayment(ctx, broker.ID, first.ID, SideSupplier)
	require.NoError(t, err)
	assert.Equal(t, PaymentSupplierPaid, paid.PaymentStatus)

	again, err := f.service.RecordPayment(ctx, broker.ID, first.ID, SideSupplier)
	require.NoError(t, err)
	assert.Equal(t, PaymentSupplierPaid, again.PaymentStatus)

	paid, err = f.service.RecordPayment(ctx, broker.ID, first.ID, SideBuyer)
	require.NoError(t, err)
	assert.Equal(t, PaymentAllPaid, paid.PaymentStatus)

	_, err = f.service.RecordPayment(ctx, broker.ID, first.ID, "nobody")
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	summary, err := f.service.CommissionSummary(ctx, broker.ID)
	require.NoError(t, err)
	require.Len(t, summary, 2)
	byStatus := map[PaymentStatus]CommissionSummary{}
	for _, s := range summary {
		byStatus[s.PaymentStatus] = s
	}
	assert.True(t, byStatus[PaymentAllPaid].TotalCommission.Equal(dec("1000")))
	assert.Equal(t, int64(1), byStatus[PaymentPending].OrderCount)
	assert.True(t, byStatus[PaymentPending].TotalSupplierCommission.Equal(dec("500")))

	details, err := f.service.CommissionDetails(ctx, broker.ID)
	require.NoError(t, err)
	require.Len(t, details, 2)
	for _, d := range details {
		require.NotNil(t, d.Supplier)
		assert.Equal(t, "Green Farms", d.Supplier.FirmName)
		require.NotNil(t, d.Trade)
		assert.Equal(t, "Wheat", d.Trade.Crop)
	}

	data, err := ExportCommissions(details, summary)
	require.NoError(t, err)
	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows(detailSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Order ID", rows[0][0])
	assert.Equal(t, "Wheat", rows[1][1])
}

func TestSupplierCreateAndNegotiate(t *testing.T) {
	f := setup(t)
	_, supplier, trade := f.seed(t)
	ctx := context.Background()

	order, err := f.service.Create(ctx, supplier.ID, CreateRequest{TradeID: trade.ID})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, order.Status)
	assert.True(t, order.Quantity.Equal(dec("10")))
	assert.True(t, order.TotalCommission.Equal(dec("1000")))

	_, err = f.service.Create(ctx, supplier.ID, CreateRequest{TradeID: "missing"})
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	f.notifier.On("Notify", mock.Anything, "9000000001", mock.MatchedBy(func(body string) bool {
		return strings.Contains(body, "1900.00")
	})).Return(true).Once()

	_, err = f.service.Negotiate(ctx, "intruder", order.ID, NegotiateRequest{CounterOffer: dec("1900")})
	assert.True(t, apperrors.Is(err, apperrors.KindForbidden))

	_, err = f.service.Negotiate(ctx, supplier.ID, order.ID, NegotiateRequest{})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	negotiated, err := f.service.Negotiate(ctx, supplier.ID, order.ID, NegotiateRequest{CounterOffer: dec("1900")})
	require.NoError(t, err)
	assert.Equal(t, StatusNegotiating, negotiated.Status)
	require.True(t, negotiated.CounterOffer.Valid)
	assert.True(t, negotiated.EffectivePrice().Equal(dec("1900")))
	// commissions are fixed at creation
	assert.True(t, negotiated.TotalCommission.Equal(dec("1000")))

	latest, err := f.service.LatestForTrade(ctx, trade.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, order.ID, latest.ID)

	f.notifier.AssertExpectations(t)
}

func TestSubPaiseAmountsRejected(t *testing.T) {
	f := setup(t)
	_, supplier, trade := f.seed(t)
	ctx := context.Background()

	_, err := f.service.Create(ctx, supplier.ID, CreateRequest{TradeID: trade.ID, Quantity: dec("0.001")})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	order, err := f.service.Create(ctx, supplier.ID, CreateRequest{TradeID: trade.ID})
	require.NoError(t, err)

	_, err = f.service.Negotiate(ctx, supplier.ID, order.ID, NegotiateRequest{CounterOffer: dec("0.004")})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	stored, err := f.repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
	assert.False(t, stored.CounterOffer.Valid)
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything)
}
