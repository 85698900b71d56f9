package trades

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"agri-broker/broker-portal/broker-portal-backend/internal/activity"
	"agri-broker/broker-portal/broker-portal-backend/internal/session"
	"agri-broker/broker-portal/broker-portal-backend/internal/users"
	"agri-broker/broker-portal/broker-portal-backend/pkg/apperrors"
	"agri-broker/broker-portal/broker-portal-backend/pkg/database"
	"agri-broker/broker-portal/broker-portal-backend/pkg/notify"
)

type recordingAlerter struct {
	phones []string
}

func (a *recordingAlerter) SendTrade(ctx context.Context, phone string, alert notify.TradeAlert) bool {
	a.phones = append(a.phones, phone)
	return true
}

type fixture struct {
	db       *gorm.DB
	repo     Repository
	users    users.Repository
	activity *activity.Service
	alerter  *recordingAlerter
	service  *Service
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenMemory(strings.ReplaceAll(t.Name(), "/", "_"))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&users.User{}, &activity.Log{}, &Trade{}))

	f := &fixture{
		db:       db,
		repo:     NewRepository(db),
		users:    users.NewRepository(db),
		activity: activity.NewService(activity.NewRepository(db), nil, nil, zap.NewNop()),
		alerter:  &recordingAlerter{},
	}
	f.service = NewService(f.repo, f.users, f.activity, f.alerter, zap.NewNop())
	return f
}

func (f *fixture) addUser(t *testing.T, role users.Role, phone string, brokerID *string) *users.User {
	t.Helper()
	u := &users.User{Role: role, FirmName: string(role) + " " + phone, Phone: phone, BrokerID: brokerID}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) addTrade(t *testing.T, brokerID string, validTill time.Time) *Trade {
	t.Helper()
	trade := &Trade{
		Crop:      "Wheat",
		Grade:     "A",
		Price:     decimal.NewFromInt(2000),
		Quantity:  decimal.NewFromInt(10),
		ValidTill: validTill,
		BrokerID:  brokerID,
	}
	require.NoError(t, f.repo.Create(context.Background(), trade))
	return trade
}

func TestCreateAlertsOwnSuppliers(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	broker := f.addUser(t, users.RoleBroker, "9000000001", nil)
	f.addUser(t, users.RoleSupplier, "9000000002", &broker.ID)
	otherBroker := "someone-else"
	f.addUser(t, users.RoleSupplier, "9000000003", &otherBroker)

	trade, err := f.service.Create(ctx, broker.ID, CreateRequest{
		Crop:      "Wheat",
		Grade:     "A",
		Price:     decimal.NewFromInt(2000),
		Quantity:  decimal.NewFromInt(10),
		ValidTill: time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusActive, trade.Status)
	assert.Equal(t, []string{"9000000002"}, f.alerter.phones)

	created, err := f.activity.Exists(ctx, activity.TypeTradeCreated, activity.EntityTrade, trade.ID)
	require.NoError(t, err)
	assert.True(t, created)

	mine, err := f.service.ListByBroker(ctx, broker.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestCreateValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	valid := time.Now().Add(time.Hour)

	tests := []struct {
		name string
		req  CreateRequest
	}{
		{"zero price", CreateRequest{Crop: "Wheat", Grade: "A", Quantity: decimal.NewFromInt(1), ValidTill: valid}},
		{"price rounds to zero", CreateRequest{Crop: "Wheat", Grade: "A", Price: decimal.RequireFromString("0.004"), Quantity: decimal.NewFromInt(1), ValidTill: valid}},
		{"quantity rounds to zero", CreateRequest{Crop: "Wheat", Grade: "A", Price: decimal.NewFromInt(1), Quantity: decimal.RequireFromString("0.001"), ValidTill: valid}},
		{"negative quantity", CreateRequest{Crop: "Wheat", Grade: "A", Price: decimal.NewFromInt(1), Quantity: decimal.NewFromInt(-1), ValidTill: valid}},
		{"no validity", CreateRequest{Crop: "Wheat", Grade: "A", Price: decimal.NewFromInt(1), Quantity: decimal.NewFromInt(1)}},
		{"blank crop", CreateRequest{Crop: " ", Grade: "A", Price: decimal.NewFromInt(1), Quantity: decimal.NewFromInt(1), ValidTill: valid}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Create(ctx, "broker-1", tt.req)
			assert.True(t, apperrors.Is(err, apperrors.KindValidation))
		})
	}
}

func TestBroadcastOnce(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	broker := f.addUser(t, users.RoleBroker, "9000000001", nil)
	f.addUser(t, users.RoleSupplier, "9000000002", nil)
	f.addUser(t, users.RoleSupplier, "9000000003", nil)
	trade := f.addTrade(t, broker.ID, time.Now().Add(time.Hour))

	_, err := f.service.Broadcast(ctx, "intruder", trade.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindForbidden))

	_, err = f.service.Broadcast(ctx, broker.ID, "missing")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	result, err := f.service.Broadcast(ctx, broker.ID, trade.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.SupplierCount)
	assert.Equal(t, "Trade broadcasted successfully", result.Message)
	assert.Len(t, f.alerter.phones, 2)

	_, err = f.service.Broadcast(ctx, broker.ID, trade.ID)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	assert.Equal(t, "Trade already broadcasted", apperrors.Message(err))
	assert.Len(t, f.alerter.phones, 2)

	history, err := f.service.BroadcastHistory(ctx, broker.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].Trade)
	assert.Equal(t, "Wheat", history[0].Trade.Crop)
	assert.True(t, history[0].Trade.Price.Equal(decimal.NewFromInt(2000)))
}

func TestBroadcastRejections(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	broker := f.addUser(t, users.RoleBroker, "9000000001", nil)
	lapsed := f.addTrade(t, broker.ID, time.Now().Add(-time.Hour))
	open := f.addTrade(t, broker.ID, time.Now().Add(time.Hour))

	_, err := f.service.Broadcast(ctx, broker.ID, "")
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, err = f.service.Broadcast(ctx, broker.ID, lapsed.ID)
	assert.Equal(t, "Trade validity has expired", apperrors.Message(err))

	_, err = f.service.Broadcast(ctx, broker.ID, open.ID)
	assert.Equal(t, "No active suppliers found", apperrors.Message(err))
	assert.Empty(t, f.alerter.phones)
}

func TestAdvanceFollowsTable(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	trade := f.addTrade(t, "broker-1", time.Now().Add(time.Hour))

	require.NoError(t, Advance(ctx, f.repo, trade, StatusNegotiating))
	assert.Equal(t, StatusNegotiating, trade.Status)

	err := Advance(ctx, f.repo, trade, StatusActive)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	stale := *trade
	stale.Status = StatusActive
	err = Advance(ctx, f.repo, &stale, StatusConfirmed)
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))

	require.NoError(t, Advance(ctx, f.repo, trade, StatusConfirmed))
	assert.True(t, Transitions.IsTerminal(StatusConfirmed))
	assert.True(t, Transitions.IsTerminal(StatusExpired))

	stored, err := f.repo.GetByID(ctx, trade.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, stored.Status)
}

func TestSweepExpiresLapsedTrades(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	lapsedActive := f.addTrade(t, "broker-1", now.Add(-2*time.Hour))
	lapsedNegotiating := f.addTrade(t, "broker-1", now.Add(-3*time.Hour))
	require.NoError(t, Advance(ctx, f.repo, lapsedNegotiating, StatusNegotiating))
	confirmed := f.addTrade(t, "broker-1", now.Add(-4*time.Hour))
	require.NoError(t, Advance(ctx, f.repo, confirmed, StatusConfirmed))
	open := f.addTrade(t, "broker-1", now.Add(2*time.Hour))

	sweeper := NewSweeper(f.repo, f.activity, zap.NewNop())
	sweeper.now = func() time.Time { return now }

	expired, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, expired)

	for id, want := range map[string]Status{
		lapsedActive.ID:      StatusExpired,
		lapsedNegotiating.ID: StatusExpired,
		confirmed.ID:         StatusConfirmed,
		open.ID:              StatusActive,
	} {
		stored, err := f.repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, stored.Status, id)
	}

	logged, err := f.activity.Exists(ctx, activity.TypeTradeExpired, activity.EntityTrade, lapsedActive.ID)
	require.NoError(t, err)
	assert.True(t, logged)

	expired, err = sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, expired)
}

func TestSweeperRejectsBadSchedule(t *testing.T) {
	f := setup(t)
	sweeper := NewSweeper(f.repo, f.activity, zap.NewNop())
	assert.Error(t, sweeper.Start(context.Background(), "not a schedule"))

	require.NoError(t, sweeper.Start(context.Background(), "0 0 * * * *"))
	assert.Error(t, sweeper.Start(context.Background(), "0 0 * * * *"))
	sweeper.Stop()
}

func TestBroadcastHandlerRequiresTradeID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := setup(t)

	router := gin.New()
	broker := router.Group("/broker", func(c *gin.Context) {
		session.Set(c, "broker-1", string(users.RoleBroker))
	})
	NewHandler(f.service, zap.NewNop()).RegisterBrokerRoutes(broker)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/broker/trade/broadcast", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Trade ID is required")
}
