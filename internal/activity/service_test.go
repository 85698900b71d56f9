package activity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"agri-broker/broker-portal/broker-portal-backend/internal/users"
	"agri-broker/broker-portal/broker-portal-backend/pkg/apperrors"
	"agri-broker/broker-portal/broker-portal-backend/pkg/database"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, entry *Log) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockPublisher) Close() error { return nil }

type fakePusher struct {
	events map[string][]Event
}

func (p *fakePusher) PushToUser(userID string, event Event) int {
	if p.events == nil {
		p.events = make(map[string][]Event)
	}
	p.events[userID] = append(p.events[userID], event)
	return 1
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory(strings.ReplaceAll(t.Name(), "/", "_"))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&users.User{}, &Log{}))
	return db
}

func newEntry(brokerID string, logType LogType, entityID string) *Log {
	return &Log{
		BrokerID:   brokerID,
		Type:       logType,
		Message:    "event",
		EntityType: EntityTrade,
		EntityID:   entityID,
		ActorType:  ActorSupplier,
	}
}

func TestRecordFansOutAndSwallowsPublishErrors(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	pusher := &fakePusher{}
	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("kafka down"))

	svc := NewService(repo, pusher, publisher, zap.NewNop())
	ctx := context.Background()

	entry := newEntry("broker-1", TypeTradeAccept, "trade-1")
	require.NoError(t, svc.Record(ctx, entry))
	assert.NotEmpty(t, entry.ID)

	require.Len(t, pusher.events["broker-1"], 1)
	assert.Equal(t, entry.ID, pusher.events["broker-1"][0].Entry.ID)
	publisher.AssertExpectations(t)

	exists, err := svc.Exists(ctx, TypeTradeAccept, EntityTrade, "trade-1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = svc.Exists(ctx, TypeTradeBroadcast, EntityTrade, "trade-1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestInboxReadFlow(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(NewRepository(db), nil, nil, zap.NewNop())
	ctx := context.Background()

	supplier := &users.User{Role: users.RoleSupplier, FirmName: "Green Farms", Phone: "9876543210"}
	require.NoError(t, db.Create(supplier).Error)

	mine := newEntry("broker-1", TypeTradeAccept, "trade-1")
	mine.ActorID = supplier.ID
	require.NoError(t, svc.Record(ctx, mine))
	require.NoError(t, svc.Record(ctx, newEntry("broker-1", TypeCounterOffer, "trade-2")))
	other := newEntry("broker-2", TypeTradeAccept, "trade-3")
	require.NoError(t, svc.Record(ctx, other))

	count, err := svc.UnreadCount(ctx, "broker-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	unread, err := svc.Unread(ctx, "broker-1")
	require.NoError(t, err)
	require.Len(t, unread, 2)
	var withActor *Entry
	for i := range unread {
		if unread[i].ID == mine.ID {
			withActor = &unread[i]
		}
	}
	require.NotNil(t, withActor)
	require.NotNil(t, withActor.Actor)
	assert.Equal(t, "Green Farms", withActor.Actor.FirmName)

	// another broker's id is ignored
	updated, err := svc.MarkRead(ctx, "broker-1", []string{mine.ID, other.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)

	count, err = svc.UnreadCount(ctx, "broker-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = svc.UnreadCount(ctx, "broker-2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = svc.MarkRead(ctx, "broker-1", nil)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestHistoryPagination(t *testing.T) {
	svc := NewService(NewRepository(setupTestDB(t)), nil, nil, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.Record(ctx, newEntry("broker-1", TypeTradeCreated, "trade")))
	}

	page, err := svc.History(ctx, "broker-1", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 3, page.Pages)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Len(t, page.Logs, 2)

	page, err = svc.History(ctx, "broker-1", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Len(t, page.Logs, 5)
}

func TestAcceptedTradesAppendsPrice(t *testing.T) {
	svc := NewService(NewRepository(setupTestDB(t)), nil, nil, zap.NewNop())
	ctx := context.Background()

	entry := newEntry("broker-1", TypeTradeAccept, "trade-1")
	entry.Message = "Supplier accepted trade"
	entry.Details = datatypes.JSONMap{"price": "2000.00"}
	require.NoError(t, svc.Record(ctx, entry))
	require.NoError(t, svc.Record(ctx, newEntry("broker-2", TypeTradeAccept, "trade-2")))

	mine, err := svc.AcceptedTrades(ctx, "broker-1", users.RoleBroker)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Supplier accepted trade Price is 2000.00", mine[0].Message)

	all, err := svc.AcceptedTrades(ctx, "financer-1", users.RoleFinancer)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestHubPushesToConnectedUser(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil)
	defer hub.Close()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r, "broker-1")
	}))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ConnectionCount() == 1 }, time.Second, 10*time.Millisecond)

	assert.Equal(t, 0, hub.PushToUser("broker-2", Event{Type: "log"}))
	assert.Equal(t, 1, hub.PushToUser("broker-1", Event{Type: "log", Entry: &Log{ID: "log-1"}}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event Event
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "log", event.Type)
	require.NotNil(t, event.Entry)
	assert.Equal(t, "log-1", event.Entry.ID)
}
