package activity

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"agri-broker/broker-portal/broker-portal-backend/internal/users"
	"agri-broker/broker-portal/broker-portal-backend/pkg/apperrors"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Pusher delivers live events to connected users
type Pusher interface {
	PushToUser(userID string, event Event) int
}

// Service records business events and serves the broker inbox
type Service struct {
	repo      Repository
	pusher    Pusher
	publisher Publisher
	logger    *zap.Logger
}

// NewService wires the log store with its fan-out targets; pusher and publisher may be nil
func NewService(repo Repository, pusher Pusher, publisher Publisher, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &Service{repo: repo, pusher: pusher, publisher: publisher, logger: logger}
}

// Record stores entry, then pushes it to the broker's live sessions and the
// event stream. Only the store write can fail the call.
func (s *Service) Record(ctx context.Context, entry *Log) error {
	if err := s.repo.Create(ctx, entry); err != nil {
		return err
	}

	if s.pusher != nil {
		s.pusher.PushToUser(entry.BrokerID, Event{Type: "log", Entry: entry, Timestamp: time.Now()})
	}
	if err := s.publisher.Publish(ctx, entry); err != nil {
		s.logger.Warn("Failed to publish activity",
			zap.String("log_id", entry.ID),
			zap.String("type", string(entry.Type)),
			zap.Error(err),
		)
	}
	return nil
}

// Get returns a log entry or a not-found error
func (s *Service) Get(ctx context.Context, id string) (*Log, error) {
	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, apperrors.NotFound("Log not found")
	}
	return entry, nil
}

// Exists reports whether an entry of logType exists for the entity
func (s *Service) Exists(ctx context.Context, logType LogType, entityType EntityType, entityID string) (bool, error) {
	return s.repo.Exists(ctx, logType, entityType, entityID)
}

// ListByType lists a broker's entries of one type, newest first
func (s *Service) ListByType(ctx context.Context, brokerID string, logType LogType) ([]Log, error) {
	return s.repo.ListByType(ctx, brokerID, logType)
}

func (s *Service) Unread(ctx context.Context, brokerID string) ([]Entry, error) {
	logs, err := s.repo.ListUnread(ctx, brokerID)
	if err != nil {
		return nil, err
	}
	return entriesOf(logs), nil
}

func (s *Service) UnreadCount(ctx context.Context, brokerID string) (int64, error) {
	return s.repo.CountUnread(ctx, brokerID)
}

func (s *Service) MarkRead(ctx context.Context, brokerID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, apperrors.Validation("notification_ids is required")
	}
	return s.repo.MarkRead(ctx, brokerID, ids)
}

// History pages through every entry of the broker
func (s *Service) History(ctx context.Context, brokerID string, page, limit int) (*HistoryPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	logs, total, err := s.repo.History(ctx, brokerID, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	return &HistoryPage{
		Logs:        entriesOf(logs),
		Total:       total,
		Pages:       int(math.Ceil(float64(total) / float64(limit))),
		CurrentPage: page,
	}, nil
}

// AcceptedTrades lists trade acceptances. Brokers see their own; financers
// see every broker's so they can pick trades to finance.
func (s *Service) AcceptedTrades(ctx context.Context, userID string, role users.Role) ([]Entry, error) {
	brokerID := userID
	if role == users.RoleFinancer {
		brokerID = ""
	}
	logs, err := s.repo.ListByType(ctx, brokerID, TypeTradeAccept)
	if err != nil {
		return nil, err
	}
	for i := range logs {
		if price, ok := logs[i].Details["price"]; ok {
			logs[i].Message = fmt.Sprintf("%s Price is %v", logs[i].Message, price)
		}
	}
	return entriesOf(logs), nil
}
