package trades

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"agri-broker/broker-portal/broker-portal-backend/internal/activity"
)

// Sweeper periodically expires trades whose validity has ended
type Sweeper struct {
	cron     *cron.Cron
	repo     Repository
	recorder Recorder
	logger   *zap.Logger
	now      func() time.Time
	mu       sync.Mutex
	running  bool
}

// NewSweeper creates a sweeper. Schedules use the six-field cron format with seconds.
func NewSweeper(repo Repository, recorder Recorder, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		cron:     cron.New(cron.WithSeconds()),
		repo:     repo,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// Start schedules the sweep and starts the cron runner
func (s *Sweeper) Start(ctx context.Context, schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("expiry sweeper already running")
	}

	_, err := s.cron.AddFunc(schedule, func() {
		expired, err := s.Sweep(ctx)
		if err != nil {
			s.logger.Error("Trade expiry sweep failed", zap.Error(err))
			return
		}
		if expired > 0 {
			s.logger.Info("Expired trades", zap.Int("count", expired))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid expiry schedule %q: %w", schedule, err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("Started trade expiry sweeper", zap.String("schedule", schedule))
	return nil
}

// Stop halts the runner and waits for a running sweep to finish
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info("Stopped trade expiry sweeper")
}

// Sweep expires every active or negotiating trade past valid_till and logs
// each one to its broker. It returns how many trades were expired.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	now := s.now()
	lapsed, err := s.repo.ListLapsed(ctx, now, StatusActive, StatusNegotiating)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range lapsed {
		trade := &lapsed[i]
		if err := Advance(ctx, s.repo, trade, StatusExpired); err != nil {
			s.logger.Warn("Skipping trade expiry", zap.String("trade_id", trade.ID), zap.Error(err))
			continue
		}
		expired++

		err := s.recorder.Record(ctx, &activity.Log{
			BrokerID:   trade.BrokerID,
			Type:       activity.TypeTradeExpired,
			Message:    fmt.Sprintf("%s trade expired", trade.Crop),
			EntityType: activity.EntityTrade,
			EntityID:   trade.ID,
			ActorType:  activity.ActorSystem,
			Details:    datatypes.JSONMap{"valid_till": trade.ValidTill.Format(time.RFC3339)},
		})
		if err != nil {
			s.logger.Error("Failed to log trade expiry", zap.String("trade_id", trade.ID), zap.Error(err))
		}
	}
	return expired, nil
}
