package scheduler

import (
	"context"
	"strings"
	"sync"
	"time"

	"invoicely-service/internal/domain/user"
	"invoicely-service/internal/pkg/metrics"
	"invoicely-service/internal/pkg/session"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const defaultPlanExpirySchedule = "0 0 * * * *" // hourly

// PlanNotifier is told about every plan the sweeper downgrades.
type PlanNotifier interface {
	NotifyPlanChanged(userID string, plan user.Plan, expiresAt *time.Time)
	StatsInvalidated(reason, userID string)
}

// SessionUpdater rewrites cached session fields of a user.
type SessionUpdater interface {
	UpdateSessions(ctx context.Context, userID string, mutate func(*session.SessionData)) error
}

// PlanExpiryScheduler moves users whose paid plan lapsed back to free.
type PlanExpiryScheduler struct {
	users    user.Repository
	sessions SessionUpdater
	notifier PlanNotifier
	schedule string
	logger   *zap.Logger
	now      func() time.Time
	cron     *cron.Cron
	mu       sync.Mutex
	running  bool
}

func NewPlanExpiryScheduler(
	users user.Repository,
	sessions SessionUpdater,
	notifier PlanNotifier,
	schedule string,
	logger *zap.Logger,
) *PlanExpiryScheduler {
	return &PlanExpiryScheduler{
		users:    users,
		sessions: sessions,
		notifier: notifier,
		schedule: schedule,
		logger:   logger,
		now:      time.Now,
	}
}

// Start registers the sweep and starts the cron runner.
func (s *PlanExpiryScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	schedule := s.schedule
	if schedule == "" {
		schedule = defaultPlanExpirySchedule
	}
	// robfig/cron with WithSeconds expects six fields
	if len(strings.Fields(schedule)) == 5 {
		schedule = "0 " + schedule
	}

	s.cron = cron.New(cron.WithSeconds())
	if _, err := s.cron.AddFunc(schedule, func() { s.RunNow(context.Background()) }); err != nil {
		s.logger.Error("failed to schedule plan expiry job", zap.String("schedule", schedule), zap.Error(err))
		return err
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("plan expiry scheduler started", zap.String("schedule", schedule))
	return nil
}

// Stop waits for a running sweep to finish.
func (s *PlanExpiryScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.cron == nil {
		return
	}

	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info("plan expiry scheduler stopped")
}

func (s *PlanExpiryScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunNow performs one sweep and returns the downgraded user ids.
func (s *PlanExpiryScheduler) RunNow(ctx context.Context) []string {
	start := s.now()

	ids, err := s.users.DowngradeExpired(ctx, start)
	if err != nil {
		s.logger.Error("plan expiry sweep failed", zap.Error(err))
		return nil
	}

	for _, id := range ids {
		metrics.PlanChanges.WithLabelValues(string(user.PlanFree), "expiry").Inc()

		if err := s.sessions.UpdateSessions(ctx, id, func(sd *session.SessionData) {
			sd.Plan = string(user.PlanFree)
		}); err != nil {
			s.logger.Warn("failed to refresh sessions after downgrade", zap.String("user_id", id), zap.Error(err))
		}

		s.notifier.NotifyPlanChanged(id, user.PlanFree, nil)
	}

	if len(ids) > 0 {
		s.notifier.StatsInvalidated("plan_expired", "")
	}

	s.logger.Info("plan expiry sweep finished",
		zap.Int("downgraded", len(ids)),
		zap.Duration("took", s.now().Sub(start)),
	)
	return ids
}
