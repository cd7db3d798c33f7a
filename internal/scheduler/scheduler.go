package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"masareefy/internal/services"
	"masareefy/pkg/utils"
)

type Config struct {
	SweepSpec     string // seconds-field cron, e.g. "0 0 2 * * *"
	UsageSyncSpec string
	SweepTimeout  time.Duration
	SyncTimeout   time.Duration
}

// Scheduler runs the expiry sweep and the usage cache refresh in-process.
type Scheduler struct {
	cron   *cron.Cron
	trial  services.TrialServiceInterface
	usage  services.UsageServiceInterface
	cfg    Config
	now    utils.Clock
	logger *zap.Logger
}

func New(cfg Config, trial services.TrialServiceInterface, usage services.UsageServiceInterface, clock utils.Clock, logger *zap.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		trial:  trial,
		usage:  usage,
		cfg:    cfg,
		now:    clock,
		logger: logger,
	}

	if _, err := s.cron.AddFunc(cfg.SweepSpec, s.RunSweep); err != nil {
		return nil, fmt.Errorf("schedule expiry sweep %q: %w", cfg.SweepSpec, err)
	}
	if cfg.UsageSyncSpec != "" {
		if _, err := s.cron.AddFunc(cfg.UsageSyncSpec, s.RunUsageSync); err != nil {
			return nil, fmt.Errorf("schedule usage sync %q: %w", cfg.UsageSyncSpec, err)
		}
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("cron jobs started",
		zap.String("expiry_sweep", s.cfg.SweepSpec),
		zap.String("usage_sync", s.cfg.UsageSyncSpec))
}

// Stop waits for running jobs or until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) RunSweep() {
	// the service applies its own wall-clock budget
	ctx := services.WithActor(context.Background(), services.ActorScheduler)

	report, err := s.trial.RunExpirySweep(ctx, s.now())
	if err != nil {
		if errors.Is(err, utils.ErrConflict) {
			s.logger.Info("expiry sweep skipped; another worker holds the lock")
			return
		}
		s.logger.Error("expiry sweep failed", zap.Error(err))
		return
	}
	for _, e := range report.Errors {
		s.logger.Warn("expiry sweep item error",
			zap.String("subscription_id", e.SubscriptionID.String()),
			zap.String("tenant_id", e.TenantID.String()),
			zap.Error(e.Err))
	}
}

func (s *Scheduler) RunUsageSync() {
	timeout := s.cfg.SyncTimeout
	if timeout <= 0 {
		timeout = s.cfg.SweepTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	synced, failed := s.usage.SyncAll(ctx)
	s.logger.Info("usage sync finished", zap.Int("synced", synced), zap.Int("failed", failed))
}
