package scheduler_fx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"masareefy/internal/config"
	"masareefy/internal/scheduler"
	"masareefy/internal/services"
	"masareefy/pkg/utils"
)

var Module = fx.Options(
	fx.Provide(provideScheduler),
	fx.Invoke(startScheduler),
)

func provideScheduler(cfg *config.Config, trial services.TrialServiceInterface, usage services.UsageServiceInterface, clock utils.Clock, logger *zap.Logger) (*scheduler.Scheduler, error) {
	return scheduler.New(scheduler.Config{
		SweepSpec:     cfg.SweepCron,
		UsageSyncSpec: cfg.UsageSyncCron,
		SweepTimeout:  cfg.SweepTimeout,
		SyncTimeout:   cfg.SweepTimeout,
	}, trial, usage, clock, logger)
}

func startScheduler(lc fx.Lifecycle, s *scheduler.Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			s.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return s.Stop(ctx)
		},
	})
}
