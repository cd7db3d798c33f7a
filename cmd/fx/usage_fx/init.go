package usage_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"masareefy/internal/config"
	"masareefy/internal/infra"
	"masareefy/internal/repositories"
	"masareefy/internal/services"
	"masareefy/pkg/utils"
)

var Module = fx.Provide(
	repositories.NewUsageRepository,
	provideUsageService,
)

func provideUsageService(
	usage repositories.UsageRepository,
	subs repositories.SubscriptionRepository,
	plans services.PlanServiceInterface,
	cfg *config.Config,
	metrics *infra.Metrics,
	clock utils.Clock,
	logger *zap.Logger,
) services.UsageServiceInterface {
	return services.NewUsageService(usage, subs, plans, cfg.DefaultResourceLimit, metrics, clock, logger)
}
