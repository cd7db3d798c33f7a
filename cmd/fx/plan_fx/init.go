package plan_fx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"masareefy/internal/config"
	"masareefy/internal/models/db_models"
	"masareefy/internal/repositories"
	"masareefy/internal/services"
	mem "masareefy/pkg/memcache"
)

var Module = fx.Options(
	fx.Provide(repositories.NewPlanRepository, providePlanService),
	fx.Invoke(seedPlans),
)

func providePlanService(repo repositories.IPlanRepository, cache mem.Store[[]db_models.Plan], cfg *config.Config, logger *zap.Logger) services.PlanServiceInterface {
	return services.NewPlanService(repo, cache, cfg.PlanCacheTTL, logger)
}

// seedPlans runs after the db_fx start hook has migrated the schema.
func seedPlans(lc fx.Lifecycle, planService services.PlanServiceInterface, cfg *config.Config) {
	if !cfg.SeedPlans {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return planService.SeedDefaults(ctx)
		},
	})
}
