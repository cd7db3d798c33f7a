package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"masareefy/internal/models/db_models"
	"masareefy/internal/models/response_models"
	"masareefy/internal/repositories"
	mem "masareefy/pkg/memcache"
	"masareefy/pkg/utils"
)

const catalogCacheKey = "plans:all"

type PlanServiceInterface interface {
	GetPlans(ctx context.Context) ([]response_models.SubscriptionPlan, error)
	GetPlanInfoById(ctx context.Context, planId uuid.UUID) (response_models.SubscriptionPlan, error)

	// PlanByID returns a NotFound error for unknown ids.
	PlanByID(ctx context.Context, planId uuid.UUID) (*db_models.Plan, error)
	FreePlan(ctx context.Context) (*db_models.Plan, error)
	SeedDefaults(ctx context.Context) error
	Invalidate()
}

func NewPlanService(planRepo repositories.IPlanRepository, cache mem.Store[[]db_models.Plan], ttl time.Duration, logger *zap.Logger) PlanServiceInterface {
	return &PlanService{
		planRepo: planRepo,
		cache:    cache,
		ttl:      ttl,
		logger:   logger,
	}
}

type PlanService struct {
	planRepo repositories.IPlanRepository
	cache    mem.Store[[]db_models.Plan]
	ttl      time.Duration
	logger   *zap.Logger
}

// catalog returns every plan, active or not. Subscriptions may still reference retired plans.
func (p *PlanService) catalog(ctx context.Context) ([]db_models.Plan, error) {
	if plans, ok := p.cache.Get(catalogCacheKey); ok {
		return plans, nil
	}

	plans, err := p.planRepo.GetAllPlans(ctx, false)
	if err != nil {
		return nil, utils.DatabaseError(err)
	}
	p.cache.Set(catalogCacheKey, plans, p.ttl)
	return plans, nil
}

func (p *PlanService) GetPlans(ctx context.Context) ([]response_models.SubscriptionPlan, error) {
	plans, err := p.catalog(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]response_models.SubscriptionPlan, 0, len(plans))
	for i := range plans {
		if !plans[i].IsActive {
			continue
		}
		result = append(result, response_models.FromPlan(&plans[i]))
	}
	return result, nil
}

func (p *PlanService) GetPlanInfoById(ctx context.Context, planId uuid.UUID) (response_models.SubscriptionPlan, error) {

	plan, err := p.PlanByID(ctx, planId)
	if err != nil {
		return response_models.SubscriptionPlan{}, err
	}

	return response_models.FromPlan(plan), nil
}

func (p *PlanService) PlanByID(ctx context.Context, planId uuid.UUID) (*db_models.Plan, error) {
	plans, err := p.catalog(ctx)
	if err != nil {
		return nil, err
	}
	for i := range plans {
		if plans[i].ID == planId {
			plan := plans[i]
			return &plan, nil
		}
	}

	// Cache may predate an admin insert.
	plan, err := p.planRepo.GetPlanInfoById(ctx, planId)
	if err != nil {
		return nil, utils.DatabaseError(err)
	}
	if plan == nil {
		return nil, utils.NotFound(utils.CodePlanNotFound, "Plan not found")
	}
	p.cache.Delete(catalogCacheKey)
	return plan, nil
}

func (p *PlanService) FreePlan(ctx context.Context) (*db_models.Plan, error) {
	plans, err := p.catalog(ctx)
	if err != nil {
		return nil, err
	}
	for i := range plans {
		if plans[i].IsFree() {
			plan := plans[i]
			return &plan, nil
		}
	}
	return nil, utils.NotFound(utils.CodeFreePlanMissing, "Free plan is not configured")
}

// SeedDefaults inserts whichever of the Free, Growth and Scale plans are missing and drops
// the cached catalog. Plans already stored keep their edited prices and limits.
func (p *PlanService) SeedDefaults(ctx context.Context) error {
	for _, plan := range DefaultPlans() {
		plan := plan
		created, err := p.planRepo.CreateIfAbsent(ctx, &plan)
		if err != nil {
			return utils.DatabaseError(err)
		}
		if created {
			p.logger.Info("plan seeded", zap.String("code", plan.Code), zap.String("plan_id", plan.ID.String()))
		}
	}
	p.Invalidate()
	return nil
}

func (p *PlanService) Invalidate() {
	p.cache.Delete(catalogCacheKey)
}

func strPtr(s string) *string { return &s }

// DefaultPlans is the seeded catalog. Prices are in EGP minor units.
func DefaultPlans() []db_models.Plan {
	return []db_models.Plan{
		{
			Code:              db_models.PlanCodeFree,
			Name:              "Free",
			Description:       strPtr("Bookkeeping basics for a single brand"),
			MonthlyPriceMinor: 0,
			YearlyPriceMinor:  0,
			Currency:          "EGP",
			TrialDays:         0,
			IsActive:          true,
			Limits: datatypes.NewJSONType(db_models.PlanLimits{
				db_models.ResourceInventory:    db_models.Bounded(20),
				db_models.ResourceTeamMembers:  db_models.Bounded(1),
				db_models.ResourceWallets:      db_models.Bounded(2),
				db_models.ResourceTransactions: db_models.Bounded(100),
			}),
		},
		{
			Code:              db_models.PlanCodeGrowth,
			Name:              "Growth",
			Description:       strPtr("For growing brands with a small team"),
			MonthlyPriceMinor: 29900,
			YearlyPriceMinor:  299000,
			Currency:          "EGP",
			TrialDays:         14,
			IsActive:          true,
			Limits: datatypes.NewJSONType(db_models.PlanLimits{
				db_models.ResourceInventory:    db_models.Bounded(500),
				db_models.ResourceTeamMembers:  db_models.Bounded(5),
				db_models.ResourceWallets:      db_models.Bounded(10),
				db_models.ResourceTransactions: db_models.Unlimited(),
			}),
		},
		{
			Code:              db_models.PlanCodeScale,
			Name:              "Scale",
			Description:       strPtr("Unlimited bookkeeping for multi-brand operations"),
			MonthlyPriceMinor: 79900,
			YearlyPriceMinor:  799000,
			Currency:          "EGP",
			TrialDays:         14,
			IsActive:          true,
			Limits: datatypes.NewJSONType(db_models.PlanLimits{
				db_models.ResourceInventory:    db_models.Unlimited(),
				db_models.ResourceTeamMembers:  db_models.Bounded(25),
				db_models.ResourceWallets:      db_models.Unlimited(),
				db_models.ResourceTransactions: db_models.Unlimited(),
			}),
		},
	}
}
