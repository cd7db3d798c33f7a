package services

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"masareefy/internal/infra"
	dbm "masareefy/internal/models/db_models"
	"masareefy/internal/models/response_models"
	"masareefy/internal/repositories"
	"masareefy/pkg/middleware"
	"masareefy/pkg/utils"
)

type UsageServiceInterface interface {
	// CheckResourceLimit reads live counts only and never writes.
	CheckResourceLimit(ctx context.Context, tenantID uuid.UUID, resourceType string) (*response_models.LimitCheck, error)
	GetUsage(ctx context.Context, tenantID uuid.UUID) (map[dbm.ResourceType]response_models.ResourceUsage, error)
	// SyncUsage refreshes the cached UsageRecord. Failures are logged, never returned.
	SyncUsage(ctx context.Context, tenantID uuid.UUID, resourceType dbm.ResourceType)
	SyncAll(ctx context.Context) (synced int, failed int)
	RequireCapacity(resourceType dbm.ResourceType) gin.HandlerFunc
}

type usageService struct {
	usage        repositories.UsageRepository
	subs         repositories.SubscriptionRepository
	plans        PlanServiceInterface
	defaultLimit int64
	metrics      *infra.Metrics
	now          utils.Clock
	logger       *zap.Logger
}

func NewUsageService(
	usage repositories.UsageRepository,
	subs repositories.SubscriptionRepository,
	plans PlanServiceInterface,
	defaultLimit int64,
	metrics *infra.Metrics,
	clock utils.Clock,
	logger *zap.Logger,
) UsageServiceInterface {
	return &usageService{
		usage:        usage,
		subs:         subs,
		plans:        plans,
		defaultLimit: defaultLimit,
		metrics:      metrics,
		now:          clock,
		logger:       logger,
	}
}

// planFor resolves the tenant's effective plan. A tenant without a live subscription is
// gated by the Free plan, matching what GET /subscriptions/current would provision.
func (u *usageService) planFor(ctx context.Context, tenantID uuid.UUID) (*dbm.Plan, error) {
	sub, err := u.subs.FindLiveByTenant(ctx, tenantID)
	if err != nil {
		return nil, utils.DatabaseError(err)
	}
	if sub == nil {
		return u.plans.FreePlan(ctx)
	}
	return u.plans.PlanByID(ctx, sub.PlanID)
}

func (u *usageService) CheckResourceLimit(ctx context.Context, tenantID uuid.UUID, resourceType string) (*response_models.LimitCheck, error) {
	rt, ok := dbm.ParseResourceType(resourceType)
	if !ok {
		return nil, utils.Validation(utils.CodeInvalidResourceType, "Unknown resource type: "+resourceType)
	}

	plan, err := u.planFor(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	current, err := u.usage.CountLive(ctx, tenantID, rt)
	if err != nil {
		return nil, utils.DatabaseError(err)
	}

	return evaluateLimit(rt, plan.LimitFor(rt, u.defaultLimit), current), nil
}

func evaluateLimit(rt dbm.ResourceType, limit dbm.Limit, current int64) *response_models.LimitCheck {
	check := &response_models.LimitCheck{
		ResourceType: rt,
		Current:      current,
		Limit:        limit,
		IsUnlimited:  limit.IsUnlimited(),
	}

	ceiling, bounded := limit.Max()
	if !bounded {
		check.CanAdd = true
		return check
	}

	remaining := ceiling - current
	if remaining < 0 {
		remaining = 0
	}
	check.Remaining = &remaining
	check.CanAdd = current < ceiling
	return check
}

func (u *usageService) GetUsage(ctx context.Context, tenantID uuid.UUID) (map[dbm.ResourceType]response_models.ResourceUsage, error) {
	plan, err := u.planFor(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	result := make(map[dbm.ResourceType]response_models.ResourceUsage, len(dbm.AllResourceTypes))
	for _, rt := range dbm.AllResourceTypes {
		current, err := u.usage.CountLive(ctx, tenantID, rt)
		if err != nil {
			return nil, utils.DatabaseError(err)
		}
		limit := plan.LimitFor(rt, u.defaultLimit)
		result[rt] = response_models.ResourceUsage{
			Current:     current,
			Limit:       limit,
			IsUnlimited: limit.IsUnlimited(),
		}
	}
	return result, nil
}

func (u *usageService) SyncUsage(ctx context.Context, tenantID uuid.UUID, resourceType dbm.ResourceType) {
	if err := u.syncOne(ctx, tenantID, resourceType); err != nil {
		u.metrics.UsageSyncFailures.Inc()
		u.logger.Warn("usage sync failed; cached record left stale",
			zap.String("tenant_id", tenantID.String()),
			zap.String("resource_type", string(resourceType)),
			zap.Error(err))
	}
}

func (u *usageService) syncOne(ctx context.Context, tenantID uuid.UUID, rt dbm.ResourceType) error {
	plan, err := u.planFor(ctx, tenantID)
	if err != nil {
		return err
	}
	current, err := u.usage.CountLive(ctx, tenantID, rt)
	if err != nil {
		return err
	}

	limit := plan.LimitFor(rt, u.defaultLimit)
	ceiling, _ := limit.Max()
	return u.usage.UpsertRecord(ctx, &dbm.UsageRecord{
		TenantID:     tenantID,
		ResourceType: rt,
		CurrentCount: current,
		LimitMax:     ceiling,
		IsUnlimited:  limit.IsUnlimited(),
		SyncedAt:     u.now().Unix(),
	})
}

// SyncAll refreshes every resource type for every tenant with a live subscription.
// It stops early when ctx is done.
func (u *usageService) SyncAll(ctx context.Context) (int, int) {
	tenants, err := u.subs.ListLiveTenantIDs(ctx)
	if err != nil {
		u.logger.Error("usage sync: list tenants", zap.Error(err))
		return 0, 0
	}

	synced, failed := 0, 0
	for _, tenantID := range tenants {
		for _, rt := range dbm.AllResourceTypes {
			if ctx.Err() != nil {
				u.logger.Warn("usage sync interrupted", zap.Int("synced", synced), zap.Error(ctx.Err()))
				return synced, failed
			}
			if err := u.syncOne(ctx, tenantID, rt); err != nil {
				failed++
				u.metrics.UsageSyncFailures.Inc()
				u.logger.Warn("usage sync failed",
					zap.String("tenant_id", tenantID.String()),
					zap.String("resource_type", string(rt)),
					zap.Error(err))
				continue
			}
			synced++
		}
	}
	return synced, failed
}

// RequireCapacity guards a create route of another resource service. It expects the
// tenant id to have been set by the JWT middleware.
func (u *usageService) RequireCapacity(resourceType dbm.ResourceType) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, err := uuid.Parse(c.GetString(middleware.ContextTenantID))
		if err != nil {
			utils.RespondErrorCode(c, http.StatusUnauthorized, "unauthorized", "Tenant identity missing")
			c.Abort()
			return
		}

		check, err := u.CheckResourceLimit(c.Request.Context(), tenantID, string(resourceType))
		if err != nil {
			utils.HandleServiceError(c, err)
			c.Abort()
			return
		}

		if !check.CanAdd {
			u.metrics.UsageDenials.WithLabelValues(string(resourceType)).Inc()
			utils.HandleServiceError(c, utils.LimitExceeded(
				"Plan limit reached for "+string(resourceType)+": "+check.Limit.String()))
			c.Abort()
			return
		}

		c.Set("usage_check", check)
		c.Next()
	}
}
