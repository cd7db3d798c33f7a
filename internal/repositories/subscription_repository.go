package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"masareefy/internal/infra"
	dbm "masareefy/internal/models/db_models"
)

type SubscriptionRepository interface {
	Create(ctx context.Context, sub *dbm.Subscription) error
	Save(ctx context.Context, sub *dbm.Subscription) error
	FindByID(ctx context.Context, id uuid.UUID) (*dbm.Subscription, error)
	// FindByIDForUpdate locks the row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*dbm.Subscription, error)
	FindLiveByTenant(ctx context.Context, tenantID uuid.UUID) (*dbm.Subscription, error)
	FindLiveByTenantForUpdate(ctx context.Context, tenantID uuid.UUID) (*dbm.Subscription, error)
	ListIDsByStatus(ctx context.Context, statuses []dbm.SubscriptionStatus) ([]uuid.UUID, error)
	ListIDsEndedBy(ctx context.Context, statuses []dbm.SubscriptionStatus, by int64) ([]uuid.UUID, error)
	ListLiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *dbm.Subscription) error {
	return infra.Conn(ctx, r.db).Create(sub).Error
}

func (r *subscriptionRepository) Save(ctx context.Context, sub *dbm.Subscription) error {
	return infra.Conn(ctx, r.db).Save(sub).Error
}

func (r *subscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*dbm.Subscription, error) {
	return r.first(infra.Conn(ctx, r.db).Where("id = ?", id))
}

func (r *subscriptionRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*dbm.Subscription, error) {
	return r.first(infra.Conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id))
}

func (r *subscriptionRepository) FindLiveByTenant(ctx context.Context, tenantID uuid.UUID) (*dbm.Subscription, error) {
	return r.first(infra.Conn(ctx, r.db).
		Where("tenant_id = ? AND status IN ?", tenantID, dbm.LiveStatuses).
		Order("created_at DESC"))
}

func (r *subscriptionRepository) FindLiveByTenantForUpdate(ctx context.Context, tenantID uuid.UUID) (*dbm.Subscription, error) {
	return r.first(infra.Conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND status IN ?", tenantID, dbm.LiveStatuses).
		Order("created_at DESC"))
}

func (r *subscriptionRepository) first(q *gorm.DB) (*dbm.Subscription, error) {
	var sub dbm.Subscription
	if err := q.First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) ListIDsByStatus(ctx context.Context, statuses []dbm.SubscriptionStatus) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := infra.Conn(ctx, r.db).Model(&dbm.Subscription{}).
		Where("status IN ?", statuses).
		Order("current_period_end ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *subscriptionRepository) ListIDsEndedBy(ctx context.Context, statuses []dbm.SubscriptionStatus, by int64) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := infra.Conn(ctx, r.db).Model(&dbm.Subscription{}).
		Where("status IN ? AND current_period_end <= ?", statuses, by).
		Order("current_period_end ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *subscriptionRepository) ListLiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := infra.Conn(ctx, r.db).Model(&dbm.Subscription{}).
		Where("status IN ?", dbm.LiveStatuses).
		Distinct().
		Pluck("tenant_id", &ids).Error
	return ids, err
}
