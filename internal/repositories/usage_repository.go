package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"masareefy/internal/infra"
	dbm "masareefy/internal/models/db_models"
)

// UsageRepository reads live resource counts and maintains the UsageRecord cache.
type UsageRepository interface {
	CountLive(ctx context.Context, tenantID uuid.UUID, rt dbm.ResourceType) (int64, error)
	UpsertRecord(ctx context.Context, rec *dbm.UsageRecord) error
}

type usageRepository struct {
	db *gorm.DB
}

func NewUsageRepository(db *gorm.DB) UsageRepository {
	return &usageRepository{db: db}
}

func (r *usageRepository) CountLive(ctx context.Context, tenantID uuid.UUID, rt dbm.ResourceType) (int64, error) {
	model, ok := dbm.ModelFor(rt)
	if !ok {
		return 0, fmt.Errorf("no table for resource type %q", rt)
	}

	var count int64
	err := infra.Conn(ctx, r.db).Model(model).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error
	return count, err
}

func (r *usageRepository) UpsertRecord(ctx context.Context, rec *dbm.UsageRecord) error {
	return infra.Conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tenant_id"}, {Name: "resource_type"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"current_count", "limit_max", "is_unlimited", "synced_at", "updated_at",
		}),
	}).Create(rec).Error
}
