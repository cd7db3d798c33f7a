package infra

import (
	"fmt"

	"gorm.io/gorm"
	"masareefy/internal/models/db_models"
)

// liveSubscriptionIndex backs the one-live-subscription-per-tenant rule at the storage level.
const liveSubscriptionIndex = `CREATE UNIQUE INDEX IF NOT EXISTS ux_subscriptions_live_tenant
ON subscriptions (tenant_id)
WHERE status IN ('trialing', 'active', 'past_due') AND deleted_at IS NULL`

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(db_models.AllModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec(liveSubscriptionIndex).Error; err != nil {
		return fmt.Errorf("create live subscription index: %w", err)
	}
	return nil
}
