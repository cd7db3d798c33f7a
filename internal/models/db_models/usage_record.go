package db_models

import (
	"github.com/google/uuid"
)

// UsageRecord caches a tenant's resource count. It is recomputed from the resource
// tables and may lag behind them; limit decisions never read it.
type UsageRecord struct {
	BaseModel
	TenantID     uuid.UUID    `gorm:"type:uuid;uniqueIndex:ux_usage_tenant_resource"`
	ResourceType ResourceType `gorm:"size:32;uniqueIndex:ux_usage_tenant_resource"`
	CurrentCount int64
	LimitMax     int64
	IsUnlimited  bool
	SyncedAt     int64
}

func (u *UsageRecord) Limit() Limit {
	if u.IsUnlimited {
		return Unlimited()
	}
	return Bounded(u.LimitMax)
}
