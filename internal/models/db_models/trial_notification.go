package db_models

import (
	"github.com/google/uuid"
)

type NotificationKind string

const (
	NotifyTrial7Days   NotificationKind = "trial_7_days"
	NotifyTrial3Days   NotificationKind = "trial_3_days"
	NotifyTrial1Day    NotificationKind = "trial_1_day"
	NotifyTrialExpired NotificationKind = "trial_expired"
)

// One notification per (subscription, kind).
type TrialNotification struct {
	BaseModel
	SubscriptionID uuid.UUID        `gorm:"type:uuid;uniqueIndex:ux_trial_notification_kind"`
	TenantID       uuid.UUID        `gorm:"type:uuid;index"`
	Kind           NotificationKind `gorm:"size:32;uniqueIndex:ux_trial_notification_kind"`
	DaysRemaining  int
	Message        string
	IsRead         bool `gorm:"index"`
	ReadAt         *int64
}
