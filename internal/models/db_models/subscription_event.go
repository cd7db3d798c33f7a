package db_models

import (
	"github.com/google/uuid"
)

type SubscriptionAction string

const (
	ActionCreated         SubscriptionAction = "created"
	ActionProvisioned     SubscriptionAction = "provisioned"
	ActionDowngraded      SubscriptionAction = "downgraded"
	ActionCancelled       SubscriptionAction = "cancelled"
	ActionCancelScheduled SubscriptionAction = "cancel_scheduled"
	ActionPaymentRecorded SubscriptionAction = "payment_recorded"
	ActionTrialExtended   SubscriptionAction = "trial_extended"
	ActionUpdated         SubscriptionAction = "updated"
)

// SubscriptionEvent is the append-only audit trail of applied transitions.
type SubscriptionEvent struct {
	BaseModel
	SubscriptionID uuid.UUID          `gorm:"type:uuid;index"`
	TenantID       uuid.UUID          `gorm:"type:uuid;index"`
	Action         SubscriptionAction `gorm:"size:32"`
	FromStatus     SubscriptionStatus `gorm:"size:16"`
	ToStatus       SubscriptionStatus `gorm:"size:16"`
	FromPlanID     *uuid.UUID         `gorm:"type:uuid"`
	ToPlanID       *uuid.UUID         `gorm:"type:uuid"`
	Actor          string             `gorm:"size:64"` // "tenant", "admin", "scheduler", "payment"
	Note           string
}
