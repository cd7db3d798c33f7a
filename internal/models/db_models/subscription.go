package db_models

import (
	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	SubStatusTrialing  SubscriptionStatus = "trialing"
	SubStatusActive    SubscriptionStatus = "active"
	SubStatusPastDue   SubscriptionStatus = "past_due"
	SubStatusUnpaid    SubscriptionStatus = "unpaid"
	SubStatusCancelled SubscriptionStatus = "cancelled"
)

// LiveStatuses are the statuses of which a tenant may hold at most one subscription.
var LiveStatuses = []SubscriptionStatus{SubStatusTrialing, SubStatusActive, SubStatusPastDue}

func (s SubscriptionStatus) IsLive() bool {
	for _, live := range LiveStatuses {
		if s == live {
			return true
		}
	}
	return false
}

func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubStatusTrialing, SubStatusActive, SubStatusPastDue, SubStatusUnpaid, SubStatusCancelled:
		return true
	}
	return false
}

const PaymentMethodFree = "free"

// Subscription timestamps are unix seconds.
type Subscription struct {
	BaseModel
	TenantID uuid.UUID `gorm:"type:uuid;index"`
	PlanID   uuid.UUID `gorm:"type:uuid;index"`

	Status             SubscriptionStatus `gorm:"size:16;index"`
	CurrentPeriodStart int64              `gorm:"not null"`
	CurrentPeriodEnd   int64              `gorm:"not null;index"`
	TrialStart         *int64
	TrialEnd           *int64
	CancelAtPeriodEnd  bool
	CancelledAt        *int64
	PaymentMethod      string `gorm:"size:32"`
}
