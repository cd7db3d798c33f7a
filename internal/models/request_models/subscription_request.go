package request_models

import "github.com/google/uuid"

type CreateSubscriptionRequest struct {
	PlanID        uuid.UUID `json:"planId" binding:"required"`
	PaymentMethod string    `json:"paymentMethod" binding:"omitempty,max=32"`
	TrialDays     *int      `json:"trialDays" binding:"omitempty"`
}

type CancelSubscriptionRequest struct {
	CancelAtPeriodEnd bool `json:"cancelAtPeriodEnd"`
}

// UpdateSubscriptionRequest is a partial update; nil fields are left untouched.
// Period bounds are unix seconds.
type UpdateSubscriptionRequest struct {
	Status             *string    `json:"status"`
	PlanID             *uuid.UUID `json:"planId"`
	CurrentPeriodStart *int64     `json:"currentPeriodStart"`
	CurrentPeriodEnd   *int64     `json:"currentPeriodEnd"`
	PaymentMethod      *string    `json:"paymentMethod" binding:"omitempty,max=32"`
}

type ExtendTrialRequest struct {
	AdditionalDays int `json:"additionalDays"`
}

type UsageSyncRequest struct {
	ResourceType string `json:"resourceType"`
}
