package response_models

import (
	"github.com/google/uuid"
	"masareefy/internal/models/db_models"
)

type TrialStatus struct {
	IsTrialing     bool       `json:"isTrialing"`
	SubscriptionID *uuid.UUID `json:"subscriptionId,omitempty"`
	PlanCode       string     `json:"planCode,omitempty"`
	TrialEnd       string     `json:"trialEnd,omitempty"`
	DaysRemaining  int        `json:"daysRemaining"`
}

type TrialNotification struct {
	ID             uuid.UUID `json:"id"`
	SubscriptionID uuid.UUID `json:"subscriptionId"`
	Kind           string    `json:"kind"`
	DaysRemaining  int       `json:"daysRemaining"`
	Message        string    `json:"message"`
	IsRead         bool      `json:"isRead"`
	ReadAt         string    `json:"readAt,omitempty"`
	CreatedAt      string    `json:"createdAt"`
}

func FromNotification(n *db_models.TrialNotification) TrialNotification {
	return TrialNotification{
		ID:             n.ID,
		SubscriptionID: n.SubscriptionID,
		Kind:           string(n.Kind),
		DaysRemaining:  n.DaysRemaining,
		Message:        n.Message,
		IsRead:         n.IsRead,
		ReadAt:         formatOptional(n.ReadAt),
		CreatedAt:      formatOptional(&n.CreatedAt),
	}
}

type SweepError struct {
	SubscriptionID uuid.UUID `json:"subscriptionId"`
	TenantID       uuid.UUID `json:"tenantId"`
	Error          string    `json:"error"`
}

type SweepReport struct {
	Checked    int          `json:"checked"`
	Downgraded int          `json:"downgraded"`
	Notified   int          `json:"notified"`
	Errors     []SweepError `json:"errors"`
	TimedOut   bool         `json:"timedOut,omitempty"`
}
