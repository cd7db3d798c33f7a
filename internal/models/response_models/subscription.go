package response_models

import (
	"github.com/google/uuid"
	"masareefy/internal/models/db_models"
	"masareefy/pkg/utils"
)

// Subscription timestamps are rendered as RFC3339 strings in UTC.
type Subscription struct {
	ID                 uuid.UUID `json:"id"`
	TenantID           uuid.UUID `json:"tenantId"`
	PlanID             uuid.UUID `json:"planId"`
	Status             string    `json:"status"`
	CurrentPeriodStart string    `json:"currentPeriodStart"`
	CurrentPeriodEnd   string    `json:"currentPeriodEnd"`
	TrialStart         string    `json:"trialStart,omitempty"`
	TrialEnd           string    `json:"trialEnd,omitempty"`
	CancelAtPeriodEnd  bool      `json:"cancelAtPeriodEnd"`
	CancelledAt        string    `json:"cancelledAt,omitempty"`
	PaymentMethod      string    `json:"paymentMethod,omitempty"`
}

func FromSubscription(sub *db_models.Subscription) Subscription {
	return Subscription{
		ID:                 sub.ID,
		TenantID:           sub.TenantID,
		PlanID:             sub.PlanID,
		Status:             string(sub.Status),
		CurrentPeriodStart: utils.FormatRFC3339(utils.FromUnixSeconds(sub.CurrentPeriodStart)),
		CurrentPeriodEnd:   utils.FormatRFC3339(utils.FromUnixSeconds(sub.CurrentPeriodEnd)),
		TrialStart:         formatOptional(sub.TrialStart),
		TrialEnd:           formatOptional(sub.TrialEnd),
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
		CancelledAt:        formatOptional(sub.CancelledAt),
		PaymentMethod:      sub.PaymentMethod,
	}
}

func formatOptional(ts *int64) string {
	if ts == nil {
		return ""
	}
	return utils.FormatRFC3339(utils.FromUnixSeconds(*ts))
}

type EntitlementView struct {
	IsFreePlan     bool `json:"isFreePlan"`
	IsExpired      bool `json:"isExpired"`
	IsExpiringSoon bool `json:"isExpiringSoon"`
	IsTrialActive  bool `json:"isTrialActive"`
	DaysRemaining  int  `json:"daysRemaining"`
}

// CurrentSubscription is the entitlement-augmented view returned by GET /subscriptions/current.
type CurrentSubscription struct {
	Subscription Subscription     `json:"subscription"`
	Plan         SubscriptionPlan `json:"plan"`
	Entitlement  EntitlementView  `json:"entitlement"`
}

type Invoice struct {
	ID          uuid.UUID `json:"id"`
	AmountMinor int64     `json:"amount"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	PaidAt      string    `json:"paidAt,omitempty"`
}

func FromInvoice(inv *db_models.Invoice) Invoice {
	return Invoice{
		ID:          inv.ID,
		AmountMinor: inv.AmountMinor,
		Currency:    inv.Currency,
		Status:      string(inv.Status),
		PaidAt:      formatOptional(inv.PaidAt),
	}
}

type PaymentResult struct {
	Subscription Subscription `json:"subscription"`
	Invoice      *Invoice     `json:"invoice,omitempty"`
}
