package services

import (
	"time"

	dbm "masareefy/internal/models/db_models"
	"masareefy/pkg/utils"
)

const (
	freePeriodDays    = 365
	billingPeriodDays = 30
	expiringSoonDays  = 7
)

// validTransitions lists every allowed status change. A downgrade to the Free plan
// lands on active and is allowed from any non-terminal status.
var validTransitions = map[dbm.SubscriptionStatus][]dbm.SubscriptionStatus{
	dbm.SubStatusTrialing:  {dbm.SubStatusActive, dbm.SubStatusCancelled},
	dbm.SubStatusActive:    {dbm.SubStatusActive, dbm.SubStatusPastDue, dbm.SubStatusCancelled},
	dbm.SubStatusPastDue:   {dbm.SubStatusActive, dbm.SubStatusCancelled},
	dbm.SubStatusUnpaid:    {dbm.SubStatusActive, dbm.SubStatusCancelled},
	dbm.SubStatusCancelled: {},
}

func CanTransition(from, to dbm.SubscriptionStatus) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type ExpirationDecision int

const (
	NoOp ExpirationDecision = iota
	DowngradeToFree
	// MarkPastDue is never produced: a missed renewal downgrades immediately.
	MarkPastDue
)

func (d ExpirationDecision) String() string {
	switch d {
	case DowngradeToFree:
		return "downgrade_to_free"
	case MarkPastDue:
		return "mark_past_due"
	default:
		return "no_op"
	}
}

// CheckExpiration decides what the sweep should do with sub at now. It does no I/O.
func CheckExpiration(sub *dbm.Subscription, now time.Time) ExpirationDecision {
	switch sub.Status {
	case dbm.SubStatusTrialing:
		end := sub.CurrentPeriodEnd
		if sub.TrialEnd != nil {
			end = *sub.TrialEnd
		}
		if now.After(utils.FromUnixSeconds(end)) {
			return DowngradeToFree
		}
	case dbm.SubStatusActive, dbm.SubStatusPastDue:
		if now.After(utils.FromUnixSeconds(sub.CurrentPeriodEnd)) {
			return DowngradeToFree
		}
	}
	return NoOp
}

// ApplyExpiration mutates sub according to decision and reports whether anything changed.
// Trial fields are kept for history.
func ApplyExpiration(sub *dbm.Subscription, decision ExpirationDecision, freePlan *dbm.Plan, now time.Time) bool {
	switch decision {
	case DowngradeToFree:
		ts := now.Unix()
		sub.PlanID = freePlan.ID
		sub.Status = dbm.SubStatusActive
		sub.CurrentPeriodStart = ts
		sub.CurrentPeriodEnd = utils.AddDaysUnix(ts, freePeriodDays)
		sub.PaymentMethod = dbm.PaymentMethodFree
		sub.CancelAtPeriodEnd = false
		sub.CancelledAt = nil
		return true
	case MarkPastDue:
		if !CanTransition(sub.Status, dbm.SubStatusPastDue) {
			return false
		}
		sub.Status = dbm.SubStatusPastDue
		return true
	}
	return false
}

type Entitlement struct {
	IsFreePlan     bool `json:"isFreePlan"`
	IsExpired      bool `json:"isExpired"`
	IsExpiringSoon bool `json:"isExpiringSoon"`
	IsTrialActive  bool `json:"isTrialActive"`
	DaysRemaining  int  `json:"daysRemaining"`
}

// GetEntitlement derives the feature-gating flags for sub on plan at now.
func GetEntitlement(sub *dbm.Subscription, plan *dbm.Plan, now time.Time) Entitlement {
	end := utils.FromUnixSeconds(sub.CurrentPeriodEnd)
	if sub.Status == dbm.SubStatusTrialing && sub.TrialEnd != nil {
		end = utils.FromUnixSeconds(*sub.TrialEnd)
	}

	days := utils.DaysUntil(end, now)
	expired := now.After(end)
	if days < 0 {
		days = 0
	}

	return Entitlement{
		IsFreePlan:     plan != nil && plan.IsFree(),
		IsExpired:      expired,
		IsExpiringSoon: !expired && days <= expiringSoonDays,
		IsTrialActive:  sub.Status == dbm.SubStatusTrialing && !expired,
		DaysRemaining:  days,
	}
}
