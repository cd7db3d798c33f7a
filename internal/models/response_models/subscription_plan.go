package response_models

import (
	"github.com/google/uuid"
	"masareefy/internal/models/db_models"
)

type SubscriptionPlan struct {
	ID                uuid.UUID            `json:"id"`
	Code              string               `json:"code"` // "free", "growth", "scale"
	Name              string               `json:"name"`
	Description       *string              `json:"description,omitempty"`
	MonthlyPriceMinor int64                `json:"monthlyPrice"` // minor units, 4900 = 49.00
	YearlyPriceMinor  int64                `json:"yearlyPrice"`
	Currency          string               `json:"currency"`
	TrialDays         int32                `json:"trialDays"`
	IsActive          bool                 `json:"isActive"`
	Limits            db_models.PlanLimits `json:"limits"`
}

func FromPlan(plan *db_models.Plan) SubscriptionPlan {
	return SubscriptionPlan{
		ID:                plan.ID,
		Code:              plan.Code,
		Name:              plan.Name,
		Description:       plan.Description,
		MonthlyPriceMinor: plan.MonthlyPriceMinor,
		YearlyPriceMinor:  plan.YearlyPriceMinor,
		Currency:          plan.Currency,
		TrialDays:         plan.TrialDays,
		IsActive:          plan.IsActive,
		Limits:            plan.Limits.Data(),
	}
}
