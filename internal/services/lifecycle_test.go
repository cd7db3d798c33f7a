package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	dbm "masareefy/internal/models/db_models"
	"masareefy/pkg/utils"
)

func trialing(start time.Time, days int) *dbm.Subscription {
	s := start.Unix()
	end := utils.AddDaysUnix(s, days)
	return &dbm.Subscription{
		BaseModel:          dbm.BaseModel{ID: uuid.New()},
		TenantID:           uuid.New(),
		PlanID:             uuid.New(),
		Status:             dbm.SubStatusTrialing,
		CurrentPeriodStart: s,
		CurrentPeriodEnd:   end,
		TrialStart:         &s,
		TrialEnd:           &end,
		PaymentMethod:      "card",
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to dbm.SubscriptionStatus
		want     bool
	}{
		{dbm.SubStatusTrialing, dbm.SubStatusActive, true},
		{dbm.SubStatusTrialing, dbm.SubStatusCancelled, true},
		{dbm.SubStatusTrialing, dbm.SubStatusPastDue, false},
		{dbm.SubStatusActive, dbm.SubStatusPastDue, true},
		{dbm.SubStatusActive, dbm.SubStatusCancelled, true},
		{dbm.SubStatusPastDue, dbm.SubStatusActive, true},
		{dbm.SubStatusPastDue, dbm.SubStatusCancelled, true},
		{dbm.SubStatusUnpaid, dbm.SubStatusCancelled, true},
		{dbm.SubStatusCancelled, dbm.SubStatusActive, false},
		{dbm.SubStatusCancelled, dbm.SubStatusTrialing, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestCheckExpiration(t *testing.T) {
	sub := trialing(day0, 7)

	assert.Equal(t, NoOp, CheckExpiration(sub, day0.Add(6*utils.Day)))
	assert.Equal(t, NoOp, CheckExpiration(sub, day0.Add(7*utils.Day)), "exactly at trial end is not yet expired")
	assert.Equal(t, DowngradeToFree, CheckExpiration(sub, day0.Add(8*utils.Day)))

	justPast := day0.Add(7*utils.Day + 500*time.Millisecond)
	assert.Equal(t, DowngradeToFree, CheckExpiration(sub, justPast))
	assert.True(t, GetEntitlement(sub, &dbm.Plan{Code: dbm.PlanCodeGrowth}, justPast).IsExpired)

	active := trialing(day0, 0)
	active.Status = dbm.SubStatusActive
	active.CurrentPeriodEnd = day0.Add(30 * utils.Day).Unix()
	assert.Equal(t, NoOp, CheckExpiration(active, day0.Add(29*utils.Day)))
	assert.Equal(t, DowngradeToFree, CheckExpiration(active, day0.Add(31*utils.Day)))
	assert.Equal(t, DowngradeToFree, CheckExpiration(active, day0.Add(30*utils.Day+time.Millisecond)))

	active.Status = dbm.SubStatusPastDue
	assert.Equal(t, DowngradeToFree, CheckExpiration(active, day0.Add(31*utils.Day)))

	for _, status := range []dbm.SubscriptionStatus{dbm.SubStatusCancelled, dbm.SubStatusUnpaid, "mystery"} {
		active.Status = status
		assert.Equal(t, NoOp, CheckExpiration(active, day0.Add(400*utils.Day)), string(status))
	}
}

func TestApplyExpirationDowngradesToFree(t *testing.T) {
	free := &dbm.Plan{BaseModel: dbm.BaseModel{ID: uuid.New()}, Code: dbm.PlanCodeFree}
	sub := trialing(day0, 7)
	sub.CancelAtPeriodEnd = true
	trialEnd := *sub.TrialEnd
	now := day0.Add(8 * utils.Day)

	changed := ApplyExpiration(sub, CheckExpiration(sub, now), free, now)

	assert.True(t, changed)
	assert.Equal(t, free.ID, sub.PlanID)
	assert.Equal(t, dbm.SubStatusActive, sub.Status)
	assert.Equal(t, now.Unix(), sub.CurrentPeriodStart)
	assert.Equal(t, now.Add(365*utils.Day).Unix(), sub.CurrentPeriodEnd)
	assert.Equal(t, dbm.PaymentMethodFree, sub.PaymentMethod)
	assert.False(t, sub.CancelAtPeriodEnd)
	assert.Nil(t, sub.CancelledAt)
	assert.Equal(t, trialEnd, *sub.TrialEnd, "trial history is kept")
}

func TestCheckExpirationIsIdempotent(t *testing.T) {
	free := &dbm.Plan{BaseModel: dbm.BaseModel{ID: uuid.New()}, Code: dbm.PlanCodeFree}
	now := day0.Add(8 * utils.Day)

	once := trialing(day0, 7)
	ApplyExpiration(once, CheckExpiration(once, now), free, now)

	twice := *once
	changed := ApplyExpiration(&twice, CheckExpiration(&twice, now), free, now)

	assert.False(t, changed)
	assert.Equal(t, *once, twice)
}

func TestCancelAtPeriodEndIsNotTermination(t *testing.T) {
	sub := trialing(day0, 14)
	sub.CancelAtPeriodEnd = true

	assert.Equal(t, NoOp, CheckExpiration(sub, day0.Add(10*utils.Day)))
	assert.Equal(t, dbm.SubStatusTrialing, sub.Status)
}

func TestMarkPastDueDecision(t *testing.T) {
	sub := trialing(day0, 0)
	sub.Status = dbm.SubStatusActive
	assert.True(t, ApplyExpiration(sub, MarkPastDue, nil, day0))
	assert.Equal(t, dbm.SubStatusPastDue, sub.Status)

	sub.Status = dbm.SubStatusCancelled
	assert.False(t, ApplyExpiration(sub, MarkPastDue, nil, day0))
	assert.False(t, ApplyExpiration(sub, NoOp, nil, day0))
}

func TestGetEntitlement(t *testing.T) {
	growth := &dbm.Plan{Code: dbm.PlanCodeGrowth}
	free := &dbm.Plan{Code: dbm.PlanCodeFree}
	sub := trialing(day0, 14)

	e := GetEntitlement(sub, growth, day0.Add(2*utils.Day))
	assert.Equal(t, Entitlement{IsTrialActive: true, DaysRemaining: 12}, e)

	e = GetEntitlement(sub, growth, day0.Add(9*utils.Day+time.Hour))
	assert.True(t, e.IsExpiringSoon)
	assert.Equal(t, 5, e.DaysRemaining)

	e = GetEntitlement(sub, growth, day0.Add(15*utils.Day))
	assert.True(t, e.IsExpired)
	assert.False(t, e.IsTrialActive)
	assert.False(t, e.IsExpiringSoon)
	assert.Equal(t, 0, e.DaysRemaining)

	paid := trialing(day0, 0)
	paid.Status = dbm.SubStatusActive
	paid.CurrentPeriodEnd = day0.Add(365 * utils.Day).Unix()
	e = GetEntitlement(paid, free, day0)
	assert.True(t, e.IsFreePlan)
	assert.False(t, e.IsTrialActive)
	assert.Equal(t, 365, e.DaysRemaining)
}

func TestGetEntitlementIsPure(t *testing.T) {
	sub := trialing(day0, 7)
	snapshot := *sub
	plan := &dbm.Plan{Code: dbm.PlanCodeScale}
	now := day0.Add(3 * utils.Day)

	first := GetEntitlement(sub, plan, now)
	second := GetEntitlement(sub, plan, now)

	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, *sub)
}
