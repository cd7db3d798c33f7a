package db_models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestPlanLimitsJSON(t *testing.T) {
	var limits PlanLimits
	require.NoError(t, json.Unmarshal([]byte(`{"inventory":20,"wallets":"unlimited"}`), &limits))

	assert.Equal(t, Bounded(20), limits[ResourceInventory])
	assert.True(t, limits[ResourceWallets].IsUnlimited())

	out, err := json.Marshal(limits)
	require.NoError(t, err)
	assert.JSONEq(t, `{"inventory":20,"wallets":"unlimited"}`, string(out))
}

func TestLimitRejectsBadValues(t *testing.T) {
	var l Limit
	assert.Error(t, json.Unmarshal([]byte(`-1`), &l))
	assert.Error(t, json.Unmarshal([]byte(`"lots"`), &l))
	assert.Error(t, json.Unmarshal([]byte(`1.5`), &l))
}

func TestBoundedClampsNegative(t *testing.T) {
	ceiling, bounded := Bounded(-3).Max()
	assert.True(t, bounded)
	assert.Zero(t, ceiling)

	_, bounded = Unlimited().Max()
	assert.False(t, bounded)
}

func TestLimitForFallsBack(t *testing.T) {
	plan := &Plan{Limits: datatypes.NewJSONType(PlanLimits{ResourceInventory: Unlimited()})}

	assert.True(t, plan.LimitFor(ResourceInventory, 100).IsUnlimited())
	assert.Equal(t, "100", plan.LimitFor(ResourceTeamMembers, 100).String())
}

func TestParseResourceType(t *testing.T) {
	rt, ok := ParseResourceType(" Team_Members ")
	assert.True(t, ok)
	assert.Equal(t, ResourceTeamMembers, rt)

	_, ok = ParseResourceType("invoices")
	assert.False(t, ok)
}

func TestSubscriptionStatus(t *testing.T) {
	assert.True(t, SubStatusPastDue.IsLive())
	assert.False(t, SubStatusUnpaid.IsLive())
	assert.False(t, SubStatusCancelled.IsLive())
	assert.True(t, SubStatusUnpaid.Valid())
	assert.False(t, SubscriptionStatus("paused").Valid())
}
