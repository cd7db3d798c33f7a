package db_models

import (
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/datatypes"
)

const (
	PlanCodeFree   = "free"
	PlanCodeGrowth = "growth"
	PlanCodeScale  = "scale"
)

// ResourceType names a tenant resource whose count is capped by the plan.
type ResourceType string

const (
	ResourceInventory    ResourceType = "inventory"
	ResourceTeamMembers  ResourceType = "team_members"
	ResourceWallets      ResourceType = "wallets"
	ResourceTransactions ResourceType = "transactions"
)

var AllResourceTypes = []ResourceType{
	ResourceInventory,
	ResourceTeamMembers,
	ResourceWallets,
	ResourceTransactions,
}

func ParseResourceType(s string) (ResourceType, bool) {
	rt := ResourceType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllResourceTypes {
		if rt == known {
			return rt, true
		}
	}
	return "", false
}

const unlimitedToken = "unlimited"

// Limit is either Unlimited or Bounded(n). The zero value is Bounded(0).
// JSON form: the string "unlimited" or a non-negative integer.
type Limit struct {
	unlimited bool
	max       int64
}

func Unlimited() Limit { return Limit{unlimited: true} }

func Bounded(n int64) Limit {
	if n < 0 {
		n = 0
	}
	return Limit{max: n}
}

func (l Limit) IsUnlimited() bool { return l.unlimited }

// Max returns the cap and false when the limit is unlimited.
func (l Limit) Max() (int64, bool) {
	if l.unlimited {
		return 0, false
	}
	return l.max, true
}

func (l Limit) String() string {
	if l.unlimited {
		return unlimitedToken
	}
	return fmt.Sprintf("%d", l.max)
}

func (l Limit) MarshalJSON() ([]byte, error) {
	if l.unlimited {
		return json.Marshal(unlimitedToken)
	}
	return json.Marshal(l.max)
}

func (l *Limit) UnmarshalJSON(data []byte) error {
	var token string
	if err := json.Unmarshal(data, &token); err == nil {
		if token != unlimitedToken {
			return fmt.Errorf("invalid limit %q", token)
		}
		*l = Unlimited()
		return nil
	}

	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid limit %s", string(data))
	}
	if n < 0 {
		return fmt.Errorf("limit must not be negative, got %d", n)
	}
	*l = Bounded(n)
	return nil
}

type PlanLimits map[ResourceType]Limit

type Plan struct {
	BaseModel
	Code              string `gorm:"uniqueIndex;size:32"` // "free", "growth", "scale"
	Name              string
	Description       *string
	MonthlyPriceMinor int64  // 4900 = 49.00
	YearlyPriceMinor  int64
	Currency          string `gorm:"size:3"` // "EGP", "USD"
	TrialDays         int32
	IsActive          bool
	Limits            datatypes.JSONType[PlanLimits]
}

// LimitFor resolves the cap for rt. Resource types missing from the plan fall back
// to a bounded default so new resource kinds fail closed.
func (p *Plan) LimitFor(rt ResourceType, fallback int64) Limit {
	if l, ok := p.Limits.Data()[rt]; ok {
		return l
	}
	return Bounded(fallback)
}

func (p *Plan) IsFree() bool {
	return p.Code == PlanCodeFree
}
