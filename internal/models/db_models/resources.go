package db_models

import (
	"github.com/google/uuid"
)

// The bookkeeping resources below are owned by the CRUD services. This service only
// counts live (non soft-deleted) rows per tenant.

type InventoryItem struct {
	BaseModel
	TenantID uuid.UUID `gorm:"type:uuid;index"`
	Name     string
	SKU      string
	Quantity int64
}

type TeamMember struct {
	BaseModel
	TenantID uuid.UUID `gorm:"type:uuid;index"`
	Email    string
	Role     string
}

type Wallet struct {
	BaseModel
	TenantID     uuid.UUID `gorm:"type:uuid;index"`
	Name         string
	Currency     string `gorm:"size:3"`
	BalanceMinor int64
}

type TransactionKind string

const (
	TransactionRevenue TransactionKind = "revenue"
	TransactionCost    TransactionKind = "cost"
)

// Transaction is a bookkeeping entry (revenue or cost), not a payment.
type Transaction struct {
	BaseModel
	TenantID    uuid.UUID       `gorm:"type:uuid;index"`
	WalletID    *uuid.UUID      `gorm:"type:uuid;index"`
	Kind        TransactionKind `gorm:"size:16"`
	AmountMinor int64
	Note        string
}

// ModelFor returns the table model backing a counted resource type.
func ModelFor(rt ResourceType) (interface{}, bool) {
	switch rt {
	case ResourceInventory:
		return &InventoryItem{}, true
	case ResourceTeamMembers:
		return &TeamMember{}, true
	case ResourceWallets:
		return &Wallet{}, true
	case ResourceTransactions:
		return &Transaction{}, true
	}
	return nil, false
}

// AllModels lists every table owned or read by this service, in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&Account{},
		&Plan{},
		&Subscription{},
		&Invoice{},
		&UsageRecord{},
		&TrialNotification{},
		&SubscriptionEvent{},
		&InventoryItem{},
		&TeamMember{},
		&Wallet{},
		&Transaction{},
	}
}
