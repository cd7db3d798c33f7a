package db_models

import (
	"github.com/google/uuid"
)

type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusFailed  InvoiceStatus = "failed"
	InvoiceStatusVoid    InvoiceStatus = "void"
)

type Invoice struct {
	BaseModel
	TenantID       uuid.UUID     `gorm:"type:uuid;index"`
	SubscriptionID uuid.UUID     `gorm:"type:uuid;index"`
	PlanID         uuid.UUID     `gorm:"type:uuid"`
	AmountMinor    int64         // e.g., 4900 = 49.00
	Currency       string        `gorm:"size:3"`
	Status         InvoiceStatus `gorm:"size:16;index"`
	PeriodStart    int64
	PeriodEnd      int64

	PaymentMethodRef string // provider reference, never card data
	PaidAt           *int64
}
