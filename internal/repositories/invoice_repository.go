package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"masareefy/internal/infra"
	dbm "masareefy/internal/models/db_models"
)

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *dbm.Invoice) error
	Save(ctx context.Context, invoice *dbm.Invoice) error
	LatestPending(ctx context.Context, subscriptionID uuid.UUID) (*dbm.Invoice, error)
	ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]dbm.Invoice, error)
}

type invoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *dbm.Invoice) error {
	return infra.Conn(ctx, r.db).Create(invoice).Error
}

func (r *invoiceRepository) Save(ctx context.Context, invoice *dbm.Invoice) error {
	return infra.Conn(ctx, r.db).Save(invoice).Error
}

func (r *invoiceRepository) LatestPending(ctx context.Context, subscriptionID uuid.UUID) (*dbm.Invoice, error) {
	var invoice dbm.Invoice
	err := infra.Conn(ctx, r.db).
		Where("subscription_id = ? AND status = ?", subscriptionID, dbm.InvoiceStatusPending).
		Order("created_at DESC").
		First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]dbm.Invoice, error) {
	var invoices []dbm.Invoice
	err := infra.Conn(ctx, r.db).
		Where("subscription_id = ?", subscriptionID).
		Order("created_at DESC").
		Find(&invoices).Error
	return invoices, err
}
