package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"masareefy/internal/infra"
	dbm "masareefy/internal/models/db_models"
)

type NotificationRepository interface {
	// CreateIfAbsent inserts n unless one of the same kind exists for the subscription.
	// It reports whether a row was written.
	CreateIfAbsent(ctx context.Context, n *dbm.TrialNotification) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*dbm.TrialNotification, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID, unreadOnly bool) ([]dbm.TrialNotification, error)
	Save(ctx context.Context, n *dbm.TrialNotification) error
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) CreateIfAbsent(ctx context.Context, n *dbm.TrialNotification) (bool, error) {
	res := infra.Conn(ctx, r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(n)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *notificationRepository) FindByID(ctx context.Context, id uuid.UUID) (*dbm.TrialNotification, error) {
	var n dbm.TrialNotification
	if err := infra.Conn(ctx, r.db).First(&n, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, unreadOnly bool) ([]dbm.TrialNotification, error) {
	var list []dbm.TrialNotification
	q := infra.Conn(ctx, r.db).Where("tenant_id = ?", tenantID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	err := q.Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *notificationRepository) Save(ctx context.Context, n *dbm.TrialNotification) error {
	return infra.Conn(ctx, r.db).Save(n).Error
}
