package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"masareefy/internal/infra"
	dbm "masareefy/internal/models/db_models"
)

type EventRepository interface {
	Append(ctx context.Context, ev *dbm.SubscriptionEvent) error
	ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]dbm.SubscriptionEvent, error)
}

type eventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Append(ctx context.Context, ev *dbm.SubscriptionEvent) error {
	return infra.Conn(ctx, r.db).Create(ev).Error
}

func (r *eventRepository) ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]dbm.SubscriptionEvent, error) {
	var events []dbm.SubscriptionEvent
	err := infra.Conn(ctx, r.db).
		Where("subscription_id = ?", subscriptionID).
		Order("created_at ASC").
		Find(&events).Error
	return events, err
}
