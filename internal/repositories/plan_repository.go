package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"masareefy/internal/infra"
	"masareefy/internal/models/db_models"
)

type IPlanRepository interface {
	GetPlanInfoById(ctx context.Context, planID uuid.UUID) (*db_models.Plan, error)
	GetAllPlans(ctx context.Context, activeOnly bool) ([]db_models.Plan, error)
	CreateIfAbsent(ctx context.Context, plan *db_models.Plan) (bool, error)
}

type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) IPlanRepository {
	return &PlanRepository{db: db}
}

func (p PlanRepository) GetPlanInfoById(ctx context.Context, planID uuid.UUID) (*db_models.Plan, error) {

	var plan db_models.Plan
	err := infra.Conn(ctx, p.db).First(&plan, "id = ?", planID).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &plan, nil
}

func (p PlanRepository) GetAllPlans(ctx context.Context, activeOnly bool) ([]db_models.Plan, error) {

	var plans []db_models.Plan
	q := infra.Conn(ctx, p.db).Order("monthly_price_minor ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}

	if err := q.Find(&plans).Error; err != nil {
		return nil, err
	}

	return plans, nil
}

// CreateIfAbsent inserts the plan unless a row with the same code exists. Existing rows are
// left untouched. On return plan.ID holds the stored id.
func (p PlanRepository) CreateIfAbsent(ctx context.Context, plan *db_models.Plan) (bool, error) {
	conn := infra.Conn(ctx, p.db)

	res := conn.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoNothing: true,
	}).Create(plan)
	if res.Error != nil {
		return false, res.Error
	}

	var stored db_models.Plan
	if err := conn.Select("id").First(&stored, "code = ?", plan.Code).Error; err != nil {
		return false, err
	}
	plan.ID = stored.ID
	return res.RowsAffected > 0, nil
}
