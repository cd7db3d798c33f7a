package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"masareefy/internal/infra"
	dbm "masareefy/internal/models/db_models"
	"masareefy/internal/models/request_models"
	"masareefy/internal/models/response_models"
	"masareefy/internal/repositories"
	"masareefy/pkg/utils"
)

const (
	ActorTenant    = "tenant"
	ActorAdmin     = "admin"
	ActorScheduler = "scheduler"
	ActorPayment   = "payment"
	ActorSystem    = "system"
)

type actorKey struct{}

// WithActor tags ctx with who is driving a transition; it ends up on the audit event.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func actorFrom(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
		return actor
	}
	return ActorSystem
}

// PaymentConfirmer confirms a charge with the payment provider before the period is extended.
// A failure rolls the whole payment back.
type PaymentConfirmer interface {
	Confirm(ctx context.Context, sub *dbm.Subscription, invoice *dbm.Invoice) (reference string, err error)
}

type manualPaymentConfirmer struct{}

// NewManualPaymentConfirmer accepts every payment; confirmation already happened upstream
// (an admin or the provider webhook calling process-payment).
func NewManualPaymentConfirmer() PaymentConfirmer {
	return manualPaymentConfirmer{}
}

func (manualPaymentConfirmer) Confirm(_ context.Context, _ *dbm.Subscription, invoice *dbm.Invoice) (string, error) {
	return "manual:" + invoice.ID.String(), nil
}

type SubscriptionServiceInterface interface {
	CreateSubscription(ctx context.Context, tenantID uuid.UUID, req request_models.CreateSubscriptionRequest) (*dbm.Subscription, error)
	GetCurrent(ctx context.Context, tenantID uuid.UUID) (*response_models.CurrentSubscription, error)
	UpdateSubscription(ctx context.Context, id uuid.UUID, req request_models.UpdateSubscriptionRequest) (*dbm.Subscription, error)
	// Cancel is scoped to tenantID unless it is uuid.Nil.
	Cancel(ctx context.Context, id, tenantID uuid.UUID, cancelAtPeriodEnd bool) (*dbm.Subscription, error)
	RecordPayment(ctx context.Context, id uuid.UUID) (*dbm.Subscription, *dbm.Invoice, error)
	// ExpireSubscription re-evaluates the locked row at now and downgrades it when due.
	ExpireSubscription(ctx context.Context, id uuid.UUID, now time.Time) (ExpirationDecision, *dbm.Subscription, error)
}

type subscriptionService struct {
	tx        infra.Transactor
	subs      repositories.SubscriptionRepository
	invoices  repositories.InvoiceRepository
	events    repositories.EventRepository
	plans     PlanServiceInterface
	confirmer PaymentConfirmer
	now       utils.Clock
	logger    *zap.Logger
}

func NewSubscriptionService(
	tx infra.Transactor,
	subs repositories.SubscriptionRepository,
	invoices repositories.InvoiceRepository,
	events repositories.EventRepository,
	plans PlanServiceInterface,
	confirmer PaymentConfirmer,
	clock utils.Clock,
	logger *zap.Logger,
) SubscriptionServiceInterface {
	return &subscriptionService{
		tx:        tx,
		subs:      subs,
		invoices:  invoices,
		events:    events,
		plans:     plans,
		confirmer: confirmer,
		now:       clock,
		logger:    logger,
	}
}

func (s *subscriptionService) CreateSubscription(ctx context.Context, tenantID uuid.UUID, req request_models.CreateSubscriptionRequest) (*dbm.Subscription, error) {
	if req.TrialDays != nil && *req.TrialDays < 0 {
		return nil, utils.Validation(utils.CodeInvalidTrialDays, "trialDays must not be negative")
	}

	plan, err := s.plans.PlanByID(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, utils.Validation(utils.CodePlanNotFound, "Plan is not available")
	}

	trialDays := int(plan.TrialDays)
	if req.TrialDays != nil {
		trialDays = *req.TrialDays
	}

	paymentMethod := req.PaymentMethod
	if plan.IsFree() && paymentMethod == "" {
		paymentMethod = dbm.PaymentMethodFree
	}

	now := s.now().Unix()
	trialEnd := utils.AddDaysUnix(now, trialDays)
	sub := &dbm.Subscription{
		TenantID:           tenantID,
		PlanID:             plan.ID,
		Status:             dbm.SubStatusTrialing,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   trialEnd,
		TrialStart:         &now,
		TrialEnd:           &trialEnd,
		PaymentMethod:      paymentMethod,
	}

	err = s.tx.Exec(ctx, func(ctx context.Context) error {
		live, err := s.subs.FindLiveByTenantForUpdate(ctx, tenantID)
		if err != nil {
			return err
		}
		if live != nil {
			return utils.Conflict(utils.CodeSubscriptionExists, "Tenant already has a live subscription")
		}

		if err := s.subs.Create(ctx, sub); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return utils.Conflict(utils.CodeSubscriptionExists, "Tenant already has a live subscription")
			}
			return err
		}

		invoice := &dbm.Invoice{
			TenantID:       tenantID,
			SubscriptionID: sub.ID,
			PlanID:         plan.ID,
			AmountMinor:    plan.MonthlyPriceMinor,
			Currency:       plan.Currency,
			Status:         dbm.InvoiceStatusPending,
			PeriodStart:    trialEnd,
			PeriodEnd:      utils.AddDaysUnix(trialEnd, billingPeriodDays),
		}
		if err := s.invoices.Create(ctx, invoice); err != nil {
			return err
		}

		return s.appendEvent(ctx, sub, dbm.ActionCreated, "", nil, "")
	})
	if err != nil {
		return nil, utils.DatabaseError(err)
	}

	s.logger.Info("subscription created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("subscription_id", sub.ID.String()),
		zap.String("plan", plan.Code),
		zap.Int("trial_days", trialDays))
	return sub, nil
}

func (s *subscriptionService) GetCurrent(ctx context.Context, tenantID uuid.UUID) (*response_models.CurrentSubscription, error) {
	sub, err := s.subs.FindLiveByTenant(ctx, tenantID)
	if err != nil {
		return nil, utils.DatabaseError(err)
	}

	if sub == nil {
		sub, err = s.provisionFree(ctx, tenantID)
		if err != nil {
			return nil, err
		}
	}

	plan, err := s.plans.PlanByID(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}

	ent := GetEntitlement(sub, plan, s.now())
	return &response_models.CurrentSubscription{
		Subscription: response_models.FromSubscription(sub),
		Plan:         response_models.FromPlan(plan),
		Entitlement:  response_models.EntitlementView(ent),
	}, nil
}

// provisionFree gives a tenant without a live subscription an active Free one. No invoice is issued.
func (s *subscriptionService) provisionFree(ctx context.Context, tenantID uuid.UUID) (*dbm.Subscription, error) {
	free, err := s.plans.FreePlan(ctx)
	if err != nil {
		return nil, err
	}

	var sub *dbm.Subscription
	err = s.tx.Exec(ctx, func(ctx context.Context) error {
		live, err := s.subs.FindLiveByTenantForUpdate(ctx, tenantID)
		if err != nil {
			return err
		}
		if live != nil {
			sub = live
			return nil
		}

		now := s.now().Unix()
		sub = &dbm.Subscription{
			TenantID:           tenantID,
			PlanID:             free.ID,
			Status:             dbm.SubStatusActive,
			CurrentPeriodStart: now,
			CurrentPeriodEnd:   utils.AddDaysUnix(now, freePeriodDays),
			PaymentMethod:      dbm.PaymentMethodFree,
		}
		if err := s.subs.Create(ctx, sub); err != nil {
			return err
		}
		return s.appendEvent(ctx, sub, dbm.ActionProvisioned, "", nil, "")
	})

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// a concurrent request provisioned first
		sub, err = s.subs.FindLiveByTenant(ctx, tenantID)
		if err == nil && sub == nil {
			err = utils.NotFound(utils.CodeSubscriptionNotFound, "Subscription not found")
		}
	}
	if err != nil {
		return nil, utils.DatabaseError(err)
	}
	return sub, nil
}

func (s *subscriptionService) UpdateSubscription(ctx context.Context, id uuid.UUID, req request_models.UpdateSubscriptionRequest) (*dbm.Subscription, error) {
	var target *dbm.Plan
	if req.PlanID != nil {
		plan, err := s.plans.PlanByID(ctx, *req.PlanID)
		if err != nil {
			return nil, err
		}
		target = plan
	}

	var sub *dbm.Subscription
	err := s.tx.Exec(ctx, func(ctx context.Context) error {
		var err error
		sub, err = s.subs.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if sub == nil {
			return utils.NotFound(utils.CodeSubscriptionNotFound, "Subscription not found")
		}

		fromStatus := sub.Status
		fromPlan := sub.PlanID

		if req.Status != nil && dbm.SubscriptionStatus(*req.Status) != sub.Status {
			to := dbm.SubscriptionStatus(*req.Status)
			if !to.Valid() {
				return utils.Validation(utils.CodeInvalidTransition, "Unknown subscription status")
			}
			if !CanTransition(sub.Status, to) {
				return utils.Validation(utils.CodeInvalidTransition,
					"Cannot move subscription from "+string(sub.Status)+" to "+string(to))
			}
			if to.IsLive() && !sub.Status.IsLive() {
				live, err := s.subs.FindLiveByTenantForUpdate(ctx, sub.TenantID)
				if err != nil {
					return err
				}
				if live != nil && live.ID != sub.ID {
					return utils.Conflict(utils.CodeSubscriptionExists, "Tenant already has a live subscription")
				}
			}
			sub.Status = to
			if to == dbm.SubStatusCancelled {
				ts := s.now().Unix()
				sub.CancelledAt = &ts
			}
		}

		if target != nil {
			sub.PlanID = target.ID
		}
		if req.CurrentPeriodStart != nil {
			sub.CurrentPeriodStart = *req.CurrentPeriodStart
		}
		if req.CurrentPeriodEnd != nil {
			sub.CurrentPeriodEnd = *req.CurrentPeriodEnd
		}
		if sub.CurrentPeriodEnd < sub.CurrentPeriodStart {
			return utils.Validation(utils.CodeInvalidRequest, "currentPeriodEnd must not precede currentPeriodStart")
		}
		if req.PaymentMethod != nil {
			sub.PaymentMethod = *req.PaymentMethod
		}

		if err := s.subs.Save(ctx, sub); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return utils.Conflict(utils.CodeSubscriptionExists, "Tenant already has a live subscription")
			}
			return err
		}
		return s.appendEvent(ctx, sub, dbm.ActionUpdated, fromStatus, &fromPlan, "")
	})
	if err != nil {
		return nil, utils.DatabaseError(err)
	}
	return sub, nil
}

func (s *subscriptionService) Cancel(ctx context.Context, id, tenantID uuid.UUID, cancelAtPeriodEnd bool) (*dbm.Subscription, error) {
	var sub *dbm.Subscription
	err := s.tx.Exec(ctx, func(ctx context.Context) error {
		var err error
		sub, err = s.subs.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if sub == nil || (tenantID != uuid.Nil && sub.TenantID != tenantID) {
			return utils.NotFound(utils.CodeSubscriptionNotFound, "Subscription not found")
		}
		if sub.Status == dbm.SubStatusCancelled {
			return utils.Validation(utils.CodeInvalidTransition, "Subscription is already cancelled")
		}

		fromStatus := sub.Status
		action := dbm.ActionCancelled
		if cancelAtPeriodEnd {
			if !sub.Status.IsLive() {
				return utils.Validation(utils.CodeInvalidTransition, "Only a live subscription can be cancelled at period end")
			}
			sub.CancelAtPeriodEnd = true
			action = dbm.ActionCancelScheduled
		} else {
			if !CanTransition(sub.Status, dbm.SubStatusCancelled) {
				return utils.Validation(utils.CodeInvalidTransition, "Subscription cannot be cancelled from "+string(sub.Status))
			}
			ts := s.now().Unix()
			sub.Status = dbm.SubStatusCancelled
			sub.CancelledAt = &ts
		}

		if err := s.subs.Save(ctx, sub); err != nil {
			return err
		}
		return s.appendEvent(ctx, sub, action, fromStatus, nil, "")
	})
	if err != nil {
		return nil, utils.DatabaseError(err)
	}

	s.logger.Info("subscription cancelled",
		zap.String("subscription_id", id.String()),
		zap.Bool("at_period_end", cancelAtPeriodEnd))
	return sub, nil
}

// RecordPayment re-activates the subscription and extends its period by one billing cycle
// from the current end. Calling it twice extends twice.
func (s *subscriptionService) RecordPayment(ctx context.Context, id uuid.UUID) (*dbm.Subscription, *dbm.Invoice, error) {
	var (
		sub     *dbm.Subscription
		invoice *dbm.Invoice
	)
	err := s.tx.Exec(ctx, func(ctx context.Context) error {
		var err error
		sub, err = s.subs.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if sub == nil {
			return utils.NotFound(utils.CodeSubscriptionNotFound, "Subscription not found")
		}

		switch sub.Status {
		case dbm.SubStatusTrialing, dbm.SubStatusActive, dbm.SubStatusPastDue:
		default:
			return utils.Validation(utils.CodeInvalidTransition, "Cannot record a payment on a "+string(sub.Status)+" subscription")
		}

		invoice, err = s.invoices.LatestPending(ctx, sub.ID)
		if err != nil {
			return err
		}
		if invoice == nil {
			plan, err := s.plans.PlanByID(ctx, sub.PlanID)
			if err != nil {
				return err
			}
			invoice = &dbm.Invoice{
				TenantID:       sub.TenantID,
				SubscriptionID: sub.ID,
				PlanID:         plan.ID,
				AmountMinor:    plan.MonthlyPriceMinor,
				Currency:       plan.Currency,
				Status:         dbm.InvoiceStatusPending,
				PeriodStart:    sub.CurrentPeriodEnd,
				PeriodEnd:      utils.AddDaysUnix(sub.CurrentPeriodEnd, billingPeriodDays),
			}
			if err := s.invoices.Create(ctx, invoice); err != nil {
				return err
			}
		}

		ref, err := s.confirmer.Confirm(ctx, sub, invoice)
		if err != nil {
			return utils.ExternalFailure(utils.CodePaymentConfirmation, "Payment confirmation failed", err)
		}

		now := s.now().Unix()
		fromStatus := sub.Status
		sub.Status = dbm.SubStatusActive
		sub.CurrentPeriodEnd = utils.AddDaysUnix(sub.CurrentPeriodEnd, billingPeriodDays)
		if err := s.subs.Save(ctx, sub); err != nil {
			return err
		}

		invoice.Status = dbm.InvoiceStatusPaid
		invoice.PaidAt = &now
		invoice.PaymentMethodRef = ref
		if err := s.invoices.Save(ctx, invoice); err != nil {
			return err
		}

		return s.appendEvent(ctx, sub, dbm.ActionPaymentRecorded, fromStatus, nil, ref)
	})
	if err != nil {
		return nil, nil, utils.DatabaseError(err)
	}

	s.logger.Info("payment recorded",
		zap.String("subscription_id", id.String()),
		zap.String("invoice_id", invoice.ID.String()),
		zap.Int64("period_end", sub.CurrentPeriodEnd))
	return sub, invoice, nil
}

func (s *subscriptionService) ExpireSubscription(ctx context.Context, id uuid.UUID, now time.Time) (ExpirationDecision, *dbm.Subscription, error) {
	decision := NoOp
	var sub *dbm.Subscription
	err := s.tx.Exec(ctx, func(ctx context.Context) error {
		var err error
		sub, err = s.subs.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if sub == nil {
			return utils.NotFound(utils.CodeSubscriptionNotFound, "Subscription not found")
		}
		if !sub.Status.Valid() {
			s.logger.Warn("subscription has unknown status; left unchanged",
				zap.String("subscription_id", sub.ID.String()),
				zap.String("status", string(sub.Status)))
			return nil
		}

		decision = CheckExpiration(sub, now)
		if decision == NoOp {
			return nil
		}

		free, err := s.plans.FreePlan(ctx)
		if err != nil {
			return err
		}

		fromStatus := sub.Status
		fromPlan := sub.PlanID
		if !ApplyExpiration(sub, decision, free, now) {
			decision = NoOp
			return nil
		}
		if err := s.subs.Save(ctx, sub); err != nil {
			return err
		}
		return s.appendEvent(ctx, sub, dbm.ActionDowngraded, fromStatus, &fromPlan, decision.String())
	})
	if err != nil {
		return NoOp, nil, utils.DatabaseError(err)
	}
	return decision, sub, nil
}

func (s *subscriptionService) appendEvent(ctx context.Context, sub *dbm.Subscription, action dbm.SubscriptionAction,
	fromStatus dbm.SubscriptionStatus, fromPlan *uuid.UUID, note string) error {
	return appendEvent(ctx, s.events, sub, action, fromStatus, fromPlan, note)
}

func appendEvent(ctx context.Context, events repositories.EventRepository, sub *dbm.Subscription, action dbm.SubscriptionAction,
	fromStatus dbm.SubscriptionStatus, fromPlan *uuid.UUID, note string) error {
	toPlan := sub.PlanID
	return events.Append(ctx, &dbm.SubscriptionEvent{
		SubscriptionID: sub.ID,
		TenantID:       sub.TenantID,
		Action:         action,
		FromStatus:     fromStatus,
		ToStatus:       sub.Status,
		FromPlanID:     fromPlan,
		ToPlanID:       &toPlan,
		Actor:          actorFrom(ctx),
		Note:           note,
	})
}
