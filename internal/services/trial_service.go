package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"masareefy/internal/infra"
	dbm "masareefy/internal/models/db_models"
	"masareefy/internal/models/response_models"
	"masareefy/internal/repositories"
	"masareefy/pkg/utils"
)

const (
	sweepLockKey    = "masareefy:expiry-sweep"
	mailSendTimeout = 15 * time.Second
)

// notificationThresholds are checked smallest first.
var notificationThresholds = []struct {
	days int
	kind dbm.NotificationKind
}{
	{1, dbm.NotifyTrial1Day},
	{3, dbm.NotifyTrial3Days},
	{7, dbm.NotifyTrial7Days},
}

func thresholdFor(daysRemaining int) (dbm.NotificationKind, bool) {
	for _, t := range notificationThresholds {
		if daysRemaining <= t.days {
			return t.kind, true
		}
	}
	return "", false
}

type SweepError struct {
	SubscriptionID uuid.UUID
	TenantID       uuid.UUID
	Err            error
}

func (e SweepError) Error() string {
	return fmt.Sprintf("subscription %s: %v", e.SubscriptionID, e.Err)
}

// SweepReport summarises one pass. A failure on one subscription never stops the others.
type SweepReport struct {
	Checked    int
	Downgraded int
	Notified   int
	Errors     []SweepError
	TimedOut   bool
}

func (r *SweepReport) fail(id, tenantID uuid.UUID, err error) {
	r.Errors = append(r.Errors, SweepError{SubscriptionID: id, TenantID: tenantID, Err: err})
}

func (r *SweepReport) Response() response_models.SweepReport {
	out := response_models.SweepReport{
		Checked:    r.Checked,
		Downgraded: r.Downgraded,
		Notified:   r.Notified,
		Errors:     make([]response_models.SweepError, 0, len(r.Errors)),
		TimedOut:   r.TimedOut,
	}
	for _, e := range r.Errors {
		out.Errors = append(out.Errors, response_models.SweepError{
			SubscriptionID: e.SubscriptionID,
			TenantID:       e.TenantID,
			Error:          e.Err.Error(),
		})
	}
	return out
}

type TrialServiceInterface interface {
	CheckTrialExpirations(ctx context.Context, now time.Time) *SweepReport
	// RunExpirySweep runs the trial pass and the paid-period pass under the sweep lock.
	RunExpirySweep(ctx context.Context, now time.Time) (*SweepReport, error)
	MarkNotificationAsRead(ctx context.Context, id, tenantID uuid.UUID) (*dbm.TrialNotification, error)
	ExtendTrial(ctx context.Context, subscriptionID uuid.UUID, additionalDays int) (*dbm.Subscription, error)
	GetTrialStatus(ctx context.Context, tenantID uuid.UUID) (*response_models.TrialStatus, error)
	ListNotifications(ctx context.Context, tenantID uuid.UUID, unreadOnly bool) ([]dbm.TrialNotification, error)
}

type trialService struct {
	tx            infra.Transactor
	subs          repositories.SubscriptionRepository
	notifications repositories.NotificationRepository
	events        repositories.EventRepository
	accounts      repositories.AccountRepository
	lifecycle     SubscriptionServiceInterface
	plans         PlanServiceInterface
	mailer        IMailService
	locker        infra.Locker
	metrics       *infra.Metrics
	sweepTimeout  time.Duration
	now           utils.Clock
	logger        *zap.Logger
}

type TrialServiceDeps struct {
	Tx            infra.Transactor
	Subs          repositories.SubscriptionRepository
	Notifications repositories.NotificationRepository
	Events        repositories.EventRepository
	Accounts      repositories.AccountRepository
	Lifecycle     SubscriptionServiceInterface
	Plans         PlanServiceInterface
	Mailer        IMailService
	Locker        infra.Locker
	Metrics       *infra.Metrics
	SweepTimeout  time.Duration
	Clock         utils.Clock
	Logger        *zap.Logger
}

func NewTrialService(d TrialServiceDeps) TrialServiceInterface {
	return &trialService{
		tx:            d.Tx,
		subs:          d.Subs,
		notifications: d.Notifications,
		events:        d.Events,
		accounts:      d.Accounts,
		lifecycle:     d.Lifecycle,
		plans:         d.Plans,
		mailer:        d.Mailer,
		locker:        d.Locker,
		metrics:       d.Metrics,
		sweepTimeout:  d.SweepTimeout,
		now:           d.Clock,
		logger:        d.Logger,
	}
}

func (t *trialService) RunExpirySweep(ctx context.Context, now time.Time) (*SweepReport, error) {
	unlock, err := t.locker.TryLock(ctx, sweepLockKey, t.sweepTimeout+time.Minute)
	if err != nil {
		if errors.Is(err, infra.ErrLockBusy) {
			t.metrics.SweepRuns.WithLabelValues("skipped").Inc()
			return nil, utils.Conflict(utils.CodeSweepInProgress, "An expiry sweep is already running")
		}
		t.metrics.SweepRuns.WithLabelValues("failed").Inc()
		return nil, utils.ExternalFailure(utils.CodeInternal, "Could not acquire sweep lock", err)
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, t.sweepTimeout)
	defer cancel()

	start := time.Now()
	report := &SweepReport{}
	t.trialPass(ctx, now, report)
	t.periodPass(ctx, now, report)

	t.metrics.SweepDuration.Observe(time.Since(start).Seconds())
	t.metrics.SweepDowngrades.Add(float64(report.Downgraded))
	t.metrics.SweepErrors.Add(float64(len(report.Errors)))
	outcome := "completed"
	if report.TimedOut {
		outcome = "timed_out"
	}
	t.metrics.SweepRuns.WithLabelValues(outcome).Inc()

	t.logger.Info("expiry sweep finished",
		zap.Int("checked", report.Checked),
		zap.Int("downgraded", report.Downgraded),
		zap.Int("notified", report.Notified),
		zap.Int("errors", len(report.Errors)),
		zap.Bool("timed_out", report.TimedOut),
		zap.Duration("took", time.Since(start)))
	return report, nil
}

func (t *trialService) CheckTrialExpirations(ctx context.Context, now time.Time) *SweepReport {
	report := &SweepReport{}
	t.trialPass(ctx, now, report)
	return report
}

func (t *trialService) trialPass(ctx context.Context, now time.Time, report *SweepReport) {
	ids, err := t.subs.ListIDsByStatus(ctx, []dbm.SubscriptionStatus{dbm.SubStatusTrialing})
	if err != nil {
		report.fail(uuid.Nil, uuid.Nil, fmt.Errorf("list trialing subscriptions: %w", err))
		return
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			report.TimedOut = true
			return
		}
		report.Checked++
		if err := t.processTrial(ctx, id, now, report); err != nil {
			t.logger.Warn("trial sweep item failed",
				zap.String("subscription_id", id.String()),
				zap.Error(err))
			report.fail(id, t.tenantOf(ctx, id), err)
		}
	}
}

func (t *trialService) processTrial(ctx context.Context, id uuid.UUID, now time.Time, report *SweepReport) error {
	sub, err := t.subs.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if sub == nil || sub.Status != dbm.SubStatusTrialing {
		return nil
	}

	plan, err := t.plans.PlanByID(ctx, sub.PlanID)
	if err != nil {
		return err
	}

	days := utils.DaysUntil(trialEndOf(sub), now)
	if days <= 0 {
		decision, _, err := t.lifecycle.ExpireSubscription(ctx, id, now)
		if err != nil {
			return err
		}
		if decision != DowngradeToFree {
			return nil
		}
		report.Downgraded++
		created, err := t.notify(ctx, sub, plan, dbm.NotifyTrialExpired, 0)
		if created {
			report.Notified++
		}
		return err
	}

	kind, ok := thresholdFor(days)
	if !ok {
		return nil
	}
	created, err := t.notify(ctx, sub, plan, kind, days)
	if created {
		report.Notified++
	}
	return err
}

func (t *trialService) periodPass(ctx context.Context, now time.Time, report *SweepReport) {
	ids, err := t.subs.ListIDsEndedBy(ctx,
		[]dbm.SubscriptionStatus{dbm.SubStatusActive, dbm.SubStatusPastDue}, now.Unix())
	if err != nil {
		report.fail(uuid.Nil, uuid.Nil, fmt.Errorf("list ended subscriptions: %w", err))
		return
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			report.TimedOut = true
			return
		}
		report.Checked++
		decision, sub, err := t.lifecycle.ExpireSubscription(ctx, id, now)
		if err != nil {
			t.logger.Warn("period sweep item failed", zap.String("subscription_id", id.String()), zap.Error(err))
			report.fail(id, t.tenantOf(ctx, id), err)
			continue
		}
		if decision == DowngradeToFree {
			report.Downgraded++
			t.logger.Info("subscription downgraded to free",
				zap.String("subscription_id", id.String()),
				zap.String("tenant_id", sub.TenantID.String()))
		}
	}
}

// tenantOf resolves the owner of a failed sweep item. uuid.Nil when the row is gone.
func (t *trialService) tenantOf(ctx context.Context, id uuid.UUID) uuid.UUID {
	if sub, _ := t.subs.FindByID(ctx, id); sub != nil {
		return sub.TenantID
	}
	return uuid.Nil
}

// notify records a notification once per (subscription, kind). The reminder mail is
// best-effort: a delivery failure is logged and the notification row stays.
func (t *trialService) notify(ctx context.Context, sub *dbm.Subscription, plan *dbm.Plan, kind dbm.NotificationKind, days int) (bool, error) {
	n := &dbm.TrialNotification{
		SubscriptionID: sub.ID,
		TenantID:       sub.TenantID,
		Kind:           kind,
		DaysRemaining:  days,
		Message:        notificationMessage(kind, plan.Name, days),
	}
	created, err := t.notifications.CreateIfAbsent(ctx, n)
	if err != nil || !created {
		return false, err
	}
	t.metrics.SweepNotifications.Inc()

	if err := t.sendReminder(ctx, sub, plan, kind, days); err != nil {
		t.logger.Warn("trial reminder not delivered",
			zap.String("subscription_id", sub.ID.String()),
			zap.String("kind", string(kind)),
			zap.Error(err))
	}
	return true, nil
}

func (t *trialService) sendReminder(ctx context.Context, sub *dbm.Subscription, plan *dbm.Plan, kind dbm.NotificationKind, days int) error {
	account, err := t.accounts.FindById(ctx, sub.TenantID)
	if err != nil {
		return utils.ExternalFailure(utils.CodeNotificationDelivery, "load tenant account", err)
	}
	if account == nil || account.Email == "" {
		return nil
	}

	mailCtx, cancel := context.WithTimeout(ctx, mailSendTimeout)
	defer cancel()
	err = t.mailer.SendTrialReminder(mailCtx, account.Email, TrialReminder{
		TenantName:    account.Name,
		PlanName:      plan.Name,
		DaysRemaining: days,
		Expired:       kind == dbm.NotifyTrialExpired,
	})
	if err != nil {
		return utils.ExternalFailure(utils.CodeNotificationDelivery, "send trial reminder", err)
	}
	return nil
}

func notificationMessage(kind dbm.NotificationKind, planName string, days int) string {
	switch kind {
	case dbm.NotifyTrialExpired:
		return fmt.Sprintf("Your %s trial has ended. You are now on the Free plan.", planName)
	case dbm.NotifyTrial1Day:
		return fmt.Sprintf("Your %s trial ends tomorrow.", planName)
	default:
		return fmt.Sprintf("Your %s trial ends in %d days.", planName, days)
	}
}

func trialEndOf(sub *dbm.Subscription) time.Time {
	if sub.TrialEnd != nil {
		return utils.FromUnixSeconds(*sub.TrialEnd)
	}
	return utils.FromUnixSeconds(sub.CurrentPeriodEnd)
}

func (t *trialService) MarkNotificationAsRead(ctx context.Context, id, tenantID uuid.UUID) (*dbm.TrialNotification, error) {
	n, err := t.notifications.FindByID(ctx, id)
	if err != nil {
		return nil, utils.DatabaseError(err)
	}
	if n == nil || n.TenantID != tenantID {
		return nil, utils.NotFound(utils.CodeNotificationNotFound, "Notification not found")
	}
	if n.IsRead {
		return n, nil
	}

	ts := t.now().Unix()
	n.IsRead = true
	n.ReadAt = &ts
	if err := t.notifications.Save(ctx, n); err != nil {
		return nil, utils.DatabaseError(err)
	}
	return n, nil
}

func (t *trialService) ExtendTrial(ctx context.Context, subscriptionID uuid.UUID, additionalDays int) (*dbm.Subscription, error) {
	if additionalDays <= 0 {
		return nil, utils.Validation(utils.CodeInvalidExtensionDays, "additionalDays must be positive")
	}

	var sub *dbm.Subscription
	err := t.tx.Exec(ctx, func(ctx context.Context) error {
		var err error
		sub, err = t.subs.FindByIDForUpdate(ctx, subscriptionID)
		if err != nil {
			return err
		}
		if sub == nil {
			return utils.NotFound(utils.CodeSubscriptionNotFound, "Subscription not found")
		}
		if sub.Status != dbm.SubStatusTrialing {
			return utils.Validation(utils.CodeNotTrialing, "Only a trialing subscription can be extended")
		}

		end := trialEndOf(sub).Unix()
		newEnd := utils.AddDaysUnix(end, additionalDays)
		sub.TrialEnd = &newEnd
		sub.CurrentPeriodEnd = utils.AddDaysUnix(sub.CurrentPeriodEnd, additionalDays)
		if err := t.subs.Save(ctx, sub); err != nil {
			return err
		}
		return appendEvent(ctx, t.events, sub, dbm.ActionTrialExtended, sub.Status, nil,
			fmt.Sprintf("+%d days", additionalDays))
	})
	if err != nil {
		return nil, utils.DatabaseError(err)
	}

	t.logger.Info("trial extended",
		zap.String("subscription_id", subscriptionID.String()),
		zap.Int("additional_days", additionalDays))
	return sub, nil
}

func (t *trialService) GetTrialStatus(ctx context.Context, tenantID uuid.UUID) (*response_models.TrialStatus, error) {
	sub, err := t.subs.FindLiveByTenant(ctx, tenantID)
	if err != nil {
		return nil, utils.DatabaseError(err)
	}
	if sub == nil || sub.Status != dbm.SubStatusTrialing {
		return &response_models.TrialStatus{IsTrialing: false}, nil
	}

	plan, err := t.plans.PlanByID(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}

	end := trialEndOf(sub)
	days := utils.DaysUntil(end, t.now())
	if days < 0 {
		days = 0
	}
	id := sub.ID
	return &response_models.TrialStatus{
		IsTrialing:     true,
		SubscriptionID: &id,
		PlanCode:       plan.Code,
		TrialEnd:       utils.FormatRFC3339(end),
		DaysRemaining:  days,
	}, nil
}

func (t *trialService) ListNotifications(ctx context.Context, tenantID uuid.UUID, unreadOnly bool) ([]dbm.TrialNotification, error) {
	list, err := t.notifications.ListByTenant(ctx, tenantID, unreadOnly)
	if err != nil {
		return nil, utils.DatabaseError(err)
	}
	return list, nil
}
