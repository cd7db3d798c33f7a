package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"masareefy/internal/infra"
	dbm "masareefy/internal/models/db_models"
	"masareefy/internal/models/request_models"
	"masareefy/internal/repositories"
	"masareefy/internal/testutil"
	mem "masareefy/pkg/memcache"
)

var day0 = time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)

type sentMail struct {
	To       string
	Reminder TrialReminder
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *recordingMailer) SendMailToNotifyUser(context.Context, string, string, string, string, string) error {
	return m.err
}

func (m *recordingMailer) SendTrialReminder(_ context.Context, to string, r TrialReminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{To: to, Reminder: r})
	return nil
}

type failingConfirmer struct{ err error }

func (f failingConfirmer) Confirm(context.Context, *dbm.Subscription, *dbm.Invoice) (string, error) {
	return "", f.err
}

type testEnv struct {
	db      *gorm.DB
	clock   *testutil.Clock
	metrics *infra.Metrics
	locker  infra.Locker
	mailer  *recordingMailer

	subRepo     repositories.SubscriptionRepository
	invoiceRepo repositories.InvoiceRepository
	notifRepo   repositories.NotificationRepository
	eventRepo   repositories.EventRepository
	accountRepo repositories.AccountRepository

	plans PlanServiceInterface
	subs  SubscriptionServiceInterface
	usage UsageServiceInterface
	trial TrialServiceInterface

	free, growth, scale *dbm.Plan
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithConfirmer(t, NewManualPaymentConfirmer())
}

func newTestEnvWithConfirmer(t *testing.T, confirmer PaymentConfirmer) *testEnv {
	t.Helper()

	db := testutil.OpenDB(t)
	logger := zap.NewNop()
	clock := testutil.NewClock(day0)
	tx := infra.NewTransactor(db)

	env := &testEnv{
		db:          db,
		clock:       clock,
		metrics:     infra.NewMetrics(),
		locker:      infra.NewLocalLocker(),
		mailer:      &recordingMailer{},
		subRepo:     repositories.NewSubscriptionRepository(db),
		invoiceRepo: repositories.NewInvoiceRepository(db),
		notifRepo:   repositories.NewNotificationRepository(db),
		eventRepo:   repositories.NewEventRepository(db),
		accountRepo: repositories.NewAccountRepository(db),
	}

	env.plans = NewPlanService(repositories.NewPlanRepository(db), mem.NewTTLStore[[]dbm.Plan](), time.Minute, logger)
	require.NoError(t, env.plans.SeedDefaults(context.Background()))

	env.subs = NewSubscriptionService(tx, env.subRepo, env.invoiceRepo, env.eventRepo, env.plans, confirmer, clock.Now, logger)
	env.usage = NewUsageService(repositories.NewUsageRepository(db), env.subRepo, env.plans, 100, env.metrics, clock.Now, logger)
	env.trial = NewTrialService(TrialServiceDeps{
		Tx:            tx,
		Subs:          env.subRepo,
		Notifications: env.notifRepo,
		Events:        env.eventRepo,
		Accounts:      env.accountRepo,
		Lifecycle:     env.subs,
		Plans:         env.plans,
		Mailer:        env.mailer,
		Locker:        env.locker,
		Metrics:       env.metrics,
		SweepTimeout:  time.Minute,
		Clock:         clock.Now,
		Logger:        logger,
	})

	env.free = env.planByCode(t, dbm.PlanCodeFree)
	env.growth = env.planByCode(t, dbm.PlanCodeGrowth)
	env.scale = env.planByCode(t, dbm.PlanCodeScale)
	return env
}

func (e *testEnv) planByCode(t *testing.T, code string) *dbm.Plan {
	t.Helper()
	var plan dbm.Plan
	require.NoError(t, e.db.First(&plan, "code = ?", code).Error)
	return &plan
}

// newTenant inserts an account so reminder mails have a recipient.
func (e *testEnv) newTenant(t *testing.T) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, e.accountRepo.InsertTx(&dbm.Account{
		BaseModel: dbm.BaseModel{ID: id},
		Name:      "Brand " + id.String()[:8],
		Email:     id.String()[:8] + "@brand.example",
		Role:      "owner",
	}, context.Background()))
	return id
}

func (e *testEnv) reload(t *testing.T, id uuid.UUID) *dbm.Subscription {
	t.Helper()
	sub, err := e.subRepo.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, sub)
	return sub
}

func (e *testEnv) startTrial(t *testing.T, tenantID uuid.UUID, plan *dbm.Plan, days int) *dbm.Subscription {
	t.Helper()
	sub, err := e.subs.CreateSubscription(context.Background(), tenantID, createReq(plan.ID, &days))
	require.NoError(t, err)
	return sub
}

func createReq(planID uuid.UUID, trialDays *int) request_models.CreateSubscriptionRequest {
	return request_models.CreateSubscriptionRequest{PlanID: planID, PaymentMethod: "card", TrialDays: trialDays}
}

func intPtr(n int) *int { return &n }
