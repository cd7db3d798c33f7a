package infra_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"masareefy/internal/infra"
	dbm "masareefy/internal/models/db_models"
	"masareefy/internal/testutil"
)

func TestLocalLocker(t *testing.T) {
	locker := infra.NewLocalLocker()
	ctx := context.Background()

	release, err := locker.TryLock(ctx, "job", time.Minute)
	require.NoError(t, err)

	_, err = locker.TryLock(ctx, "job", time.Minute)
	assert.ErrorIs(t, err, infra.ErrLockBusy)

	other, err := locker.TryLock(ctx, "other-job", time.Minute)
	require.NoError(t, err)
	other()

	release()
	again, err := locker.TryLock(ctx, "job", time.Minute)
	require.NoError(t, err)
	again()
}

func TestLocalLockerSingleWinner(t *testing.T) {
	locker := infra.NewLocalLocker()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := locker.TryLock(context.Background(), "sweep", time.Minute); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestRedisLocker(t *testing.T) {
	srv := miniredis.RunT(t)
	client := infra.NewRedisClient(srv.Addr(), "", 0)
	t.Cleanup(func() { _ = client.Close() })

	first := infra.NewRedisLocker(client)
	second := infra.NewRedisLocker(client)
	ctx := context.Background()

	release, err := first.TryLock(ctx, "masareefy:test", time.Minute)
	require.NoError(t, err)

	_, err = second.TryLock(ctx, "masareefy:test", time.Minute)
	assert.Error(t, err)

	release()
	release2, err := second.TryLock(ctx, "masareefy:test", time.Minute)
	require.NoError(t, err)
	release2()
}

func TestTransactorRollsBack(t *testing.T) {
	db := testutil.OpenDB(t)
	tx := infra.NewTransactor(db)
	boom := errors.New("boom")
	id := uuid.New()

	err := tx.Exec(context.Background(), func(ctx context.Context) error {
		if err := infra.Conn(ctx, db).Create(&dbm.Account{BaseModel: dbm.BaseModel{ID: id}, Email: "a@b.example"}).Error; err != nil {
			return err
		}
		// nested Exec joins the outer transaction
		return tx.Exec(ctx, func(ctx context.Context) error { return boom })
	})
	assert.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, db.Model(&dbm.Account{}).Where("id = ?", id).Count(&count).Error)
	assert.Zero(t, count)
}

func TestLiveSubscriptionIndex(t *testing.T) {
	db := testutil.OpenDB(t)
	tenant := uuid.New()
	plan := uuid.New()

	live := func(status dbm.SubscriptionStatus) *dbm.Subscription {
		return &dbm.Subscription{TenantID: tenant, PlanID: plan, Status: status}
	}

	require.NoError(t, db.Create(live(dbm.SubStatusCancelled)).Error)
	require.NoError(t, db.Create(live(dbm.SubStatusCancelled)).Error)
	require.NoError(t, db.Create(live(dbm.SubStatusTrialing)).Error)

	err := db.Create(live(dbm.SubStatusActive)).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestMetricsHandler(t *testing.T) {
	m := infra.NewMetrics()
	m.SweepRuns.WithLabelValues("completed").Inc()

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `masareefy_expiry_sweep_runs_total{outcome="completed"} 1`)
}

func TestNewLoggerRejectsBadLevel(t *testing.T) {
	_, err := infra.NewLogger("release", "loud")
	assert.Error(t, err)

	logger, err := infra.NewLogger("debug", "info")
	require.NoError(t, err)
	assert.NotNil(t, logger)
}
