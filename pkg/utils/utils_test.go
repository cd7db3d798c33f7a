package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorMatchesKindAndCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := ExternalFailure(CodePaymentConfirmation, "Payment confirmation failed", cause)

	assert.True(t, errors.Is(err, ErrExternalFailure))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Equal(t, CodePaymentConfirmation, ErrorCode(err))
	assert.Equal(t, CodeInternal, ErrorCode(cause))
}

func TestDatabaseErrorKeepsTypedErrors(t *testing.T) {
	notFound := NotFound(CodeSubscriptionNotFound, "Subscription not found")
	assert.Same(t, notFound, DatabaseError(notFound))
	wrappedTyped := DatabaseError(fmt.Errorf("tx: %w", notFound))
	assert.True(t, errors.Is(wrappedTyped, ErrNotFound))
	assert.Equal(t, CodeSubscriptionNotFound, ErrorCode(wrappedTyped))

	raw := errors.New("disk full")
	wrapped := DatabaseError(raw)
	assert.True(t, errors.Is(wrapped, ErrDatabaseError))
	assert.True(t, errors.Is(wrapped, raw))

	assert.NoError(t, DatabaseError(nil))
}

func TestHandleServiceErrorStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err    error
		status int
		code   string
	}{
		{Conflict(CodeSubscriptionExists, "exists"), http.StatusConflict, CodeSubscriptionExists},
		{NotFound(CodePlanNotFound, "missing"), http.StatusNotFound, CodePlanNotFound},
		{Validation(CodeInvalidTrialDays, "bad"), http.StatusBadRequest, CodeInvalidTrialDays},
		{LimitExceeded("full"), http.StatusForbidden, CodeLimitExceeded},
		{ExternalFailure(CodePaymentConfirmation, "gateway", errors.New("x")), http.StatusBadGateway, CodePaymentConfirmation},
		{DatabaseError(errors.New("disk full")), http.StatusInternalServerError, CodeDatabase},
		{errors.New("plain"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		HandleServiceError(c, tc.err)

		assert.Equal(t, tc.status, w.Code, tc.err.Error())
		var resp APIResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "error", resp.Status)
		assert.Equal(t, tc.code, resp.ErrorCode)
		if tc.status == http.StatusInternalServerError {
			assert.Equal(t, "Internal server error", resp.Message)
			assert.Len(t, c.Errors, 1)
		}
	}
}

func TestDaysUntil(t *testing.T) {
	now := time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, 7, DaysUntil(now.Add(7*Day), now))
	assert.Equal(t, 3, DaysUntil(now.Add(2*Day+time.Hour), now))
	assert.Equal(t, 1, DaysUntil(now.Add(time.Minute), now))
	assert.Equal(t, 0, DaysUntil(now, now))
	assert.Equal(t, -1, DaysUntil(now.Add(-time.Hour), now))
	assert.Equal(t, -2, DaysUntil(now.Add(-2*Day), now))
}

func TestUnixHelpers(t *testing.T) {
	start := time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, start.Add(30*Day).Unix(), AddDaysUnix(start.Unix(), 30))
	assert.Equal(t, start, FromUnixSeconds(start.Unix()))
	assert.True(t, FromUnixSeconds(0).IsZero())
	assert.Equal(t, "2025-03-01T09:00:00Z", FormatRFC3339(start))
	assert.Empty(t, FormatRFC3339(time.Time{}))
}

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("s3cret")
	tenant := uuid.New()

	token, err := CreateToken(secret, tenant, "admin", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, tenant.String(), claims.TenantID)
	assert.Equal(t, "admin", claims.Role)

	_, err = ValidateToken([]byte("other"), token)
	assert.Error(t, err)
}
