package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"masareefy/pkg/utils"
)

var secret = []byte("middleware-test-secret")

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bearer(t *testing.T, key []byte, tenantID uuid.UUID, role string, ttl time.Duration) http.Header {
	t.Helper()
	token, err := utils.CreateToken(key, tenantID, role, ttl)
	require.NoError(t, err)
	return http.Header{"Authorization": {"Bearer " + token}}
}

func TestJWTAuthMiddleware(t *testing.T) {
	tenant := uuid.New()
	r := gin.New()
	r.GET("/me", JWTAuthMiddleware(secret), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextTenantID)+"|"+c.GetString(ContextRole))
	})

	w := serve(r, http.MethodGet, "/me", bearer(t, secret, tenant, "owner", time.Hour))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, tenant.String()+"|owner", w.Body.String())

	cases := map[string]http.Header{
		"missing":      nil,
		"not bearer":   {"Authorization": {"Basic abc"}},
		"wrong secret": bearer(t, []byte("other"), tenant, "owner", time.Hour),
		"expired":      bearer(t, secret, tenant, "owner", -time.Minute),
	}
	for name, header := range cases {
		w := serve(r, http.MethodGet, "/me", header)
		assert.Equal(t, http.StatusUnauthorized, w.Code, name)
	}
}

func TestRoleMiddleware(t *testing.T) {
	r := gin.New()
	r.POST("/admin", JWTAuthMiddleware(secret), RoleMiddleware(RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := serve(r, http.MethodPost, "/admin", bearer(t, secret, uuid.New(), "owner", time.Hour))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(r, http.MethodPost, "/admin", bearer(t, secret, uuid.New(), RoleAdmin, time.Hour))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestTraceIDMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(TraceIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("trace_id")) })

	incoming := uuid.NewString()
	w := serve(r, http.MethodGet, "/", http.Header{TraceHeader: {incoming}})
	assert.Equal(t, incoming, w.Body.String())
	assert.Equal(t, incoming, w.Header().Get(TraceHeader))

	w = serve(r, http.MethodGet, "/", http.Header{TraceHeader: {"not-a-uuid"}})
	_, err := uuid.Parse(w.Body.String())
	assert.NoError(t, err)
	assert.NotEqual(t, "not-a-uuid", w.Body.String())
}

func TestRecoveryMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	r := gin.New()
	r.Use(RecoveryMiddleware(zap.New(core)))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := serve(r, http.MethodGet, "/boom", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), utils.CodeInternal)
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestRequestLoggerLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(RequestLogger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	serve(r, http.MethodGet, "/ok?x=1", nil)
	serve(r, http.MethodGet, "/bad", nil)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "x=1", entries[0].ContextMap()["query"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestHTTPMetrics(t *testing.T) {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_requests_total"}, []string{"method", "route", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "test_duration_seconds"}, []string{"method", "route"})

	r := gin.New()
	r.Use(HTTPMetrics(requests, duration))
	r.GET("/plans/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, http.MethodGet, "/plans/"+uuid.NewString(), nil)
	serve(r, http.MethodGet, "/plans/"+uuid.NewString(), nil)
	serve(r, http.MethodGet, "/nowhere", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(requests.WithLabelValues(http.MethodGet, "/plans/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(requests.WithLabelValues(http.MethodGet, "unmatched", "404")))
}
