package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentroll/internal/alerts"
	"rentroll/internal/core"
	"rentroll/internal/log"
	"rentroll/internal/projection"
	"rentroll/internal/records/memory"
	"rentroll/internal/services"
)

var testNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, mutate ...func(*Config)) (*Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	store.Replace(memory.Seed{
		Tenants: []core.Tenant{
			{
				ID:              "t1",
				Name:            "Acme Coffee",
				LeaseStart:      core.NewDate(2023, 1, 1),
				LeaseEnd:        core.NewDate(2024, 4, 1),
				BaseRent:        core.Money{Cents: 500000},
				SquareFeet:      1000,
				NextPaymentDate: core.NewDate(2024, 3, 10),
			},
			{
				ID:         "t2",
				Name:       "Bistro",
				LeaseStart: core.NewDate(2024, 2, 1),
				LeaseEnd:   core.NewDate(2026, 1, 31),
				BaseRent:   core.Money{Cents: 300000},
				SquareFeet: 600,
			},
		},
		Units: []core.Unit{
			{ID: "u1", Number: "101", SquareFeet: 1000, Status: core.UnitOccupied},
			{ID: "u2", Number: "102", SquareFeet: 1000, Status: core.UnitAvailable},
		},
	})

	logger := log.New(log.Config{Output: io.Discard})
	cfg := Config{
		Service: services.NewPortfolioService(store, logger.Slog()),
		Logger:  logger,
		Now:     func() time.Time { return testNow },
	}
	for _, m := range mutate {
		m(&cfg)
	}
	srv := NewServer(cfg)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, store
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	req.RemoteAddr = "203.0.113.7:4321"
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthAndReadiness(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	failing, _ := newTestServer(t, func(c *Config) {
		c.Ready = func(context.Context) error { return errors.New("db down") }
	})
	rec = do(t, failing, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSecurityAndCORSHeaders(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/tenants", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestProjectionEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/projection?months=3", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

	res := decode[projection.Result](t, rec)
	require.Len(t, res.Series, 3)
	assert.Equal(t, "Jan 24", res.Series[0].Label)
	assert.Equal(t, int64(500000), res.Series[0].Income.Cents)
	assert.Equal(t, int64(800000), res.Series[2].Income.Cents)
	assert.InDelta(t, 50.0, res.Metrics.OccupancyRate, 1e-9)

	rec = do(t, srv, http.MethodGet, "/api/projection?months=3", "")
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))

	rec = do(t, srv, http.MethodGet, "/api/projection?months=2&as_of=2023-06-30", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	res = decode[projection.Result](t, rec)
	require.Len(t, res.Series, 2)
	assert.Equal(t, "May 23", res.Series[0].Label)
}

func TestProjectionDefaultsToConfiguredMonths(t *testing.T) {
	srv, _ := newTestServer(t, func(c *Config) { c.ProjectionMonths = 6 })

	rec := do(t, srv, http.MethodGet, "/api/projection", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[projection.Result](t, rec).Series, 6)
}

func TestProjectionRejectsBadParameters(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name  string
		query string
	}{
		{"zero months", "months=0"},
		{"too many months", "months=121"},
		{"non-numeric months", "months=abc"},
		{"bad as_of", "as_of=15/03/2024"},
		{"bad escalations", "escalations=maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodGet, "/api/projection?"+tt.query, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decode[errorBody](t, rec).Error)
		})
	}
}

func TestWritesInvalidateProjectionCache(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/projection?months=1", "")
	before := decode[projection.Result](t, rec)
	assert.Equal(t, int64(800000), before.Series[0].Income.Cents)

	rec = do(t, srv, http.MethodPost, "/api/tenants",
		`{"name":"Bakery","leaseStart":"2024-01-01","leaseEnd":"2024-12-31","baseRent":1000}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	saved := decode[core.Tenant](t, rec)
	assert.NotEmpty(t, saved.ID)

	rec = do(t, srv, http.MethodGet, "/api/projection?months=1", "")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	after := decode[projection.Result](t, rec)
	assert.Equal(t, int64(900000), after.Series[0].Income.Cents)

	rec = do(t, srv, http.MethodDelete, "/api/tenants/"+saved.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/projection?months=1", "")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, int64(800000), decode[projection.Result](t, rec).Series[0].Income.Cents)
}

func TestAlertsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/alerts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[alertsResponse](t, rec)

	assert.Equal(t, "2024-03-15", body.AsOf.String())
	require.Len(t, body.Alerts, 2)
	assert.Equal(t, alerts.KindPayment, body.Alerts[0].Kind)
	assert.Equal(t, alerts.PriorityHigh, body.Alerts[0].Priority)
	assert.Equal(t, alerts.KindLease, body.Alerts[1].Kind)
	assert.Equal(t, 1, body.Counts[alerts.PriorityHigh])
	assert.Equal(t, 1, body.Counts[alerts.PriorityMedium])

	rec = do(t, srv, http.MethodGet, "/api/alerts?as_of=2020-01-01", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"alerts":[]`)
}

func TestAlertSettingsEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/settings/alerts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, alerts.DefaultSettings(), decode[alerts.Settings](t, rec))

	rec = do(t, srv, http.MethodPut, "/api/settings/alerts", `{"payments":false,"advanceNoticeDays":60}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[alerts.Settings](t, rec)
	assert.False(t, updated.Payments)
	assert.True(t, updated.LeaseExpirations)
	assert.Equal(t, 60, updated.AdvanceNoticeDays)

	rec = do(t, srv, http.MethodGet, "/api/alerts", "")
	body := decode[alertsResponse](t, rec)
	require.Len(t, body.Alerts, 1)
	assert.Equal(t, alerts.KindLease, body.Alerts[0].Kind)

	rec = do(t, srv, http.MethodPut, "/api/settings/alerts", `{"advanceNoticeDays":400}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "advanceNoticeDays")

	rec = do(t, srv, http.MethodPut, "/api/settings/alerts", `{"advanceNoticeDays":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTenantEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/tenants", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]core.Tenant](t, rec), 2)

	rec = do(t, srv, http.MethodPost, "/api/tenants", `{"name":""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name"`)

	rec = do(t, srv, http.MethodPost, "/api/tenants", `{"name":"X","leaseStart":"not a date"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodDelete, "/api/tenants/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/tenants/mix", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[[]projection.MixEntry](t, rec))
}

func TestLeaseScheduleEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/leases?within_months=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[leaseScheduleResponse](t, rec)
	assert.Equal(t, 1, body.WithinMonths)
	require.Len(t, body.Leases, 2)
	assert.Equal(t, "t1", body.Leases[0].TenantID)
	assert.True(t, body.Leases[0].Upcoming)
	assert.Equal(t, 1, body.Upcoming)

	rec = do(t, srv, http.MethodGet, "/api/leases?within_months=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/payments",
		`{"tenantId":"t1","amount":"2,000.00","date":"2024-03-01","type":"base_rent"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/payments", "")
	require.Equal(t, http.StatusOK, rec.Code)
	payments := decode[[]core.Payment](t, rec)
	require.Len(t, payments, 1)
	assert.Equal(t, int64(200000), payments[0].Amount.Cents)

	rec = do(t, srv, http.MethodGet, "/api/tenants/balances", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "t1")

	rec = do(t, srv, http.MethodGet, "/api/documents", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/api/documents", `{"name":"Insurance","expirationDate":"2024-04-01"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/units", `{"number":"103","status":"vacant"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/units", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]core.Unit](t, rec), 2)
}

func TestWritesAreRateLimited(t *testing.T) {
	srv, _ := newTestServer(t, func(c *Config) { c.RateLimitPerMinute = 1 })

	rec := do(t, srv, http.MethodPost, "/api/units", `{"number":"103","status":"available"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/api/units", `{"number":"104","status":"available"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	// reads are not limited
	rec = do(t, srv, http.MethodGet, "/api/units", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		want       string
	}{
		{"direct", "203.0.113.7:1234", "", "203.0.113.7"},
		{"untrusted proxy ignores header", "203.0.113.7:1234", "198.51.100.1", "203.0.113.7"},
		{"trusted proxy uses header", "10.0.0.5:1234", "198.51.100.1, 10.0.0.5", "198.51.100.1"},
		{"trusted proxy invalid header", "10.0.0.5:1234", "garbage", "10.0.0.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			assert.Equal(t, tt.want, extractClientIP(req))
		})
	}
}
