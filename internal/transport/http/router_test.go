package httptransport

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	documenthandler "cadastro/internal/document/handler"
	"cadastro/internal/platform/metrics"
	"cadastro/pkg/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestHealth(t *testing.T) {
	t.Run("ok without checks", func(t *testing.T) {
		router := NewRouter(RouterConfig{Logger: discardLogger()})
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/health"))
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "status", "ok")
	})

	t.Run("degraded when a dependency is down", func(t *testing.T) {
		router := NewRouter(RouterConfig{
			Logger: discardLogger(),
			HealthChecks: map[string]HealthCheck{
				"postgres": func(context.Context) error { return nil },
				"redis":    func(context.Context) error { return errors.New("connection refused") },
			},
		})
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/health"))
		testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
		resp := testutil.UnmarshalResponse[healthResponse](t, rr)
		assert.Equal(t, "degraded", resp.Status)
		assert.Equal(t, "ok", resp.Checks["postgres"])
		assert.Equal(t, "down", resp.Checks["redis"])
	})

	t.Run("advisory check reports down but stays ok", func(t *testing.T) {
		router := NewRouter(RouterConfig{
			Logger: discardLogger(),
			HealthChecks: map[string]HealthCheck{
				"postgres": func(context.Context) error { return nil },
			},
			AdvisoryChecks: map[string]HealthCheck{
				"postal_lookup": func(context.Context) error { return errors.New("postal lookup circuit is open") },
			},
		})
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/health"))
		testutil.AssertStatusOK(t, rr)
		resp := testutil.UnmarshalResponse[healthResponse](t, rr)
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, "ok", resp.Checks["postgres"])
		assert.Equal(t, "down", resp.Checks["postal_lookup"])
	})
}

func TestMiddlewareChain(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	router := NewRouter(RouterConfig{
		Logger:    discardLogger(),
		Metrics:   m,
		Documents: documenthandler.New(),
	})

	req := testutil.NewRequest(t, http.MethodGet, "/documents/validate?value=49633697883")
	req.Header.Set("X-Request-ID", "abc-123")
	rr := testutil.DoRequest(router, req)
	testutil.AssertStatusOK(t, rr)
	assert.Equal(t, "abc-123", rr.Header().Get("X-Request-ID"))

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/metrics"))
	testutil.AssertStatusOK(t, rr)
	body := string(testutil.ReadBody(t, rr))
	require.True(t, strings.Contains(body, "cadastro_http_request_duration_seconds"))
	assert.Contains(t, body, `route="/documents/validate"`)
}
