package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveOperation(t *testing.T) {
	m := New()

	m.ObserveOperation("create", nil)
	m.ObserveOperation("create", nil)
	m.ObserveOperation("create", errors.New("boom"))

	if got := testutil.ToFloat64(m.operationsTotal.WithLabelValues("create", OutcomeSuccess)); got != 2 {
		t.Errorf("success = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.operationsTotal.WithLabelValues("create", OutcomeError)); got != 1 {
		t.Errorf("error = %v, want 1", got)
	}
}

func TestObserveHTTPAndCollisions(t *testing.T) {
	m := New()

	m.ObserveHTTP("GET", "/api/v1/merchants", 200, 15*time.Millisecond)
	m.IdentifierCollision()

	if got := testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/api/v1/merchants", "200")); got != 1 {
		t.Errorf("requests = %v", got)
	}
	if got := testutil.ToFloat64(m.identifierCollisions); got != 1 {
		t.Errorf("collisions = %v", got)
	}

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(w.Body.String(), "merchant_identifier_collisions_total 1") {
		t.Errorf("exposition missing collision counter")
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics

	m.ObserveHTTP("GET", "/", 200, time.Millisecond)
	m.ObserveOperation("get", nil)
	m.IdentifierCollision()
	if m.Registry() != nil {
		t.Error("nil Metrics should have no registry")
	}

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestInstancesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.IdentifierCollision()

	if got := testutil.ToFloat64(b.identifierCollisions); got != 0 {
		t.Errorf("second instance saw %v collisions", got)
	}
}
