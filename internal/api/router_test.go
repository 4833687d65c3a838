package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"merchant-service/internal/auth"
	"merchant-service/internal/domain/entities"
	"merchant-service/internal/metrics"
	"merchant-service/internal/services"
	"merchant-service/internal/storage/memory"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixedIDs struct{ ids []string }

func (f *fixedIDs) Generate() (string, error) {
	id := f.ids[0]
	if len(f.ids) > 1 {
		f.ids = f.ids[1:]
	}
	return id, nil
}

type brokenStore struct {
	*memory.MerchantRepository
}

func (brokenStore) FindByMerchantID(context.Context, string) (*entities.Merchant, error) {
	return nil, errors.New("pq: password authentication failed for user \"merchant\"")
}

type testServer struct {
	router  *gin.Engine
	metrics *metrics.Metrics
}

func newTestServer(t *testing.T, tokens *auth.JWTService, opts ...services.MerchantServiceOption) *testServer {
	t.Helper()
	m := metrics.New()
	opts = append(opts, services.WithMetrics(m))
	svc := services.NewMerchantService(memory.NewMerchantRepository(), nil, opts...)
	return &testServer{
		router:  NewRouter(Dependencies{MerchantService: svc, Tokens: tokens, Metrics: m}),
		metrics: m,
	}
}

func (s *testServer) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

const validBody = `{"name":"Acme Corp","email":"billing@acme.example","phone":"+1 555 0100","businessName":"Acme Ltd"}`

func TestCreateAndGet(t *testing.T) {
	s := newTestServer(t, nil, services.WithIdentifierGenerator(&fixedIDs{ids: []string{"MRC12345678"}}))

	w := s.do(t, http.MethodPost, "/api/v1/merchants", validBody)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST status = %d, body %s", w.Code, w.Body)
	}
	created := decode(t, w)
	if created["merchantId"] != "MRC12345678" || created["status"] != "ACTIVE" {
		t.Errorf("created = %v", created)
	}
	if _, ok := created["id"]; ok {
		t.Error("internal key leaked in response")
	}
	if _, ok := created["address"]; ok {
		t.Error("absent address should be omitted")
	}

	w = s.do(t, http.MethodGet, "/api/v1/merchants/MRC12345678", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET status = %d", w.Code)
	}
	if got := decode(t, w); got["businessName"] != "Acme Ltd" || got["createdAt"] != got["updatedAt"] {
		t.Errorf("got = %v", got)
	}
}

func TestCreate_ValidationErrors(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodPost, "/api/v1/merchants", `{"name":"","email":"nope","phone":"12"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	body := decode(t, w)
	if body["message"] != "validation failed" || body["path"] != "/api/v1/merchants" {
		t.Errorf("body = %v", body)
	}
	errs, _ := body["errors"].([]interface{})
	if len(errs) != 3 {
		t.Fatalf("errors = %v, want 3 entries", body["errors"])
	}
	first := errs[0].(map[string]interface{})
	if first["field"] != "name" || first["message"] != "name is required" {
		t.Errorf("first error = %v", first)
	}
}

func TestCreate_MalformedBody(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodPost, "/api/v1/merchants", `{"name":`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if body := decode(t, w); body["message"] != "invalid request body" {
		t.Errorf("body = %v", body)
	}
}

func TestCreate_IdentifierExhaustionIs503(t *testing.T) {
	s := newTestServer(t, nil,
		services.WithIdentifierGenerator(&fixedIDs{ids: []string{"MRCSTUCK000"}}),
		services.WithMaxIdentifierAttempts(2),
	)

	if w := s.do(t, http.MethodPost, "/api/v1/merchants", validBody); w.Code != http.StatusCreated {
		t.Fatalf("seed status = %d", w.Code)
	}
	w := s.do(t, http.MethodPost, "/api/v1/merchants", validBody)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}

func TestGet_NotFound(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodGet, "/api/v1/merchants/MRCUNKNOWN0", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	body := decode(t, w)
	if body["path"] != "/api/v1/merchants/MRCUNKNOWN0" || body["message"] == "" {
		t.Errorf("body = %v", body)
	}
}

func TestGet_StoreFailureHidesDetail(t *testing.T) {
	svc := services.NewMerchantService(brokenStore{memory.NewMerchantRepository()}, nil)
	router := NewRouter(Dependencies{MerchantService: svc})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/merchants/MRCANY00000", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Errorf("driver detail leaked: %s", w.Body)
	}
	if body := decode(t, w); body["path"] != "/api/v1/merchants/MRCANY00000" {
		t.Errorf("body = %v", body)
	}
}

func TestUpdate(t *testing.T) {
	s := newTestServer(t, nil, services.WithIdentifierGenerator(&fixedIDs{ids: []string{"MRC12345678"}}))
	s.do(t, http.MethodPost, "/api/v1/merchants", validBody)

	w := s.do(t, http.MethodPut, "/api/v1/merchants/MRC12345678",
		`{"name":"Acme Two","email":"two@acme.example","phone":"555 0101"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	got := decode(t, w)
	if got["name"] != "Acme Two" || got["merchantId"] != "MRC12345678" {
		t.Errorf("got = %v", got)
	}
	if _, ok := got["businessName"]; ok {
		t.Error("businessName should be cleared by a full replace")
	}

	if w := s.do(t, http.MethodPut, "/api/v1/merchants/MRCMISSING0", validBody); w.Code != http.StatusNotFound {
		t.Errorf("missing merchant status = %d, want 404", w.Code)
	}
	if w := s.do(t, http.MethodPut, "/api/v1/merchants/MRC12345678", `{"name":"x"}`); w.Code != http.StatusBadRequest {
		t.Errorf("invalid update status = %d, want 400", w.Code)
	}
}

func TestDelete_Deactivates(t *testing.T) {
	s := newTestServer(t, nil, services.WithIdentifierGenerator(&fixedIDs{ids: []string{"MRC12345678"}}))
	s.do(t, http.MethodPost, "/api/v1/merchants", validBody)

	w := s.do(t, http.MethodDelete, "/api/v1/merchants/MRC12345678", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if body := decode(t, w); body["message"] != "Merchant deactivated successfully" {
		t.Errorf("body = %v", body)
	}

	w = s.do(t, http.MethodGet, "/api/v1/merchants/MRC12345678", "")
	if w.Code != http.StatusOK || decode(t, w)["status"] != "INACTIVE" {
		t.Errorf("after delete: %d %s", w.Code, w.Body)
	}

	if w := s.do(t, http.MethodDelete, "/api/v1/merchants/MRCMISSING0", ""); w.Code != http.StatusNotFound {
		t.Errorf("missing merchant status = %d, want 404", w.Code)
	}
}

func TestPatchStatus(t *testing.T) {
	s := newTestServer(t, nil, services.WithIdentifierGenerator(&fixedIDs{ids: []string{"MRC12345678"}}))
	s.do(t, http.MethodPost, "/api/v1/merchants", validBody)

	w := s.do(t, http.MethodPatch, "/api/v1/merchants/MRC12345678/status", `{"status":"SUSPENDED"}`)
	if w.Code != http.StatusOK || decode(t, w)["status"] != "SUSPENDED" {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}

	w = s.do(t, http.MethodPatch, "/api/v1/merchants/MRC12345678/status", `{"status":"CLOSED"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown status = %d, want 400", w.Code)
	}
}

func TestList(t *testing.T) {
	s := newTestServer(t, nil)
	for _, name := range []string{"Acme Corp", "Other Co", "Acme Two"} {
		body := strings.Replace(validBody, "Acme Corp", name, 1)
		if w := s.do(t, http.MethodPost, "/api/v1/merchants", body); w.Code != http.StatusCreated {
			t.Fatalf("seed %s: %d", name, w.Code)
		}
	}

	w := s.do(t, http.MethodGet, "/api/v1/merchants?search=acme&size=1&page=1&sort=name,asc", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	page := decode(t, w)
	if page["totalElements"] != float64(2) || page["totalPages"] != float64(2) {
		t.Errorf("totals = %v/%v", page["totalElements"], page["totalPages"])
	}
	if page["pageNumber"] != float64(1) || page["pageSize"] != float64(1) {
		t.Errorf("page = %v size = %v", page["pageNumber"], page["pageSize"])
	}
	content := page["content"].([]interface{})
	if len(content) != 1 || content[0].(map[string]interface{})["name"] != "Acme Two" {
		t.Errorf("content = %v", content)
	}
}

func TestList_BadQuery(t *testing.T) {
	s := newTestServer(t, nil)

	for _, q := range []string{"size=abc", "status=GONE", "sort=password"} {
		if w := s.do(t, http.MethodGet, "/api/v1/merchants?"+q, ""); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, w.Code)
		}
	}
}

func TestAuthRequiredWhenConfigured(t *testing.T) {
	tokens := auth.NewJWTService("test-secret", 1)
	s := newTestServer(t, tokens)

	w := s.do(t, http.MethodGet, "/api/v1/merchants", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d", w.Code)
	}
	if body := decode(t, w); body["path"] != "/api/v1/merchants" {
		t.Errorf("body = %v", body)
	}

	token, err := tokens.GenerateToken("ops")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if w := s.do(t, http.MethodGet, "/api/v1/merchants", "", "Authorization", "Bearer "+token); w.Code != http.StatusOK {
		t.Errorf("with token: status = %d", w.Code)
	}

	if w := s.do(t, http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Errorf("health should stay open, got %d", w.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte(`"ok"`)) {
		t.Fatalf("health = %d %s", w.Code, w.Body)
	}

	s.do(t, http.MethodGet, "/api/v1/merchants/MRCNONE0000", "")

	w = s.do(t, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		`merchant_http_requests_total{method="GET",path="/api/v1/merchants/:id",status="404"} 1`,
		`merchant_operations_total{operation="get",outcome="error"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}

func TestPanicBecomesJSON500(t *testing.T) {
	s := newTestServer(t, nil)
	s.router.GET("/explode", func(*gin.Context) { panic("nil map write") })

	w := s.do(t, http.MethodGet, "/explode", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	body := decode(t, w)
	if body["message"] != "internal server error" || body["path"] != "/explode" {
		t.Errorf("body = %v", body)
	}
	if strings.Contains(w.Body.String(), "nil map") {
		t.Errorf("panic value leaked: %s", w.Body)
	}
}

func TestList_HugePageIsEmpty(t *testing.T) {
	s := newTestServer(t, nil)
	if w := s.do(t, http.MethodPost, "/api/v1/merchants", validBody); w.Code != http.StatusCreated {
		t.Fatalf("seed status = %d", w.Code)
	}

	w := s.do(t, http.MethodGet, "/api/v1/merchants?page=92233720368547759&size=100", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	page := decode(t, w)
	if page["totalElements"] != float64(1) || len(page["content"].([]interface{})) != 0 {
		t.Errorf("page = %v", page)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodOptions, "/api/v1/merchants", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}
