package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MarcoPoloResearchLab/advocate/backend/internal/records"
	"github.com/gin-gonic/gin"
)

func (e *testEnvironment) sendJSON(method, path, payload string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, path, strings.NewReader(payload))
	request.Header.Set("Content-Type", "application/json")
	return e.serve(request, cookies...)
}

func decodeErrorBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode error body %q: %v", recorder.Body.String(), err)
	}
	return body
}

func TestAPICaseLookup(t *testing.T) {
	env := newTestEnvironment(t)
	seedCase(t, env.records, "CASE001")

	found := env.get("/api/v1/cases/case001")
	if found.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", found.Code)
	}
	var payload records.Case
	if err := json.Unmarshal(found.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode case: %v", err)
	}
	if payload.CaseID != "CASE001" || payload.Progress != 25 {
		t.Fatalf("unexpected case payload: %+v", payload)
	}

	missing := env.get("/api/v1/cases/CASE404")
	if missing.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", missing.Code)
	}
	if body := decodeErrorBody(t, missing); body["error"] != apiErrorNotFound {
		t.Fatalf("unexpected error body: %v", body)
	}
}

func TestAPIStoreFailureCarriesServiceCode(t *testing.T) {
	env := buildTestEnvironment(t, environmentOptions{store: unavailableStore{}})

	recorder := env.get("/api/v1/blog")
	if recorder.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", recorder.Code)
	}
	body := decodeErrorBody(t, recorder)
	if body["error"] != apiErrorStoreFailed || body["code"] != "records.list_blog_posts.query_failed" {
		t.Fatalf("unexpected error body: %v", body)
	}
}

func TestAPIDegradedModeServesEmptyResults(t *testing.T) {
	env := buildTestEnvironment(t, environmentOptions{degraded: true})

	recorder := env.get("/api/v1/blog")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	if strings.TrimSpace(recorder.Body.String()) != `{"posts":[]}` {
		t.Fatalf("expected empty post list, got %s", recorder.Body.String())
	}
}

func TestAPIPublicSubmissions(t *testing.T) {
	env := newTestEnvironment(t)

	created := env.sendJSON(http.MethodPost, "/api/v1/trademarks", `{
		"companyName": "Acme Pvt Ltd",
		"brandName": "Acme",
		"category": "retail",
		"email": "legal@acme.test",
		"phone": "+91 90000 00000",
		"description": "Apparel"
	}`)
	if created.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", created.Code, created.Body.String())
	}

	incomplete := env.sendJSON(http.MethodPost, "/api/v1/inquiries", `{"name": "Ravi"}`)
	if incomplete.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", incomplete.Code)
	}

	applications, err := env.records.ListTrademarkApplications(context.Background())
	if err != nil || len(applications) != 1 {
		t.Fatalf("expected one stored application: %v", err)
	}
}

func TestAPIBlankSubmissionFieldsAreInvalidRequests(t *testing.T) {
	env := newTestEnvironment(t)

	inquiry := env.sendJSON(http.MethodPost, "/api/v1/inquiries", `{"name": "   ", "email": "ravi@example.test", "message": "Lease"}`)
	if inquiry.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", inquiry.Code)
	}
	if body := decodeErrorBody(t, inquiry); body["error"] != apiErrorInvalidRequest {
		t.Fatalf("unexpected error body: %v", body)
	}

	trademark := env.sendJSON(http.MethodPost, "/api/v1/trademarks", `{
		"companyName": "Acme Pvt Ltd",
		"brandName": "  ",
		"category": "retail",
		"email": "legal@acme.test",
		"phone": "+91 90000 00000",
		"description": "Apparel"
	}`)
	if trademark.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", trademark.Code)
	}
	if body := decodeErrorBody(t, trademark); body["error"] != apiErrorInvalidRequest {
		t.Fatalf("unexpected error body: %v", body)
	}
}

func TestAPIAdminRequiresSession(t *testing.T) {
	env := newTestEnvironment(t)

	recorder := env.get("/api/v1/admin/cases")
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
	if body := decodeErrorBody(t, recorder); body["error"] != apiErrorUnauthorized {
		t.Fatalf("unexpected error body: %v", body)
	}
}

func TestAPIAdminCaseLifecycle(t *testing.T) {
	env := newTestEnvironment(t)
	cookie := env.signIn(t)

	created := env.sendJSON(http.MethodPost, "/api/v1/admin/cases", `{"case_id": "case002", "client_name": "Arjun Rao", "case_type": "Criminal"}`, cookie)
	if created.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", created.Code, created.Body.String())
	}
	var createdBody struct {
		Cases []records.Case `json:"cases"`
	}
	if err := json.Unmarshal(created.Body.Bytes(), &createdBody); err != nil || len(createdBody.Cases) != 1 {
		t.Fatalf("failed to decode created case: %v", err)
	}
	if createdBody.Cases[0].CaseID != "CASE002" || createdBody.Cases[0].Status != records.CaseStatusPending {
		t.Fatalf("unexpected created case: %+v", createdBody.Cases[0])
	}

	blank := env.sendJSON(http.MethodPost, "/api/v1/admin/cases", `{"case_id": "  ", "client_name": "Arjun Rao"}`, cookie)
	if blank.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", blank.Code)
	}
	if body := decodeErrorBody(t, blank); body["code"] != "records.create_case.missing_fields" {
		t.Fatalf("unexpected error body: %v", body)
	}

	updated := env.sendJSON(http.MethodPatch, "/api/v1/admin/cases/"+createdBody.Cases[0].ID, `{"progress": 140}`, cookie)
	if updated.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", updated.Code)
	}
	stored, _, err := env.records.CaseByTrackingCode(context.Background(), "CASE002")
	if err != nil || stored.Progress != 100 {
		t.Fatalf("expected clamped progress, got %+v (%v)", stored, err)
	}

	unknown := env.sendJSON(http.MethodPatch, "/api/v1/admin/cases/no-such-id", `{"status": "Completed"}`, cookie)
	if unknown.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", unknown.Code)
	}

	stats := env.get("/api/v1/admin/stats", cookie)
	if !strings.Contains(stats.Body.String(), `"totalCases":1`) {
		t.Fatalf("unexpected stats: %s", stats.Body.String())
	}
}

func TestAPIAdminDeletePostTwice(t *testing.T) {
	env := newTestEnvironment(t)
	cookie := env.signIn(t)

	created, err := env.records.CreateBlogPost(context.Background(), records.BlogPostFields{Title: "Appeals"})
	if err != nil {
		t.Fatalf("failed to create post: %v", err)
	}
	path := "/api/v1/admin/blog/" + created[0].ID

	if first := env.sendJSON(http.MethodDelete, path, "", cookie); first.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", first.Code)
	}
	if second := env.sendJSON(http.MethodDelete, path, "", cookie); second.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", second.Code)
	}
}

func TestAPICORSPreflight(t *testing.T) {
	env := newTestEnvironment(t)

	request := httptest.NewRequest(http.MethodOptions, "/api/v1/inquiries", http.NoBody)
	request.Header.Set("Origin", "https://advocate.example.com")
	request.Header.Set("Access-Control-Request-Method", http.MethodPost)
	request.Header.Set("Access-Control-Request-Headers", "Content-Type")
	recorder := env.serve(request)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, recorder.Code)
	}
	if origin := recorder.Header().Get("Access-Control-Allow-Origin"); origin != "https://advocate.example.com" {
		t.Fatalf("unexpected allowed origin %q", origin)
	}
	if recorder.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatal("expected credentials to be enabled")
	}

	foreign := httptest.NewRequest(http.MethodOptions, "/api/v1/inquiries", http.NoBody)
	foreign.Header.Set("Origin", "https://elsewhere.example.org")
	foreign.Header.Set("Access-Control-Request-Method", http.MethodPost)
	if rejected := env.serve(foreign); rejected.Code != http.StatusForbidden {
		t.Fatalf("expected foreign origin to be refused, got %d", rejected.Code)
	}
}

func TestAPICORSWildcardWithholdsCredentials(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(corsMiddleware([]string{"*"}))
	router.GET("/api/v1/admin/cases", func(c *gin.Context) { c.Status(http.StatusOK) })

	request := httptest.NewRequest(http.MethodGet, "/api/v1/admin/cases", http.NoBody)
	request.Header.Set("Origin", "https://attacker.example.net")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	if origin := recorder.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Fatalf("expected wildcard origin, got %q", origin)
	}
	if credentials := recorder.Header().Get("Access-Control-Allow-Credentials"); credentials != "" {
		t.Fatalf("expected credentials to be withheld, got %q", credentials)
	}

	unset := gin.New()
	unset.Use(corsMiddleware(nil))
	unset.GET("/api/v1/admin/cases", func(c *gin.Context) { c.Status(http.StatusOK) })
	recorder = httptest.NewRecorder()
	unset.ServeHTTP(recorder, request.Clone(request.Context()))
	if recorder.Header().Get("Access-Control-Allow-Credentials") != "" {
		t.Fatal("expected credentials to be withheld without an origin list")
	}
}
