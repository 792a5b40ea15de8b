package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/MarcoPoloResearchLab/advocate/backend/internal/store"
)

type recordedRequest struct {
	method string
	path   string
	query  map[string][]string
	header http.Header
	body   map[string]any
}

type requestLog struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (l *requestLog) at(t *testing.T, index int) recordedRequest {
	t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()
	if index >= len(l.requests) {
		t.Fatalf("expected at least %d requests, got %d", index+1, len(l.requests))
	}
	return l.requests[index]
}

func newRecordingServer(t *testing.T, respond func(http.ResponseWriter, *http.Request)) (*httptest.Server, *requestLog) {
	t.Helper()
	log := &requestLog{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorded := recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.Query(),
			header: r.Header.Clone(),
		}
		payload, _ := io.ReadAll(r.Body)
		if len(payload) > 0 {
			_ = json.Unmarshal(payload, &recorded.body)
		}
		log.mu.Lock()
		log.requests = append(log.requests, recorded)
		log.mu.Unlock()
		respond(w, r)
	}))
	t.Cleanup(server.Close)
	return server, log
}

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	client, err := New(Config{BaseURL: server.URL + "/", APIKey: "anon-key", HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	return client
}

type row struct {
	ID     string `json:"id"`
	CaseID string `json:"case_id"`
}

func TestNewRequiresEndpointAndKey(t *testing.T) {
	if _, err := New(Config{APIKey: "key"}); !errors.Is(err, errMissingBaseURL) {
		t.Fatalf("expected missing base url error, got %v", err)
	}
	if _, err := New(Config{BaseURL: "https://example.test"}); !errors.Is(err, errMissingAPIKey) {
		t.Fatalf("expected missing api key error, got %v", err)
	}
}

func TestSelectEncodesFiltersOrderAndLimit(t *testing.T) {
	server, requests := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id":"1","case_id":"CASE001"}]`)
	})
	client := newTestClient(t, server)

	var rows []row
	query := store.From(store.TableCases).Eq("case_id", "CASE001").OrderBy("created_at", true).Take(1)
	if err := client.Select(context.Background(), query, &rows); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if len(rows) != 1 || rows[0].CaseID != "CASE001" {
		t.Fatalf("unexpected rows: %+v", rows)
	}

	recorded := requests.at(t, 0)
	if recorded.method != http.MethodGet || recorded.path != "/rest/v1/cases" {
		t.Fatalf("unexpected request line: %s %s", recorded.method, recorded.path)
	}
	if got := recorded.query["case_id"]; len(got) != 1 || got[0] != "eq.CASE001" {
		t.Fatalf("unexpected filter: %v", got)
	}
	if got := recorded.query["order"]; len(got) != 1 || got[0] != "created_at.desc" {
		t.Fatalf("unexpected order: %v", got)
	}
	if got := recorded.query["limit"]; len(got) != 1 || got[0] != "1" {
		t.Fatalf("unexpected limit: %v", got)
	}
	if recorded.header.Get("apikey") != "anon-key" {
		t.Fatalf("expected apikey header")
	}
	if recorded.header.Get("Authorization") != "Bearer anon-key" {
		t.Fatalf("expected anonymous bearer, got %q", recorded.header.Get("Authorization"))
	}
}

func TestRequestsCarryOperatorToken(t *testing.T) {
	server, requests := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})
	client := newTestClient(t, server)

	ctx := store.WithAccessToken(context.Background(), "operator-token")
	var rows []row
	if err := client.Select(ctx, store.From(store.TableBlogPosts), &rows); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if got := requests.at(t, 0).header.Get("Authorization"); got != "Bearer operator-token" {
		t.Fatalf("expected operator bearer, got %q", got)
	}
}

func TestInsertAndUpdateAskForRepresentation(t *testing.T) {
	server, requests := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `[{"id":"7","case_id":"CASE007"}]`)
	})
	client := newTestClient(t, server)
	ctx := context.Background()

	var inserted []row
	if err := client.Insert(ctx, store.TableCases, map[string]any{"case_id": "CASE007"}, &inserted); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	var updated []row
	query := store.From(store.TableCases).Eq("id", "7")
	if err := client.Update(ctx, query, map[string]any{"progress": 50}, &updated); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if len(inserted) != 1 || len(updated) != 1 {
		t.Fatalf("expected representations, got %d inserted and %d updated", len(inserted), len(updated))
	}

	insertRequest := requests.at(t, 0)
	if insertRequest.method != http.MethodPost || insertRequest.header.Get("Prefer") != "return=representation" {
		t.Fatalf("unexpected insert request: %s prefer=%q", insertRequest.method, insertRequest.header.Get("Prefer"))
	}
	if insertRequest.body["case_id"] != "CASE007" {
		t.Fatalf("unexpected insert body: %v", insertRequest.body)
	}
	updateRequest := requests.at(t, 1)
	if updateRequest.method != http.MethodPatch || updateRequest.query["id"][0] != "eq.7" {
		t.Fatalf("unexpected update request: %s %v", updateRequest.method, updateRequest.query)
	}
}

func TestDeleteCountsReturnedRows(t *testing.T) {
	var calls atomic.Int32
	server, _ := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			_, _ = io.WriteString(w, `[{"id":"42"}]`)
			return
		}
		_, _ = io.WriteString(w, `[]`)
	})
	client := newTestClient(t, server)
	query := store.From(store.TableBlogPosts).Eq("id", "42")

	removed, err := client.Delete(context.Background(), query)
	if err != nil || removed != 1 {
		t.Fatalf("expected one removed row, got %d (%v)", removed, err)
	}
	removed, err = client.Delete(context.Background(), query)
	if err != nil || removed != 0 {
		t.Fatalf("expected no removed rows, got %d (%v)", removed, err)
	}
}

func TestCountReadsContentRange(t *testing.T) {
	server, requests := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Range", "0-24/3573")
		w.WriteHeader(http.StatusOK)
	})
	client := newTestClient(t, server)

	count, err := client.Count(context.Background(), store.TableContactInquiries)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 3573 {
		t.Fatalf("expected 3573, got %d", count)
	}
	recorded := requests.at(t, 0)
	if recorded.method != http.MethodHead || recorded.header.Get("Prefer") != "count=exact" {
		t.Fatalf("unexpected count request: %s prefer=%q", recorded.method, recorded.header.Get("Prefer"))
	}
}

func TestParseContentRangeTotal(t *testing.T) {
	testCases := []struct {
		header  string
		want    int64
		wantErr bool
	}{
		{header: "*/0", want: 0},
		{header: "0-9/10", want: 10},
		{header: "0-9/*", wantErr: true},
		{header: "", wantErr: true},
		{header: "0-9/ten", wantErr: true},
	}
	for _, testCase := range testCases {
		got, err := parseContentRangeTotal(testCase.header)
		if testCase.wantErr {
			if err == nil {
				t.Fatalf("expected error for %q", testCase.header)
			}
			continue
		}
		if err != nil || got != testCase.want {
			t.Fatalf("header %q: got %d (%v), want %d", testCase.header, got, err, testCase.want)
		}
	}
}

func TestErrorResponsesBecomeAPIErrors(t *testing.T) {
	server, _ := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"code":"42703","message":"column cases.nope does not exist"}`)
	})
	client := newTestClient(t, server)

	var rows []row
	err := client.Select(context.Background(), store.From(store.TableCases).Eq("nope", "x"), &rows)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Code != "42703" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
}
