package server_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"sitewatch/internal/server"
	"sitewatch/internal/store"
	"sitewatch/internal/testutil"
)

func newTestServer(t *testing.T) (*server.Server, *testutil.MemStore) {
	t.Helper()

	st := testutil.NewMemStore()
	s, err := server.NewServer(server.Config{
		ListenAddr: ":0",
		Store:      st,
		Logger:     &testutil.DummyLogger{},
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s, st
}

func doJSON(t *testing.T, s http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON response: %v (body: %s)", err, rec.Body.String())
	}
}

// createWebsite creates a website through the API and returns its id.
func createWebsite(t *testing.T, s http.Handler, body string) string {
	t.Helper()
	rec := doJSON(t, s, "POST", "/api/websites", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create website: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var web map[string]any
	decodeJSON(t, rec, &web)
	id, _ := web["id"].(string)
	if id == "" {
		t.Fatal("create website: empty id")
	}
	return id
}

// ─── CORS & liveness ───────────────────────────────────────────────────

func TestServer_CORS_HeaderPresent(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "GET", "/api/websites", "")

	if origin := rec.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Errorf("expected CORS origin *, got %q", origin)
	}
}

func TestServer_Root(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "GET", "/", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	decodeJSON(t, rec, &body)
	if body["message"] != "Website Monitoring API running" {
		t.Errorf("unexpected liveness message: %q", body["message"])
	}
}

func TestServer_OptionsPreflight(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "OPTIONS", "/api/categories", "")

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if methods := rec.Header().Get("Access-Control-Allow-Methods"); methods == "" {
		t.Error("expected Access-Control-Allow-Methods header")
	}
}

// ─── Categories ────────────────────────────────────────────────────────

func TestServer_CreateCategory(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "POST", "/api/categories", `{"name":"News"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var cat map[string]any
	decodeJSON(t, rec, &cat)
	if id, _ := cat["id"].(string); id == "" {
		t.Error("expected a non-empty id")
	}
	if cat["name"] != "News" {
		t.Errorf("expected name News, got %v", cat["name"])
	}
	if cat["color"] != nil {
		t.Errorf("expected color null, got %v", cat["color"])
	}
}

func TestServer_CreateCategory_NameTooShort(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "POST", "/api/categories", `{"name":"N"}`)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rec.Code)
	}
}

func TestServer_CreateCategory_InvalidJSON(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "POST", "/api/categories", `{invalid}`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestServer_ListCategories_SortedAndIdempotent(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	doJSON(t, s, "POST", "/api/categories", `{"name":"Zulu"}`)
	doJSON(t, s, "POST", "/api/categories", `{"name":"Alpha"}`)
	doJSON(t, s, "POST", "/api/categories", `{"name":"Mike"}`)

	first := doJSON(t, s, "GET", "/api/categories", "")
	second := doJSON(t, s, "GET", "/api/categories", "")

	if first.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", first.Code)
	}
	firstBody := first.Body.String()
	var cats []map[string]any
	decodeJSON(t, first, &cats)

	want := []string{"Alpha", "Mike", "Zulu"}
	if len(cats) != len(want) {
		t.Fatalf("expected %d categories, got %d", len(want), len(cats))
	}
	for i, name := range want {
		if cats[i]["name"] != name {
			t.Errorf("position %d: expected %q, got %v", i, name, cats[i]["name"])
		}
	}

	if firstBody != second.Body.String() {
		t.Error("expected identical results from repeated listing")
	}
}

func TestServer_ListCategories_Empty(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "GET", "/api/categories", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("expected empty array, got %s", body)
	}
}

// ─── Websites ──────────────────────────────────────────────────────────

func TestServer_CreateWebsite_Defaults(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "POST", "/api/websites", `{"name":"Example","url":"https://example.com"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var web map[string]any
	decodeJSON(t, rec, &web)
	if web["interval_seconds"] != float64(300) {
		t.Errorf("expected default interval 300, got %v", web["interval_seconds"])
	}
	if web["is_active"] != true {
		t.Errorf("expected default is_active=true, got %v", web["is_active"])
	}
	if kws, ok := web["keywords"].([]any); !ok || len(kws) != 0 {
		t.Errorf("expected empty keywords array, got %v", web["keywords"])
	}
	if web["category_id"] != nil {
		t.Errorf("expected category_id null, got %v", web["category_id"])
	}
}

func TestServer_CreateWebsite_MalformedURL(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "POST", "/api/websites", `{"name":"Example","url":"not a url"}`)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rec.Code)
	}
}

func TestServer_CreateWebsite_IntervalBoundaries(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	cases := []struct {
		interval int
		wantCode int
	}{
		{29, http.StatusUnprocessableEntity},
		{30, http.StatusCreated},
		{86400, http.StatusCreated},
		{86401, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		body := fmt.Sprintf(`{"name":"Example","url":"https://example.com","interval_seconds":%d}`, tc.interval)
		rec := doJSON(t, s, "POST", "/api/websites", body)
		if rec.Code != tc.wantCode {
			t.Errorf("interval %d: expected %d, got %d", tc.interval, tc.wantCode, rec.Code)
		}
	}
}

func TestServer_GetWebsite(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	id := createWebsite(t, s, `{"name":"Example","url":"https://example.com"}`)

	rec := doJSON(t, s, "GET", "/api/websites/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var web map[string]any
	decodeJSON(t, rec, &web)
	if web["id"] != id {
		t.Errorf("expected id %q, got %v", id, web["id"])
	}
}

func TestServer_GetWebsite_NotFound(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "GET", "/api/websites/"+primitive.NewObjectID().Hex(), "")

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestServer_GetWebsite_MalformedID(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "GET", "/api/websites/not-an-id", "")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

// ─── Checks ────────────────────────────────────────────────────────────

func TestServer_RunCheck_Up(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "Welcome to Example")
	}))
	defer target.Close()

	body := fmt.Sprintf(`{"name":"Example","url":%q,"keywords":["Welcome"]}`, target.URL)
	id := createWebsite(t, s, body)

	rec := doJSON(t, s, "POST", "/api/check/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Result map[string]any `json:"result"`
	}
	decodeJSON(t, rec, &resp)

	if resp.Result["is_up"] != true {
		t.Error("expected is_up=true")
	}
	if resp.Result["status_code"] != float64(200) {
		t.Errorf("expected status_code 200, got %v", resp.Result["status_code"])
	}
	matches, _ := resp.Result["keyword_matches"].([]any)
	if len(matches) != 1 || matches[0] != "Welcome" {
		t.Errorf("expected keyword_matches [Welcome], got %v", resp.Result["keyword_matches"])
	}
	if resp.Result["error"] != nil {
		t.Errorf("expected error null, got %v", resp.Result["error"])
	}
	if resp.Result["website_id"] != id {
		t.Errorf("expected website_id %q, got %v", id, resp.Result["website_id"])
	}
}

func TestServer_RunCheck_ConnectionRefused(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := target.URL
	target.Close()

	body := fmt.Sprintf(`{"name":"Example","url":%q,"keywords":["Welcome"]}`, url)
	id := createWebsite(t, s, body)

	rec := doJSON(t, s, "POST", "/api/check/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Result map[string]any `json:"result"`
	}
	decodeJSON(t, rec, &resp)

	if resp.Result["is_up"] != false {
		t.Error("expected is_up=false")
	}
	if resp.Result["status_code"] != nil {
		t.Errorf("expected status_code null, got %v", resp.Result["status_code"])
	}
	if resp.Result["error"] == nil {
		t.Error("expected error to be set")
	}
	matches, _ := resp.Result["keyword_matches"].([]any)
	if len(matches) != 0 {
		t.Errorf("expected no keyword matches, got %v", matches)
	}
}

func TestServer_RunCheck_WebsiteNotFound(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "POST", "/api/check/"+primitive.NewObjectID().Hex(), "")

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestServer_RunCheck_MalformedID(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "POST", "/api/check/xyz", "")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestServer_LatestChecks_LimitAndOrder(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	}))
	defer target.Close()

	id := createWebsite(t, s, fmt.Sprintf(`{"name":"Example","url":%q}`, target.URL))

	doJSON(t, s, "POST", "/api/check/"+id, "")
	second := doJSON(t, s, "POST", "/api/check/"+id, "")

	var secondResp struct {
		Result map[string]any `json:"result"`
	}
	decodeJSON(t, second, &secondResp)

	rec := doJSON(t, s, "GET", "/api/checks/latest?limit=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var results []map[string]any
	decodeJSON(t, rec, &results)
	if len(results) != 1 {
		t.Fatalf("expected exactly 1 result, got %d", len(results))
	}
	if results[0]["id"] != secondResp.Result["id"] {
		t.Errorf("expected most recent check %v, got %v", secondResp.Result["id"], results[0]["id"])
	}
}

func TestServer_LatestChecks_FilterByWebsite(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	}))
	defer target.Close()

	id1 := createWebsite(t, s, fmt.Sprintf(`{"name":"One","url":%q}`, target.URL))
	id2 := createWebsite(t, s, fmt.Sprintf(`{"name":"Two","url":%q}`, target.URL))

	doJSON(t, s, "POST", "/api/check/"+id1, "")
	doJSON(t, s, "POST", "/api/check/"+id2, "")
	doJSON(t, s, "POST", "/api/check/"+id2, "")

	rec := doJSON(t, s, "GET", "/api/checks/latest?website_id="+id2, "")
	var results []map[string]any
	decodeJSON(t, rec, &results)
	if len(results) != 2 {
		t.Fatalf("expected 2 results for website %s, got %d", id2, len(results))
	}
	for _, r := range results {
		if r["website_id"] != id2 {
			t.Errorf("expected website_id %q, got %v", id2, r["website_id"])
		}
	}
}

// ─── Summary ───────────────────────────────────────────────────────────

func TestServer_Summary(t *testing.T) {
	t.Parallel()
	s, st := newTestServer(t)

	doJSON(t, s, "POST", "/api/categories", `{"name":"News"}`)
	createWebsite(t, s, `{"name":"Example","url":"https://example.com"}`)

	insertCheck := func(up bool, rt *int) {
		t.Helper()
		errMsg := "refused"
		r := &store.CheckResult{WebsiteID: "w1", IsUp: up, ResponseTimeMS: rt, KeywordMatches: []string{}}
		if !up {
			r.Error = &errMsg
		}
		if err := st.InsertCheckResult(context.Background(), r); err != nil {
			t.Fatalf("InsertCheckResult: %v", err)
		}
	}
	rt1, rt2 := 100, 200
	insertCheck(true, &rt1)
	insertCheck(true, &rt2)
	insertCheck(false, nil)

	rec := doJSON(t, s, "GET", "/api/summary", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var sum map[string]any
	decodeJSON(t, rec, &sum)
	if sum["total_sites"] != float64(1) {
		t.Errorf("expected total_sites 1, got %v", sum["total_sites"])
	}
	if sum["total_categories"] != float64(1) {
		t.Errorf("expected total_categories 1, got %v", sum["total_categories"])
	}
	if sum["up"] != float64(2) {
		t.Errorf("expected up 2, got %v", sum["up"])
	}
	if sum["down"] != float64(1) {
		t.Errorf("expected down 1, got %v", sum["down"])
	}
	if sum["avg_response_time_ms"] != float64(150) {
		t.Errorf("expected avg_response_time_ms 150, got %v", sum["avg_response_time_ms"])
	}
	if sum["recent_checks"] != float64(3) {
		t.Errorf("expected recent_checks 3, got %v", sum["recent_checks"])
	}
}

func TestServer_Summary_NoResponseTimes(t *testing.T) {
	t.Parallel()
	s, st := newTestServer(t)

	errMsg := "refused"
	r := &store.CheckResult{WebsiteID: "w1", IsUp: false, Error: &errMsg, KeywordMatches: []string{}}
	if err := st.InsertCheckResult(context.Background(), r); err != nil {
		t.Fatalf("InsertCheckResult: %v", err)
	}

	rec := doJSON(t, s, "GET", "/api/summary", "")
	var sum map[string]any
	decodeJSON(t, rec, &sum)
	if sum["avg_response_time_ms"] != nil {
		t.Errorf("expected avg_response_time_ms null, got %v", sum["avg_response_time_ms"])
	}
}

// ─── Diagnostics ───────────────────────────────────────────────────────

func TestServer_Diagnostics(t *testing.T) {
	t.Parallel()

	st := testutil.NewMemStore()
	s, err := server.NewServer(server.Config{
		ListenAddr:      ":0",
		Store:           st,
		Logger:          &testutil.DummyLogger{},
		DatabaseURLSet:  true,
		DatabaseNameSet: false,
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	rec := doJSON(t, s, "GET", "/test", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var diag map[string]any
	decodeJSON(t, rec, &diag)
	if diag["connection_status"] != "connected" {
		t.Errorf("expected connection_status connected, got %v", diag["connection_status"])
	}
	if diag["database_url"] != "set" {
		t.Errorf("expected database_url set, got %v", diag["database_url"])
	}
	if diag["database_name"] != "not set" {
		t.Errorf("expected database_name not set, got %v", diag["database_name"])
	}
	cols, _ := diag["collections"].([]any)
	if len(cols) == 0 || len(cols) > 10 {
		t.Errorf("expected 1-10 collection names, got %v", diag["collections"])
	}
}
