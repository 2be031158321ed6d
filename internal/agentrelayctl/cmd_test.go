package agentrelayctl

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRunStatsSucceedsOnWellFormedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stats" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"inflight_sessions": 2,
			"pool": {"idle": 1, "active": 3, "max_idle": 4, "max_active": 8},
			"cache": {"entries": 10, "max_entries": 100}
		}`))
	}))
	defer server.Close()

	if err := runStats(server.URL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunStatsTrimsTrailingSlash(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stats" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"inflight_sessions":0,"pool":{},"cache":{}}`))
	}))
	defer server.Close()

	if err := runStats(server.URL + "/"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunStatsReturnsErrorOnNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer server.Close()

	if err := runStats(server.URL); err == nil {
		t.Fatalf("expected an error for a non-200 response")
	}
}

func TestRunStatsReturnsErrorOnMalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	if err := runStats(server.URL); err == nil {
		t.Fatalf("expected an error for a malformed response body")
	}
}
