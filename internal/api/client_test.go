package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rickgao/dao-risk/internal/model"
)

// TestNewClient tests client construction with various options.
func TestNewClient(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := NewClient("hub", "https://hub.example.com/graphql")

		if c.Name() != "hub" {
			t.Errorf("Name() = %q, want %q", c.Name(), "hub")
		}
		if c.baseURL != "https://hub.example.com/graphql" {
			t.Errorf("baseURL = %q, want %q", c.baseURL, "https://hub.example.com/graphql")
		}
		if c.apiKey != "" {
			t.Errorf("apiKey = %q, want empty", c.apiKey)
		}
		if c.httpClient.Timeout != 30*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 30*time.Second)
		}
		if c.maxRetries != 3 {
			t.Errorf("maxRetries = %d, want %d", c.maxRetries, 3)
		}
		if c.retryBackoff != time.Second {
			t.Errorf("retryBackoff = %v, want %v", c.retryBackoff, time.Second)
		}
		if !strings.HasPrefix(c.userAgent, "dao-risk/") {
			t.Errorf("userAgent = %q, want dao-risk/ prefix", c.userAgent)
		}
	})

	t.Run("with multiple options", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		hc := &http.Client{Timeout: 10 * time.Second}
		c := NewClient("hub", "https://hub.example.com",
			WithHTTPClient(hc),
			WithTimeout(15*time.Second),
			WithRetries(10, 500*time.Millisecond),
			WithLogger(logger),
			WithAPIKey("key"),
		)
		if c.httpClient != hc {
			t.Error("custom HTTP client not set")
		}
		if c.httpClient.Timeout != 15*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 15*time.Second)
		}
		if c.maxRetries != 10 {
			t.Errorf("maxRetries = %d, want %d", c.maxRetries, 10)
		}
		if c.retryBackoff != 500*time.Millisecond {
			t.Errorf("retryBackoff = %v, want %v", c.retryBackoff, 500*time.Millisecond)
		}
		if c.logger != logger {
			t.Error("logger not set correctly")
		}
		if c.apiKey != "key" {
			t.Errorf("apiKey = %q, want %q", c.apiKey, "key")
		}
	})
}

// TestAPIError tests the APIError type.
func TestAPIError(t *testing.T) {
	err := &APIError{Provider: "treasury", StatusCode: 404, Message: "Not Found"}
	if got, want := err.Error(), "treasury api error 404: Not Found"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	tests := []struct {
		code     int
		expected bool
	}{
		{500, true},
		{502, true},
		{503, true},
		{429, true},
		{400, false},
		{401, false},
		{404, false},
		{499, false},
	}
	for _, tt := range tests {
		err := &APIError{StatusCode: tt.code}
		if got := err.IsRetryable(); got != tt.expected {
			t.Errorf("IsRetryable() for status %d = %v, want %v", tt.code, got, tt.expected)
		}
	}
}

// TestDoRequest tests the HTTP request functionality.
func TestDoRequest(t *testing.T) {
	t.Run("headers and body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Accept") != "application/json" {
				t.Errorf("Accept header = %q, want %q", r.Header.Get("Accept"), "application/json")
			}
			if r.Header.Get("x-api-key") != "test-key" {
				t.Errorf("x-api-key header = %q, want %q", r.Header.Get("x-api-key"), "test-key")
			}
			if r.Header.Get("Content-Type") != "application/json" {
				t.Errorf("Content-Type = %q, want %q", r.Header.Get("Content-Type"), "application/json")
			}
			body, _ := io.ReadAll(r.Body)
			if string(body) != `{"a":1}` {
				t.Errorf("body = %q, want %q", body, `{"a":1}`)
			}
			w.Write([]byte(`{"status": "ok"}`))
		}))
		defer server.Close()

		c := NewClient("hub", server.URL, WithAPIKey("test-key"))
		body, err := c.doRequest(context.Background(), http.MethodPost, "", nil, []byte(`{"a":1}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(body) != `{"status": "ok"}` {
			t.Errorf("body = %q, want %q", string(body), `{"status": "ok"}`)
		}
	})

	t.Run("no api key and no body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("x-api-key") != "" {
				t.Errorf("x-api-key should be empty, got %q", r.Header.Get("x-api-key"))
			}
			if r.Header.Get("Content-Type") != "" {
				t.Errorf("Content-Type should be empty, got %q", r.Header.Get("Content-Type"))
			}
			if r.URL.Query().Get("limit") != "10" {
				t.Errorf("limit = %q, want %q", r.URL.Query().Get("limit"), "10")
			}
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		c := NewClient("treasury", server.URL)
		_, err := c.doRequest(context.Background(), http.MethodGet, "/x", map[string][]string{"limit": {"10"}}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("4xx error returns APIError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error": "not found"}`))
		}))
		defer server.Close()

		c := NewClient("treasury", server.URL)
		_, err := c.doRequest(context.Background(), http.MethodGet, "/x", nil, nil)

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected *APIError, got %T", err)
		}
		if apiErr.StatusCode != 404 {
			t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, 404)
		}
		if apiErr.Provider != "treasury" {
			t.Errorf("Provider = %q, want %q", apiErr.Provider, "treasury")
		}
		if !strings.Contains(string(apiErr.Body), "not found") {
			t.Errorf("Body should contain 'not found', got %q", string(apiErr.Body))
		}
	})

	t.Run("context cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
		}))
		defer server.Close()

		c := NewClient("hub", server.URL)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := c.doRequest(ctx, http.MethodGet, "", nil, nil)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !strings.Contains(err.Error(), "context canceled") {
			t.Errorf("error should contain 'context canceled', got %v", err)
		}
	})
}

// TestDoWithRetry tests the retry logic.
func TestDoWithRetry(t *testing.T) {
	t.Run("retries on 5xx then succeeds", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&attempts, 1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte(`{"ok": true}`))
		}))
		defer server.Close()

		c := NewClient("hub", server.URL, WithRetries(3, 10*time.Millisecond))
		body, err := c.doWithRetry(context.Background(), http.MethodGet, "", nil, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(body) != `{"ok": true}` {
			t.Errorf("body = %q, want %q", string(body), `{"ok": true}`)
		}
		if got := atomic.LoadInt32(&attempts); got != 3 {
			t.Errorf("attempts = %d, want 3", got)
		}
	})

	t.Run("does not retry 4xx", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&attempts, 1)
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		c := NewClient("hub", server.URL, WithRetries(3, 10*time.Millisecond))
		if _, err := c.doWithRetry(context.Background(), http.MethodGet, "", nil, nil); err == nil {
			t.Fatal("expected error, got nil")
		}
		if got := atomic.LoadInt32(&attempts); got != 1 {
			t.Errorf("attempts = %d, want 1", got)
		}
	})

	t.Run("max retries exceeded", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&attempts, 1)
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		c := NewClient("hub", server.URL, WithRetries(2, time.Millisecond))
		_, err := c.doWithRetry(context.Background(), http.MethodGet, "", nil, nil)
		if err == nil || !strings.Contains(err.Error(), "max retries exceeded") {
			t.Fatalf("error = %v, want max retries exceeded", err)
		}
		if got := atomic.LoadInt32(&attempts); got != 3 {
			t.Errorf("attempts = %d, want 3", got)
		}
	})
}

func TestRetryAfter(t *testing.T) {
	t.Run("parse", func(t *testing.T) {
		tests := []struct {
			header string
			want   time.Duration
		}{
			{"", 0},
			{"3", 3 * time.Second},
			{"-1", 0},
			{"Wed, 21 Oct 2015 07:28:00 GMT", 0},
		}
		for _, tt := range tests {
			if got := parseRetryAfter(tt.header); got != tt.want {
				t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.header, got, tt.want)
			}
		}
	})

	t.Run("recorded on APIError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		c := NewClient("hub", server.URL)
		_, err := c.doRequest(context.Background(), http.MethodGet, "", nil, nil)

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected *APIError, got %T", err)
		}
		if apiErr.RetryAfter != 7*time.Second {
			t.Errorf("RetryAfter = %v, want 7s", apiErr.RetryAfter)
		}
	})
}

func TestBackoff(t *testing.T) {
	c := NewClient("hub", "http://unused", WithRetries(5, 100*time.Millisecond))

	for attempt := 1; attempt <= 3; attempt++ {
		base := 100 * time.Millisecond << (attempt - 1)
		for i := 0; i < 20; i++ {
			got := c.backoff(attempt, errors.New("boom"))
			if got < base/2 || got >= base/2+base {
				t.Fatalf("attempt %d: backoff %v outside [%v, %v)", attempt, got, base/2, base/2+base)
			}
		}
	}

	rateLimited := &APIError{StatusCode: 429, RetryAfter: 10 * time.Second}
	if got := c.backoff(1, rateLimited); got != 10*time.Second {
		t.Errorf("backoff with Retry-After = %v, want 10s", got)
	}

	huge := &APIError{StatusCode: 429, RetryAfter: time.Hour}
	if got := c.backoff(1, huge); got != maxBackoff {
		t.Errorf("backoff = %v, want cap %v", got, maxBackoff)
	}

	if got := c.backoff(80, nil); got > maxBackoff {
		t.Errorf("backoff after overflow = %v, want <= %v", got, maxBackoff)
	}
}

func TestUserAgent(t *testing.T) {
	var got atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.Header.Get("User-Agent"))
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := NewClient("treasury", server.URL+"/", WithUserAgent("risk-bot/1"))
	if _, err := c.doRequest(context.Background(), http.MethodGet, "/x", nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Load() != "risk-bot/1" {
		t.Errorf("User-Agent = %v, want risk-bot/1", got.Load())
	}
	if c.baseURL != server.URL {
		t.Errorf("baseURL = %q, want trailing slash trimmed", c.baseURL)
	}
}

// hubServer answers GraphQL requests with respond and records the last
// request variables.
func hubServer(t *testing.T, respond func(req graphQLRequest) any) (*httptest.Server, *atomic.Value) {
	t.Helper()
	var last atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var req graphQLRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		last.Store(req)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(respond(req))
	}))
	t.Cleanup(server.Close)
	return server, &last
}

func TestHubSource_FetchProposals(t *testing.T) {
	server, last := hubServer(t, func(req graphQLRequest) any {
		return map[string]any{
			"data": map[string]any{
				"proposals": []map[string]any{
					{
						"id": "0x1", "title": "Fund grants", "author": "0xa", "state": "closed",
						"choices": []string{"For", "Against"}, "scores": []float64{100, 5},
						"scores_total": 105, "start": 1700000000, "end": 1700600000,
						"created": 1699990000, "space": map[string]string{"id": "ens.eth"},
					},
					{
						"id": "0x2", "title": "Upgrade", "author": "0xb", "state": "active",
						"choices": []string{"Yes", "No"}, "scores": []float64{0, 0},
						"scores_total": 0, "start": 1700100000, "end": 1700700000,
						"created": 1700000000, "space": map[string]string{"id": "ens.eth"},
					},
				},
			},
		}
	})

	src := NewHubSource(NewClient("hub", server.URL), "ens.eth", 50)
	page, err := src.FetchProposals(context.Background(), "1699000000")
	if err != nil {
		t.Fatalf("FetchProposals failed: %v", err)
	}

	req := last.Load().(graphQLRequest)
	if !strings.Contains(req.Query, "created_gt: $createdGt") {
		t.Errorf("query missing created_gt filter: %s", req.Query)
	}
	if req.Variables["space"] != "ens.eth" {
		t.Errorf("space = %v, want ens.eth", req.Variables["space"])
	}
	if req.Variables["first"] != float64(50) {
		t.Errorf("first = %v, want 50", req.Variables["first"])
	}
	if req.Variables["createdGt"] != float64(1699000000) {
		t.Errorf("createdGt = %v, want 1699000000", req.Variables["createdGt"])
	}

	if len(page.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(page.Items))
	}
	if page.NextCursor != model.NoCursor {
		t.Errorf("NextCursor = %q, want empty", page.NextCursor)
	}
	p := page.Items[0]
	if p.ID != "0x1" || p.Space != "ens.eth" || p.State != model.StateClosed || p.Created != 1699990000 {
		t.Errorf("unexpected proposal: %+v", p)
	}
	if len(p.Scores) != 2 || p.Scores[0] != 100 {
		t.Errorf("Scores = %v, want [100 5]", p.Scores)
	}
	if !page.Items[1].IsOpen() {
		t.Error("second proposal should be open")
	}
}

func TestHubSource_FetchVotes(t *testing.T) {
	server, last := hubServer(t, func(req graphQLRequest) any {
		return map[string]any{
			"data": map[string]any{
				"votes": []map[string]any{
					{
						"id": "v1", "voter": "0xv", "created": 1700000100, "choice": []int{1, 2},
						"vp": 12.5, "reason": "", "proposal": map[string]string{"id": "0x1"},
						"space": map[string]string{"id": "ens.eth"},
					},
				},
			},
		}
	})

	src := NewHubSource(NewClient("hub", server.URL), "ens.eth", 0)
	page, err := src.FetchVotes(context.Background(), model.NoCursor)
	if err != nil {
		t.Fatalf("FetchVotes failed: %v", err)
	}

	req := last.Load().(graphQLRequest)
	if req.Variables["createdGt"] != float64(0) {
		t.Errorf("createdGt = %v, want 0 for empty cursor", req.Variables["createdGt"])
	}
	if req.Variables["first"] != float64(1000) {
		t.Errorf("first = %v, want default 1000", req.Variables["first"])
	}

	if len(page.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(page.Items))
	}
	v := page.Items[0]
	if v.ProposalID != "0x1" || v.VotingPower != 12.5 || string(v.Choice) != "[1,2]" {
		t.Errorf("unexpected vote: %+v", v)
	}
}

func TestHubSource_GraphQLError(t *testing.T) {
	server, _ := hubServer(t, func(req graphQLRequest) any {
		return map[string]any{
			"errors": []map[string]string{{"message": "too many requests"}, {"message": "try later"}},
		}
	})

	src := NewHubSource(NewClient("hub", server.URL), "ens.eth", 10)
	_, err := src.FetchProposals(context.Background(), model.NoCursor)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "too many requests; try later") {
		t.Errorf("error = %v, want joined graphql messages", err)
	}
}

func TestHubSource_InvalidCursor(t *testing.T) {
	var called atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Store(true)
	}))
	defer server.Close()

	src := NewHubSource(NewClient("hub", server.URL), "ens.eth", 10)
	if _, err := src.FetchVotes(context.Background(), "not-a-timestamp"); err == nil {
		t.Fatal("expected error for non-numeric cursor")
	}
	if called.Load() {
		t.Error("server should not be called with an invalid cursor")
	}
}

func TestGetTreasuryHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/treasury/uniswap" {
			t.Errorf("path = %q, want /treasury/uniswap", r.URL.Path)
		}
		w.Write([]byte(`{"name":"Uniswap","tvl":[
			{"date":1704067200,"totalLiquidityUSD":1000.5},
			{"date":1704153600,"totalLiquidityUSD":990}
		]}`))
	}))
	defer server.Close()

	provider := NewTreasuryProvider(NewClient("treasury", server.URL), "uniswap")
	got, err := provider.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !got[0].Date.Equal(want) || got[0].ValueUSD != 1000.5 {
		t.Errorf("got[0] = %+v, want {%v 1000.5}", got[0], want)
	}
}

func TestTreasuryPointToModel_TruncatesToDay(t *testing.T) {
	p := APITreasuryPoint{Date: 1704067200 + 13*3600, TotalLiquidityUSD: 1}
	got := p.ToModel()
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if got.Date != want {
		t.Errorf("Date = %v, want %v", got.Date, want)
	}
}
