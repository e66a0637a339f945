package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func testClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return &Client{
		baseURL:    serverURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		logger:     logger,
		retryMax:   3,
		retryDelay: 10 * time.Millisecond,
	}
}

func rateLimitResponse(w http.ResponseWriter, retryAfter int) {
	w.WriteHeader(http.StatusTooManyRequests)
	json.NewEncoder(w).Encode(map[string]any{
		"ok":          false,
		"error_code":  429,
		"description": "Too Many Requests: retry after",
		"parameters":  map[string]any{"retry_after": retryAfter},
	})
}

func okResponse(w http.ResponseWriter) {
	json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": map[string]any{}})
}

func TestRateLimitRetryHonorsRetryAfter(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			rateLimitResponse(w, 1)
			return
		}
		okResponse(w)
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	start := time.Now()
	err := client.SendMessage(context.Background(), SendMessageRequest{ChatID: 1, Text: "hi"})
	if err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("expected exactly 2 calls, got %d", got)
	}
	if elapsed := time.Since(start); elapsed < time.Second {
		t.Errorf("expected at least 1s spacing between attempts, got %v", elapsed)
	}
}

func TestRateLimitRetryGivesUpAtBound(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		// No retry_after parameter: the client falls back to its default
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"ok":          false,
			"error_code":  429,
			"description": "Too Many Requests",
		})
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	client.retryMax = 2

	err := client.SendMessage(context.Background(), SendMessageRequest{ChatID: 1, Text: "hi"})
	if err == nil {
		t.Fatal("expected failure after exhausting retries")
	}
	// retryMax retries plus the initial attempt
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestPermanentErrorIsNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]any{
			"ok":          false,
			"error_code":  403,
			"description": "Forbidden: bot was blocked by the user",
		})
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	err := client.SendMessage(context.Background(), SendMessageRequest{ChatID: 1, Text: "hi"})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected exactly 1 attempt, got %d", got)
	}
}

func TestPaceEnforcesMinimumGap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		okResponse(w)
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	client.minGap = 100 * time.Millisecond

	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := client.SendMessage(ctx, SendMessageRequest{ChatID: 1, Text: "hi"}); err != nil {
			t.Fatalf("send %d failed: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed < 200*time.Millisecond {
		t.Errorf("expected sends to be paced, 3 sends took %v", elapsed)
	}
}

func TestGetUpdates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"result": []map[string]any{
				{"update_id": 7, "message": map[string]any{"message_id": 1, "chat": map[string]any{"id": 42}, "text": "/start"}},
			},
		})
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	updates, err := client.GetUpdates(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("getUpdates failed: %v", err)
	}
	if len(updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(updates))
	}
	if updates[0].UpdateID != 7 || updates[0].Message == nil || updates[0].Message.Chat.ID != 42 {
		t.Errorf("unexpected update: %+v", updates[0])
	}
}

func TestEscapeHTML(t *testing.T) {
	got := EscapeHTML(`Tom & Jerry <s01> "quotes"`)
	want := `Tom &amp; Jerry &lt;s01&gt; "quotes"`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
