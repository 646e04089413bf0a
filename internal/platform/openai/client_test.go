package openai

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nerdworks/dealerai-backend/internal/platform/logger"
	"github.com/nerdworks/dealerai-backend/internal/settings"
)

func testClient(t *testing.T, serverURL string) Client {
	t.Helper()
	t.Setenv("OPENAI_BASE_URL", serverURL)
	t.Setenv("OPENAI_MAX_RETRIES", "0")

	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	c, err := NewClient(log, settings.Static{settings.KeyAPIKey: "sk-test"})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return c
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	if _, err := NewClient(log, settings.Static{}); !errors.Is(err, settings.ErrMissingAPIKey) {
		t.Fatalf("want ErrMissingAPIKey, got %v", err)
	}
}

func TestChatCompleteSendsAuthAndModel(t *testing.T) {
	var gotAuth, gotModel string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req ChatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotModel = req.Model
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "chatcmpl-1",
			"choices": []map[string]any{
				{"index": 0, "message": map[string]any{"role": "assistant", "content": "bonjour"}},
			},
		})
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	resp, err := c.ChatComplete(t.Context(), ChatRequest{
		Messages: []ChatMessage{{Role: "user", Content: "salut"}},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	content, ok := resp.FirstContent()
	if !ok || content != "bonjour" {
		t.Fatalf("content: %q ok=%v", content, ok)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("auth header: %q", gotAuth)
	}
	if gotModel != "gpt-4o" {
		t.Fatalf("default model not applied: %q", gotModel)
	}
}

func TestServerErrorBecomesUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	_, err := c.ChatComplete(t.Context(), ChatRequest{})
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("want UpstreamError, got %v", err)
	}
	if upstream.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status: want=500 got=%d", upstream.StatusCode)
	}
	if upstream.Operation != "chatComplete" {
		t.Fatalf("operation: %q", upstream.Operation)
	}
}

func TestRetryOn429(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"index": 0, "message": map[string]any{"role": "assistant", "content": "ok"}},
			},
		})
	}))
	defer server.Close()

	t.Setenv("OPENAI_BASE_URL", server.URL)
	t.Setenv("OPENAI_MAX_RETRIES", "2")
	log, _ := logger.New("development")
	c, err := NewClient(log, settings.Static{settings.KeyAPIKey: "sk-test"})
	if err != nil {
		t.Fatalf("client: %v", err)
	}

	resp, err := c.ChatComplete(t.Context(), ChatRequest{})
	if err != nil {
		t.Fatalf("chat after retry: %v", err)
	}
	if content, _ := resp.FirstContent(); content != "ok" {
		t.Fatalf("content: %q", content)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls: want=2 got=%d", calls.Load())
	}
}

func TestAssistantEndpointsSendBetaHeader(t *testing.T) {
	var gotBeta string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBeta = r.Header.Get("OpenAI-Beta")
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "thread_1"})
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	if _, err := c.CreateThread(t.Context(), nil); err != nil {
		t.Fatalf("create thread: %v", err)
	}
	if gotBeta != "assistants=v2" {
		t.Fatalf("beta header: %q", gotBeta)
	}
}

func TestWaitForRunZeroTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "run_1", "status": "in_progress"})
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	start := time.Now()
	_, err := c.WaitForRun(t.Context(), "thread_1", "run_1", 0, 50*time.Millisecond)
	if !errors.Is(err, ErrRunTimeout) {
		t.Fatalf("want ErrRunTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("zero timeout must not sleep, took %s", elapsed)
	}
}

func TestWaitForRunReturnsOnRequiresAction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "run_1",
			"status": "requires_action",
			"required_action": map[string]any{
				"type": "submit_tool_outputs",
				"submit_tool_outputs": map[string]any{
					"tool_calls": []map[string]any{
						{"id": "call_1", "type": "function", "function": map[string]any{"name": "f", "arguments": "{}"}},
					},
				},
			},
		})
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	run, err := c.WaitForRun(t.Context(), "thread_1", "run_1", 5*time.Second, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if run.Status != StatusRequiresAction {
		t.Fatalf("status: %s", run.Status)
	}
	if run.RequiredAction == nil || run.RequiredAction.SubmitToolOutputs == nil {
		t.Fatal("required action not decoded")
	}
	if calls := run.RequiredAction.SubmitToolOutputs.ToolCalls; len(calls) != 1 || calls[0].ID != "call_1" {
		t.Fatalf("tool calls: %+v", run.RequiredAction.SubmitToolOutputs)
	}
}

func TestIsTerminalStatus(t *testing.T) {
	for status, want := range map[string]bool{
		StatusCompleted:      true,
		StatusFailed:         true,
		StatusCancelled:      true,
		StatusExpired:        true,
		StatusRequiresAction: false,
		"queued":             false,
		"in_progress":        false,
	} {
		if got := IsTerminalStatus(status); got != want {
			t.Fatalf("%s: want=%v got=%v", status, want, got)
		}
	}
}
