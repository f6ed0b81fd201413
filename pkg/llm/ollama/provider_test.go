package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-examprep-be/pkg/llm"
)

func TestChatSendsMappedRolesAndOptions(t *testing.T) {
	var captured ollamaChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(ollamaChatResponse{
			Message: ollamaMessage{Role: "assistant", Content: "pong"},
			Done:    true,
		})
	}))
	defer server.Close()

	provider := NewOllamaProvider(server.URL, "llama3")
	history := []llm.Message{
		{Role: "system", Content: "be brief"},
		{Role: "model", Content: "earlier reply"},
		{Role: "user", Content: "ping"},
	}

	got, err := provider.Chat(context.Background(), history,
		llm.WithTemperature(0.2),
		llm.WithMaxTokens(64),
	)
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}
	if got != "pong" {
		t.Errorf("Chat = %q, want %q", got, "pong")
	}

	if captured.Model != "llama3" {
		t.Errorf("model = %q, want llama3", captured.Model)
	}
	if captured.Stream {
		t.Error("stream should be false")
	}
	if len(captured.Messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(captured.Messages))
	}
	if captured.Messages[1].Role != "assistant" {
		t.Errorf("model role should map to assistant, got %q", captured.Messages[1].Role)
	}
	if captured.Options == nil || captured.Options.Temperature != 0.2 {
		t.Errorf("temperature not forwarded: %+v", captured.Options)
	}
	if captured.Options.NumPredict != 64 {
		t.Errorf("num_predict = %d, want 64", captured.Options.NumPredict)
	}
}

func TestChatSurfacesStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	provider := NewOllamaProvider(server.URL, "llama3")
	_, err := provider.Chat(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	if err == nil {
		t.Fatal("expected error")
	}

	var statusErr *llm.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %T: %v", err, err)
	}
	if statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", statusErr.StatusCode)
	}
	if !llm.IsRetryable(err) {
		t.Error("a 503 should be retryable")
	}
}

func TestGenerateWrapsPrompt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Errorf("Generate should send one user message, got %+v", req.Messages)
		}
		json.NewEncoder(w).Encode(ollamaChatResponse{Message: ollamaMessage{Content: "ok"}})
	}))
	defer server.Close()

	provider := NewOllamaProvider(server.URL, "llama3")
	if _, err := provider.Generate(context.Background(), "hello"); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
}
