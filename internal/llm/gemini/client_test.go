package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storycast/internal/llm"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(context.Background(), Config{
		APIKey:  "test-key",
		Model:   "gemini-2.5-flash",
		BaseURL: server.URL + "/",
	})
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	return client
}

func writeCandidate(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":` + quote(text) + `}]}}]}`))
}

func quote(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}

func TestComplete(t *testing.T) {
	var body map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "gemini-2.5-flash:generateContent") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeCandidate(w, `{"title":"x"}`)
	})

	got, err := client.Complete(context.Background(), llm.Request{
		System:    "system",
		Prompt:    "prompt",
		MaxTokens: 100,
		JSON:      true,
	})
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if got != `{"title":"x"}` {
		t.Errorf("Complete() = %q", got)
	}

	if _, ok := body["systemInstruction"]; !ok {
		t.Error("request missing systemInstruction")
	}
	cfg, _ := body["generationConfig"].(map[string]any)
	if cfg["responseMimeType"] != "application/json" {
		t.Errorf("responseMimeType = %v, want application/json", cfg["responseMimeType"])
	}
}

func TestCompleteNoCandidates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	})

	_, err := client.Complete(context.Background(), llm.Request{Prompt: "prompt"})
	if !errors.Is(err, llm.ErrNoResponse) {
		t.Errorf("Complete() error = %v, want ErrNoResponse", err)
	}
}

func TestCompleteEmptyText(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeCandidate(w, "")
	})

	_, err := client.Complete(context.Background(), llm.Request{Prompt: "prompt"})
	if !errors.Is(err, llm.ErrEmptyResponse) {
		t.Errorf("Complete() error = %v, want ErrEmptyResponse", err)
	}
}

func TestCompleteHTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"bad request","status":"INVALID_ARGUMENT"}}`))
	})

	_, err := client.Complete(context.Background(), llm.Request{Prompt: "prompt"})
	if err == nil || !strings.Contains(err.Error(), "generate") {
		t.Errorf("Complete() error = %v, want generate error", err)
	}
}
