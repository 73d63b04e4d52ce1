package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeProvider struct {
	name string
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	return &Response{Content: "ok from " + f.name}, nil
}

func TestRegistryGet(t *testing.T) {
	r := NewRegistry()
	r.Register("claude", &fakeProvider{name: "claude"})

	p, err := r.Get("claude")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if p.Name() != "claude" {
		t.Errorf("Name() = %q; want claude", p.Name())
	}

	_, err = r.Get("missing")
	if !errors.Is(err, ErrProviderNotFound) {
		t.Errorf("Get(missing) error = %v; want ErrProviderNotFound", err)
	}
}

func TestRegistryDefault(t *testing.T) {
	r := NewRegistry()

	_, err := r.Default()
	if !errors.Is(err, ErrNoDefaultProvider) {
		t.Errorf("Default() on empty registry error = %v; want ErrNoDefaultProvider", err)
	}

	r.Register("ollama", &fakeProvider{name: "ollama"})
	if err := r.SetDefault("ollama"); err != nil {
		t.Fatalf("SetDefault() error = %v", err)
	}

	p, err := r.Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if p.Name() != "ollama" {
		t.Errorf("Default().Name() = %q; want ollama", p.Name())
	}

	if err := r.SetDefault("missing"); !errors.Is(err, ErrProviderNotFound) {
		t.Errorf("SetDefault(missing) error = %v; want ErrProviderNotFound", err)
	}
}

func TestClaudeGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %q; want /v1/messages", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("x-api-key = %q; want test-key", r.Header.Get("x-api-key"))
		}

		var req claudeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.System != "you are a tutor" {
			t.Errorf("system = %q; want the system prompt", req.System)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"content":     []map[string]string{{"type": "text", "text": `{"source_text":"Hallo"}`}},
			"stop_reason": "end_turn",
			"usage":       map[string]int{"input_tokens": 10, "output_tokens": 5},
		})
	}))
	defer srv.Close()

	p := NewClaudeProvider(ClaudeConfig{APIKey: "test-key", BaseURL: srv.URL})
	resp, err := p.Generate(context.Background(), &Request{
		System:   "you are a tutor",
		Messages: []Message{{Role: RoleUser, Content: "generate"}},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Content != `{"source_text":"Hallo"}` {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Usage.InputTokens != 10 || resp.Usage.OutputTokens != 5 {
		t.Errorf("Usage = %+v; want 10/5", resp.Usage)
	}
}

func TestClaudeGenerateAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewClaudeProvider(ClaudeConfig{APIKey: "k", BaseURL: srv.URL})
	_, err := p.Generate(context.Background(), &Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	if err == nil {
		t.Fatal("Generate() error = nil; want API error")
	}
	if !isRetryableHTTPError(err) {
		t.Errorf("error %v should be classified retryable", err)
	}
}

func TestOllamaGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %q; want /api/chat", r.URL.Path)
		}
		json.NewEncoder(w).Encode(ollamaResponse{
			Message: ollamaMessage{Role: "assistant", Content: "hallo"},
			Done:    true,
		})
	}))
	defer srv.Close()

	p := NewOllamaProvider(OllamaConfig{BaseURL: srv.URL, Model: "llama3"})
	resp, err := p.Generate(context.Background(), &Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Content != "hallo" {
		t.Errorf("Content = %q; want hallo", resp.Content)
	}
}

func TestResilientPassthrough(t *testing.T) {
	rp := NewResilientProvider(&fakeProvider{name: "fake"}, ResilientConfig{})
	defer rp.Close()

	resp, err := rp.Generate(context.Background(), &Request{})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Content != "ok from fake" {
		t.Errorf("Content = %q", resp.Content)
	}
}
