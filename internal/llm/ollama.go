package llm

import (
	"context"
	"net/http"
)

// OllamaProvider talks to a local Ollama server, the no-API-key path for
// offline practice.
type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

type OllamaConfig struct {
	BaseURL string // default: http://localhost:11434
	Model   string // default: llama3
}

func NewOllamaProvider(cfg OllamaConfig) *OllamaProvider {
	p := &OllamaProvider{
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		client:  &http.Client{},
	}
	if p.baseURL == "" {
		p.baseURL = "http://localhost:11434"
	}
	if p.model == "" {
		p.model = "llama3"
	}
	return p
}

func (p *OllamaProvider) Name() string { return "ollama" }

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  *ollamaOptions  `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaResponse struct {
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	EvalCount       int           `json:"eval_count"`
	PromptEvalCount int           `json:"prompt_eval_count"`
}

func (p *OllamaProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	wire := ollamaRequest{Model: req.Model}
	if wire.Model == "" {
		wire.Model = p.model
	}

	// Ollama has no dedicated system field; the system prompt leads the
	// message list.
	if req.System != "" {
		wire.Messages = append(wire.Messages, ollamaMessage{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		wire.Messages = append(wire.Messages, ollamaMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	if req.Temperature > 0 || req.MaxTokens > 0 {
		wire.Options = &ollamaOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		}
	}

	var out ollamaResponse
	if err := postJSON(ctx, p.client, p.baseURL+"/api/chat", nil, wire, &out); err != nil {
		return nil, err
	}

	return &Response{
		Content:      out.Message.Content,
		FinishReason: "stop",
		Usage: Usage{
			InputTokens:  out.PromptEvalCount,
			OutputTokens: out.EvalCount,
		},
	}, nil
}
