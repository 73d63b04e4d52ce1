package llm

import (
	"context"
	"fmt"
	"net/http"
)

// OpenAIProvider talks to OpenAI-compatible chat completion APIs.
type OpenAIProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string // default: https://api.openai.com
	Model   string // default: gpt-4o
}

func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	p := &OpenAIProvider{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		client:  &http.Client{},
	}
	if p.baseURL == "" {
		p.baseURL = "https://api.openai.com"
	}
	if p.model == "" {
		p.model = "gpt-4o"
	}
	return p
}

func (p *OpenAIProvider) Name() string { return "openai" }

type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature,omitempty"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	Choices []struct {
		Message      openaiMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (p *OpenAIProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	wire := openaiRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if wire.Model == "" {
		wire.Model = p.model
	}
	if req.System != "" {
		wire.Messages = append(wire.Messages, openaiMessage{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		wire.Messages = append(wire.Messages, openaiMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	var out openaiResponse
	header := map[string]string{"Authorization": "Bearer " + p.apiKey}
	if err := postJSON(ctx, p.client, p.baseURL+"/v1/chat/completions", header, wire, &out); err != nil {
		return nil, err
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("empty choices in response")
	}

	choice := out.Choices[0]
	return &Response{
		Content:      choice.Message.Content,
		FinishReason: choice.FinishReason,
		Usage: Usage{
			InputTokens:  out.Usage.PromptTokens,
			OutputTokens: out.Usage.CompletionTokens,
		},
	}, nil
}
