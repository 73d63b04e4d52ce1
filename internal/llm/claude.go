package llm

import (
	"context"
	"net/http"
)

const (
	anthropicVersion   = "2023-06-01"
	claudeDefaultModel = "claude-sonnet-4-20250514"
	claudeMaxTokens    = 4096
)

// ClaudeProvider talks to Anthropic's Messages API.
type ClaudeProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

type ClaudeConfig struct {
	APIKey  string
	BaseURL string // default: https://api.anthropic.com
	Model   string // default: claude-sonnet-4-20250514
}

func NewClaudeProvider(cfg ClaudeConfig) *ClaudeProvider {
	p := &ClaudeProvider{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		client:  &http.Client{},
	}
	if p.baseURL == "" {
		p.baseURL = "https://api.anthropic.com"
	}
	if p.model == "" {
		p.model = claudeDefaultModel
	}
	return p
}

func (p *ClaudeProvider) Name() string { return "claude" }

type claudeRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	Messages    []claudeMessage `json:"messages"`
	System      string          `json:"system,omitempty"`
	Temperature float64         `json:"temperature,omitempty"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (p *ClaudeProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	wire := claudeRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		System:      req.System,
		Temperature: req.Temperature,
	}
	if wire.Model == "" {
		wire.Model = p.model
	}
	if wire.MaxTokens == 0 {
		wire.MaxTokens = claudeMaxTokens
	}

	// The Messages API takes the system prompt as a top level field, not as
	// a message.
	for _, m := range req.Messages {
		if m.Role == RoleSystem {
			wire.System = m.Content
			continue
		}
		wire.Messages = append(wire.Messages, claudeMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	var out claudeResponse
	header := map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": anthropicVersion,
	}
	if err := postJSON(ctx, p.client, p.baseURL+"/v1/messages", header, wire, &out); err != nil {
		return nil, err
	}

	var text string
	for _, block := range out.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return &Response{
		Content:      text,
		FinishReason: out.StopReason,
		Usage: Usage{
			InputTokens:  out.Usage.InputTokens,
			OutputTokens: out.Usage.OutputTokens,
		},
	}, nil
}
