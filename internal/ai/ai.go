// Package ai exposes structured generation to the exercise engine. Callers
// hand over a prompt and a destination struct; the package owns prompt
// framing, JSON extraction and decode, so no other package parses model
// output.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/sprich/internal/domain"
	"github.com/felixgeelhaar/sprich/internal/llm"
)

const systemPrompt = "You are a German language tutor. " +
	"Respond with a single JSON object matching the requested shape. " +
	"No prose outside the JSON."

// Schema names the shape the model must produce. The field list is rendered
// into the prompt; decoding is driven by the destination struct's json tags.
type Schema struct {
	Name        string
	Description string
}

// Service generates a structured response for a prompt and decodes it into
// out, which must be a pointer to a json-taggable struct.
type Service interface {
	Generate(ctx context.Context, prompt string, schema Schema, out any) error
}

// Client implements Service on top of an llm.Provider.
type Client struct {
	provider    llm.Provider
	model       string
	temperature float64
}

// Option configures a Client.
type Option func(*Client)

// WithModel overrides the provider's default model.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *Client) { c.temperature = t }
}

// NewClient builds a structured-generation client over the given provider.
func NewClient(provider llm.Provider, opts ...Option) *Client {
	c := &Client{provider: provider, temperature: 0.7}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate asks the provider for one completion and decodes the JSON object
// it contains into out. All failures wrap domain.ErrGeneration.
func (c *Client) Generate(ctx context.Context, prompt string, schema Schema, out any) error {
	var sb strings.Builder
	sb.WriteString(prompt)
	sb.WriteString("\n\nRespond with a JSON object")
	if schema.Name != "" {
		fmt.Fprintf(&sb, " of type %q", schema.Name)
	}
	if schema.Description != "" {
		sb.WriteString(": ")
		sb.WriteString(schema.Description)
	}
	sb.WriteString("\nReturn only the JSON object.")

	resp, err := c.provider.Generate(ctx, &llm.Request{
		Model:       c.model,
		System:      systemPrompt,
		Temperature: c.temperature,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: sb.String()},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: provider %s: %v", domain.ErrGeneration, c.provider.Name(), err)
	}

	raw, err := extractJSON(resp.Content)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", domain.ErrGeneration, schema.Name, err)
	}
	return nil
}

// extractJSON pulls the first JSON object out of a completion. Models wrap
// output in markdown fences or add prose despite instructions, so this scans
// for a balanced top-level object instead of trusting the whole string.
func extractJSON(content string) (string, error) {
	s := strings.TrimSpace(content)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", fmt.Errorf("no JSON object in completion")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unbalanced JSON object in completion")
}
