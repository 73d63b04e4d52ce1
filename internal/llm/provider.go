// Package llm abstracts chat completion providers. The rest of the engine
// talks to a Provider through the registry and never sees vendor APIs.
package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrProviderNotFound  = errors.New("provider not found")
	ErrNoDefaultProvider = errors.New("no default provider configured")
)

// Provider is a single-shot chat completion backend.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req *Request) (*Response, error)
}

// Request carries one completion call. System is kept out of Messages
// because vendors disagree on where the system prompt goes.
type Request struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	System      string
}

type Message struct {
	Role    Role
	Content string
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Response is the vendor-neutral completion result.
type Response struct {
	Content      string
	FinishReason string
	Usage        Usage
}

type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Registry holds the configured providers and resolves which one a request
// should go to. Safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	byName      map[string]Provider
	defaultName string
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Provider)}
}

func (r *Registry) Register(name string, p Provider) {
	r.mu.Lock()
	r.byName[name] = p
	r.mu.Unlock()
}

// SetDefault pins the provider Default returns. The name must already be
// registered.
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[name]; !ok {
		return fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}
	r.defaultName = name
	return nil
}

func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}
	return p, nil
}

// Default resolves the pinned default, falling back to any registered
// provider when the default is unset, "auto", or gone.
func (r *Registry) Default() (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.defaultName != "" && r.defaultName != "auto" {
		if p, ok := r.byName[r.defaultName]; ok {
			return p, nil
		}
	}
	for _, p := range r.byName {
		return p, nil
	}
	return nil, ErrNoDefaultProvider
}

// List returns registered provider names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) DefaultName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultName
}
