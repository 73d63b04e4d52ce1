// Package mcp exposes the exercise engine as MCP tools, the second control
// surface next to the HTTP daemon. Both delegate to the same session manager.
package mcp

import (
	"context"
	"fmt"
	"strings"

	mcp "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/server"

	"github.com/felixgeelhaar/sprich/internal/domain"
	"github.com/felixgeelhaar/sprich/internal/session"
	"github.com/felixgeelhaar/sprich/internal/validator"
)

// Server wraps the MCP server with sprich functionality.
type Server struct {
	mcpServer *server.Server
	manager   *session.Manager
}

// NewServer creates a new MCP server around a wired session manager.
func NewServer(manager *session.Manager) *Server {
	s := &Server{manager: manager}

	s.mcpServer = server.New(server.Info{
		Name:    "sprich",
		Version: "0.1.0",
	}, server.WithInstructions(`
Sprich is an AI-assisted German practice engine.

Available tools:
- sprich_start: Start a practice session (pick a modality and difficulty band)
- sprich_next: Get the next exercise in a session
- sprich_answer: Submit an answer and get a judgment
- sprich_hint: Reveal the next hint tier (never reveals more than asked)
- sprich_status: Check session score and current exercise
- sprich_reset: Clear score and exercise, keep the session
- sprich_stop: End a session

Modalities: translation, inverse_translation, word_selection,
article_selection, fill_blank, error_detection, verb_conjugation,
speed_translation, conversation.
`))

	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.mcpServer.Tool("sprich_start").
		Description("Start a German practice session with a modality and difficulty band").
		Handler(s.handleStart)

	s.mcpServer.Tool("sprich_next").
		Description("Replace the current exercise with a freshly generated one.").
		Handler(s.handleNext)

	s.mcpServer.Tool("sprich_answer").
		Description("Submit an answer for the current exercise and get a judgment.").
		Handler(s.handleAnswer)

	s.mcpServer.Tool("sprich_hint").
		Description("Reveal one more hint tier for the current exercise.").
		Handler(s.handleHint)

	s.mcpServer.Tool("sprich_status").
		Description("Get session score, hint level and current exercise.").
		Handler(s.handleStatus)

	s.mcpServer.Tool("sprich_reset").
		Description("Reset score and current exercise, keeping the session.").
		Handler(s.handleReset)

	s.mcpServer.Tool("sprich_stop").
		Description("End a sprich session.").
		Handler(s.handleStop)
}

// Input/Output types for tools

type StartInput struct {
	Modality     string `json:"modality" jsonschema:"description=Exercise modality such as translation or conversation"`
	MinFrequency int    `json:"min_frequency,omitempty" jsonschema:"description=Lower difficulty bound 1-5 (default 1)"`
	MaxFrequency int    `json:"max_frequency,omitempty" jsonschema:"description=Upper difficulty bound 1-5 (default 3)"`
	Tense        string `json:"tense,omitempty" jsonschema:"description=Grammatical tense: Präsens, Präteritum, Perfekt or Futur I"`
	MaxTurns     int    `json:"max_turns,omitempty" jsonschema:"description=Conversation length 5-7 (conversation modality only)"`
}

type StartOutput struct {
	SessionID string           `json:"session_id"`
	Exercise  *domain.Exercise `json:"exercise"`
	Message   string           `json:"message"`
}

type SessionInput struct {
	SessionID string `json:"session_id" jsonschema:"description=Session ID from sprich_start"`
}

type NextOutput struct {
	Exercise *domain.Exercise `json:"exercise"`
}

type AnswerInput struct {
	SessionID   string   `json:"session_id" jsonschema:"description=Session ID from sprich_start"`
	Text        string   `json:"text,omitempty" jsonschema:"description=Free-text answer"`
	OptionIndex *int     `json:"option_index,omitempty" jsonschema:"description=Chosen option index for selection exercises"`
	Words       []string `json:"words,omitempty" jsonschema:"description=Word order answer for word selection"`
}

type AnswerOutput struct {
	Result *domain.ValidationResult `json:"result"`
	Status session.Status           `json:"status"`
}

type HintOutput struct {
	Hints     []string `json:"hints"`
	HintLevel int      `json:"hint_level"`
}

type StatusOutput struct {
	Status *session.Status `json:"status"`
}

type ResetOutput struct {
	Message string `json:"message"`
}

type StopOutput struct {
	Message string `json:"message"`
}

// Tool handlers

func (s *Server) handleStart(ctx context.Context, input StartInput) (StartOutput, error) {
	cfg := domain.Config{
		MinFrequency: input.MinFrequency,
		MaxFrequency: input.MaxFrequency,
		Tense:        domain.Tense(input.Tense),
		MaxTurns:     input.MaxTurns,
	}
	if cfg.MinFrequency == 0 {
		cfg.MinFrequency = 1
	}
	if cfg.MaxFrequency == 0 {
		cfg.MaxFrequency = 3
	}

	modality, err := domain.ParseModality(input.Modality)
	if err != nil {
		return StartOutput{}, err
	}
	cfg.Modality = modality

	sess, err := s.manager.Start(ctx, cfg)
	if err != nil {
		return StartOutput{}, fmt.Errorf("failed to start session: %w", err)
	}

	return StartOutput{
		SessionID: sess.ID,
		Exercise:  sess.Current,
		Message: fmt.Sprintf("Session started: %s at difficulty %d-%d.",
			modality, sess.Config.MinFrequency, sess.Config.MaxFrequency),
	}, nil
}

func (s *Server) handleNext(ctx context.Context, input SessionInput) (NextOutput, error) {
	sess, err := s.manager.Next(ctx, input.SessionID)
	if err != nil {
		return NextOutput{}, err
	}
	return NextOutput{Exercise: sess.Current}, nil
}

func (s *Server) handleAnswer(ctx context.Context, input AnswerInput) (AnswerOutput, error) {
	out, err := s.manager.Answer(ctx, input.SessionID, validator.Answer{
		Text:        input.Text,
		OptionIndex: input.OptionIndex,
		Words:       input.Words,
	})
	if err != nil {
		return AnswerOutput{}, err
	}
	return AnswerOutput{Result: out.Result, Status: out.Score}, nil
}

func (s *Server) handleHint(ctx context.Context, input SessionInput) (HintOutput, error) {
	hints, level, err := s.manager.Hint(ctx, input.SessionID)
	if err != nil {
		return HintOutput{}, err
	}
	return HintOutput{Hints: hints, HintLevel: level}, nil
}

func (s *Server) handleStatus(ctx context.Context, input SessionInput) (StatusOutput, error) {
	st, err := s.manager.Status(input.SessionID)
	if err != nil {
		return StatusOutput{}, err
	}
	return StatusOutput{Status: st}, nil
}

func (s *Server) handleReset(ctx context.Context, input SessionInput) (ResetOutput, error) {
	sess, err := s.manager.Reset(input.SessionID)
	if err != nil {
		return ResetOutput{}, err
	}
	return ResetOutput{
		Message: fmt.Sprintf("Session %s reset; modality stays %s.",
			shortID(sess.ID), sess.Config.Modality),
	}, nil
}

func (s *Server) handleStop(ctx context.Context, input SessionInput) (StopOutput, error) {
	if err := s.manager.Stop(input.SessionID); err != nil {
		return StopOutput{}, fmt.Errorf("failed to stop session: %w", err)
	}
	return StopOutput{Message: "Session ended successfully"}, nil
}

func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

// ServeStdio starts the MCP server on stdio.
func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

// GetMCPServer returns the underlying MCP server (for testing).
func (s *Server) GetMCPServer() *server.Server {
	return s.mcpServer
}
