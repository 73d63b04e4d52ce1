package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/sprich/internal/conversation"
	"github.com/felixgeelhaar/sprich/internal/domain"
	"github.com/felixgeelhaar/sprich/internal/generator"
	"github.com/felixgeelhaar/sprich/internal/hint"
	"github.com/felixgeelhaar/sprich/internal/validator"
)

// AnswerOutcome pairs the judgment with the state it left behind, so the
// outer layer renders one response without a second status call.
type AnswerOutcome struct {
	Result *domain.ValidationResult `json:"result"`
	Score  Status                   `json:"status"`
}

// Manager is the single entry point for session mutation. One mutex guards
// all sessions; exercise generation dominates latency anyway and sessions
// are a handful per daemon.
type Manager struct {
	mu sync.Mutex

	store         *Store
	generator     *generator.Generator
	validator     *validator.Validator
	conversations *conversation.Builder
	logger        *slog.Logger
	now           func() time.Time
}

// NewManager wires the engine components together.
func NewManager(store *Store, gen *generator.Generator, val *validator.Validator, conv *conversation.Builder, logger *slog.Logger) *Manager {
	return &Manager{
		store:         store,
		generator:     gen,
		validator:     val,
		conversations: conv,
		logger:        logger,
		now:           time.Now,
	}
}

// Start validates the config, creates a session and generates its first
// exercise. A session is never created when the first generation fails.
func (m *Manager) Start(ctx context.Context, cfg domain.Config) (*Session, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ex, err := m.generate(ctx, cfg)
	if err != nil {
		return nil, err
	}

	now := m.now()
	sess := &Session{
		ID:        uuid.New().String(),
		Config:    cfg,
		Current:   ex,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.store.Put(sess)

	m.logger.Info("session started",
		"session_id", sess.ID,
		"modality", cfg.Modality,
		"band", fmt.Sprintf("%d-%d", cfg.MinFrequency, cfg.MaxFrequency))
	return sess, nil
}

// Next replaces the current exercise. On generation failure the previous
// exercise and hint level stay exactly as they were.
func (m *Manager) Next(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, err := m.activeSession(id)
	if err != nil {
		return nil, err
	}

	ex, err := m.generate(ctx, sess.Config)
	if err != nil {
		m.logger.Warn("next exercise generation failed, keeping current",
			"session_id", id, "error", err)
		return nil, err
	}

	sess.Current = ex
	sess.HintLevel = 0
	sess.UpdatedAt = m.now()
	return sess, nil
}

// Answer judges a submission against the current exercise. State errors
// (no exercise, finished conversation, bad option index) never count as an
// attempt; judged answers always do, wrong or right.
func (m *Manager) Answer(ctx context.Context, id string, ans validator.Answer) (*AnswerOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, err := m.activeSession(id)
	if err != nil {
		return nil, err
	}
	if sess.Current == nil {
		return nil, fmt.Errorf("%w: session %s", domain.ErrNoExercise, id)
	}

	at := m.now()
	var result *domain.ValidationResult

	if sess.Current.Type == domain.ModalityConversation {
		result, err = m.answerConversation(ctx, sess, ans)
	} else {
		result, err = m.validator.Validate(ctx, sess.Current, ans, at)
	}
	if err != nil {
		return nil, err
	}

	if speed := sess.Current.SpeedTranslation; speed != nil {
		elapsed := at.Sub(speed.GeneratedAt)
		limit := time.Duration(speed.TimeLimitSeconds) * time.Second
		result.PointsEarned = sess.Score.RecordTimed(result.IsCorrect, speed.Difficulty, elapsed, limit)
	} else {
		sess.Score.Record(result.IsCorrect)
	}
	sess.UpdatedAt = at

	m.logger.Info("answer judged",
		"session_id", id,
		"modality", sess.Current.Type,
		"correct", result.IsCorrect,
		"degraded", result.Degraded)

	return &AnswerOutcome{Result: result, Score: m.snapshot(sess)}, nil
}

func (m *Manager) answerConversation(ctx context.Context, sess *Session, ans validator.Answer) (*domain.ValidationResult, error) {
	state := sess.Current.Conversation
	if state.Terminal() {
		return nil, fmt.Errorf("%w: session %s", domain.ErrConversationDone, sess.ID)
	}
	if ans.OptionIndex == nil {
		return nil, fmt.Errorf("%w: conversation needs an option index", domain.ErrInvalidOption)
	}
	return m.conversations.Advance(ctx, state, *ans.OptionIndex)
}

// Hint raises the hint level by one tier and returns every tier revealed so
// far. Past the top of the ladder it is a no-op returning the full ladder.
// Hints are computed from generation-time data; this never calls the model.
func (m *Manager) Hint(ctx context.Context, id string) ([]string, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, err := m.activeSession(id)
	if err != nil {
		return nil, 0, err
	}
	if sess.Current == nil {
		return nil, 0, fmt.Errorf("%w: session %s", domain.ErrNoExercise, id)
	}

	ladder, err := hint.Compute(sess.Current)
	if err != nil {
		return nil, 0, err
	}

	if sess.HintLevel < len(ladder) {
		sess.HintLevel++
		sess.UpdatedAt = m.now()
	}
	return ladder.Reveal(sess.HintLevel), sess.HintLevel, nil
}

// Status returns a snapshot. Calling it repeatedly observes the identical
// exercise and counters.
func (m *Manager) Status(id string) (*Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, err := m.store.Get(id)
	if err != nil {
		return nil, err
	}
	st := m.snapshot(sess)
	return &st, nil
}

// Reset clears score and current exercise but keeps the session and its
// config alive.
func (m *Manager) Reset(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, err := m.activeSession(id)
	if err != nil {
		return nil, err
	}

	sess.Score.Reset()
	sess.Current = nil
	sess.HintLevel = 0
	sess.UpdatedAt = m.now()

	m.logger.Info("session reset", "session_id", id)
	return sess, nil
}

// Stop deactivates and removes a session.
func (m *Manager) Stop(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, err := m.store.Get(id)
	if err != nil {
		return err
	}
	sess.Active = false
	if err := m.store.Delete(id); err != nil {
		return err
	}

	m.logger.Info("session stopped",
		"session_id", id,
		"attempts", sess.Score.Attempts,
		"score", sess.Score.Score)
	return nil
}

// Sessions returns the IDs of live sessions.
func (m *Manager) Sessions() []string {
	return m.store.List()
}

func (m *Manager) activeSession(id string) (*Session, error) {
	sess, err := m.store.Get(id)
	if err != nil {
		return nil, err
	}
	if !sess.Active {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotActive, id)
	}
	return sess, nil
}

func (m *Manager) generate(ctx context.Context, cfg domain.Config) (*domain.Exercise, error) {
	if cfg.Modality == domain.ModalityConversation {
		state, err := m.conversations.Start(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &domain.Exercise{Type: domain.ModalityConversation, Conversation: state}, nil
	}
	return m.generator.Generate(ctx, cfg)
}

func (m *Manager) snapshot(sess *Session) Status {
	st := Status{
		ID:        sess.ID,
		Config:    sess.Config,
		Active:    sess.Active,
		Exercise:  sess.Current,
		HintLevel: sess.HintLevel,
		Score:     sess.Score,
		CreatedAt: sess.CreatedAt,
		UpdatedAt: sess.UpdatedAt,
	}
	if sess.Current != nil && sess.HintLevel > 0 {
		if ladder, err := hint.Compute(sess.Current); err == nil {
			st.Hints = ladder.Reveal(sess.HintLevel)
		}
	}
	return st
}
