package domain

import "fmt"

// Difficulty bounds follow the lexicon frequency bands: 1 = most common
// vocabulary, 5 = rare.
const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

// Conversation length bounds (half-turn pairs answered by the user).
const (
	MinConversationTurns     = 5
	MaxConversationTurns     = 7
	DefaultConversationTurns = 5
)

// Config describes what a session practices. It is validated once at
// session start and never mutated afterwards.
type Config struct {
	MinFrequency int      `json:"min_frequency"`
	MaxFrequency int      `json:"max_frequency"`
	Tense        Tense    `json:"tense"`
	Modality     Modality `json:"modality"`

	// MaxTurns applies to the conversation modality only.
	MaxTurns int `json:"max_turns,omitempty"`
}

// Normalize fills defaults for optional fields. Called before Validate.
func (c *Config) Normalize() {
	if c.Tense == "" {
		c.Tense = TensePraesens
	}
	if c.Modality == ModalityConversation {
		if c.MaxTurns == 0 {
			c.MaxTurns = DefaultConversationTurns
		}
	} else {
		c.MaxTurns = 0
	}
}

// Validate checks the difficulty range, tense and modality. All failures
// wrap ErrInvalidConfig so the outer layer can classify them uniformly.
func (c Config) Validate() error {
	if c.MinFrequency < MinDifficulty || c.MaxFrequency > MaxDifficulty {
		return fmt.Errorf("%w: difficulty must be within [%d,%d]", ErrInvalidConfig, MinDifficulty, MaxDifficulty)
	}
	if c.MinFrequency > c.MaxFrequency {
		return fmt.Errorf("%w: min difficulty %d exceeds max %d", ErrInvalidConfig, c.MinFrequency, c.MaxFrequency)
	}
	if !c.Tense.Valid() {
		return fmt.Errorf("%w: unknown tense %q", ErrInvalidConfig, c.Tense)
	}
	if !c.Modality.Valid() {
		return fmt.Errorf("%w: unknown modality %q", ErrInvalidConfig, c.Modality)
	}
	if c.Modality == ModalityConversation {
		if c.MaxTurns < MinConversationTurns || c.MaxTurns > MaxConversationTurns {
			return fmt.Errorf("%w: max turns must be within [%d,%d]", ErrInvalidConfig, MinConversationTurns, MaxConversationTurns)
		}
	}
	return nil
}
