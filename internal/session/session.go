// Package session owns the lifecycle of practice sessions: explicit values
// keyed by ID, mutated only through the Manager so every transport surface
// observes the same rules.
package session

import (
	"time"

	"github.com/felixgeelhaar/sprich/internal/domain"
	"github.com/felixgeelhaar/sprich/internal/score"
)

// Session is one user's practice run. All mutation goes through the Manager,
// which holds the session lock while it works.
type Session struct {
	ID     string        `json:"id"`
	Config domain.Config `json:"config"`

	Current   *domain.Exercise `json:"current,omitempty"`
	HintLevel int              `json:"hint_level"`

	Score score.Tracker `json:"score"`

	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Status is the read-only snapshot returned by status(); building it has no
// side effects on the session.
type Status struct {
	ID        string           `json:"id"`
	Config    domain.Config    `json:"config"`
	Active    bool             `json:"active"`
	Exercise  *domain.Exercise `json:"exercise,omitempty"`
	HintLevel int              `json:"hint_level"`
	Hints     []string         `json:"hints,omitempty"`
	Score     score.Tracker    `json:"score"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
