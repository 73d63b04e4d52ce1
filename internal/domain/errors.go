package domain

import "errors"

// -----------------------------------------------------------------------------
// Domain Errors
// The daemon and MCP layers map these onto the error taxonomy exposed to the
// outer layer: config_error, generation_failure, state_error. Degraded
// validation is a result flag, never an error.
// -----------------------------------------------------------------------------

// Configuration errors (session state unchanged, caller must correct input)
var (
	ErrInvalidConfig = errors.New("invalid session configuration")
)

// Generation errors (non-fatal, the prior exercise is left intact)
var (
	ErrGeneration = errors.New("exercise generation failed")
)

// State errors (rejected synchronously, attempts not incremented)
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionNotActive = errors.New("session is not active")
	ErrNoExercise       = errors.New("no active exercise")
	ErrInvalidOption    = errors.New("option index out of range")
	ErrConversationDone = errors.New("conversation already finished")
)

// IsStateError reports whether err belongs to the state-error class.
func IsStateError(err error) bool {
	return errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrSessionNotActive) ||
		errors.Is(err, ErrNoExercise) ||
		errors.Is(err, ErrInvalidOption) ||
		errors.Is(err, ErrConversationDone)
}
