package domain

import "fmt"

// Tense is the German verb tense a session practices.
type Tense string

const (
	TensePraesens    Tense = "Präsens"
	TensePraeteritum Tense = "Präteritum"
	TensePerfekt     Tense = "Perfekt"
	TenseFutur       Tense = "Futur I"
)

// ParseTense validates a tense string from the outer layer.
func ParseTense(s string) (Tense, error) {
	t := Tense(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown tense %q", ErrInvalidConfig, s)
	}
	return t, nil
}

// Valid reports whether the tense is supported.
func (t Tense) Valid() bool {
	switch t {
	case TensePraesens, TensePraeteritum, TensePerfekt, TenseFutur:
		return true
	}
	return false
}
