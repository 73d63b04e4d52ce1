package domain

import "fmt"

// Modality is the kind of exercise a session practices.
type Modality string

const (
	ModalityTranslation        Modality = "translation"
	ModalityInverseTranslation Modality = "inverse_translation"
	ModalityWordSelection      Modality = "word_selection"
	ModalityArticleSelection   Modality = "article_selection"
	ModalityFillBlank          Modality = "fill_blank"
	ModalityErrorDetection     Modality = "error_detection"
	ModalityVerbConjugation    Modality = "verb_conjugation"
	ModalitySpeedTranslation   Modality = "speed_translation"
	ModalityConversation       Modality = "conversation"
)

// Modalities lists every supported modality.
var Modalities = []Modality{
	ModalityTranslation,
	ModalityInverseTranslation,
	ModalityWordSelection,
	ModalityArticleSelection,
	ModalityFillBlank,
	ModalityErrorDetection,
	ModalityVerbConjugation,
	ModalitySpeedTranslation,
	ModalityConversation,
}

// ParseModality validates a modality string from the outer layer.
func ParseModality(s string) (Modality, error) {
	m := Modality(s)
	if !m.Valid() {
		return "", fmt.Errorf("%w: unknown modality %q", ErrInvalidConfig, s)
	}
	return m, nil
}

// Valid reports whether the modality is supported.
func (m Modality) Valid() bool {
	for _, known := range Modalities {
		if m == known {
			return true
		}
	}
	return false
}

// MaxHints is the hint ladder depth. Speed translation keeps hints short so
// they fit the answer window; conversations only carry focus and translation
// hints.
func (m Modality) MaxHints() int {
	switch m {
	case ModalitySpeedTranslation:
		return 3
	case ModalityConversation:
		return 2
	default:
		return 4
	}
}
