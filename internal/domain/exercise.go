package domain

import (
	"fmt"
	"time"
)

// Exercise is the tagged union over the nine modality variants. Exactly one
// variant pointer is non-nil and matches Type, so the JSON form is a
// self-describing object the outer layer can render without engine knowledge.
//
// An exercise's correct-answer data is fixed at generation time and never
// mutated; only the conversation variant grows its turn list in place.
type Exercise struct {
	Type Modality `json:"type"`

	Translation      *TranslationExercise      `json:"translation,omitempty"`
	WordSelection    *WordSelectionExercise    `json:"word_selection,omitempty"`
	ArticleSelection *ArticleSelectionExercise `json:"article_selection,omitempty"`
	FillBlank        *FillBlankExercise        `json:"fill_blank,omitempty"`
	ErrorDetection   *ErrorDetectionExercise   `json:"error_detection,omitempty"`
	VerbConjugation  *VerbConjugationExercise  `json:"verb_conjugation,omitempty"`
	SpeedTranslation *SpeedTranslationExercise `json:"speed_translation,omitempty"`
	Conversation     *ConversationState        `json:"conversation,omitempty"`
}

// TranslationExercise covers both directions: for "translation" the source is
// German and the reference answer English, for "inverse_translation" the
// source is English and the reference German.
type TranslationExercise struct {
	SourceText      string `json:"source_text"`
	ReferenceAnswer string `json:"reference_answer"`
	Explanation     string `json:"explanation,omitempty"`
	Tense           Tense  `json:"tense"`
	Verb            string `json:"verb"`
	VerbEnglish     string `json:"verb_english,omitempty"`
	Case            string `json:"case,omitempty"`
}

// WordSelectionExercise asks the user to rebuild the German translation of an
// English sentence by picking words from a bank in the correct order.
type WordSelectionExercise struct {
	SourceText   string   `json:"source_text"`
	WordBank     []string `json:"word_bank"`
	CorrectOrder []string `json:"correct_order"`
	Explanation  string   `json:"explanation,omitempty"`
}

// ArticleSelectionExercise asks for the correct article of a noun in a
// grammatical case. CorrectOption indexes into Options.
type ArticleSelectionExercise struct {
	Noun            string   `json:"noun"`
	English         string   `json:"english,omitempty"`
	Case            string   `json:"case"`
	Options         []string `json:"options"`
	CorrectOption   int      `json:"correct_option"`
	ContextSentence string   `json:"context_sentence,omitempty"`
	Explanation     string   `json:"explanation,omitempty"`
}

// FillBlankExercise shows a German sentence with a single blank.
type FillBlankExercise struct {
	SentenceWithBlank string `json:"sentence_with_blank"`
	CorrectWord       string `json:"correct_word"`
	Hint              string `json:"hint,omitempty"`
	English           string `json:"english,omitempty"`
	Explanation       string `json:"explanation,omitempty"`
}

// ErrorDetectionExercise shows a German sentence containing exactly one
// grammatical error; the user submits the fully corrected sentence.
type ErrorDetectionExercise struct {
	FlawedSentence    string `json:"flawed_sentence"`
	CorrectedSentence string `json:"corrected_sentence"`
	ErrorType         string `json:"error_type,omitempty"`
	ErrorLocation     string `json:"error_location,omitempty"`
	English           string `json:"english,omitempty"`
	Explanation       string `json:"explanation,omitempty"`
}

// VerbConjugationExercise asks for the conjugated form of an infinitive for a
// given pronoun and tense. Compound tenses yield multi-word forms.
type VerbConjugationExercise struct {
	Infinitive      string `json:"infinitive"`
	English         string `json:"english,omitempty"`
	Pronoun         string `json:"pronoun"`
	Tense           Tense  `json:"tense"`
	CorrectForm     string `json:"correct_form"`
	ExampleSentence string `json:"example_sentence,omitempty"`
	Explanation     string `json:"explanation,omitempty"`
}

// SpeedTranslationExercise is a short timed phrase. Expiry is a stateless
// comparison against GeneratedAt; there is no server-side timer.
type SpeedTranslationExercise struct {
	SourceText       string    `json:"source_text"`
	ReferenceAnswer  string    `json:"reference_answer"`
	Difficulty       int       `json:"difficulty"`
	Category         string    `json:"category,omitempty"`
	GeneratedAt      time.Time `json:"generated_at"`
	TimeLimitSeconds int       `json:"time_limit_seconds"`
}

// Deadline returns the instant after which answers are expired.
func (e *SpeedTranslationExercise) Deadline() time.Time {
	return e.GeneratedAt.Add(time.Duration(e.TimeLimitSeconds) * time.Second)
}

// Expired reports whether an answer arriving at the given instant is late.
func (e *SpeedTranslationExercise) Expired(at time.Time) bool {
	return at.After(e.Deadline())
}

// Signature is a stable identity for the exercise, used to assert that
// repeated status() calls observe the same exercise.
func (e *Exercise) Signature() string {
	switch e.Type {
	case ModalityTranslation, ModalityInverseTranslation:
		return fmt.Sprintf("%s:%s", e.Type, e.Translation.SourceText)
	case ModalityWordSelection:
		return fmt.Sprintf("%s:%s", e.Type, e.WordSelection.SourceText)
	case ModalityArticleSelection:
		return fmt.Sprintf("%s:%s/%s", e.Type, e.ArticleSelection.Noun, e.ArticleSelection.Case)
	case ModalityFillBlank:
		return fmt.Sprintf("%s:%s", e.Type, e.FillBlank.SentenceWithBlank)
	case ModalityErrorDetection:
		return fmt.Sprintf("%s:%s", e.Type, e.ErrorDetection.FlawedSentence)
	case ModalityVerbConjugation:
		return fmt.Sprintf("%s:%s/%s/%s", e.Type, e.VerbConjugation.Infinitive, e.VerbConjugation.Pronoun, e.VerbConjugation.Tense)
	case ModalitySpeedTranslation:
		return fmt.Sprintf("%s:%s@%d", e.Type, e.SpeedTranslation.SourceText, e.SpeedTranslation.GeneratedAt.UnixNano())
	case ModalityConversation:
		return fmt.Sprintf("%s:%s", e.Type, e.Conversation.Scenario)
	}
	return string(e.Type)
}
