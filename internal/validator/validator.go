// Package validator judges submitted answers. Option and ordering modalities
// are judged locally; free-text modalities go to the AI collaborator with a
// local fallback so an unreachable model degrades feedback quality instead of
// failing the answer.
package validator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/felixgeelhaar/sprich/internal/ai"
	"github.com/felixgeelhaar/sprich/internal/domain"
)

// Answer carries one submission. Text modalities use Text, article selection
// uses OptionIndex, word selection uses Words (falling back to splitting
// Text on spaces).
type Answer struct {
	Text        string   `json:"text,omitempty"`
	OptionIndex *int     `json:"option_index,omitempty"`
	Words       []string `json:"words,omitempty"`
}

type judgment struct {
	IsCorrect     bool   `json:"is_correct"`
	Feedback      string `json:"feedback"`
	CorrectAnswer string `json:"correct_answer"`
	Explanation   string `json:"explanation"`
}

var judgmentSchema = ai.Schema{
	Name:        "judgment",
	Description: `{"is_correct": bool, "feedback": string, "correct_answer": string, "explanation": string}`,
}

// Validator judges answers against a generated exercise.
type Validator struct {
	ai     ai.Service
	logger *slog.Logger
}

// New creates a validator.
func New(aiSvc ai.Service, logger *slog.Logger) *Validator {
	return &Validator{ai: aiSvc, logger: logger}
}

// Validate judges one answer. The at instant is when the answer arrived;
// only speed translation reads it. Conversation turns are judged by the
// conversation package, not here.
func (v *Validator) Validate(ctx context.Context, ex *domain.Exercise, ans Answer, at time.Time) (*domain.ValidationResult, error) {
	if ex == nil {
		return nil, domain.ErrNoExercise
	}

	switch ex.Type {
	case domain.ModalityTranslation, domain.ModalityInverseTranslation:
		t := ex.Translation
		return v.judgeText(ctx, "Translate: "+t.SourceText, ans.Text, t.ReferenceAnswer, t.Explanation), nil
	case domain.ModalityWordSelection:
		return v.judgeWordOrder(ex.WordSelection, ans), nil
	case domain.ModalityArticleSelection:
		return v.judgeOption(ex.ArticleSelection, ans)
	case domain.ModalityFillBlank:
		f := ex.FillBlank
		return v.judgeText(ctx, "Fill the blank: "+f.SentenceWithBlank, ans.Text, f.CorrectWord, f.Explanation), nil
	case domain.ModalityErrorDetection:
		e := ex.ErrorDetection
		return v.judgeText(ctx, "Correct this sentence: "+e.FlawedSentence, ans.Text, e.CorrectedSentence, e.Explanation), nil
	case domain.ModalityVerbConjugation:
		c := ex.VerbConjugation
		question := fmt.Sprintf("Conjugate %q for %q in %s", c.Infinitive, c.Pronoun, c.Tense)
		return v.judgeText(ctx, question, ans.Text, c.CorrectForm, c.Explanation), nil
	case domain.ModalitySpeedTranslation:
		return judgeSpeed(ex.SpeedTranslation, ans, at), nil
	}
	return nil, fmt.Errorf("no validator for modality %q", ex.Type)
}

// judgeText judges a free-text answer. The AI decides whether the answer is
// an acceptable variant of the reference; when the model is unreachable a
// local comparison answers instead, flagged degraded.
func (v *Validator) judgeText(ctx context.Context, question, answer, reference, explanation string) *domain.ValidationResult {
	prompt := fmt.Sprintf("Question: %s\nReference answer: %s\nStudent answer: %s\n"+
		"Judge whether the student answer is an acceptable variant of the reference"+
		" (synonyms and equivalent phrasings count). Give short encouraging feedback"+
		" in English and a one-sentence explanation.",
		question, reference, answer)

	var j judgment
	if err := v.ai.Generate(ctx, prompt, judgmentSchema, &j); err != nil {
		v.logger.Warn("semantic validation unavailable, using fallback", "error", err)
		return fallbackJudge(answer, reference, explanation)
	}

	correct := j.CorrectAnswer
	if correct == "" {
		correct = reference
	}
	explain := j.Explanation
	if explain == "" {
		explain = explanation
	}
	return &domain.ValidationResult{
		IsCorrect:     j.IsCorrect,
		Message:       j.Feedback,
		CorrectAnswer: correct,
		Explanation:   explain,
	}
}

// fallbackJudge is the degraded local comparison: trimmed case-insensitive
// equality, then a containment check for answers wrapped in extra words.
func fallbackJudge(answer, reference, explanation string) *domain.ValidationResult {
	res := &domain.ValidationResult{
		CorrectAnswer: reference,
		Explanation:   explanation,
		Degraded:      true,
	}

	a, r := normalize(answer), normalize(reference)
	switch {
	case a == r:
		res.IsCorrect = true
		res.Message = "Correct!"
	case a != "" && strings.Contains(a, r):
		res.IsCorrect = true
		res.Message = "Correct (matched without AI feedback)."
	default:
		res.Message = "Not quite. Compare your answer with the reference."
	}
	return res
}

func (v *Validator) judgeWordOrder(ex *domain.WordSelectionExercise, ans Answer) *domain.ValidationResult {
	words := ans.Words
	if len(words) == 0 {
		words = strings.Fields(ans.Text)
	}

	full := strings.Join(ex.CorrectOrder, " ")
	res := &domain.ValidationResult{
		CorrectAnswer: full,
		Explanation:   ex.Explanation,
	}

	if len(words) != len(ex.CorrectOrder) {
		res.Message = fmt.Sprintf("The sentence has %d words, you used %d.", len(ex.CorrectOrder), len(words))
		return res
	}
	for i, w := range words {
		if !strings.EqualFold(strings.TrimSpace(w), ex.CorrectOrder[i]) {
			res.Message = fmt.Sprintf("Word %d is wrong: expected %q.", i+1, ex.CorrectOrder[i])
			return res
		}
	}

	res.IsCorrect = true
	res.Message = "Correct!"
	return res
}

func (v *Validator) judgeOption(ex *domain.ArticleSelectionExercise, ans Answer) (*domain.ValidationResult, error) {
	if ans.OptionIndex == nil {
		return nil, fmt.Errorf("%w: article selection needs an option index", domain.ErrInvalidOption)
	}
	idx := *ans.OptionIndex
	if idx < 0 || idx >= len(ex.Options) {
		return nil, fmt.Errorf("%w: index %d outside 0-%d", domain.ErrInvalidOption, idx, len(ex.Options)-1)
	}

	correct := ex.Options[ex.CorrectOption]
	res := &domain.ValidationResult{
		CorrectAnswer: correct + " " + ex.Noun,
		Explanation:   ex.Explanation,
	}
	if idx == ex.CorrectOption {
		res.IsCorrect = true
		res.Message = "Correct!"
	} else {
		res.Message = fmt.Sprintf("%q is wrong here: %q takes %q in the %s case.",
			ex.Options[idx], ex.Noun, correct, ex.Case)
	}
	return res, nil
}

// judgeSpeed is fully local: expiry first, then normalized comparison. The
// answer window is too short for a model round-trip.
func judgeSpeed(ex *domain.SpeedTranslationExercise, ans Answer, at time.Time) *domain.ValidationResult {
	res := &domain.ValidationResult{CorrectAnswer: ex.ReferenceAnswer}

	if ex.Expired(at) {
		res.Expired = true
		res.Message = fmt.Sprintf("Time's up! The answer was %q.", ex.ReferenceAnswer)
		return res
	}

	if normalize(ans.Text) == normalize(ex.ReferenceAnswer) {
		res.IsCorrect = true
		res.Message = "Correct!"
	} else {
		res.Message = fmt.Sprintf("Not quite: %q means %q.", ex.SourceText, ex.ReferenceAnswer)
	}
	return res
}

// normalize lowercases, trims and strips terminal punctuation so "Good
// morning." matches "good morning".
func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimRight(s, ".!?")
	return strings.Join(strings.Fields(s), " ")
}
