package validator

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/felixgeelhaar/sprich/internal/ai"
	"github.com/felixgeelhaar/sprich/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeAI struct {
	response string
	err      error
	calls    int
}

func (f *fakeAI) Generate(ctx context.Context, prompt string, schema ai.Schema, out any) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return json.Unmarshal([]byte(f.response), out)
}

func intp(i int) *int { return &i }

func translationExercise() *domain.Exercise {
	return &domain.Exercise{
		Type: domain.ModalityTranslation,
		Translation: &domain.TranslationExercise{
			SourceText:      "Ich esse einen Apfel",
			ReferenceAnswer: "I eat an apple",
			Explanation:     "essen takes the accusative",
		},
	}
}

func TestExactAnswerDuringOutage(t *testing.T) {
	fa := &fakeAI{err: errors.New("provider down")}
	v := New(fa, discardLogger())

	res, err := v.Validate(context.Background(), translationExercise(),
		Answer{Text: "  I eat an apple.  "}, time.Now())
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !res.IsCorrect {
		t.Error("exact answer should pass the local fallback")
	}
	if !res.Degraded {
		t.Error("outage judgment must be flagged degraded")
	}
}

func TestFreeTextAlwaysConsultsAI(t *testing.T) {
	fa := &fakeAI{response: `{"is_correct":true,"feedback":"Correct!","correct_answer":"I eat an apple","explanation":""}`}
	v := New(fa, discardLogger())

	res, err := v.Validate(context.Background(), translationExercise(),
		Answer{Text: "I eat an apple"}, time.Now())
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !res.IsCorrect {
		t.Error("exact answer should be correct")
	}
	if fa.calls != 1 {
		t.Errorf("AI calls = %d; want 1, free text is always judged by the model", fa.calls)
	}
	if res.Degraded {
		t.Error("judgment with the model reachable is not degraded")
	}
}

func TestSemanticJudgmentViaAI(t *testing.T) {
	fa := &fakeAI{response: `{"is_correct":true,"feedback":"Nice, a valid synonym.","correct_answer":"I eat an apple","explanation":"am eating works too"}`}
	v := New(fa, discardLogger())

	res, err := v.Validate(context.Background(), translationExercise(),
		Answer{Text: "I am eating an apple"}, time.Now())
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !res.IsCorrect {
		t.Error("AI-accepted variant should be correct")
	}
	if res.Message != "Nice, a valid synonym." {
		t.Errorf("Message = %q", res.Message)
	}
	if fa.calls != 1 {
		t.Errorf("AI calls = %d; want 1", fa.calls)
	}
}

func TestDegradedFallback(t *testing.T) {
	fa := &fakeAI{err: errors.New("provider down")}
	v := New(fa, discardLogger())

	tests := []struct {
		name    string
		answer  string
		correct bool
	}{
		{"case-insensitive exact", "i eat an apple", true},
		{"containment", "well, I eat an apple of course", true},
		{"wrong", "I drink water", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := v.Validate(context.Background(), translationExercise(),
				Answer{Text: tt.answer}, time.Now())
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if !res.Degraded {
				t.Error("fallback judgment should be marked degraded")
			}
			if res.IsCorrect != tt.correct {
				t.Errorf("IsCorrect = %v; want %v", res.IsCorrect, tt.correct)
			}
		})
	}
}

func TestWordOrderJudgedLocally(t *testing.T) {
	fa := &fakeAI{}
	v := New(fa, discardLogger())
	ex := &domain.Exercise{
		Type: domain.ModalityWordSelection,
		WordSelection: &domain.WordSelectionExercise{
			SourceText:   "I drink water",
			CorrectOrder: []string{"Ich", "trinke", "Wasser"},
		},
	}

	res, err := v.Validate(context.Background(), ex,
		Answer{Words: []string{"Ich", "trinke", "Wasser"}}, time.Now())
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !res.IsCorrect {
		t.Error("correct order should pass")
	}

	res, err = v.Validate(context.Background(), ex,
		Answer{Text: "Ich Wasser trinke"}, time.Now())
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if res.IsCorrect {
		t.Error("wrong order should fail")
	}

	if fa.calls != 0 {
		t.Errorf("AI calls = %d; want 0 for word selection", fa.calls)
	}
}

func TestArticleOptionBounds(t *testing.T) {
	v := New(&fakeAI{}, discardLogger())
	ex := &domain.Exercise{
		Type: domain.ModalityArticleSelection,
		ArticleSelection: &domain.ArticleSelectionExercise{
			Noun:          "Hund",
			Case:          "Akkusativ",
			Options:       []string{"der", "den", "dem"},
			CorrectOption: 1,
		},
	}

	res, err := v.Validate(context.Background(), ex, Answer{OptionIndex: intp(1)}, time.Now())
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !res.IsCorrect {
		t.Error("correct option should pass")
	}

	_, err = v.Validate(context.Background(), ex, Answer{OptionIndex: intp(7)}, time.Now())
	if !errors.Is(err, domain.ErrInvalidOption) {
		t.Errorf("out-of-range error = %v; want ErrInvalidOption", err)
	}

	_, err = v.Validate(context.Background(), ex, Answer{Text: "den"}, time.Now())
	if !errors.Is(err, domain.ErrInvalidOption) {
		t.Errorf("missing index error = %v; want ErrInvalidOption", err)
	}
}

func TestSpeedExpiryBeatsCorrectText(t *testing.T) {
	v := New(&fakeAI{}, discardLogger())
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ex := &domain.Exercise{
		Type: domain.ModalitySpeedTranslation,
		SpeedTranslation: &domain.SpeedTranslationExercise{
			SourceText:       "Guten Morgen",
			ReferenceAnswer:  "Good morning",
			GeneratedAt:      start,
			TimeLimitSeconds: 5,
		},
	}

	res, err := v.Validate(context.Background(), ex,
		Answer{Text: "Good morning"}, start.Add(6*time.Second))
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if res.IsCorrect {
		t.Error("expired answer must be incorrect even when the text matches")
	}
	if !res.Expired {
		t.Error("result should be flagged expired")
	}

	res, err = v.Validate(context.Background(), ex,
		Answer{Text: "good morning!"}, start.Add(3*time.Second))
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !res.IsCorrect || res.Expired {
		t.Errorf("in-time answer: IsCorrect=%v Expired=%v; want true/false", res.IsCorrect, res.Expired)
	}
}

func TestValidateNilExercise(t *testing.T) {
	v := New(&fakeAI{}, discardLogger())
	_, err := v.Validate(context.Background(), nil, Answer{}, time.Now())
	if !errors.Is(err, domain.ErrNoExercise) {
		t.Errorf("error = %v; want ErrNoExercise", err)
	}
}
