package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSpeedTranslationExpiry(t *testing.T) {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ex := &SpeedTranslationExercise{
		SourceText:       "Guten Morgen",
		ReferenceAnswer:  "Good morning",
		GeneratedAt:      start,
		TimeLimitSeconds: 5,
	}

	if ex.Expired(start.Add(4 * time.Second)) {
		t.Error("answer within the limit should not be expired")
	}
	if ex.Expired(start.Add(5 * time.Second)) {
		t.Error("answer exactly at the deadline should not be expired")
	}
	if !ex.Expired(start.Add(6 * time.Second)) {
		t.Error("answer one second past the deadline should be expired")
	}
}

func TestExerciseWireShape(t *testing.T) {
	ex := &Exercise{
		Type: ModalityArticleSelection,
		ArticleSelection: &ArticleSelectionExercise{
			Noun:          "Hund",
			Case:          "Akkusativ",
			Options:       []string{"der", "den", "dem"},
			CorrectOption: 1,
		},
	}

	data, err := json.Marshal(ex)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if decoded["type"] != "article_selection" {
		t.Errorf("wire type = %v; want article_selection", decoded["type"])
	}
	if _, ok := decoded["article_selection"]; !ok {
		t.Error("wire object missing article_selection variant")
	}
	if _, ok := decoded["translation"]; ok {
		t.Error("wire object should omit unset variants")
	}
}

func TestExerciseSignatureStable(t *testing.T) {
	ex := &Exercise{
		Type:        ModalityTranslation,
		Translation: &TranslationExercise{SourceText: "Ich esse einen Apfel", ReferenceAnswer: "I eat an apple"},
	}

	if ex.Signature() != ex.Signature() {
		t.Error("Signature() should be stable across calls")
	}

	other := &Exercise{
		Type:        ModalityTranslation,
		Translation: &TranslationExercise{SourceText: "Ich trinke Wasser", ReferenceAnswer: "I drink water"},
	}
	if ex.Signature() == other.Signature() {
		t.Error("different exercises should have different signatures")
	}
}
