package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/felixgeelhaar/sprich/internal/ai"
	"github.com/felixgeelhaar/sprich/internal/domain"
	"github.com/felixgeelhaar/sprich/internal/vocab"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeAI answers every Generate call by unmarshalling a canned JSON document
// keyed by schema name.
type fakeAI struct {
	responses map[string]string
	failFirst int
	calls     int
}

func (f *fakeAI) Generate(ctx context.Context, prompt string, schema ai.Schema, out any) error {
	f.calls++
	if f.calls <= f.failFirst {
		return fmt.Errorf("%w: scripted failure", domain.ErrGeneration)
	}
	doc, ok := f.responses[schema.Name]
	if !ok {
		return fmt.Errorf("%w: no canned response for %s", domain.ErrGeneration, schema.Name)
	}
	return json.Unmarshal([]byte(doc), out)
}

type fakeVocab struct {
	entries map[vocab.PartOfSpeech]*vocab.Entry
	empty   bool
	calls   []int
}

func (f *fakeVocab) RandomEntry(ctx context.Context, minFreq, maxFreq int, pos vocab.PartOfSpeech) (*vocab.Entry, error) {
	f.calls = append(f.calls, minFreq, maxFreq)
	if f.empty && (minFreq != domain.MinDifficulty || maxFreq != domain.MaxDifficulty) {
		return nil, vocab.ErrEmptyRange
	}
	if e, ok := f.entries[pos]; ok {
		return e, nil
	}
	if e, ok := f.entries[vocab.PartAny]; ok {
		return e, nil
	}
	return nil, vocab.ErrEmptyRange
}

func defaultVocab() *fakeVocab {
	return &fakeVocab{entries: map[vocab.PartOfSpeech]*vocab.Entry{
		vocab.PartVerb: {Word: "essen", English: "to eat", PartOfSpeech: vocab.PartVerb,
			Frequency: 1, Case: "Akkusativ", Praeteritum: "aß", Participle: "gegessen"},
		vocab.PartNoun: {Word: "Hund", English: "dog", PartOfSpeech: vocab.PartNoun,
			Frequency: 1, Article: "der"},
		vocab.PartAny: {Word: "Haus", English: "house", PartOfSpeech: vocab.PartNoun,
			Frequency: 1, Article: "das"},
	}}
}

func defaultResponses() map[string]string {
	return map[string]string{
		"sentence_pair":   `{"german":"Ich esse einen Apfel","english":"I eat an apple","explanation":"essen takes the accusative"}`,
		"word_selection":  `{"english":"I eat an apple","german_words":["Ich","esse","einen","Apfel"],"distractors":["trinke","der"],"explanation":"verb second"}`,
		"article_context": `{"context_sentence":"Ich sehe den Hund.","explanation":"Akkusativ masculine is den"}`,
		"fill_blank":      `{"sentence_with_blank":"Ich ___ nach Hause","correct_word":"gehe","hint":"a verb of motion","english":"I go home","explanation":"first person singular"}`,
		"error_detection": `{"flawed_sentence":"Ich habe nach Hause gegangen","corrected_sentence":"Ich bin nach Hause gegangen","error_type":"auxiliary verb","error_location":"habe","english":"I went home","explanation":"gehen uses sein"}`,
		"conjugation":     `{"correct_form":"isst","example_sentence":"Du isst Brot.","explanation":"stem vowel change"}`,
		"speed_phrase":    `{"german":"Guten Morgen","english":"Good morning","category":"greetings"}`,
	}
}

func testConfig(m domain.Modality) domain.Config {
	cfg := domain.Config{MinFrequency: 1, MaxFrequency: 2, Modality: m, Tense: domain.TensePraesens}
	cfg.Normalize()
	return cfg
}

func TestGenerateEveryModality(t *testing.T) {
	for _, m := range domain.Modalities {
		if m == domain.ModalityConversation {
			continue
		}
		t.Run(string(m), func(t *testing.T) {
			g := New(&fakeAI{responses: defaultResponses()}, defaultVocab(), discardLogger())
			ex, err := g.Generate(context.Background(), testConfig(m))
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if ex.Type != m {
				t.Errorf("Type = %q; want %q", ex.Type, m)
			}
		})
	}
}

func TestTranslationDirections(t *testing.T) {
	g := New(&fakeAI{responses: defaultResponses()}, defaultVocab(), discardLogger())

	ex, err := g.Generate(context.Background(), testConfig(domain.ModalityTranslation))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if ex.Translation.SourceText != "Ich esse einen Apfel" {
		t.Errorf("translation source = %q; want German", ex.Translation.SourceText)
	}

	ex, err = g.Generate(context.Background(), testConfig(domain.ModalityInverseTranslation))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if ex.Translation.SourceText != "I eat an apple" {
		t.Errorf("inverse source = %q; want English", ex.Translation.SourceText)
	}
	if ex.Translation.ReferenceAnswer != "Ich esse einen Apfel" {
		t.Errorf("inverse reference = %q; want German", ex.Translation.ReferenceAnswer)
	}
}

func TestWordSelectionBankContainsAnswerAndDistractors(t *testing.T) {
	g := New(&fakeAI{responses: defaultResponses()}, defaultVocab(), discardLogger())

	ex, err := g.Generate(context.Background(), testConfig(domain.ModalityWordSelection))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	ws := ex.WordSelection

	if len(ws.WordBank) != 6 {
		t.Fatalf("bank size = %d; want 6", len(ws.WordBank))
	}
	want := []string{"Apfel", "Ich", "der", "einen", "esse", "trinke"}
	got := append([]string(nil), ws.WordBank...)
	sort.Strings(got)
	for i, w := range want {
		if got[i] != w {
			t.Fatalf("bank = %v; want words %v", ws.WordBank, want)
		}
	}
}

func TestArticleSelectionCorrectOptionIsLocal(t *testing.T) {
	g := New(&fakeAI{responses: defaultResponses()}, defaultVocab(), discardLogger())
	cfg := testConfig(domain.ModalityArticleSelection)
	cfg.MaxFrequency = 3 // Akkusativ band

	ex, err := g.Generate(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	as := ex.ArticleSelection

	if as.Case != CaseAkkusativ {
		t.Errorf("Case = %q; want Akkusativ", as.Case)
	}
	if as.Options[as.CorrectOption] != "den" {
		t.Errorf("correct option = %q; want den for masculine Akkusativ", as.Options[as.CorrectOption])
	}
}

func TestArticleSelectionSurvivesAIFailure(t *testing.T) {
	// Both attempts at the decorative context fail; the exercise still works.
	g := New(&fakeAI{responses: map[string]string{}}, defaultVocab(), discardLogger())

	ex, err := g.Generate(context.Background(), testConfig(domain.ModalityArticleSelection))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if ex.ArticleSelection.ContextSentence != "" {
		t.Errorf("ContextSentence = %q; want empty on AI failure", ex.ArticleSelection.ContextSentence)
	}
	if ex.ArticleSelection.Options[ex.ArticleSelection.CorrectOption] != "der" {
		t.Errorf("correct option = %q; want der for masculine Nominativ",
			ex.ArticleSelection.Options[ex.ArticleSelection.CorrectOption])
	}
}

func TestGenerateRetriesOnce(t *testing.T) {
	fa := &fakeAI{responses: defaultResponses(), failFirst: 1}
	g := New(fa, defaultVocab(), discardLogger())

	if _, err := g.Generate(context.Background(), testConfig(domain.ModalityTranslation)); err != nil {
		t.Fatalf("Generate() error = %v; want success after retry", err)
	}
	if fa.calls != 2 {
		t.Errorf("AI calls = %d; want 2", fa.calls)
	}
}

func TestGenerateFailsAfterTwoAttempts(t *testing.T) {
	fa := &fakeAI{responses: defaultResponses(), failFirst: 2}
	g := New(fa, defaultVocab(), discardLogger())

	_, err := g.Generate(context.Background(), testConfig(domain.ModalityTranslation))
	if !errors.Is(err, domain.ErrGeneration) {
		t.Errorf("error = %v; want ErrGeneration", err)
	}
}

func TestEmptyBandRelaxesToFullRange(t *testing.T) {
	fv := defaultVocab()
	fv.empty = true
	g := New(&fakeAI{responses: defaultResponses()}, fv, discardLogger())

	cfg := testConfig(domain.ModalityTranslation)
	cfg.MinFrequency, cfg.MaxFrequency = 4, 4

	if _, err := g.Generate(context.Background(), cfg); err != nil {
		t.Fatalf("Generate() error = %v; want fallback to full band", err)
	}
	// Second call must be the relaxed full band.
	if len(fv.calls) != 4 || fv.calls[2] != domain.MinDifficulty || fv.calls[3] != domain.MaxDifficulty {
		t.Errorf("vocab calls = %v; want relaxed retry 1-5", fv.calls)
	}
}

func TestSpeedTranslationTimeLimits(t *testing.T) {
	tests := []struct {
		difficulty int
		wantLimit  int
	}{
		{1, 15}, {2, 12}, {3, 10}, {4, 8}, {5, 6},
	}

	for _, tt := range tests {
		g := New(&fakeAI{responses: defaultResponses()}, defaultVocab(), discardLogger())
		cfg := testConfig(domain.ModalitySpeedTranslation)
		cfg.MinFrequency, cfg.MaxFrequency = 1, tt.difficulty

		ex, err := g.Generate(context.Background(), cfg)
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		st := ex.SpeedTranslation
		if st.TimeLimitSeconds != tt.wantLimit {
			t.Errorf("difficulty %d: limit = %d; want %d", tt.difficulty, st.TimeLimitSeconds, tt.wantLimit)
		}
		if st.GeneratedAt.IsZero() {
			t.Error("GeneratedAt is zero")
		}
	}
}

func TestCaseForDifficulty(t *testing.T) {
	if c := caseForDifficulty(domain.Config{MaxFrequency: 2}); c != CaseNominativ {
		t.Errorf("band 2 case = %q; want Nominativ", c)
	}
	if c := caseForDifficulty(domain.Config{MaxFrequency: 4}); c != CaseAkkusativ {
		t.Errorf("band 4 case = %q; want Akkusativ", c)
	}
	for i := 0; i < 20; i++ {
		c := caseForDifficulty(domain.Config{MaxFrequency: 5})
		if c != CaseDativ && c != CaseGenitiv {
			t.Fatalf("band 5 case = %q; want Dativ or Genitiv", c)
		}
	}
}

func TestArticleOptionsAlwaysContainCorrect(t *testing.T) {
	for _, grammaticalCase := range []string{CaseNominativ, CaseAkkusativ, CaseDativ, CaseGenitiv} {
		for _, article := range []string{"der", "die", "das"} {
			options, idx := articleOptions(article, grammaticalCase)
			if len(options) < 3 {
				t.Errorf("%s/%s: %d options; want at least 3", grammaticalCase, article, len(options))
			}
			want := declineArticle(article, grammaticalCase)
			if options[idx] != want {
				t.Errorf("%s/%s: options[%d] = %q; want %q", grammaticalCase, article, idx, options[idx], want)
			}
		}
	}
}
