package generator

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/sprich/internal/ai"
	"github.com/felixgeelhaar/sprich/internal/domain"
	"github.com/felixgeelhaar/sprich/internal/vocab"
)

// Response shapes decoded from the model. Field names drive both the schema
// description in the prompt and the JSON decode.

type sentencePairResult struct {
	German      string `json:"german"`
	English     string `json:"english"`
	Explanation string `json:"explanation"`
}

type wordSelectionResult struct {
	English     string   `json:"english"`
	GermanWords []string `json:"german_words"`
	Distractors []string `json:"distractors"`
	Explanation string   `json:"explanation"`
}

type articleContextResult struct {
	ContextSentence string `json:"context_sentence"`
	Explanation     string `json:"explanation"`
}

type fillBlankResult struct {
	SentenceWithBlank string `json:"sentence_with_blank"`
	CorrectWord       string `json:"correct_word"`
	Hint              string `json:"hint"`
	English           string `json:"english"`
	Explanation       string `json:"explanation"`
}

type errorDetectionResult struct {
	FlawedSentence    string `json:"flawed_sentence"`
	CorrectedSentence string `json:"corrected_sentence"`
	ErrorType         string `json:"error_type"`
	ErrorLocation     string `json:"error_location"`
	English           string `json:"english"`
	Explanation       string `json:"explanation"`
}

type conjugationResult struct {
	CorrectForm     string `json:"correct_form"`
	ExampleSentence string `json:"example_sentence"`
	Explanation     string `json:"explanation"`
}

type speedPhraseResult struct {
	German   string `json:"german"`
	English  string `json:"english"`
	Category string `json:"category"`
}

var (
	sentencePairSchema = ai.Schema{
		Name:        "sentence_pair",
		Description: `{"german": string, "english": string, "explanation": string}`,
	}
	wordSelectionSchema = ai.Schema{
		Name:        "word_selection",
		Description: `{"english": string, "german_words": [string], "distractors": [string], "explanation": string}`,
	}
	articleContextSchema = ai.Schema{
		Name:        "article_context",
		Description: `{"context_sentence": string, "explanation": string}`,
	}
	fillBlankSchema = ai.Schema{
		Name:        "fill_blank",
		Description: `{"sentence_with_blank": string, "correct_word": string, "hint": string, "english": string, "explanation": string}`,
	}
	errorDetectionSchema = ai.Schema{
		Name:        "error_detection",
		Description: `{"flawed_sentence": string, "corrected_sentence": string, "error_type": string, "error_location": string, "english": string, "explanation": string}`,
	}
	conjugationSchema = ai.Schema{
		Name:        "conjugation",
		Description: `{"correct_form": string, "example_sentence": string, "explanation": string}`,
	}
	speedPhraseSchema = ai.Schema{
		Name:        "speed_phrase",
		Description: `{"german": string, "english": string, "category": string}`,
	}
)

func difficultyClause(cfg domain.Config) string {
	return fmt.Sprintf("Target difficulty %d on a 1 (beginner) to 5 (advanced) scale.", cfg.MaxFrequency)
}

func sentencePairPrompt(entry *vocab.Entry, cfg domain.Config) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Create one German practice sentence using the verb %q (%s) in the %s tense.\n",
		entry.Word, entry.English, cfg.Tense)
	if entry.Case != "" {
		fmt.Fprintf(&sb, "The verb governs the %s case.\n", entry.Case)
	}
	sb.WriteString(difficultyClause(cfg))
	sb.WriteString("\nProvide the German sentence, its natural English translation," +
		" and a one-sentence grammar explanation.")
	return sb.String()
}

func wordSelectionPrompt(entry *vocab.Entry, cfg domain.Config) string {
	return fmt.Sprintf("Create a short German sentence using the verb %q (%s) in the %s tense. %s\n"+
		"Return the English meaning, the German sentence split into its words in order,"+
		" and 2-3 plausible German distractor words that do NOT belong in the sentence.",
		entry.Word, entry.English, cfg.Tense, difficultyClause(cfg))
}

func articleContextPrompt(entry *vocab.Entry, grammaticalCase, correct string) string {
	return fmt.Sprintf("The German noun %q (%s) takes the article %q in the %s case.\n"+
		"Write one short German sentence using %q %q in the %s case,"+
		" and a one-sentence explanation of why that article form is used.",
		entry.Word, entry.English, correct, grammaticalCase,
		correct, entry.Word, grammaticalCase)
}

func fillBlankPrompt(entry *vocab.Entry, cfg domain.Config) string {
	return fmt.Sprintf("Create a German fill-in-the-blank exercise around the word %q (%s). %s\n"+
		"The sentence must contain exactly one blank written as ___ where %q belongs."+
		" Provide the sentence with the blank, the missing word, a short hint that does not reveal it,"+
		" the English meaning of the full sentence, and a one-sentence explanation.",
		entry.Word, entry.English, difficultyClause(cfg), entry.Word)
}

func errorDetectionPrompt(entry *vocab.Entry, cfg domain.Config) string {
	return fmt.Sprintf("Create a German error-detection exercise using the verb %q (%s) in the %s tense. %s\n"+
		"Write a German sentence containing exactly one grammatical error, the fully corrected sentence,"+
		" the error category, the word where the error sits, the English meaning,"+
		" and a one-sentence explanation of the fix.",
		entry.Word, entry.English, cfg.Tense, difficultyClause(cfg))
}

func conjugationPrompt(entry *vocab.Entry, pronoun string, tense domain.Tense) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Conjugate the German verb %q (%s) for the pronoun %q in the %s tense.\n",
		entry.Word, entry.English, pronoun, tense)
	if !entry.Regular && entry.Praeteritum != "" {
		fmt.Fprintf(&sb, "It is irregular: Präteritum %q, Partizip II %q.\n",
			entry.Praeteritum, entry.Participle)
	}
	sb.WriteString("Provide the conjugated form exactly as written after the pronoun" +
		" (including auxiliaries for compound tenses), one example sentence using it," +
		" and a one-sentence explanation.")
	return sb.String()
}

func speedPhrasePrompt(cfg domain.Config) string {
	return fmt.Sprintf("Create one very short everyday German phrase (2-5 words) for rapid translation practice. %s\n"+
		"Provide the German phrase, its English translation, and a one-word category"+
		" such as greetings, food, travel or time.", difficultyClause(cfg))
}
