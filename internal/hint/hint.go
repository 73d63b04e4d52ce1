// Package hint derives progressive hint tiers from a generated exercise.
// Computation is pure: every tier comes from data fixed at generation time,
// so requesting a hint never costs a model call.
package hint

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/felixgeelhaar/sprich/internal/domain"
)

// Compute returns the full ladder of hints for an exercise, mildest first.
// The last tier always reveals the answer. The ladder length matches the
// modality's hint cap.
func Compute(ex *domain.Exercise) (domain.HintSet, error) {
	if ex == nil {
		return nil, domain.ErrNoExercise
	}

	switch ex.Type {
	case domain.ModalityTranslation:
		return translationHints(ex.Translation, true), nil
	case domain.ModalityInverseTranslation:
		return translationHints(ex.Translation, false), nil
	case domain.ModalityWordSelection:
		return wordSelectionHints(ex.WordSelection), nil
	case domain.ModalityArticleSelection:
		return articleSelectionHints(ex.ArticleSelection), nil
	case domain.ModalityFillBlank:
		return fillBlankHints(ex.FillBlank), nil
	case domain.ModalityErrorDetection:
		return errorDetectionHints(ex.ErrorDetection), nil
	case domain.ModalityVerbConjugation:
		return verbConjugationHints(ex.VerbConjugation), nil
	case domain.ModalitySpeedTranslation:
		return speedTranslationHints(ex.SpeedTranslation), nil
	case domain.ModalityConversation:
		return conversationHints(ex.Conversation), nil
	}
	return nil, fmt.Errorf("no hints for modality %q", ex.Type)
}

// germanToEnglish reports which side of the pair is German; the noun and
// half-answer tiers point at the German text either way.
func translationHints(ex *domain.TranslationExercise, germanToEnglish bool) domain.HintSet {
	german := ex.SourceText
	if !germanToEnglish {
		german = ex.ReferenceAnswer
	}

	verb := fmt.Sprintf("The verb is %q", ex.Verb)
	if ex.VerbEnglish != "" {
		verb = fmt.Sprintf("The verb is %q (%s)", ex.Verb, ex.VerbEnglish)
	}

	nouns := capitalizedWords(german)
	nounHint := "The sentence uses the tense " + string(ex.Tense)
	if len(nouns) > 0 {
		nounHint = "Nouns in the German sentence: " + strings.Join(nouns, ", ")
	}

	return domain.HintSet{
		verb,
		nounHint,
		"The answer starts with: " + firstHalf(ex.ReferenceAnswer),
		revealWithExplanation(ex.ReferenceAnswer, ex.Explanation),
	}
}

func wordSelectionHints(ex *domain.WordSelectionExercise) domain.HintSet {
	full := strings.Join(ex.CorrectOrder, " ")
	first := ""
	if len(ex.CorrectOrder) > 0 {
		first = ex.CorrectOrder[0]
	}

	return domain.HintSet{
		fmt.Sprintf("The sentence uses %d words", len(ex.CorrectOrder)),
		fmt.Sprintf("The first word is %q", first),
		"The sentence starts with: " + firstHalf(full),
		revealWithExplanation(full, ex.Explanation),
	}
}

func articleSelectionHints(ex *domain.ArticleSelectionExercise) domain.HintSet {
	context := "Think of the noun used in a sentence"
	if ex.ContextSentence != "" {
		blanked := strings.Replace(ex.ContextSentence, correctArticle(ex), "___", 1)
		context = "Example: " + blanked
	}

	answer := correctArticle(ex)
	return domain.HintSet{
		fmt.Sprintf("The noun is in the %s case", ex.Case),
		context,
		genderRule(ex),
		revealWithExplanation(answer+" "+ex.Noun, ex.Explanation),
	}
}

func fillBlankHints(ex *domain.FillBlankExercise) domain.HintSet {
	tier1 := ex.Hint
	if tier1 == "" {
		tier1 = "Read the whole sentence before choosing the word"
	}
	tier2 := "Meaning: " + ex.English
	if ex.English == "" {
		tier2 = "The missing word fits the sentence's grammar exactly"
	}

	return domain.HintSet{
		tier1,
		tier2,
		fmt.Sprintf("The word starts with %q and has %d letters",
			firstLetter(ex.CorrectWord), utf8.RuneCountInString(ex.CorrectWord)),
		revealWithExplanation(ex.CorrectWord, ex.Explanation),
	}
}

func errorDetectionHints(ex *domain.ErrorDetectionExercise) domain.HintSet {
	tier1 := "Compare each word against the grammar you know"
	if ex.ErrorType != "" {
		tier1 = "The error is about: " + ex.ErrorType
	}
	tier2 := "Meaning: " + ex.English
	if ex.English == "" {
		tier2 = "Exactly one word or ending is wrong"
	}
	tier3 := "Look near the middle of the sentence"
	if ex.ErrorLocation != "" {
		tier3 = "The error is at: " + ex.ErrorLocation
	}

	return domain.HintSet{
		tier1,
		tier2,
		tier3,
		revealWithExplanation(ex.CorrectedSentence, ex.Explanation),
	}
}

func verbConjugationHints(ex *domain.VerbConjugationExercise) domain.HintSet {
	tier1 := fmt.Sprintf("%q means %q; conjugate it in %s", ex.Infinitive, ex.English, ex.Tense)
	if ex.English == "" {
		tier1 = fmt.Sprintf("Conjugate %q in %s", ex.Infinitive, ex.Tense)
	}

	words := strings.Fields(ex.CorrectForm)
	initials := make([]string, len(words))
	for i, w := range words {
		initials[i] = firstLetter(w) + "…"
	}

	return domain.HintSet{
		tier1,
		fmt.Sprintf("The form for %q has %d word(s)", ex.Pronoun, len(words)),
		"It starts: " + strings.Join(initials, " "),
		revealWithExplanation(ex.CorrectForm, ex.Explanation),
	}
}

func speedTranslationHints(ex *domain.SpeedTranslationExercise) domain.HintSet {
	tier1 := "Short everyday phrase"
	if ex.Category != "" {
		tier1 = "Category: " + ex.Category
	}

	first := ""
	if fields := strings.Fields(ex.ReferenceAnswer); len(fields) > 0 {
		first = fields[0]
	}
	prefix := first
	if utf8.RuneCountInString(first) > 2 {
		runes := []rune(first)
		prefix = string(runes[:2]) + "…"
	}

	return domain.HintSet{
		tier1,
		"The first word starts: " + prefix,
		"The answer is: " + ex.ReferenceAnswer,
	}
}

func conversationHints(state *domain.ConversationState) domain.HintSet {
	tier1 := "Scene: " + state.Description
	if state.LearningFocus != "" {
		tier1 = "Focus on: " + state.LearningFocus
	}

	tier2 := "Reread the last line and pick the natural reply"
	for i := len(state.Turns) - 1; i >= 0; i-- {
		if state.Turns[i].Speaker == domain.SpeakerAI && state.Turns[i].TranslationNote != "" {
			tier2 = "The last line means: " + state.Turns[i].TranslationNote
			break
		}
	}

	return domain.HintSet{tier1, tier2}
}

func revealWithExplanation(answer, explanation string) string {
	if explanation == "" {
		return "The answer is: " + answer
	}
	return fmt.Sprintf("The answer is: %s (%s)", answer, explanation)
}

func correctArticle(ex *domain.ArticleSelectionExercise) string {
	if ex.CorrectOption >= 0 && ex.CorrectOption < len(ex.Options) {
		return ex.Options[ex.CorrectOption]
	}
	return ""
}

// genderRule names the noun's gender by reading the correct declined article
// back through the declension table.
func genderRule(ex *domain.ArticleSelectionExercise) string {
	gender := map[string]string{
		"der": "masculine or feminine-genitive",
		"den": "masculine",
		"dem": "masculine or neuter",
		"des": "masculine or neuter",
		"die": "feminine",
		"das": "neuter",
	}[correctArticle(ex)]
	if gender == "" {
		return "Remember how articles decline in the " + ex.Case + " case"
	}
	return fmt.Sprintf("The noun %q takes the %s form in %s", ex.Noun, gender, ex.Case)
}

// capitalizedWords collects likely nouns: capitalized words past the sentence
// start. German capitalizes all nouns, so this is a decent proxy.
func capitalizedWords(sentence string) []string {
	fields := strings.Fields(sentence)
	var nouns []string
	for i, f := range fields {
		if i == 0 {
			continue
		}
		w := strings.Trim(f, ".,!?;:\"'")
		r, _ := utf8.DecodeRuneInString(w)
		if unicode.IsUpper(r) {
			nouns = append(nouns, w)
		}
	}
	return nouns
}

func firstHalf(s string) string {
	fields := strings.Fields(s)
	if len(fields) <= 1 {
		return s
	}
	return strings.Join(fields[:(len(fields)+1)/2], " ") + " …"
}

func firstLetter(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return ""
	}
	return string(r)
}
