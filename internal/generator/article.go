package generator

import (
	"math/rand/v2"

	"github.com/felixgeelhaar/sprich/internal/domain"
)

// Grammatical cases in teaching order. Lower difficulty bands stay in
// Nominativ; the hardest band draws from Dativ and Genitiv.
const (
	CaseNominativ = "Nominativ"
	CaseAkkusativ = "Akkusativ"
	CaseDativ     = "Dativ"
	CaseGenitiv   = "Genitiv"
)

// declension maps case and gender article (der/die/das) to the declined form.
var declension = map[string]map[string]string{
	CaseNominativ: {"der": "der", "die": "die", "das": "das"},
	CaseAkkusativ: {"der": "den", "die": "die", "das": "das"},
	CaseDativ:     {"der": "dem", "die": "der", "das": "dem"},
	CaseGenitiv:   {"der": "des", "die": "der", "das": "des"},
}

// extraDistractor pads option lists for cases whose declined forms collapse
// to fewer than three distinct articles.
var extraDistractor = map[string]string{
	CaseDativ:   "den",
	CaseGenitiv: "dem",
}

// caseForDifficulty picks the grammatical case to drill, keyed off the upper
// end of the frequency band.
func caseForDifficulty(cfg domain.Config) string {
	switch {
	case cfg.MaxFrequency <= 2:
		return CaseNominativ
	case cfg.MaxFrequency <= 4:
		return CaseAkkusativ
	default:
		if rand.IntN(2) == 0 {
			return CaseDativ
		}
		return CaseGenitiv
	}
}

// declineArticle returns the declined form of a noun's base article in a case.
func declineArticle(baseArticle, grammaticalCase string) string {
	return declension[grammaticalCase][baseArticle]
}

// articleOptions builds a shuffled option list for a case containing the
// correct declined form, and returns the list with the correct index.
func articleOptions(baseArticle, grammaticalCase string) ([]string, int) {
	correct := declineArticle(baseArticle, grammaticalCase)

	seen := map[string]bool{}
	options := make([]string, 0, 4)
	for _, gender := range []string{"der", "die", "das"} {
		form := declension[grammaticalCase][gender]
		if !seen[form] {
			seen[form] = true
			options = append(options, form)
		}
	}
	if len(options) < 3 {
		if extra := extraDistractor[grammaticalCase]; extra != "" && !seen[extra] {
			options = append(options, extra)
		}
	}

	rand.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	for i, o := range options {
		if o == correct {
			return options, i
		}
	}
	// Unreachable: the correct form is always one of the declined forms.
	return options, 0
}
