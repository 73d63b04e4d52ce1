package domain

// ValidationResult is the uniform judgment for any answered exercise.
// Degraded marks judgments made by the local fallback comparison because the
// AI collaborator was unreachable; the outer layer should disclose the
// reduced confidence instead of treating it as an error.
type ValidationResult struct {
	IsCorrect     bool   `json:"is_correct"`
	Message       string `json:"message"`
	CorrectAnswer string `json:"correct_answer,omitempty"`
	Explanation   string `json:"explanation,omitempty"`
	Degraded      bool   `json:"degraded,omitempty"`

	// Expired is set for speed translation answers that arrived after the
	// deadline; expiry forces IsCorrect=false regardless of the text.
	Expired bool `json:"expired,omitempty"`

	// PointsEarned is non-zero for correct speed translation answers.
	PointsEarned int `json:"points_earned,omitempty"`
}

// HintSet is the fixed ordered sequence of progressively revealing hint
// tiers for one exercise, computed once at generation time. A session's hint
// level selects a prefix of this sequence.
type HintSet []string

// Reveal returns the cumulative hint text for all tiers up to level.
func (h HintSet) Reveal(level int) []string {
	if level < 0 {
		level = 0
	}
	if level > len(h) {
		level = len(h)
	}
	return h[:level]
}
