// Package score accumulates attempts, correct answers, combo streaks and
// speed points for one session. It is a plain value owned by the session;
// nothing here talks to the outside world.
package score

import "time"

// Speed scoring constants: a correct answer earns basePointsPerLevel ×
// difficulty, plus a time bonus of up to half the base (shrinking as the
// answer approaches the deadline), plus a combo bonus of 5% per consecutive
// correct answer capped at 50%.
const (
	basePointsPerLevel = 10
	timeBonusShare     = 0.5
	comboBonusStep     = 0.05
	comboBonusCap      = 0.5
)

// Tracker accumulates scoring state. Score never exceeds Attempts.
type Tracker struct {
	Attempts       int `json:"attempts"`
	Score          int `json:"score"`
	Combo          int `json:"combo"`
	MaxCombo       int `json:"max_combo"`
	Points         int `json:"points"`
	TotalTimeBonus int `json:"total_time_bonus"`
}

// Record counts one answered exercise. The combo streak grows on correct
// answers and resets on any incorrect one.
func (t *Tracker) Record(correct bool) {
	t.Attempts++
	if correct {
		t.Score++
		t.Combo++
		if t.Combo > t.MaxCombo {
			t.MaxCombo = t.Combo
		}
	} else {
		t.Combo = 0
	}
}

// RecordTimed counts one speed translation answer and returns the points
// earned. The combo multiplier uses the streak before this answer, matching
// how the streak bonus is displayed to the user.
func (t *Tracker) RecordTimed(correct bool, difficulty int, elapsed, limit time.Duration) int {
	comboBefore := t.Combo
	t.Record(correct)
	if !correct {
		return 0
	}

	if difficulty < 1 {
		difficulty = 1
	}
	base := basePointsPerLevel * difficulty

	remaining := limit - elapsed
	if remaining < 0 {
		remaining = 0
	}
	var fraction float64
	if limit > 0 {
		fraction = float64(remaining) / float64(limit)
	}
	timeBonus := int(float64(base) * timeBonusShare * fraction)

	comboMultiplier := float64(comboBefore) * comboBonusStep
	if comboMultiplier > comboBonusCap {
		comboMultiplier = comboBonusCap
	}
	comboBonus := int(float64(base) * comboMultiplier)

	points := base + timeBonus + comboBonus
	t.Points += points
	t.TotalTimeBonus += timeBonus
	return points
}

// Accuracy returns the percentage of correct answers, 0 when nothing was
// answered yet.
func (t *Tracker) Accuracy() int {
	if t.Attempts == 0 {
		return 0
	}
	return t.Score * 100 / t.Attempts
}

// Reset clears all counters.
func (t *Tracker) Reset() {
	*t = Tracker{}
}
