// Package conversation runs the multi-turn branching modality. Each AI line
// is generated per turn against the full accumulated history, so the dialogue
// reacts to what the user actually picked instead of following a fixed
// script.
package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/felixgeelhaar/sprich/internal/ai"
	"github.com/felixgeelhaar/sprich/internal/domain"
)

// Scenarios available for conversation practice.
var Scenarios = []string{
	"restaurant",
	"shopping",
	"hotel",
	"directions",
	"train_station",
	"cafe",
	"pharmacy",
	"meeting_someone",
}

const replyOptionCount = 3

type openingResult struct {
	Description   string   `json:"description"`
	LearningFocus string   `json:"learning_focus"`
	OpeningLine   string   `json:"opening_line"`
	Translation   string   `json:"translation"`
	CorrectReply  string   `json:"correct_reply"`
	ReplyNote     string   `json:"reply_note"`
	WrongReplies  []string `json:"wrong_replies"`
}

type nextTurnResult struct {
	NextLine     string   `json:"next_line"`
	Translation  string   `json:"translation"`
	CorrectReply string   `json:"correct_reply"`
	ReplyNote    string   `json:"reply_note"`
	WrongReplies []string `json:"wrong_replies"`
}

var (
	openingSchema = ai.Schema{
		Name: "conversation_opening",
		Description: `{"description": string, "learning_focus": string, "opening_line": string,` +
			` "translation": string, "correct_reply": string, "reply_note": string, "wrong_replies": [string]}`,
	}
	nextTurnSchema = ai.Schema{
		Name: "conversation_turn",
		Description: `{"next_line": string, "translation": string, "correct_reply": string,` +
			` "reply_note": string, "wrong_replies": [string]}`,
	}
)

// Builder starts and advances conversations.
type Builder struct {
	ai     ai.Service
	logger *slog.Logger
}

// New creates a conversation builder.
func New(aiSvc ai.Service, logger *slog.Logger) *Builder {
	return &Builder{ai: aiSvc, logger: logger}
}

// Start opens a conversation in a random scenario with the AI's first line
// and the first set of reply options.
func (b *Builder) Start(ctx context.Context, cfg domain.Config) (*domain.ConversationState, error) {
	scenario := Scenarios[rand.IntN(len(Scenarios))]

	prompt := fmt.Sprintf("Start a German practice conversation in the scenario %q."+
		" Difficulty %d of 5. You play the other party; the student replies in German.\n"+
		"Provide a one-sentence English scene description, an English learning focus,"+
		" your German opening line with its English translation, the most natural German"+
		" reply the student should pick, a short English note on why it fits,"+
		" and %d plausible but wrong German replies.",
		scenario, cfg.MaxFrequency, replyOptionCount-1)

	var res openingResult
	if err := b.ai.Generate(ctx, prompt, openingSchema, &res); err != nil {
		return nil, err
	}
	if res.OpeningLine == "" || res.CorrectReply == "" {
		return nil, fmt.Errorf("%w: empty conversation opening", domain.ErrGeneration)
	}

	options, correct := mergeOptions(res.CorrectReply, res.WrongReplies)
	return &domain.ConversationState{
		Scenario:      scenario,
		Description:   res.Description,
		LearningFocus: res.LearningFocus,
		Turns: []domain.Turn{
			{Speaker: domain.SpeakerAI, Text: res.OpeningLine, TranslationNote: res.Translation},
		},
		CurrentOptions: options,
		CorrectOption:  correct,
		OptionNote:     res.ReplyNote,
		MaxTurns:       cfg.MaxTurns,
		AwaitingUser:   true,
	}, nil
}

// Advance consumes the user's option pick, judges it, appends the chosen
// reply to the history and generates the AI's next line against the whole
// dialogue so far. On a terminal state it records the final exchange and
// clears the pending options.
//
// Generation failure leaves the state untouched so the same turn can be
// retried.
func (b *Builder) Advance(ctx context.Context, state *domain.ConversationState, optionIndex int) (*domain.ValidationResult, error) {
	if state == nil || !state.AwaitingUser {
		return nil, domain.ErrNoExercise
	}
	if state.Terminal() {
		return nil, domain.ErrConversationDone
	}
	if optionIndex < 0 || optionIndex >= len(state.CurrentOptions) {
		return nil, fmt.Errorf("%w: index %d outside 0-%d",
			domain.ErrInvalidOption, optionIndex, len(state.CurrentOptions)-1)
	}

	picked := state.CurrentOptions[optionIndex]
	correct := optionIndex == state.CorrectOption
	result := &domain.ValidationResult{
		IsCorrect:     correct,
		CorrectAnswer: state.CurrentOptions[state.CorrectOption],
		Explanation:   state.OptionNote,
	}
	if correct {
		result.Message = "Good choice!"
	} else {
		result.Message = fmt.Sprintf("%q would fit better here.", state.CurrentOptions[state.CorrectOption])
	}

	lastTurn := state.TurnIndex+1 >= state.MaxTurns

	var next nextTurnResult
	if !lastTurn {
		if err := b.ai.Generate(ctx, b.nextTurnPrompt(state, picked), nextTurnSchema, &next); err != nil {
			return nil, err
		}
		if next.NextLine == "" || next.CorrectReply == "" {
			return nil, fmt.Errorf("%w: empty conversation turn", domain.ErrGeneration)
		}
	}

	state.Turns = append(state.Turns, domain.Turn{Speaker: domain.SpeakerUser, Text: picked})
	state.TurnIndex++

	if lastTurn {
		state.CurrentOptions = nil
		state.CorrectOption = 0
		state.OptionNote = ""
		state.AwaitingUser = false
		result.Message += " That completes the conversation."
		return result, nil
	}

	state.Turns = append(state.Turns, domain.Turn{
		Speaker:         domain.SpeakerAI,
		Text:            next.NextLine,
		TranslationNote: next.Translation,
	})
	options, correctIdx := mergeOptions(next.CorrectReply, next.WrongReplies)
	state.CurrentOptions = options
	state.CorrectOption = correctIdx
	state.OptionNote = next.ReplyNote

	return result, nil
}

func (b *Builder) nextTurnPrompt(state *domain.ConversationState, picked string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Continue a German practice conversation in the scenario %q.\n", state.Scenario)
	if state.LearningFocus != "" {
		fmt.Fprintf(&sb, "Learning focus: %s\n", state.LearningFocus)
	}
	sb.WriteString("Dialogue so far:\n")
	for _, turn := range state.Turns {
		role := "Student"
		if turn.Speaker == domain.SpeakerAI {
			role = "You"
		}
		fmt.Fprintf(&sb, "%s: %s\n", role, turn.Text)
	}
	fmt.Fprintf(&sb, "Student: %s\n", picked)
	fmt.Fprintf(&sb, "React to the student's last line and continue naturally."+
		" Provide your next German line with its English translation, the most natural"+
		" German reply the student should pick next, a short English note on why it fits,"+
		" and %d plausible but wrong German replies.", replyOptionCount-1)
	return sb.String()
}

// mergeOptions inserts the correct reply at a random position among the
// distractors and returns the list with the correct index.
func mergeOptions(correct string, wrong []string) ([]string, int) {
	options := make([]string, 0, len(wrong)+1)
	options = append(options, wrong...)

	idx := rand.IntN(len(options) + 1)
	options = append(options, "")
	copy(options[idx+1:], options[idx:])
	options[idx] = correct
	return options, idx
}
