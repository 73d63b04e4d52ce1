package domain

// Speaker identifies who produced a conversation turn.
type Speaker string

const (
	SpeakerAI   Speaker = "ai"
	SpeakerUser Speaker = "user"
)

// Turn is one half-exchange of a conversation.
type Turn struct {
	Speaker         Speaker `json:"speaker"`
	Text            string  `json:"text"`
	TranslationNote string  `json:"translation_note,omitempty"`
}

// ConversationState is the long-lived exercise variant for the multi-turn
// branching modality. The turn list grows in place until the state is
// terminal; TurnIndex counts completed user answers and strictly increases.
type ConversationState struct {
	Scenario      string `json:"scenario"`
	Description   string `json:"description,omitempty"`
	LearningFocus string `json:"learning_focus,omitempty"`

	Turns []Turn `json:"turns"`

	// Pending user choice. CorrectOption indexes into CurrentOptions;
	// OptionNote explains why that reply fits best.
	CurrentOptions []string `json:"current_options"`
	CorrectOption  int      `json:"correct_option"`
	OptionNote     string   `json:"option_note,omitempty"`

	TurnIndex    int  `json:"turn_index"`
	MaxTurns     int  `json:"max_turns"`
	AwaitingUser bool `json:"awaiting_user"`
}

// Terminal reports whether the conversation has consumed all its turns.
func (c *ConversationState) Terminal() bool {
	return c.TurnIndex >= c.MaxTurns
}
