package models

// TurnKind distinguishes the two outcomes of a chat exchange
type TurnKind string

const (
	TurnNextQuestion    TurnKind = "next_question"
	TurnSessionComplete TurnKind = "session_complete"
)

// ConversationTurn is the outcome of a single chat exchange.
// Result is only set when the session completed with an eligibility verdict.
type ConversationTurn struct {
	Kind     TurnKind           `json:"kind"`
	Question string             `json:"question,omitempty"`
	Result   *EligibilityResult `json:"result,omitempty"`
}

// NextQuestion builds a turn asking the user the given question
func NextQuestion(text string) ConversationTurn {
	return ConversationTurn{Kind: TurnNextQuestion, Question: text}
}

// SessionComplete builds a terminal turn
func SessionComplete() ConversationTurn {
	return ConversationTurn{Kind: TurnSessionComplete}
}

// IsComplete reports whether the turn ends the conversation
func (t ConversationTurn) IsComplete() bool {
	return t.Kind == TurnSessionComplete
}
