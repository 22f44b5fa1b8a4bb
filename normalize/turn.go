package normalize

import (
	"strings"

	"policynav-backend/models"
)

// questionKeys are tried in order when looking for the next prompt
var questionKeys = []string{"question", "message", "text", "next_question", "output", "response"}

var completionStatuses = map[string]bool{
	"eligible":           true,
	"not_eligible":       true,
	"partially_eligible": true,
	"complete":           true,
	"done":               true,
}

// ExtractTurn decides whether a decoded chat response asks another question
// or ends the conversation. Arrays are reduced to their first element and a
// bare string is the question itself. Embedded JSON inside strings is not
// parsed here.
func ExtractTurn(v Value) models.ConversationTurn {
	if v.IsArray() {
		first, ok := v.First()
		if !ok {
			return models.SessionComplete()
		}
		v = first
	}

	switch v.Kind() {
	case KindString:
		return questionTurn(v.str)
	case KindObject:
		if signalsCompletion(v) {
			return models.SessionComplete()
		}
		if text, ok := questionText(v); ok {
			return questionTurn(text)
		}
	}
	return models.SessionComplete()
}

// InterpretChatResponse runs a raw chat response body through decoding,
// the eligibility short-circuit and turn extraction.
func InterpretChatResponse(body string) models.ConversationTurn {
	switch strings.TrimSpace(body) {
	case "", "{}", "[]":
		return models.SessionComplete()
	}

	decoded := Decode(body, HasEligibility)
	data := decoded.Tree()
	if !decoded.Opaque {
		if found, ok := FindEligibility(data); ok {
			data = found
		}
	}

	if IsEligibilityResult(data) {
		turn := models.SessionComplete()
		turn.Result = EligibilityFromValue(data)
		return turn
	}
	return ExtractTurn(data)
}

func questionTurn(text string) models.ConversationTurn {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.SessionComplete()
	}
	return models.NextQuestion(text)
}

func signalsCompletion(v Value) bool {
	for _, flag := range []string{"done", "finished"} {
		if f, ok := v.Get(flag); ok {
			if b, ok := f.Boolean(); ok && b {
				return true
			}
		}
	}
	if s, ok := v.Get("status"); ok {
		if raw, ok := s.Str(); ok && completionStatuses[strings.ToLower(strings.TrimSpace(raw))] {
			return true
		}
	}
	return false
}

// questionText applies the priority keys, then falls back to the first
// non-blank string member in key order. A priority key holding a string
// wins even when blank.
func questionText(v Value) (string, bool) {
	for _, key := range questionKeys {
		f, ok := v.Get(key)
		if !ok {
			continue
		}
		if s, ok := f.Str(); ok {
			return s, true
		}
	}
	for _, m := range v.Members() {
		if s, ok := m.Value.Str(); ok && strings.TrimSpace(s) != "" {
			return s, true
		}
	}
	return "", false
}
