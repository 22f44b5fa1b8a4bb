package normalize

import (
	"strings"

	"policynav-backend/models"
)

// eligibilityPriorityKeys are searched before any other member of an object
var eligibilityPriorityKeys = []string{"result", "json", "data", "message", "output"}

// HasEligibilityStatus reports whether v is an object whose status is one of
// the recognized verdicts, compared case-insensitively
func HasEligibilityStatus(v Value) bool {
	if !v.IsObject() {
		return false
	}
	s, ok := v.Get("status")
	if !ok {
		return false
	}
	raw, ok := s.Str()
	if !ok {
		return false
	}
	_, ok = models.ParseEligibilityStatus(raw)
	return ok
}

// IsEligibilityResult reports whether v should be rendered as a final
// verdict: it has a recognized status or lists other matching schemes.
func IsEligibilityResult(v Value) bool {
	return HasEligibilityStatus(v) || (v.IsObject() && v.Has("other_matching_schemes"))
}

// HasEligibility reports whether FindEligibility would succeed on v
func HasEligibility(v Value) bool {
	_, ok := FindEligibility(v)
	return ok
}

// FindEligibility searches v depth-first for an eligibility verdict.
//
// Objects have their priority members (result, json, data, message, output)
// searched first, then the rest in key order. String members holding JSON,
// fenced or not, are parsed and searched as well.
func FindEligibility(v Value) (Value, bool) {
	if HasEligibilityStatus(v) {
		return v, true
	}

	switch v.Kind() {
	case KindArray:
		for _, item := range v.Items() {
			if found, ok := FindEligibility(item); ok {
				return found, true
			}
		}
	case KindObject:
		for _, m := range priorityOrder(v.Members()) {
			if found, ok := searchMember(m.Value); ok {
				return found, true
			}
		}
	}
	return Value{}, false
}

func searchMember(v Value) (Value, bool) {
	if s, ok := v.Str(); ok {
		stripped := StripFences(s)
		if strings.HasPrefix(stripped, "{") || strings.HasPrefix(stripped, "[") {
			if embedded, ok := parseLenient(stripped); ok {
				return FindEligibility(embedded)
			}
		}
		return Value{}, false
	}
	if v.IsArray() || v.IsObject() {
		return FindEligibility(v)
	}
	return Value{}, false
}

// priorityOrder returns members with the priority keys moved to the front.
// The order among the remaining members is preserved.
func priorityOrder(members []Member) []Member {
	out := make([]Member, 0, len(members))
	for _, key := range eligibilityPriorityKeys {
		for _, m := range members {
			if m.Key == key {
				out = append(out, m)
			}
		}
	}
	for _, m := range members {
		if !isPriorityKey(m.Key) {
			out = append(out, m)
		}
	}
	return out
}

func isPriorityKey(key string) bool {
	for _, k := range eligibilityPriorityKeys {
		if k == key {
			return true
		}
	}
	return false
}
