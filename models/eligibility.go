package models

import "strings"

// EligibilityStatus represents the verdict of an eligibility check
type EligibilityStatus string

const (
	StatusEligible          EligibilityStatus = "eligible"
	StatusNotEligible       EligibilityStatus = "not_eligible"
	StatusPartiallyEligible EligibilityStatus = "partially_eligible"
)

// ParseEligibilityStatus maps a raw status string to a known verdict.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseEligibilityStatus(raw string) (EligibilityStatus, bool) {
	switch EligibilityStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusEligible:
		return StatusEligible, true
	case StatusNotEligible:
		return StatusNotEligible, true
	case StatusPartiallyEligible:
		return StatusPartiallyEligible, true
	}
	return "", false
}

// SchemeMatch is another scheme the user may qualify for
type SchemeMatch struct {
	Name        string `json:"name"`
	WhyRelevant string `json:"why_relevant,omitempty"`
}

// EligibilityResult represents the final verdict of the eligibility chat
type EligibilityResult struct {
	Status               EligibilityStatus `json:"status,omitempty"`
	Summary              *string           `json:"summary"`
	MatchedCriteria      []string          `json:"matched_criteria"`
	FailedCriteria       []string          `json:"failed_criteria"`
	UnverifiedCriteria   []string          `json:"unverified_criteria"`
	OtherMatchingSchemes []SchemeMatch     `json:"other_matching_schemes"`
}
