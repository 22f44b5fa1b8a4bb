package normalize

import (
	"strings"

	"policynav-backend/models"
)

// PolicyFromValue reads a policy object into a PolicyRecord. Fields that are
// missing, null, blank or of an unusable shape stay nil.
func PolicyFromValue(v Value) *models.PolicyRecord {
	if !v.IsObject() {
		return nil
	}
	return &models.PolicyRecord{
		PolicyName:       textField(v, "policy_name"),
		IssuingAuthority: textField(v, "issuing_authority"),
		Objective:        textField(v, "objective"),
		WhoIsItFor:       textField(v, "who_is_it_for"),
		KeyBenefits:      listField(v, "key_benefits"),
		Eligibility:      listField(v, "eligibility_summary"),
		RequiredDocs:     listField(v, "required_documents"),
		HowToApply:       textField(v, "how_to_apply"),
		ImportantDates:   datesField(v, "important_dates"),
		Contact:          textField(v, "issuing_authority_contact"),
		SessionID:        textField(v, SessionIDKey),
	}
}

// EligibilityFromValue reads an eligibility verdict object. The status is
// normalized to its lower-case form; an unknown status is left empty.
func EligibilityFromValue(v Value) *models.EligibilityResult {
	if !v.IsObject() {
		return nil
	}
	res := &models.EligibilityResult{
		Summary:            textField(v, "summary"),
		MatchedCriteria:    listField(v, "matched_criteria"),
		FailedCriteria:     listField(v, "failed_criteria"),
		UnverifiedCriteria: listField(v, "unverified_criteria"),
	}
	if s, ok := v.Get("status"); ok {
		if status, ok := models.ParseEligibilityStatus(s.Text()); ok {
			res.Status = status
		}
	}
	if schemes, ok := v.Get("other_matching_schemes"); ok && schemes.IsArray() {
		for _, item := range schemes.Items() {
			name := firstText(item, "name", "scheme_name", "title")
			if name == nil {
				continue
			}
			match := models.SchemeMatch{Name: *name}
			if why := firstText(item, "why_relevant", "reason", "description"); why != nil {
				match.WhyRelevant = *why
			}
			res.OtherMatchingSchemes = append(res.OtherMatchingSchemes, match)
		}
	}
	return res
}

// scalarText returns the trimmed text of a non-blank scalar
func scalarText(v Value) (string, bool) {
	switch v.Kind() {
	case KindString, KindNumber, KindBool:
		s := strings.TrimSpace(v.Text())
		return s, s != ""
	}
	return "", false
}

func textField(v Value, key string) *string {
	f, ok := v.Get(key)
	if !ok {
		return nil
	}
	s, ok := scalarText(f)
	if !ok {
		return nil
	}
	return &s
}

func firstText(v Value, keys ...string) *string {
	for _, key := range keys {
		if s := textField(v, key); s != nil {
			return s
		}
	}
	return nil
}

// listField accepts an array of scalars or a newline separated string
func listField(v Value, key string) []string {
	f, ok := v.Get(key)
	if !ok {
		return nil
	}
	return toLines(f)
}

func toLines(v Value) []string {
	var out []string
	switch v.Kind() {
	case KindArray:
		for _, item := range v.Items() {
			if s, ok := scalarText(item); ok {
				out = append(out, s)
			}
		}
	case KindString:
		for _, line := range strings.Split(v.Text(), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				out = append(out, line)
			}
		}
	case KindNumber, KindBool:
		out = append(out, v.Text())
	}
	return out
}

func datesField(v Value, key string) *models.ImportantDates {
	f, ok := v.Get(key)
	if !ok {
		return nil
	}
	var dates models.ImportantDates
	switch f.Kind() {
	case KindObject:
		dates.StartDate = textField(f, "start_date")
		dates.LastDate = textField(f, "last_date")
	case KindString:
		if s, ok := scalarText(f); ok {
			dates.LastDate = &s
		}
	}
	if dates.StartDate == nil && dates.LastDate == nil {
		return nil
	}
	return &dates
}
