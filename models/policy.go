package models

// ImportantDates holds the date window of a policy
type ImportantDates struct {
	StartDate *string `json:"start_date"`
	LastDate  *string `json:"last_date"`
}

// PolicyRecord represents a normalized policy document.
// A nil field means the value is unknown; it is serialized as null.
type PolicyRecord struct {
	PolicyName       *string         `json:"policy_name"`
	IssuingAuthority *string         `json:"issuing_authority"`
	Objective        *string         `json:"objective"`
	WhoIsItFor       *string         `json:"who_is_it_for"`
	KeyBenefits      []string        `json:"key_benefits"`
	Eligibility      []string        `json:"eligibility_summary"`
	RequiredDocs     []string        `json:"required_documents"`
	HowToApply       *string         `json:"how_to_apply"`
	ImportantDates   *ImportantDates `json:"important_dates"`
	Contact          *string         `json:"issuing_authority_contact"`
	SessionID        *string         `json:"session_id,omitempty"`
}

// IsEmpty reports whether no field of the record is known
func (p *PolicyRecord) IsEmpty() bool {
	if p == nil {
		return true
	}
	return p.PolicyName == nil &&
		p.IssuingAuthority == nil &&
		p.Objective == nil &&
		p.WhoIsItFor == nil &&
		len(p.KeyBenefits) == 0 &&
		len(p.Eligibility) == 0 &&
		len(p.RequiredDocs) == 0 &&
		p.HowToApply == nil &&
		p.ImportantDates == nil &&
		p.Contact == nil &&
		p.SessionID == nil
}
