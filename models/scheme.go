package models

// DefaultSchemeDescription is shown when a discovered scheme carries no description
const DefaultSchemeDescription = "Found based on your profile."

// SchemeDetail is one labelled section of a discovered scheme
type SchemeDetail struct {
	Label string   `json:"label"`
	Lines []string `json:"lines"`
}

// SchemeSummary represents a scheme recommended by the discovery endpoint
type SchemeSummary struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Details     []SchemeDetail `json:"details,omitempty"`
}

// DiscoveryResult holds the discovered schemes, or the raw body when nothing
// structured could be recovered from it
type DiscoveryResult struct {
	Schemes []SchemeSummary `json:"schemes"`
	RawText *string         `json:"raw_text,omitempty"`
}
