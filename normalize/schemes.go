package normalize

import (
	"strings"

	"policynav-backend/models"
)

// PlaceholderSchemeName is emitted by the upstream for empty recommendation slots
const PlaceholderSchemeName = "Relevant Scheme"

// RawTextLimit caps the raw discovery text returned when nothing structured
// could be recovered
const RawTextLimit = 800

var (
	schemeNameKeys        = []string{"name", "scheme_name", "title"}
	schemeDescriptionKeys = []string{"description", "summary", "details"}
	schemeListKeys        = []string{"policies", "schemes", "other_matching_schemes"}
)

type detailField struct {
	label string
	keys  []string
}

var schemeDetailFields = []detailField{
	{"Objective", []string{"objective", "description", "summary"}},
	{"Who is it for", []string{"who_is_it_for", "eligibility", "target_group"}},
	{"Key Benefits", []string{"key_benefits", "benefits", "amount"}},
	{"How to Apply", []string{"how_to_apply", "application_process", "process"}},
	{"Important Dates", []string{"important_dates", "dates", "last_date"}},
}

// ExtractSchemes recovers the list of recommended schemes from a discovery
// response body. Records without a name, or carrying the placeholder name,
// are dropped. A body with no JSON container in it is returned as RawText,
// truncated to RawTextLimit characters.
func ExtractSchemes(body string) models.DiscoveryResult {
	decoded := Decode(body, nil)
	data := decoded.Tree()
	if decoded.Opaque || !(data.IsArray() || data.IsObject()) {
		raw := truncate(body, RawTextLimit)
		return models.DiscoveryResult{Schemes: []models.SchemeSummary{}, RawText: &raw}
	}
	if found, ok := FindEligibility(data); ok {
		data = found
	}

	schemes := []models.SchemeSummary{}
	for _, item := range schemeItems(data) {
		if s, ok := SchemeFromValue(item); ok {
			schemes = append(schemes, s)
		}
	}
	return models.DiscoveryResult{Schemes: schemes}
}

// SchemeFromValue builds a summary from one scheme-like record
func SchemeFromValue(v Value) (models.SchemeSummary, bool) {
	if !v.IsObject() {
		return models.SchemeSummary{}, false
	}
	name, ok := firstTruthy(v, schemeNameKeys)
	if !ok {
		return models.SchemeSummary{}, false
	}
	summary := models.SchemeSummary{Name: strings.TrimSpace(name.Text())}
	if summary.Name == "" || summary.Name == PlaceholderSchemeName {
		return models.SchemeSummary{}, false
	}

	summary.Description = models.DefaultSchemeDescription
	if desc, ok := firstTruthy(v, schemeDescriptionKeys); ok {
		summary.Description = desc.Text()
	}

	for _, field := range schemeDetailFields {
		val, ok := firstTruthy(v, field.keys)
		if !ok {
			continue
		}
		if lines := detailLines(val); len(lines) > 0 {
			summary.Details = append(summary.Details, models.SchemeDetail{Label: field.label, Lines: lines})
		}
	}
	return summary, true
}

func schemeItems(data Value) []Value {
	if data.IsArray() {
		return data.Items()
	}
	for _, key := range schemeListKeys {
		if list, ok := data.Get(key); ok && list.Truthy() {
			if list.IsArray() {
				return list.Items()
			}
			return []Value{list}
		}
	}
	return []Value{data}
}

func firstTruthy(v Value, keys []string) (Value, bool) {
	for _, key := range keys {
		if f, ok := v.Get(key); ok && f.Truthy() {
			return f, true
		}
	}
	return Value{}, false
}

func detailLines(v Value) []string {
	switch v.Kind() {
	case KindArray:
		var lines []string
		for _, item := range v.Items() {
			if s := strings.TrimSpace(item.Text()); s != "" {
				lines = append(lines, s)
			}
		}
		return lines
	case KindObject:
		var lines []string
		for _, m := range v.Members() {
			if s := strings.TrimSpace(m.Value.Text()); s != "" {
				lines = append(lines, m.Key+": "+s)
			}
		}
		return lines
	}
	if s := strings.TrimSpace(v.Text()); s != "" {
		return []string{s}
	}
	return nil
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
