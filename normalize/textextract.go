package normalize

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"policynav-backend/models"
)

// DefaultPolicyName is used when no line of the document qualifies as a title
const DefaultPolicyName = "Policy Document"

var (
	datePrefix = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{2,4}`)
	pagePrefix = regexp.MustCompile(`(?i)^Page \d`)

	detailsMarker     = regexp.MustCompile(`(?i)^details$`)
	benefitsMarker    = regexp.MustCompile(`(?i)^benefits$`)
	eligibilityMarker = regexp.MustCompile(`(?i)^eligibility$`)
	applicationMarker = regexp.MustCompile(`(?i)application process`)
	queriesMarker     = regexp.MustCompile(`(?i)queries|grievance|complaint|suggestions`)
	documentsMarker   = regexp.MustCompile(`(?i)documents\s+required`)

	issuedBy        = regexp.MustCompile(`(?i)by\s+the\s+(.+?)(?:\s+for\s+|\.|$)`)
	intendedFor     = regexp.MustCompile(`(?i)\bfor\s+([^.]+)`)
	beneficiaryWord = regexp.MustCompile(`(?i)([^.]*(?:ward|widow|citizen|resident|applicant|operator|student|youth)[^.]*\.?)`)

	markerWord   = regexp.MustCompile(`(?i)^(offline|online|details|benefits)$`)
	bulletLine   = regexp.MustCompile(`^[•\-*]`)
	bulletPrefix = regexp.MustCompile(`^[•\-*]\s*`)
	docLine      = regexp.MustCompile(`^[•\-*\d]`)
	docPrefix    = regexp.MustCompile(`^[•\-*\d. ]+\s*`)
	urlFragment  = regexp.MustCompile(`(?i)https|www`)

	stepLine     = regexp.MustCompile(`(?i)^step \d+:`)
	stepPrefix   = regexp.MustCompile(`(?i)^step \d+:\s*`)
	offlineLine  = regexp.MustCompile(`(?i)^offline$`)
	withinClause = regexp.MustCompile(`(?i)within\s+([^.]+(?:month|day|week|announced)[^.]*\.?)`)
	contactLine  = regexp.MustCompile(`(?i)helpline|phone|email|contact`)

	htmlTag         = regexp.MustCompile(`(?i)<(?:html|body|div|p|h[1-6]|ul|ol|li|table|tr|td|br|span|strong|section|article)\b[^>]*>`)
	headingPrefix   = regexp.MustCompile(`^#+\s*`)
	emphasisWrapped = regexp.MustCompile(`^(\*\*|__)(.+)(\*\*|__)$`)
)

// ExtractPolicyFromText derives a best-effort policy record from the free-text
// body of a document. It always returns a record, and PolicyName is never
// empty.
//
// The text is read line by line. Section boundaries are the first lines
// matching the Details, Benefits, Eligibility, Application Process, queries /
// grievance and Documents Required headings. HTML bodies are converted to
// plain lines first.
func ExtractPolicyFromText(text string) *models.PolicyRecord {
	lines := documentLines(text)
	record := &models.PolicyRecord{}

	title := DefaultPolicyName
	for _, l := range lines {
		if utf8.RuneCountInString(l) > 10 && !datePrefix.MatchString(l) &&
			!strings.HasPrefix(l, "http") && !pagePrefix.MatchString(l) {
			title = l
			break
		}
	}
	record.PolicyName = &title

	details := indexOf(lines, detailsMarker)
	benefits := indexOf(lines, benefitsMarker)
	eligibility := indexOf(lines, eligibilityMarker)
	application := indexOf(lines, applicationMarker)
	queries := indexOf(lines, queriesMarker)
	docs := indexOf(lines, documentsMarker)

	if details != -1 && benefits != -1 {
		objective := strings.Join(span(lines, details+1, benefits), " ")
		record.Objective = nonEmpty(objective)
	}
	if record.Objective != nil {
		record.IssuingAuthority = issuingAuthority(*record.Objective)
		record.WhoIsItFor = audience(*record.Objective)
	}

	if benefits != -1 && eligibility != -1 {
		for _, l := range span(lines, benefits+1, eligibility) {
			if utf8.RuneCountInString(l) > 3 && !markerWord.MatchString(l) {
				record.KeyBenefits = append(record.KeyBenefits, l)
			}
		}
	}

	for _, l := range lines {
		if bulletLine.MatchString(l) {
			record.Eligibility = append(record.Eligibility, bulletPrefix.ReplaceAllString(l, ""))
		}
	}
	if len(record.Eligibility) == 0 && eligibility != -1 {
		for _, l := range span(lines, eligibility+1, eligibility+3) {
			if utf8.RuneCountInString(l) > 5 {
				record.Eligibility = append(record.Eligibility, l)
			}
		}
	}

	if docs != -1 {
		for _, l := range span(lines, docs+1, docs+8) {
			if !docLine.MatchString(l) && utf8.RuneCountInString(l) <= 20 {
				continue
			}
			l = docPrefix.ReplaceAllString(l, "")
			if urlFragment.MatchString(l) {
				continue
			}
			record.RequiredDocs = append(record.RequiredDocs, l)
		}
	}

	record.HowToApply = howToApply(lines, application, queries, docs)

	if last := lastDate(text, lines); last != nil {
		record.ImportantDates = &models.ImportantDates{LastDate: last}
	}

	record.Contact = contact(lines, queries, docs)

	return record
}

// documentLines splits text into trimmed, non-empty lines
func documentLines(text string) []string {
	plain := text
	if htmlTag.MatchString(text) {
		if md, err := htmltomarkdown.ConvertString(text); err == nil {
			plain = md
		}
	}

	var lines []string
	for _, l := range strings.Split(plain, "\n") {
		l = strings.TrimSpace(l)
		if plain != text {
			l = headingPrefix.ReplaceAllString(l, "")
			l = strings.TrimSpace(emphasisWrapped.ReplaceAllString(l, "$2"))
		}
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func indexOf(lines []string, marker *regexp.Regexp) int {
	for i, l := range lines {
		if marker.MatchString(l) {
			return i
		}
	}
	return -1
}

// span returns lines[from:to] clamped to the slice; to < 0 means the end
func span(lines []string, from, to int) []string {
	if to < 0 || to > len(lines) {
		to = len(lines)
	}
	if from < 0 {
		from = 0
	}
	if from >= to {
		return nil
	}
	return lines[from:to]
}

func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func issuingAuthority(objective string) *string {
	m := issuedBy.FindStringSubmatch(objective)
	if m == nil {
		return nil
	}
	return nonEmpty(m[1])
}

func audience(objective string) *string {
	if m := intendedFor.FindStringSubmatch(objective); m != nil &&
		!strings.Contains(strings.ToLower(m[1]), "loans") {
		return nonEmpty(m[1])
	}
	if m := beneficiaryWord.FindStringSubmatch(objective); m != nil {
		return nonEmpty(m[1])
	}
	return nil
}

func howToApply(lines []string, application, queries, docs int) *string {
	var steps []string
	for _, l := range lines {
		if stepLine.MatchString(l) {
			steps = append(steps, fmt.Sprintf("%d. %s", len(steps)+1, stepPrefix.ReplaceAllString(l, "")))
		}
	}
	if len(steps) > 0 {
		joined := strings.Join(steps, "\n")
		return &joined
	}
	if application == -1 {
		return nil
	}

	end := -1
	switch {
	case queries != -1:
		end = queries
	case docs != -1:
		end = docs
	}
	var parts []string
	for _, l := range span(lines, application+1, end) {
		if !offlineLine.MatchString(l) {
			parts = append(parts, l)
		}
	}
	return nonEmpty(strings.Join(parts, " "))
}

func lastDate(text string, lines []string) *string {
	if m := withinClause.FindStringSubmatch(text); m != nil {
		return nonEmpty(strings.TrimSuffix(m[1], "."))
	}
	for _, l := range lines {
		lower := strings.ToLower(l)
		if strings.Contains(lower, "last date") || strings.Contains(lower, "within") {
			return &l
		}
	}
	return nil
}

func contact(lines []string, queries, docs int) *string {
	for _, l := range lines {
		if contactLine.MatchString(l) {
			return &l
		}
	}
	if queries == -1 {
		return nil
	}
	var parts []string
	for _, l := range span(lines, queries+1, docs) {
		if utf8.RuneCountInString(l) > 10 {
			parts = append(parts, l)
		}
	}
	return nonEmpty(strings.Join(parts, " "))
}
