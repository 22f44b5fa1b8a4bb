package normalize

import (
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

var fenceMarker = regexp.MustCompile("```json\\n?|```")

// Accept decides whether a decoded candidate is the payload the caller is
// looking for. It is usually a Structural Normalizer check.
type Accept func(Value) bool

// Decoded is the outcome of Decode. When Opaque is set nothing could be
// recovered and Text carries the original body as the payload.
type Decoded struct {
	Value  Value
	Text   string
	Opaque bool
}

// Tree returns the decoded value, or the original body as a string value
// when the body was opaque
func (d Decoded) Tree() Value {
	if d.Opaque {
		return String(d.Text)
	}
	return d.Value
}

// StripFences removes markdown code fence markers and surrounding whitespace
func StripFences(s string) string {
	return strings.TrimSpace(fenceMarker.ReplaceAllString(s, ""))
}

// Decode extracts a JSON value from an upstream response body.
//
// Strategy:
//  1. Strip code fences and parse the whole body. A body that starts like
//     JSON but does not parse gets one repair pass, kept only when accept
//     approves the repaired value.
//  2. Scan the body for balanced {...} / [...] blocks in order of appearance
//     and return the first one accept approves. When none is approved the
//     last block that parsed is returned.
//  3. Give up and return the body verbatim as opaque text.
//
// A nil accept approves every block.
func Decode(body string, accept Accept) Decoded {
	stripped := StripFences(body)
	if v, ok := parseStrict(stripped); ok {
		return Decoded{Value: v, Text: body}
	}
	if v, ok := repair(stripped); ok && (accept == nil || accept(v)) {
		return Decoded{Value: v, Text: body}
	}

	var (
		last   Value
		parsed bool
	)
	for _, block := range scanBlocks(body) {
		if accept == nil || accept(block.value) {
			return Decoded{Value: block.value, Text: body}
		}
		last, parsed = block.value, true
	}
	if parsed {
		return Decoded{Value: last, Text: body}
	}

	return Decoded{Text: body, Opaque: true}
}

// parseLenient parses s strictly, falling back to jsonrepair for text that
// opens like a JSON container
func parseLenient(s string) (Value, bool) {
	if v, ok := parseStrict(s); ok {
		return v, true
	}
	return repair(s)
}

func parseStrict(s string) (Value, bool) {
	if s == "" {
		return Value{}, false
	}
	v, err := Parse(s)
	return v, err == nil
}

// repair runs jsonrepair over text that opens like a JSON container
func repair(s string) (Value, bool) {
	if s == "" || (s[0] != '{' && s[0] != '[') {
		return Value{}, false
	}
	repaired, err := jsonrepair.JSONRepair(s)
	if err != nil {
		return Value{}, false
	}
	v, err := Parse(repaired)
	if err != nil {
		return Value{}, false
	}
	return v, true
}

// JSONBlocks returns the balanced {...} and [...] substrings of s that parse
// as JSON, in order of appearance. Blocks do not overlap: scanning resumes
// after the end of each accepted block, and inside a block that failed to
// parse.
func JSONBlocks(s string) []string {
	var out []string
	for _, b := range scanBlocks(s) {
		out = append(out, b.text)
	}
	return out
}

type jsonBlock struct {
	text  string
	value Value
}

func scanBlocks(s string) []jsonBlock {
	var blocks []jsonBlock
	for i := 0; i < len(s); i++ {
		if s[i] != '{' && s[i] != '[' {
			continue
		}
		end, ok := matchBlock(s[i:])
		if !ok {
			continue
		}
		candidate := s[i : i+end+1]
		v, err := Parse(candidate)
		if err != nil {
			continue
		}
		blocks = append(blocks, jsonBlock{text: candidate, value: v})
		i += end
	}
	return blocks
}

// matchBlock returns the index of the bracket closing the one at position 0.
// String literals, including escaped quotes, are skipped, and every closer
// must match the innermost open bracket.
func matchBlock(s string) (int, bool) {
	if len(s) == 0 || (s[0] != '{' && s[0] != '[') {
		return 0, false
	}

	var stack []byte
	inString := false
	for i := 0; i < len(s); i++ {
		ch := s[i]

		if inString {
			switch ch {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != ch {
				return 0, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
