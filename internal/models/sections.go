package models

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/msgcoach/internal/errors"
)

// Section labels of the response template
const (
	SectionRewritten    = "Rewritten Message"
	SectionOriginalTone = "Original Tone"
	SectionReason       = "Reason for Change"
)

// Sections is the parsed form of a response that follows the template
type Sections struct {
	RewrittenMessage string `json:"rewritten_message"`
	OriginalTone     string `json:"original_tone"`
	Reason           string `json:"reason_for_change"`
}

// Label lines look like "**Rewritten Message:**", tolerating missing
// asterisks, a trailing colon outside the bold markers, and heading hashes.
var sectionPatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{SectionRewritten, labelPattern(SectionRewritten)},
	{SectionOriginalTone, labelPattern(SectionOriginalTone)},
	{SectionReason, labelPattern(SectionReason)},
}

func labelPattern(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?im)^[ \t]*#{0,3}[ \t]*\**[ \t]*` + regexp.QuoteMeta(label) + `[ \t]*:?[ \t]*\**[ \t]*:?[ \t]*`)
}

var codeFence = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")

// ParseSections extracts the three labeled sections from model output.
// Output that is a JSON object with snake_case keys is accepted too.
// A ParseError is returned when any section is missing or out of order;
// callers then show the raw text as-is.
func ParseSections(text string) (Sections, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Sections{}, apierrors.NewParseError("empty response", "")
	}

	if s, ok := parseJSONSections(trimmed); ok {
		return s, nil
	}

	type span struct{ start, end int }
	spans := make([]span, len(sectionPatterns))
	prevEnd := 0
	for i, p := range sectionPatterns {
		loc := p.re.FindStringIndex(trimmed[prevEnd:])
		if loc == nil {
			return Sections{}, apierrors.NewParseError("missing section", p.name)
		}
		spans[i] = span{start: prevEnd + loc[0], end: prevEnd + loc[1]}
		prevEnd = spans[i].end
	}

	body := func(i int) string {
		end := len(trimmed)
		if i+1 < len(spans) {
			end = spans[i+1].start
		}
		return strings.TrimSpace(trimmed[spans[i].end:end])
	}

	s := Sections{
		RewrittenMessage: body(0),
		OriginalTone:     body(1),
		Reason:           body(2),
	}
	if s.RewrittenMessage == "" {
		return Sections{}, apierrors.NewParseError("empty section", SectionRewritten)
	}
	return s, nil
}

func parseJSONSections(text string) (Sections, bool) {
	if m := codeFence.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	if !strings.HasPrefix(text, "{") || !gjson.Valid(text) {
		return Sections{}, false
	}

	res := gjson.GetMany(text, "rewritten_message", "original_tone", "reason_for_change")
	if !res[0].Exists() || strings.TrimSpace(res[0].String()) == "" {
		return Sections{}, false
	}
	return Sections{
		RewrittenMessage: strings.TrimSpace(res[0].String()),
		OriginalTone:     strings.TrimSpace(res[1].String()),
		Reason:           strings.TrimSpace(res[2].String()),
	}, true
}
