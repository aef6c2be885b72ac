// Package sanitize masks PII-shaped substrings before text leaves the process.
package sanitize

import "github.com/dlclark/regexp2"

// Replacement literals
const (
	EmailMask  = "[email]"
	PhoneMask  = "[phone]"
	HandleMask = "@[user]"
)

// Rule is a single pattern substitution. Patterns use regexp2 so that
// \w, \d, \s and \b are Unicode-aware: "josé@exemple.com" and Arabic-Indic
// digits are masked like their ASCII forms.
type Rule struct {
	Name        string
	Pattern     *regexp2.Regexp
	Replacement string
}

// rules run in order; the email rule must precede the handle rule so an
// address's "@domain" part is gone before handles are matched.
var rules = []Rule{
	{
		Name:        "email",
		Pattern:     regexp2.MustCompile(`\b[\w.%+-]+@[\w.-]+\.\w+\b`, regexp2.None),
		Replacement: EmailMask,
	},
	{
		Name:        "phone",
		Pattern:     regexp2.MustCompile(`\+?\d[\d\s().-]{7,}\d`, regexp2.None),
		Replacement: PhoneMask,
	},
	{
		Name:        "handle",
		Pattern:     regexp2.MustCompile(`@[\w_]+`, regexp2.None),
		Replacement: HandleMask,
	},
}

// apply replaces every match of r in text with the literal mask. The
// patterns carry no match timeout, so regexp2 cannot fail here; if it ever
// does, the whole text is withheld rather than sent partly unmasked.
func (r Rule) apply(text string) (string, int) {
	n := 0
	out, err := r.Pattern.ReplaceFunc(text, func(regexp2.Match) string {
		n++
		return r.Replacement
	}, -1, -1)
	if err != nil {
		return r.Replacement, n + 1
	}
	return out, n
}

// Rules returns the substitution rules in application order
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Sanitize masks emails, phone numbers, and social handles when enabled.
// With enabled false the text is returned unchanged. Never fails.
func Sanitize(text string, enabled bool) string {
	if !enabled {
		return text
	}

	sanitized := text
	for _, r := range rules {
		sanitized, _ = r.apply(sanitized)
	}
	return sanitized
}

// Masked reports whether sanitizing changed the text
func Masked(original, sanitized string) bool {
	return original != sanitized
}

// Report counts how many matches each rule replaced, in rule order.
// Counts are taken on the progressively masked text, exactly as Sanitize sees it.
func Report(text string) map[string]int {
	counts := make(map[string]int, len(rules))
	current := text
	for _, r := range rules {
		current, counts[r.Name] = r.apply(current)
	}
	return counts
}
