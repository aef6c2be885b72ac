package render

import (
	"strings"

	"github.com/diogo/msgcoach/internal/models"
)

// RewriteMarkdown lays out model output for display. Output that follows the
// section template is normalized under bold labels, with the rewrite quoted;
// anything else is shown as-is. Notices are appended as italic lines.
func RewriteMarkdown(raw string, notices []string) string {
	var sb strings.Builder

	if s, err := models.ParseSections(raw); err == nil {
		sb.WriteString("**" + models.SectionRewritten + ":**\n\n")
		sb.WriteString(quoteLines(s.RewrittenMessage))
		sb.WriteString("\n\n")
		if s.OriginalTone != "" {
			sb.WriteString("**" + models.SectionOriginalTone + ":** ")
			sb.WriteString(s.OriginalTone)
			sb.WriteString("\n\n")
		}
		if s.Reason != "" {
			sb.WriteString("**" + models.SectionReason + ":** ")
			sb.WriteString(s.Reason)
			sb.WriteString("\n")
		}
	} else {
		sb.WriteString(strings.TrimSpace(raw))
		sb.WriteString("\n")
	}

	for _, n := range notices {
		sb.WriteString("\n_")
		sb.WriteString(n)
		sb.WriteString("_\n")
	}

	return sb.String()
}

// Rewrite renders model output for the terminal
func Rewrite(raw string, notices []string, opts Options) (string, error) {
	return Markdown(RewriteMarkdown(raw, notices), opts)
}

func quoteLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = "> " + line
	}
	return strings.Join(lines, "\n")
}
