package history

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/diogo/msgcoach/internal/models"
)

// ExportFormat represents the format for exporting history
type ExportFormat string

const (
	ExportFormatMarkdown ExportFormat = "markdown"
	ExportFormatJSON     ExportFormat = "json"
	ExportFormatYAML     ExportFormat = "yaml"
)

// ParseExportFormat accepts a format name or common file extension
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "md", "markdown":
		return ExportFormatMarkdown, nil
	case "json":
		return ExportFormatJSON, nil
	case "yaml", "yml":
		return ExportFormatYAML, nil
	default:
		return "", fmt.Errorf("unknown export format %q (use markdown, json or yaml)", s)
	}
}

// ContentType returns the MIME type of the format
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportFormatJSON:
		return "application/json"
	case ExportFormatYAML:
		return "application/yaml"
	default:
		return "text/markdown; charset=utf-8"
	}
}

// Extension returns the file extension of the format, without the dot
func (f ExportFormat) Extension() string {
	switch f {
	case ExportFormatJSON:
		return "json"
	case ExportFormatYAML:
		return "yaml"
	default:
		return "md"
	}
}

// ExportOptions configures how the history is exported
type ExportOptions struct {
	Format          ExportFormat
	IncludeOriginal bool // Include the original text next to each rewrite
	Title           string
}

// DefaultExportOptions returns sensible defaults for export
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		Format:          ExportFormatMarkdown,
		IncludeOriginal: true,
		Title:           "Message Coach History",
	}
}

// exportDocument is the structured form shared by JSON and YAML
type exportDocument struct {
	Title      string                `json:"title" yaml:"title"`
	ExportedAt time.Time             `json:"exported_at" yaml:"exported_at"`
	Count      int                   `json:"count" yaml:"count"`
	Entries    []models.HistoryEntry `json:"entries" yaml:"entries"`
}

// Export renders the history in the requested format
func (l *List) Export(opts ExportOptions) ([]byte, error) {
	entries := l.Entries()
	if !opts.IncludeOriginal {
		for i := range entries {
			entries[i].Original = ""
		}
	}

	switch opts.Format {
	case ExportFormatMarkdown, "":
		return []byte(exportMarkdown(entries, opts)), nil
	case ExportFormatJSON:
		return json.MarshalIndent(newDocument(entries, opts), "", "  ")
	case ExportFormatYAML:
		return yaml.Marshal(newDocument(entries, opts))
	default:
		return nil, fmt.Errorf("unsupported export format: %s", opts.Format)
	}
}

// ExportToFile writes the export to path. Nothing is written unless asked.
func (l *List) ExportToFile(path string, opts ExportOptions) error {
	data, err := l.Export(opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

func newDocument(entries []models.HistoryEntry, opts ExportOptions) exportDocument {
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	return exportDocument{
		Title:      opts.Title,
		ExportedAt: time.Now().UTC(),
		Count:      len(entries),
		Entries:    entries,
	}
}

func exportMarkdown(entries []models.HistoryEntry, opts ExportOptions) string {
	var sb strings.Builder

	title := opts.Title
	if title == "" {
		title = DefaultExportOptions().Title
	}
	sb.WriteString("# ")
	sb.WriteString(title)
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("**Rewrites:** %d\n", len(entries)))
	sb.WriteString("\n---\n\n")

	for i, e := range entries {
		sb.WriteString(fmt.Sprintf("## %d. %s", i+1, e.Tone))
		if !e.CreatedAt.IsZero() {
			sb.WriteString(" (")
			sb.WriteString(e.CreatedAt.Format("2006-01-02 15:04:05"))
			sb.WriteString(")")
		}
		sb.WriteString("\n\n")
		sb.WriteString("**Model:** ")
		sb.WriteString(e.Model)
		sb.WriteString("\n\n")

		if opts.IncludeOriginal {
			sb.WriteString("### Original\n\n")
			sb.WriteString(quote(e.Original))
			sb.WriteString("\n\n")
		}

		sb.WriteString("### Rewritten\n\n")
		sb.WriteString(e.Rewritten)
		sb.WriteString("\n")

		if i < len(entries)-1 {
			sb.WriteString("\n---\n\n")
		}
	}

	return sb.String()
}

func quote(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = "> " + line
	}
	return strings.Join(lines, "\n")
}

// FormatRelativeTime formats a time as a relative string like "2h ago" or "yesterday"
func FormatRelativeTime(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 min ago"
		}
		return fmt.Sprintf("%d min ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hours)
	case diff < 48*time.Hour:
		return "yesterday"
	default:
		days := int(diff.Hours() / 24)
		return fmt.Sprintf("%d days ago", days)
	}
}
