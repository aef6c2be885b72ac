package history

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/diogo/msgcoach/internal/models"
)

// Resolve converts a user-friendly reference to a history entry.
//
// Supported references:
//   - "@last" - most recent rewrite
//   - "@first" - oldest rewrite of the session
//   - "1", "2", "3" - by index (1-based, newest first)
//   - an entry ID, or an unambiguous ID prefix of at least 4 characters
//   - "substring" - match on the original text (error if multiple matches)
func (l *List) Resolve(ref string) (models.HistoryEntry, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.HistoryEntry{}, fmt.Errorf("empty reference")
	}

	entries := l.Entries()
	if len(entries) == 0 {
		return models.HistoryEntry{}, fmt.Errorf("no history yet")
	}

	switch strings.ToLower(ref) {
	case "@last":
		return entries[0], nil
	case "@first":
		return entries[len(entries)-1], nil
	}

	if index, err := strconv.Atoi(ref); err == nil {
		if index < 1 || index > len(entries) {
			return models.HistoryEntry{}, fmt.Errorf("index %d out of range (1-%d)", index, len(entries))
		}
		return entries[index-1], nil
	}

	var byID []models.HistoryEntry
	for _, e := range entries {
		if e.ID == ref {
			return e, nil
		}
		if len(ref) >= 4 && strings.HasPrefix(e.ID, ref) {
			byID = append(byID, e)
		}
	}
	if len(byID) == 1 {
		return byID[0], nil
	}

	var matches []models.HistoryEntry
	for _, e := range entries {
		if containsFold(e.Original, ref) {
			matches = append(matches, e)
		}
	}

	switch len(matches) {
	case 0:
		return models.HistoryEntry{}, fmt.Errorf("no history entry matching '%s'", ref)
	case 1:
		return matches[0], nil
	default:
		var titles []string
		for _, m := range matches {
			titles = append(titles, fmt.Sprintf("'%s'", Title(m, 30)))
		}
		return models.HistoryEntry{}, fmt.Errorf("multiple entries match '%s': %s. Use an index or be more specific",
			ref, strings.Join(titles, ", "))
	}
}

// ListAliases returns information about supported references
func ListAliases() string {
	return `Supported references:
  @last          Most recent rewrite
  @first         Oldest rewrite in this session
  1, 2, 3        By index (1-based, from most recent)
  "text"         Search by original text
  <id>           Entry ID or ID prefix`
}
