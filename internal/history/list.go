// Package history keeps the session-local list of rewrites.
package history

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/diogo/msgcoach/internal/models"
)

// List is an in-memory, newest-first record of successful rewrites.
// It lives as long as the session and is never written to disk implicitly.
type List struct {
	mu      sync.RWMutex
	entries []models.HistoryEntry
	now     func() time.Time
}

// NewList creates an empty history list
func NewList() *List {
	return &List{now: time.Now}
}

// Prepend adds entry at the front, filling ID and CreatedAt when empty,
// and returns the stored entry.
func (l *List) Prepend(entry models.HistoryEntry) models.HistoryEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = l.now()
	}

	l.entries = append([]models.HistoryEntry{entry}, l.entries...)
	return entry
}

// Entries returns a copy of all entries, newest first
func (l *List) Entries() []models.HistoryEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.HistoryEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Get returns the entry with the given ID
func (l *List) Get(id string) (models.HistoryEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, e := range l.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return models.HistoryEntry{}, fmt.Errorf("history entry not found: %s", id)
}

// Clear removes all entries
func (l *List) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

// SearchResult represents a search match in the history
type SearchResult struct {
	Entry        models.HistoryEntry
	MatchSnippet string // Snippet where the term was found
	MatchField   string // "original" or "rewritten"
}

// Search finds entries whose original or rewritten text contains query,
// ignoring case. Results keep newest-first order, one per entry.
func (l *List) Search(query string) []SearchResult {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	var results []SearchResult
	for _, e := range l.Entries() {
		switch {
		case containsFold(e.Original, query):
			results = append(results, SearchResult{
				Entry:        e,
				MatchSnippet: extractSnippet(e.Original, query, 80),
				MatchField:   "original",
			})
		case containsFold(e.Rewritten, query):
			results = append(results, SearchResult{
				Entry:        e,
				MatchSnippet: extractSnippet(e.Rewritten, query, 80),
				MatchField:   "rewritten",
			})
		}
	}
	return results
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// extractSnippet extracts a snippet around the first occurrence of query
func extractSnippet(content, query string, maxLen int) string {
	contentLower := strings.ToLower(content)
	queryLower := strings.ToLower(query)

	idx := strings.Index(contentLower, queryLower)
	if idx == -1 || len(contentLower) != len(content) {
		return truncate(content, maxLen)
	}

	half := maxLen / 2
	start := idx - half
	end := idx + len(query) + half

	if start < 0 {
		start = 0
		end = maxLen
	}
	if end > len(content) {
		end = len(content)
		start = end - maxLen
		if start < 0 {
			start = 0
		}
	}

	snippet := content[start:end]
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(content) {
		snippet = snippet + "..."
	}
	return snippet
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// Title returns a one-line label for an entry, built from its original text
func Title(e models.HistoryEntry, maxLen int) string {
	line := strings.Join(strings.Fields(e.Original), " ")
	return truncate(line, maxLen)
}
