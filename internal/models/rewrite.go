package models

import "time"

// RewriteRequest is everything needed to rewrite one message.
// It is a value type; build a new one instead of mutating.
type RewriteRequest struct {
	OriginalText       string
	Tone               Tone
	SystemInstructions string
	ModelID            string
	PrivacyEnabled     bool
}

// RewriteResult is produced only when the generation call succeeds
type RewriteResult struct {
	RewrittenText string // raw model output, unvalidated
	Request       RewriteRequest
	SanitizedText string // text actually sent to the model
	Masked        bool   // privacy mode changed the text
	Attempts      int
}

// Sections returns the parsed three-section view of the output
func (r *RewriteResult) Sections() (Sections, error) {
	return ParseSections(r.RewrittenText)
}

// HistoryEntry is one session-local record of an original/rewritten pair
type HistoryEntry struct {
	ID        string    `json:"id" yaml:"id"`
	Original  string    `json:"original" yaml:"original"`
	Rewritten string    `json:"rewritten" yaml:"rewritten"`
	Tone      Tone      `json:"tone" yaml:"tone"`
	Model     string    `json:"model" yaml:"model"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// NewHistoryEntry builds the history record for a successful rewrite
func NewHistoryEntry(result *RewriteResult) HistoryEntry {
	return HistoryEntry{
		Original:  result.Request.OriginalText,
		Rewritten: result.RewrittenText,
		Tone:      result.Request.Tone,
		Model:     result.Request.ModelID,
		CreatedAt: time.Now(),
	}
}
