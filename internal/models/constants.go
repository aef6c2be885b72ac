// Package models contains data types and constants for message rewrites.
package models

import "fmt"

// Model represents a Gemini model offered in the model selector
type Model struct {
	Name        string
	Description string
}

// Available models
var (
	Model25Flash = Model{
		Name:        "gemini-2.5-flash",
		Description: "Flash is faster",
	}

	Model25Pro = Model{
		Name:        "gemini-2.5-pro",
		Description: "Pro is more nuanced",
	}

	// DefaultModel is the recommended default
	DefaultModel = Model25Flash
)

// AllModels returns the models in selector order
func AllModels() []Model {
	return []Model{Model25Flash, Model25Pro}
}

// ModelNames returns the identifiers of all models
func ModelNames() []string {
	all := AllModels()
	names := make([]string, len(all))
	for i, m := range all {
		names[i] = m.Name
	}
	return names
}

// ModelFromName returns a Model by its identifier
func ModelFromName(name string) (Model, error) {
	for _, m := range AllModels() {
		if m.Name == name {
			return m, nil
		}
	}
	return Model{}, fmt.Errorf("unknown model %q (available: %v)", name, ModelNames())
}

// NextModel returns the model after m in selector order, wrapping around
func NextModel(m Model) Model {
	all := AllModels()
	for i, candidate := range all {
		if candidate.Name == m.Name {
			return all[(i+1)%len(all)]
		}
	}
	return DefaultModel
}

// DefaultSystemPrompt is the coach persona used when none is configured.
const DefaultSystemPrompt = "You are an empathetic dating coach. Be concise, kind, and specific. " +
	"Preserve facts and names. Avoid love bombing and negging."

// LongMessageThreshold is the character count above which the user is advised
// to split the message.
const LongMessageThreshold = 500

// LongMessageAdvice is shown for messages over LongMessageThreshold characters.
const LongMessageAdvice = "Your message is quite long. Consider breaking it into smaller messages for better clarity."
