package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/diogo/msgcoach/internal/models"
)

// Persona represents a system prompt configuration
type Persona struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	SystemPrompt string  `json:"system_prompt"`
	Model        string  `json:"model,omitempty"` // Preferred model (optional)
	Tone         string  `json:"tone,omitempty"`  // Preferred tone (optional)
	Temperature  float64 `json:"temperature,omitempty"`
}

// PersonaConfig stores all personas
type PersonaConfig struct {
	Personas       []Persona `json:"personas"`
	DefaultPersona string    `json:"default_persona,omitempty"`
}

// DefaultPersonas returns pre-configured coach personas
func DefaultPersonas() []Persona {
	return []Persona{
		{
			Name:         DefaultPersonaName,
			Description:  "Empathetic dating coach",
			SystemPrompt: models.DefaultSystemPrompt,
		},
		{
			Name:        "friend",
			Description: "Supportive friend who keeps it light",
			SystemPrompt: `You are a supportive friend helping someone text a person they like.
Keep the message light and warm. Preserve facts and names.
Never pressure the recipient or make promises on the sender's behalf.`,
		},
		{
			Name:        "concise",
			Description: "Trims rambling messages",
			SystemPrompt: `You are an editor for short personal messages.
Remove filler and repeated punctuation, keep one clear question or invitation,
and keep the sender's voice. Preserve facts and names.`,
		},
		{
			Name:        "professional",
			Description: "Polite networking and follow-ups",
			SystemPrompt: `You help people write polite, clear messages to new contacts.
Be respectful of the recipient's time, avoid slang, and preserve facts and names.`,
		},
	}
}

// DefaultPersonaName is the built-in persona that can never be deleted
const DefaultPersonaName = "default"

const personasFileName = "personas.json"

// index returns the position of the named persona, or -1
func (pc *PersonaConfig) index(name string) int {
	for i := range pc.Personas {
		if pc.Personas[i].Name == name {
			return i
		}
	}
	return -1
}

// LoadPersonas reads the personas file layered over the built-ins.
// A missing file yields just the built-ins.
func LoadPersonas() (*PersonaConfig, error) {
	pc := &PersonaConfig{DefaultPersona: DefaultPersonaName}
	if err := readJSONFile(personasFileName, pc); err != nil {
		return nil, err
	}
	pc.Personas = mergePersonas(DefaultPersonas(), pc.Personas)
	return pc, nil
}

// SavePersonas writes pc with owner-only permissions since prompts are user data
func SavePersonas(pc *PersonaConfig) error {
	return writeJSONFile(personasFileName, pc)
}

// editPersonas loads, applies fn, and saves unless fn fails
func editPersonas(fn func(pc *PersonaConfig) error) error {
	pc, err := LoadPersonas()
	if err != nil {
		return err
	}
	if err := fn(pc); err != nil {
		return err
	}
	return SavePersonas(pc)
}

func personaNotFound(name string) error {
	return fmt.Errorf("persona '%s' not found", name)
}

func GetPersona(name string) (*Persona, error) {
	pc, err := LoadPersonas()
	if err != nil {
		return nil, err
	}
	i := pc.index(name)
	if i < 0 {
		return nil, personaNotFound(name)
	}
	p := pc.Personas[i]
	return &p, nil
}

// ListPersonaNames returns persona names, built-ins first
func ListPersonaNames() ([]string, error) {
	pc, err := LoadPersonas()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(pc.Personas))
	for _, p := range pc.Personas {
		names = append(names, p.Name)
	}
	return names, nil
}

// AddPersona stores a new persona; the name must be unused
func AddPersona(persona Persona) error {
	return editPersonas(func(pc *PersonaConfig) error {
		if pc.index(persona.Name) >= 0 {
			return fmt.Errorf("persona '%s' already exists", persona.Name)
		}
		pc.Personas = append(pc.Personas, persona)
		return nil
	})
}

// UpdatePersona replaces the persona with the same name
func UpdatePersona(persona Persona) error {
	return editPersonas(func(pc *PersonaConfig) error {
		i := pc.index(persona.Name)
		if i < 0 {
			return personaNotFound(persona.Name)
		}
		pc.Personas[i] = persona
		return nil
	})
}

// DeletePersona removes a persona. If it was the default, the built-in
// default takes over.
func DeletePersona(name string) error {
	if name == DefaultPersonaName {
		return fmt.Errorf("cannot delete the default persona")
	}
	return editPersonas(func(pc *PersonaConfig) error {
		i := pc.index(name)
		if i < 0 {
			return personaNotFound(name)
		}
		pc.Personas = append(pc.Personas[:i], pc.Personas[i+1:]...)
		if pc.DefaultPersona == name {
			pc.DefaultPersona = DefaultPersonaName
		}
		return nil
	})
}

func SetDefaultPersona(name string) error {
	return editPersonas(func(pc *PersonaConfig) error {
		if pc.index(name) < 0 {
			return personaNotFound(name)
		}
		pc.DefaultPersona = name
		return nil
	})
}

// GetDefaultPersona returns the persona selected with SetDefaultPersona
func GetDefaultPersona() (*Persona, error) {
	pc, err := LoadPersonas()
	if err != nil {
		return nil, err
	}
	name := pc.DefaultPersona
	if name == "" {
		name = DefaultPersonaName
	}
	return GetPersona(name)
}

// mergePersonas overlays custom on defaults: same-named entries replace the
// built-in in place and new ones are appended.
func mergePersonas(defaults, custom []Persona) []Persona {
	merged := &PersonaConfig{Personas: append([]Persona(nil), defaults...)}
	for _, cp := range custom {
		if i := merged.index(cp.Name); i >= 0 {
			merged.Personas[i] = cp
		} else {
			merged.Personas = append(merged.Personas, cp)
		}
	}
	return merged.Personas
}

// ResolveSystemPrompt picks the coach instructions for a rewrite.
// Precedence: explicit prompt, named persona, config override, default persona.
func ResolveSystemPrompt(cfg Config, explicit, personaName string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return explicit, nil
	}
	if personaName != "" {
		p, err := GetPersona(personaName)
		if err != nil {
			return "", err
		}
		return promptOrDefault(p.SystemPrompt), nil
	}
	if strings.TrimSpace(cfg.SystemPrompt) != "" {
		return cfg.SystemPrompt, nil
	}
	p, err := GetDefaultPersona()
	if err != nil {
		return models.DefaultSystemPrompt, nil
	}
	return promptOrDefault(p.SystemPrompt), nil
}

func promptOrDefault(prompt string) string {
	if strings.TrimSpace(prompt) == "" {
		return models.DefaultSystemPrompt
	}
	return prompt
}

// Persona field limits
const (
	MaxNameLength        = 50
	MaxDescriptionLength = 200
	MaxPromptLength      = 32 * 1024
)

var personaNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidatePersona reports every invalid field at once, keyed by field name.
func ValidatePersona(p Persona) error {
	problems := map[string]string{}

	switch {
	case p.Name == "":
		problems["name"] = "name is required"
	case len(p.Name) > MaxNameLength:
		problems["name"] = fmt.Sprintf("name too long (max %d characters)", MaxNameLength)
	case !personaNamePattern.MatchString(p.Name):
		problems["name"] = "name must contain only alphanumeric characters, underscores, and hyphens"
	}
	if len(p.Description) > MaxDescriptionLength {
		problems["description"] = fmt.Sprintf("description too long (max %d characters)", MaxDescriptionLength)
	}
	if len(p.SystemPrompt) > MaxPromptLength {
		problems["system_prompt"] = fmt.Sprintf("system prompt too long (max %d characters)", MaxPromptLength)
	}
	if p.Model != "" {
		if _, err := models.ModelFromName(p.Model); err != nil {
			problems["model"] = err.Error()
		}
	}
	if p.Tone != "" {
		if _, err := models.ParseTone(p.Tone); err != nil {
			problems["tone"] = err.Error()
		}
	}
	if p.Temperature < 0 || p.Temperature > 2 {
		problems["temperature"] = "temperature must be between 0 and 2"
	}

	if len(problems) > 0 {
		return fmt.Errorf("validation failed: %v", problems)
	}
	return nil
}
