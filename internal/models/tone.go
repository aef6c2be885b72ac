package models

import (
	"fmt"
	"slices"
	"strings"
)

// Tone is the desired tone of a rewritten message
type Tone string

// Tones offered by the tone selector
const (
	ToneConfident Tone = "Confident"
	ToneFriendly  Tone = "Friendly"
	TonePlayful   Tone = "Playful"
	ToneCasual    Tone = "Casual"
	ToneRomantic  Tone = "Romantic"
	ToneWitty     Tone = "Witty"
	ToneSincere   Tone = "Sincere"
)

// DefaultTone is the tone selected in a fresh session
const DefaultTone = ToneConfident

// AllTones returns the tones in selector order
func AllTones() []Tone {
	return []Tone{
		ToneConfident,
		ToneFriendly,
		TonePlayful,
		ToneCasual,
		ToneRomantic,
		ToneWitty,
		ToneSincere,
	}
}

// ParseTone matches name against the known tones, ignoring case
func ParseTone(name string) (Tone, error) {
	name = strings.TrimSpace(name)
	for _, t := range AllTones() {
		if strings.EqualFold(string(t), name) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tone %q (available: %s)", name, strings.Join(ToneNames(), ", "))
}

// ToneNames returns the display names of all tones
func ToneNames() []string {
	tones := AllTones()
	names := make([]string, len(tones))
	for i, t := range tones {
		names[i] = string(t)
	}
	return names
}

// Lower returns the tone as it appears in the prompt
func (t Tone) Lower() string {
	return strings.ToLower(string(t))
}

// Valid reports whether t is exactly one of the known tones.
// Use ParseTone to accept other spellings.
func (t Tone) Valid() bool {
	return slices.Contains(AllTones(), t)
}

// Next returns the tone after t, wrapping around
func (t Tone) Next() Tone {
	return t.shift(1)
}

// Prev returns the tone before t, wrapping around
func (t Tone) Prev() Tone {
	return t.shift(-1)
}

func (t Tone) shift(delta int) Tone {
	tones := AllTones()
	for i, candidate := range tones {
		if candidate == t {
			return tones[(i+delta+len(tones))%len(tones)]
		}
	}
	return DefaultTone
}
