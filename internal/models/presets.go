package models

import (
	"fmt"
	"strings"
)

// Preset is a demo message that pre-fills the compose box
type Preset struct {
	Name string `json:"name"`
	Text string `json:"text"`
	Tone Tone   `json:"tone"`
}

// DemoPresets returns the built-in demo presets in display order
func DemoPresets() []Preset {
	return []Preset{
		{
			Name: "Casual Meetup",
			Text: "hey wanna hang out sometime maybe if ur free lol",
			Tone: ToneConfident,
		},
		{
			Name: "First Date",
			Text: "so i was thinking we could maybe grab coffee or something if you want no pressure though",
			Tone: ToneFriendly,
		},
		{
			Name: "Follow Up",
			Text: "had a really good time yesterday!!!! we should definitely do it again soon if you want!!!",
			Tone: ToneCasual,
		},
	}
}

// FindPreset looks a preset up by name (case-insensitive) or 1-based index
func FindPreset(key string) (Preset, error) {
	presets := DemoPresets()
	key = strings.TrimSpace(key)

	var idx int
	if _, err := fmt.Sscanf(key, "%d", &idx); err == nil && fmt.Sprint(idx) == key {
		if idx >= 1 && idx <= len(presets) {
			return presets[idx-1], nil
		}
		return Preset{}, fmt.Errorf("preset index %d out of range (1-%d)", idx, len(presets))
	}

	for _, p := range presets {
		if strings.EqualFold(p.Name, key) {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("preset '%s' not found", key)
}
