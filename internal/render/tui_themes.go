package render

import (
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// TUITheme is the palette the coach screens draw with.
type TUITheme struct {
	Name        string
	Description string

	Background lipgloss.Color
	Surface    lipgloss.Color
	Border     lipgloss.Color

	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color

	Text     lipgloss.Color
	TextDim  lipgloss.Color
	TextMute lipgloss.Color
}

// palette lists colors in field order: background, surface, border,
// primary, secondary, accent, warning, error, text, dim, mute.
type palette [11]string

func newTUITheme(name, desc string, p palette) TUITheme {
	c := func(i int) lipgloss.Color { return lipgloss.Color(p[i]) }
	return TUITheme{
		Name: name, Description: desc,
		Background: c(0), Surface: c(1), Border: c(2),
		Primary: c(3), Secondary: c(4), Accent: c(5), Warning: c(6), Error: c(7),
		Text: c(8), TextDim: c(9), TextMute: c(10),
	}
}

var (
	TokyoNightTheme = newTUITheme(ThemeTokyoNight, "Tokyo Night, blue accents on deep navy", palette{
		"#1a1b26", "#24283b", "#414868",
		"#7aa2f7", "#9ece6a", "#bb9af7", "#e0af68", "#f7768e",
		"#c0caf5", "#565f89", "#3b4261",
	})

	// RoseTheme leans on the love/foam/iris/gold swatches.
	RoseTheme = newTUITheme(ThemeRose, "Rose, warm pinks for date-night drafting", palette{
		"#191724", "#1f1d2e", "#403d52",
		"#eb6f92", "#9ccfd8", "#c4a7e7", "#f6c177", "#e0556f",
		"#e0def4", "#6e6a86", "#403d52",
	})

	CatppuccinMochaTheme = newTUITheme(ThemeCatppuccin, "Catppuccin Mocha, soft pastels", palette{
		"#1e1e2e", "#313244", "#45475a",
		"#89b4fa", "#a6e3a1", "#cba6f7", "#f9e2af", "#f38ba8",
		"#cdd6f4", "#6c7086", "#45475a",
	})

	NordTheme = newTUITheme(ThemeNord, "Nord, cool frost and aurora tones", palette{
		"#2e3440", "#3b4252", "#4c566a",
		"#88c0d0", "#a3be8c", "#b48ead", "#ebcb8b", "#bf616a",
		"#eceff4", "#7b88a1", "#4c566a",
	})
)

// tuiThemes is the selection order shown by the config screen; the first
// entry is the default.
var tuiThemes = []TUITheme{TokyoNightTheme, RoseTheme, CatppuccinMochaTheme, NordTheme}

var (
	themeMu         sync.RWMutex
	currentTUITheme = tuiThemes[0]
)

// GetTUITheme returns the active palette.
func GetTUITheme() TUITheme {
	themeMu.RLock()
	defer themeMu.RUnlock()
	return currentTUITheme
}

// SetTUITheme switches the active palette; unknown names leave it unchanged.
func SetTUITheme(name string) bool {
	theme, ok := GetTUIThemeByName(name)
	if !ok {
		return false
	}
	themeMu.Lock()
	currentTUITheme = theme
	themeMu.Unlock()
	return true
}

func GetTUIThemeByName(name string) (TUITheme, bool) {
	for _, t := range tuiThemes {
		if t.Name == name {
			return t, true
		}
	}
	return TUITheme{}, false
}

// TUIThemeNames returns the palette names in selection order.
func TUIThemeNames() []string {
	names := make([]string, 0, len(tuiThemes))
	for _, t := range tuiThemes {
		names = append(names, t.Name)
	}
	return names
}
