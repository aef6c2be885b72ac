package render

import (
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
)

// Markdown styles. "dark", "light", "dracula", "notty" and "ascii" are
// glamour's own; the palette styles below are derived from the TUI themes
// so rewrite labels match the interface colors.
const (
	ThemeDark       = "dark"
	ThemeLight      = "light"
	ThemeTokyoNight = "tokyonight"
	ThemeCatppuccin = "catppuccin"
	ThemeNord       = "nord"
	ThemeRose       = "rose"
)

// glamourStyles are accepted by glamour.WithStylePath as names
var glamourStyles = map[string]bool{
	ThemeDark:     true,
	ThemeLight:    true,
	"dracula":     true,
	"notty":       true,
	"ascii":       true,
	"pink":        true,
	"tokyo-night": true,
}

// IsBuiltinStyle returns true if the style is a built-in style
// (either glamour built-in or a palette style).
func IsBuiltinStyle(style string) bool {
	if glamourStyles[style] {
		return true
	}
	_, ok := paletteStyle(style)
	return ok
}

// paletteStyle builds a glamour style from the TUI theme of the same name
func paletteStyle(name string) (ansi.StyleConfig, bool) {
	theme, ok := GetTUIThemeByName(name)
	if !ok {
		return ansi.StyleConfig{}, false
	}
	return StyleFromTheme(theme), true
}

// StyleFromTheme derives a markdown style from a TUI palette.
// Bold text carries the section labels of a rewrite, so it gets the primary color.
func StyleFromTheme(theme TUITheme) ansi.StyleConfig {
	cfg := styles.DarkStyleConfig

	primary := string(theme.Primary)
	secondary := string(theme.Secondary)
	accent := string(theme.Accent)
	text := string(theme.Text)
	dim := string(theme.TextDim)
	bold := true

	cfg.Document.Color = &text
	cfg.Heading.Color = &primary
	cfg.Heading.Bold = &bold
	cfg.H1.Color = &primary
	cfg.H1.BackgroundColor = nil
	cfg.H2.Color = &primary
	cfg.H3.Color = &accent
	cfg.Strong.Color = &primary
	cfg.Strong.Bold = &bold
	cfg.Emph.Color = &accent
	cfg.BlockQuote.Color = &dim
	cfg.Link.Color = &secondary
	cfg.LinkText.Color = &secondary
	cfg.Code.Color = &accent
	cfg.HorizontalRule.Color = &dim

	return cfg
}

// AvailableStyles returns the markdown style names accepted by Options.Style
func AvailableStyles() []string {
	names := []string{ThemeDark, ThemeLight, "dracula", "notty", "ascii"}
	for _, n := range TUIThemeNames() {
		if !glamourStyles[n] {
			names = append(names, n)
		}
	}
	return names
}
