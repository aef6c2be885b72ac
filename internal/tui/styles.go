// Package tui provides the terminal user interface for msgcoach.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	apierrors "github.com/diogo/msgcoach/internal/errors"
	"github.com/diogo/msgcoach/internal/render"
)

// Palette colors, copied from the active render.TUITheme
var (
	colorSurface, colorBorder                                           lipgloss.Color
	colorPrimary, colorSecondary, colorAccent, colorWarning, colorError lipgloss.Color
	colorText, colorTextDim, colorTextMute                              lipgloss.Color
)

// Styles are rebuilt by UpdateTheme whenever the palette changes.
var (
	headerStyle, titleStyle, subtitleStyle, hintStyle lipgloss.Style

	resultAreaStyle                         lipgloss.Style
	rewriteBubbleStyle, rewriteLabelStyle   lipgloss.Style
	originalBubbleStyle, originalLabelStyle lipgloss.Style

	toneChipStyle, toneChipActiveStyle lipgloss.Style
	toggleOnStyle, toggleOffStyle      lipgloss.Style

	historyItemStyle, historySelectedStyle, historyMetaStyle lipgloss.Style

	inputPanelStyle, inputLabelStyle lipgloss.Style
	// counterLongStyle flags drafts past the long-message threshold
	counterStyle, counterLongStyle lipgloss.Style
	loadingStyle                   lipgloss.Style

	statusBarStyle, statusKeyStyle, statusDescStyle lipgloss.Style
	errorStyle, warningStyle, noticeStyle           lipgloss.Style

	welcomeStyle, welcomeTitleStyle, welcomeIconStyle lipgloss.Style

	configHeaderStyle, configTitleStyle, configPanelStyle, configSectionTitleStyle lipgloss.Style
	configMenuItemStyle, configMenuSelectedStyle, configCursorStyle                lipgloss.Style
	configValueStyle, configEnabledStyle, configDisabledStyle, configPathStyle     lipgloss.Style
	configStatusOkStyle, configFeedbackStyle, configStatusBarStyle                 lipgloss.Style
)

// gradientColors cycle through the loading indicator regardless of palette
var gradientColors = []lipgloss.Color{
	"#ff6b6b", "#feca57", "#48dbfb", "#ff9ff3",
	"#54a0ff", "#5f27cd", "#00d2d3", "#1dd1a1",
}

func init() {
	UpdateTheme()
}

// UpdateTheme re-reads the active palette and rebuilds every style.
func UpdateTheme() {
	th := render.GetTUITheme()

	colorSurface, colorBorder = th.Surface, th.Border
	colorPrimary, colorSecondary, colorAccent = th.Primary, th.Secondary, th.Accent
	colorWarning, colorError = th.Warning, th.Error
	colorText, colorTextDim, colorTextMute = th.Text, th.TextDim, th.TextMute

	rebuildStyles()
}

func fg(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }

func bold(c lipgloss.Color) lipgloss.Style { return fg(c).Bold(true) }

func italic(c lipgloss.Color) lipgloss.Style { return fg(c).Italic(true) }

// panel is a rounded box in the border color
func panel(v, h int) lipgloss.Style {
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(v, h)
}

func rebuildStyles() {
	headerStyle = panel(0, 2)
	titleStyle = bold(colorPrimary)
	subtitleStyle = fg(colorTextDim)
	hintStyle = italic(colorTextMute)

	resultAreaStyle = panel(0, 1)
	rewriteBubbleStyle = panel(0, 1).BorderForeground(colorPrimary).Foreground(colorText)
	rewriteLabelStyle = bold(colorPrimary)
	// a left rule only, so the original reads as a quote under the rewrite
	originalBubbleStyle = fg(colorTextDim).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorTextDim).
		BorderLeft(true).BorderTop(false).BorderRight(false).BorderBottom(false).
		PaddingLeft(1)
	originalLabelStyle = bold(colorSecondary)

	toneChipStyle = fg(colorTextDim).Padding(0, 1)
	toneChipActiveStyle = bold(colorSurface).Background(colorPrimary).Padding(0, 1)
	toggleOnStyle = bold(colorSecondary)
	toggleOffStyle = fg(colorTextMute)

	historyItemStyle = fg(colorText).PaddingLeft(2)
	historySelectedStyle = bold(colorAccent)
	historyMetaStyle = fg(colorTextDim)

	inputPanelStyle = panel(0, 1)
	inputLabelStyle = bold(colorPrimary).MarginRight(1)
	counterStyle = fg(colorTextMute)
	counterLongStyle = bold(colorWarning)
	loadingStyle = bold(colorAccent)

	statusBarStyle = fg(colorTextMute)
	statusKeyStyle = bold(colorTextDim)
	statusDescStyle = fg(colorTextMute)
	errorStyle = bold(colorError)
	warningStyle = fg(colorWarning)
	noticeStyle = italic(colorTextDim)

	welcomeStyle = fg(colorTextDim).Align(lipgloss.Center)
	welcomeTitleStyle = bold(colorPrimary).Align(lipgloss.Center)
	welcomeIconStyle = fg(colorAccent).Align(lipgloss.Center)

	configHeaderStyle = bold(colorPrimary).MarginBottom(1).Align(lipgloss.Center)
	configTitleStyle = bold(colorText).PaddingLeft(1)
	configPanelStyle = panel(1, 2)
	configSectionTitleStyle = bold(colorSecondary)
	configMenuItemStyle = fg(colorText)
	configMenuSelectedStyle = bold(colorAccent)
	configCursorStyle = fg(colorAccent)
	configValueStyle = fg(colorTextDim)
	configEnabledStyle = fg(colorSecondary)
	configDisabledStyle = fg(colorError)
	configPathStyle = italic(colorTextMute)
	configStatusOkStyle = fg(colorSecondary)
	configFeedbackStyle = italic(colorTextDim).MarginTop(1)
	configStatusBarStyle = fg(colorTextMute).MarginTop(1).Align(lipgloss.Center)
}

// shortcut is one key hint of a status bar
type shortcut struct {
	key  string
	desc string
}

// renderShortcuts joins key hints into a centered status line
func renderShortcuts(style lipgloss.Style, width int, shortcuts []shortcut) string {
	items := make([]string, 0, len(shortcuts))
	for _, s := range shortcuts {
		items = append(items, lipgloss.JoinHorizontal(
			lipgloss.Center,
			statusKeyStyle.Render(s.key),
			statusDescStyle.Render(" "+s.desc),
		))
	}
	bar := strings.Join(items, statusDescStyle.Render("  │  "))
	return style.Width(width).Align(lipgloss.Center).Render(bar)
}

// FormatError renders err with its HTTP status and remediation hint.
// Empty input is a nudge, not a failure, so it shows as a warning.
func FormatError(err error) string {
	switch {
	case err == nil:
		return ""
	case apierrors.IsEmptyInput(err):
		return fg(colorWarning).Render("⚠ " + apierrors.Hint(err))
	}

	dim := fg(colorTextDim)
	out := fg(colorError).Render(fmt.Sprintf("✗ %v", err))
	if status := apierrors.GetHTTPStatus(err); status > 0 {
		out += dim.Render(fmt.Sprintf("\n  HTTP Status: %d", status))
	}
	if hint := apierrors.Hint(err); hint != "" {
		out += dim.Render("\n  Hint: " + hint)
	}
	return out
}
