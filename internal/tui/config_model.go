package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/msgcoach/internal/config"
	"github.com/diogo/msgcoach/internal/models"
	"github.com/diogo/msgcoach/internal/render"
)

// configView represents the current view in the config menu
type configView int

const (
	viewMain configView = iota
	viewModelSelect
	viewToneSelect
	viewThemeSelect    // Markdown theme
	viewTUIThemeSelect // TUI color theme
)

// Menu item indices for main view
const (
	menuDefaultModel = iota
	menuDefaultTone
	menuPrivacy
	menuVerbose
	menuCopyToClipboard
	menuTheme    // Markdown theme
	menuTUITheme // TUI color theme
	menuExit
	menuItemCount
)

// feedbackClearMsg is sent to clear feedback messages
type feedbackClearMsg struct{}

// saveConfig is replaced in tests
var saveConfig = config.SaveConfig

// ConfigModel represents the config TUI state
type ConfigModel struct {
	config     config.Config
	configPath string
	hasAPIKey  bool

	// Navigation
	view      configView
	cursor    int
	subCursor int

	// Feedback
	feedback        string
	feedbackTimeout time.Duration

	// Dimensions
	width  int
	height int
	ready  bool
}

// NewConfigModel creates a new config TUI model
func NewConfigModel() ConfigModel {
	cfg, err := config.LoadConfig()
	if err != nil {
		cfg = config.DefaultConfig()
	}
	return newConfigModel(cfg)
}

func newConfigModel(cfg config.Config) ConfigModel {
	configPath, _ := config.GetConfigPath()

	if cfg.TUITheme != "" && render.SetTUITheme(cfg.TUITheme) {
		UpdateTheme()
	}

	return ConfigModel{
		config:          cfg,
		configPath:      configPath,
		hasAPIKey:       strings.TrimSpace(os.Getenv(config.APIKeyEnv)) != "",
		view:            viewMain,
		feedbackTimeout: 2 * time.Second,
	}
}

// Init initializes the model
func (m ConfigModel) Init() tea.Cmd {
	return nil
}

// clearFeedback returns a command that clears the feedback message after a delay
func clearFeedback(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return feedbackClearMsg{}
	})
}

// subMenu describes one selection list reachable from the main menu
type subMenu struct {
	title    string
	options  func() []string
	current  func(c config.Config) string
	apply    func(c *config.Config, v string) string
	describe func(v string) string
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

var subMenus = map[configView]subMenu{
	viewModelSelect: {
		title:   "Select Model",
		options: config.AvailableModels,
		current: func(c config.Config) string { return c.DefaultModel },
		apply: func(c *config.Config, v string) string {
			c.DefaultModel = v
			return "Model set to " + v
		},
		describe: func(v string) string {
			if model, err := models.ModelFromName(v); err == nil {
				return model.Description
			}
			return ""
		},
	},
	viewToneSelect: {
		title:   "Select Tone",
		options: models.ToneNames,
		current: func(c config.Config) string { return c.DefaultTone },
		apply: func(c *config.Config, v string) string {
			c.DefaultTone = v
			return "Tone set to " + v
		},
	},
	viewThemeSelect: {
		title:   "Select Markdown Theme",
		options: render.AvailableStyles,
		current: func(c config.Config) string { return orDefault(c.Markdown.Style, render.ThemeDark) },
		apply: func(c *config.Config, v string) string {
			c.Markdown.Style = v
			return "Markdown theme set to " + v
		},
	},
	viewTUIThemeSelect: {
		title:   "Select TUI Theme",
		options: render.TUIThemeNames,
		current: func(c config.Config) string { return orDefault(c.TUITheme, render.TokyoNightTheme.Name) },
		apply: func(c *config.Config, v string) string {
			c.TUITheme = v
			render.SetTUITheme(v)
			UpdateTheme()
			return "TUI theme set to " + v
		},
		describe: func(v string) string {
			if theme, ok := render.GetTUIThemeByName(v); ok {
				return theme.Description
			}
			return ""
		},
	},
}

// menuEntry is a main-menu row: it opens a sub-menu, flips a flag, or
// (with neither) exits.
type menuEntry struct {
	label  string
	sub    configView
	flag   func(c *config.Config) *bool
	notice string
}

var mainMenu = [menuItemCount]menuEntry{
	menuDefaultModel:    {label: "Default Model", sub: viewModelSelect},
	menuDefaultTone:     {label: "Default Tone", sub: viewToneSelect},
	menuPrivacy:         {label: "Privacy Mode", notice: "Privacy mode", flag: func(c *config.Config) *bool { return &c.PrivacyMode }},
	menuVerbose:         {label: "Verbose Logging", notice: "Verbose logging", flag: func(c *config.Config) *bool { return &c.Verbose }},
	menuCopyToClipboard: {label: "Copy to Clipboard", notice: "Copy to clipboard", flag: func(c *config.Config) *bool { return &c.CopyToClipboard }},
	menuTheme:           {label: "Markdown Theme", sub: viewThemeSelect},
	menuTUITheme:        {label: "TUI Theme", sub: viewTUIThemeSelect},
	menuExit:            {label: "Exit"},
}

// options returns the choices of the current sub-menu
func (m ConfigModel) options() []string {
	if sm, ok := subMenus[m.view]; ok {
		return sm.options()
	}
	return nil
}

func (m ConfigModel) currentValue() string {
	if sm, ok := subMenus[m.view]; ok {
		return sm.current(m.config)
	}
	return ""
}

// openSubMenu switches to view with the cursor on the current value
func (m ConfigModel) openSubMenu(view configView) ConfigModel {
	m.view = view
	m.subCursor = 0
	current := m.currentValue()
	for i, opt := range m.options() {
		if strings.EqualFold(opt, current) {
			m.subCursor = i
			break
		}
	}
	return m
}

// Update handles messages and updates the model
func (m ConfigModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case feedbackClearMsg:
		m.feedback = ""

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			if m.view != viewMain {
				m.view = viewMain
			} else {
				return m, tea.Quit
			}

		case "up", "k":
			if m.view == viewMain {
				m.cursor = (m.cursor - 1 + menuItemCount) % menuItemCount
			} else if n := len(m.options()); n > 0 {
				m.subCursor = (m.subCursor - 1 + n) % n
			}

		case "down", "j":
			if m.view == viewMain {
				m.cursor = (m.cursor + 1) % menuItemCount
			} else if n := len(m.options()); n > 0 {
				m.subCursor = (m.subCursor + 1) % n
			}

		case "enter", " ":
			return m.handleSelect()
		}
	}

	return m, nil
}

// save persists the config and sets the feedback line
func (m ConfigModel) save(success string) (tea.Model, tea.Cmd) {
	if err := saveConfig(m.config); err != nil {
		m.feedback = fmt.Sprintf("Error: %v", err)
	} else {
		m.feedback = success
	}
	return m, clearFeedback(m.feedbackTimeout)
}

// handleSelect acts on the highlighted row of the current view
func (m ConfigModel) handleSelect() (tea.Model, tea.Cmd) {
	if m.view == viewMain {
		entry := mainMenu[m.cursor]
		switch {
		case entry.sub != viewMain:
			return m.openSubMenu(entry.sub), nil
		case entry.flag != nil:
			on := entry.flag(&m.config)
			*on = !*on
			state := "disabled"
			if *on {
				state = "enabled"
			}
			return m.save(entry.notice + " " + state)
		default:
			return m, tea.Quit
		}
	}

	sm := subMenus[m.view]
	opts := sm.options()
	m.view = viewMain
	if len(opts) == 0 {
		return m, nil
	}
	return m.save(sm.apply(&m.config, opts[m.subCursor]))
}

// View renders the TUI
func (m ConfigModel) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	var sections []string
	contentWidth := m.width - 4
	if contentWidth < 40 {
		contentWidth = 40
	}

	header := configHeaderStyle.Width(contentWidth).Render(configTitleStyle.Render("✦ Configuration"))
	sections = append(sections, header)

	apiKey := configStatusOkStyle.Render("✓ set")
	if !m.hasAPIKey {
		apiKey = configDisabledStyle.Render("✗ not set (add it to .env or your environment)")
	}
	pathsContent := lipgloss.JoinVertical(lipgloss.Left,
		configSectionTitleStyle.Render("Paths"),
		fmt.Sprintf("   Config:  %s", configPathStyle.Render(m.configPath)),
		fmt.Sprintf("   %s: %s", config.APIKeyEnv, apiKey),
	)
	sections = append(sections, configPanelStyle.Width(contentWidth).Render(pathsContent))

	var settingsContent string
	if m.view == viewMain {
		settingsContent = m.renderMainMenu()
	} else {
		settingsContent = m.renderSubMenu()
	}
	sections = append(sections, configPanelStyle.Width(contentWidth).Render(settingsContent))

	if m.feedback != "" {
		sections = append(sections, configFeedbackStyle.Render("✓ "+m.feedback))
	}

	sections = append(sections, m.renderStatusBar(contentWidth))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// menuLine renders one main-menu row with its value aligned
func (m ConfigModel) menuLine(index int, label, value string) string {
	cursor := "  "
	style := configMenuItemStyle
	if m.cursor == index {
		cursor = configCursorStyle.Render("▸ ")
		style = configMenuSelectedStyle
	}
	pad := 20 - len(label)
	if pad < 1 {
		pad = 1
	}
	return cursor + style.Render(label) + strings.Repeat(" ", pad) + value
}

func (m ConfigModel) renderMainMenu() string {
	items := []string{configSectionTitleStyle.Render("Settings"), ""}
	for i, entry := range mainMenu {
		var value string
		switch {
		case entry.sub != viewMain:
			value = configValueStyle.Render(subMenus[entry.sub].current(m.config))
		case entry.flag != nil:
			value = m.renderBoolValue(*entry.flag(&m.config))
		default:
			items = append(items, "")
		}
		items = append(items, m.menuLine(i, entry.label, value))
	}
	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

// renderSubMenu lists the options of the current sub-menu, marking the
// configured one
func (m ConfigModel) renderSubMenu() string {
	sm := subMenus[m.view]
	items := []string{configSectionTitleStyle.Render(sm.title), ""}
	current := sm.current(m.config)

	for i, opt := range sm.options() {
		cursor, style := "  ", configMenuItemStyle
		if m.subCursor == i {
			cursor, style = configCursorStyle.Render("▸ "), configMenuSelectedStyle
		}

		text := opt
		if sm.describe != nil {
			if d := sm.describe(opt); d != "" {
				text += " - " + d
			}
		}
		if strings.EqualFold(opt, current) {
			text = style.Render(text) + configStatusOkStyle.Render(" (current)")
		} else {
			text = style.Render(text)
		}
		items = append(items, cursor+text)
	}
	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

// renderBoolValue renders a boolean value with appropriate styling
func (m ConfigModel) renderBoolValue(value bool) string {
	if value {
		return configEnabledStyle.Render("enabled")
	}
	return configDisabledStyle.Render("disabled")
}

// renderStatusBar renders the bottom status bar
func (m ConfigModel) renderStatusBar(width int) string {
	back := "Exit"
	if m.view != viewMain {
		back = "Back"
	}
	return renderShortcuts(configStatusBarStyle, width, []shortcut{
		{"↑↓", "Navigate"},
		{"Enter", "Select"},
		{"Esc", back},
	})
}

// RunConfig starts the config TUI
func RunConfig() error {
	m := NewConfigModel()

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}
