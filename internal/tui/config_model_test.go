package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/diogo/msgcoach/internal/config"
	"github.com/diogo/msgcoach/internal/render"
)

// captureSaves swaps saveConfig for the duration of the test
func captureSaves(t *testing.T, err error) *[]config.Config {
	t.Helper()
	var saved []config.Config
	orig := saveConfig
	saveConfig = func(cfg config.Config) error {
		saved = append(saved, cfg)
		return err
	}
	t.Cleanup(func() { saveConfig = orig })
	return &saved
}

func sizedConfigModel(t *testing.T) ConfigModel {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Cleanup(func() {
		render.SetTUITheme(render.TokyoNightTheme.Name)
		UpdateTheme()
	})

	m := newConfigModel(config.DefaultConfig())
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return updated.(ConfigModel)
}

func press(t *testing.T, m ConfigModel, key tea.KeyMsg) (ConfigModel, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(key)
	cm, ok := updated.(ConfigModel)
	if !ok {
		t.Fatalf("Update should return ConfigModel, got %T", updated)
	}
	return cm, cmd
}

var (
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func TestNewConfigModel(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.APIKeyEnv, "abc")

	m := NewConfigModel()

	if !strings.HasSuffix(m.configPath, "config.json") {
		t.Errorf("configPath = %q", m.configPath)
	}
	if !m.hasAPIKey {
		t.Error("hasAPIKey should be true when the env var is set")
	}
	if m.view != viewMain || m.cursor != 0 {
		t.Errorf("unexpected initial navigation: view=%v cursor=%d", m.view, m.cursor)
	}
	if m.feedbackTimeout != 2*time.Second {
		t.Errorf("Expected feedbackTimeout to be 2s, got %v", m.feedbackTimeout)
	}
	if m.Init() != nil {
		t.Error("Init should return nil command")
	}
}

func TestConfigModel_MissingAPIKey(t *testing.T) {
	t.Setenv(config.APIKeyEnv, "")
	m := sizedConfigModel(t)

	if m.hasAPIKey {
		t.Error("hasAPIKey should be false")
	}
	if !strings.Contains(m.View(), "not set") {
		t.Error("View should warn about the missing key")
	}
}

func TestConfigModel_NavigationWraps(t *testing.T) {
	m := sizedConfigModel(t)

	m, _ = press(t, m, keyUp)
	if m.cursor != menuItemCount-1 {
		t.Errorf("up from top should wrap to %d, got %d", menuItemCount-1, m.cursor)
	}
	m, _ = press(t, m, keyDown)
	if m.cursor != 0 {
		t.Errorf("down from bottom should wrap to 0, got %d", m.cursor)
	}
}

func TestConfigModel_TogglePrivacy(t *testing.T) {
	saved := captureSaves(t, nil)
	m := sizedConfigModel(t)

	m.cursor = menuPrivacy
	m, cmd := press(t, m, keyEnter)

	if m.config.PrivacyMode {
		t.Error("privacy should be toggled off")
	}
	if len(*saved) != 1 || (*saved)[0].PrivacyMode {
		t.Errorf("expected one save with privacy off, got %+v", *saved)
	}
	if m.feedback != "Privacy mode disabled" {
		t.Errorf("feedback = %q", m.feedback)
	}
	if cmd == nil {
		t.Error("expected a feedback clear command")
	}
}

func TestConfigModel_SaveError(t *testing.T) {
	captureSaves(t, errors.New("disk full"))
	m := sizedConfigModel(t)

	m.cursor = menuVerbose
	m, _ = press(t, m, keyEnter)

	if !strings.Contains(m.feedback, "disk full") {
		t.Errorf("feedback should carry the save error, got %q", m.feedback)
	}
}

func TestConfigModel_SelectTone(t *testing.T) {
	saved := captureSaves(t, nil)
	m := sizedConfigModel(t)

	m.cursor = menuDefaultTone
	m, _ = press(t, m, keyEnter)
	if m.view != viewToneSelect {
		t.Fatalf("expected tone sub-menu, got %v", m.view)
	}
	if m.subCursor != 0 {
		t.Errorf("cursor should start on the current tone (Confident), got %d", m.subCursor)
	}

	m, _ = press(t, m, keyDown)
	m, _ = press(t, m, keyEnter)

	if m.view != viewMain {
		t.Error("selection should return to the main menu")
	}
	if m.config.DefaultTone != "Friendly" {
		t.Errorf("DefaultTone = %q", m.config.DefaultTone)
	}
	if len(*saved) != 1 {
		t.Errorf("expected one save, got %d", len(*saved))
	}
}

func TestConfigModel_SelectModel(t *testing.T) {
	captureSaves(t, nil)
	m := sizedConfigModel(t)

	m.cursor = menuDefaultModel
	m, _ = press(t, m, keyEnter)

	if !strings.Contains(m.View(), "Pro is more nuanced") {
		t.Error("model sub-menu should list descriptions")
	}

	m, _ = press(t, m, keyDown)
	m, _ = press(t, m, keyEnter)

	if m.config.DefaultModel != "gemini-2.5-pro" {
		t.Errorf("DefaultModel = %q", m.config.DefaultModel)
	}
}

func TestConfigModel_SelectTUITheme(t *testing.T) {
	captureSaves(t, nil)
	m := sizedConfigModel(t)

	m.cursor = menuTUITheme
	m, _ = press(t, m, keyEnter)

	names := render.TUIThemeNames()
	target := -1
	for i, n := range names {
		if n == render.RoseTheme.Name {
			target = i
		}
	}
	if target < 0 {
		t.Fatal("rose theme should be available")
	}
	m.subCursor = target
	m, _ = press(t, m, keyEnter)

	if m.config.TUITheme != "rose" {
		t.Errorf("TUITheme = %q", m.config.TUITheme)
	}
	if render.GetTUITheme().Name != "rose" {
		t.Error("theme should be applied immediately")
	}
	if colorPrimary != render.RoseTheme.Primary {
		t.Error("styles should be rebuilt from the new theme")
	}
}

func TestConfigModel_EscBackThenQuit(t *testing.T) {
	m := sizedConfigModel(t)

	m.cursor = menuTheme
	m, _ = press(t, m, keyEnter)
	if m.view != viewThemeSelect {
		t.Fatalf("expected theme sub-menu, got %v", m.view)
	}

	m, cmd := press(t, m, keyEsc)
	if m.view != viewMain || cmd != nil {
		t.Error("esc in a sub-menu should go back without quitting")
	}

	_, cmd = press(t, m, keyEsc)
	if cmd == nil {
		t.Fatal("esc on the main menu should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestConfigModel_ExitItemQuits(t *testing.T) {
	m := sizedConfigModel(t)
	m.cursor = menuExit

	_, cmd := press(t, m, keyEnter)
	if cmd == nil {
		t.Fatal("Exit should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestConfigModel_FeedbackClear(t *testing.T) {
	m := sizedConfigModel(t)
	m.feedback = "Test feedback"

	updated, cmd := m.Update(feedbackClearMsg{})
	if updated.(ConfigModel).feedback != "" {
		t.Error("Feedback should be cleared")
	}
	if cmd != nil {
		t.Error("feedbackClearMsg should return nil command")
	}
}

func TestConfigModel_View(t *testing.T) {
	var m ConfigModel
	if !strings.Contains(m.View(), "Initializing") {
		t.Error("View before the first size message should show the loading text")
	}

	m = sizedConfigModel(t)
	view := m.View()
	for _, want := range []string{"Configuration", "Default Model", "Default Tone", "Privacy Mode", "TUI Theme", "gemini-2.5-flash", "Confident"} {
		if !strings.Contains(view, want) {
			t.Errorf("View should contain %q", want)
		}
	}
}
