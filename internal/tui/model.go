package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	apierrors "github.com/diogo/msgcoach/internal/errors"
	"github.com/diogo/msgcoach/internal/history"
	"github.com/diogo/msgcoach/internal/models"
	"github.com/diogo/msgcoach/internal/render"
	"github.com/diogo/msgcoach/internal/session"
)

// Animation tick message
type animationTickMsg time.Time

// Message types for the TUI
type (
	rewriteDoneMsg struct {
		resp *session.Response
	}
	errMsg struct {
		err error
	}
	copiedMsg struct {
		err error
	}
)

// RetryMsg reports that attempt Next of Max is about to start
type RetryMsg struct {
	Next int
	Max  int
}

// RetryNotifier forwards retry notifications from the invoker goroutine to
// the TUI event loop.
type RetryNotifier struct {
	ch chan RetryMsg
}

// NewRetryNotifier creates a notifier; pass its OnRetry to rewrite.OnRetry
func NewRetryNotifier() *RetryNotifier {
	return &RetryNotifier{ch: make(chan RetryMsg, 4)}
}

// OnRetry has the shape of rewrite.RetryFunc. It never blocks.
func (n *RetryNotifier) OnRetry(next, max int, _ error) {
	select {
	case n.ch <- RetryMsg{Next: next, Max: max}:
	default:
	}
}

func (n *RetryNotifier) wait() tea.Cmd {
	return func() tea.Msg {
		return <-n.ch
	}
}

// writeClipboard is replaced in tests
var writeClipboard = clipboard.WriteAll

type coachScreen int

const (
	screenCompose coachScreen = iota
	screenHistory
)

// Model represents the coach TUI state
type Model struct {
	session    *session.Session
	notifier   *RetryNotifier
	renderOpts render.Options
	autoCopy   bool
	exportDir  string

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// State
	screen         coachScreen
	loading        bool
	ready          bool
	err            error
	retry          *RetryMsg
	last           *session.Response
	cancel         context.CancelFunc
	feedback       string
	animationFrame int

	// History screen state
	historyCursor int
	expanded      bool

	// Dimensions
	width  int
	height int
}

// CoachOption configures the coach model
type CoachOption func(*Model)

// WithRetryNotifier shows retry progress while a rewrite is running
func WithRetryNotifier(n *RetryNotifier) CoachOption {
	return func(m *Model) {
		m.notifier = n
	}
}

// WithRenderOptions sets the markdown rendering options of the result pane
func WithRenderOptions(opts render.Options) CoachOption {
	return func(m *Model) {
		m.renderOpts = opts
	}
}

// WithAutoCopy copies every successful rewrite to the clipboard
func WithAutoCopy(enabled bool) CoachOption {
	return func(m *Model) {
		m.autoCopy = enabled
	}
}

// WithExportDir sets where history exports are written
func WithExportDir(dir string) CoachOption {
	return func(m *Model) {
		m.exportDir = dir
	}
}

// WithInitialText pre-fills the compose box
func WithInitialText(text string) CoachOption {
	return func(m *Model) {
		m.textarea.SetValue(text)
	}
}

// NewCoachModel creates a new coach TUI model
func NewCoachModel(sess *session.Session, opts ...CoachOption) Model {
	ta := textarea.New()
	ta.Placeholder = "Paste or type the message you want to send..."
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(4)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	m := Model{
		session:    sess,
		renderOpts: render.DefaultOptions(),
		exportDir:  ".",
		textarea:   ta,
		spinner:    s,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink}
	if m.notifier != nil {
		cmds = append(cmds, m.notifier.wait())
	}
	return tea.Batch(cmds...)
}

// animationTick returns a command that sends animation tick messages
func animationTick() tea.Cmd {
	return tea.Tick(time.Millisecond*80, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

// rewriteCmd submits text on the session off the event loop
func rewriteCmd(ctx context.Context, sess *session.Session, text string) tea.Cmd {
	return func() tea.Msg {
		resp, err := sess.Submit(ctx, text)
		if err != nil {
			return errMsg{err: err}
		}
		return rewriteDoneMsg{resp: resp}
	}
}

func copyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return copiedMsg{err: writeClipboard(text)}
	}
}

// copyText is the part of a response worth pasting: the rewritten message
// when the output follows the template, otherwise the raw output.
func copyText(resp *session.Response) string {
	if resp.Sections != nil {
		return resp.Sections.RewrittenMessage
	}
	return strings.TrimSpace(resp.Result.RewrittenText)
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.updateViewport()

	case tea.KeyMsg:
		if m.screen == screenHistory {
			return m.updateHistory(msg)
		}
		if next, cmd, handled := m.handleComposeKey(msg); handled {
			return next, cmd
		}

	case rewriteDoneMsg:
		m.finish()
		m.last = msg.resp
		m.err = nil
		m.updateViewport()
		m.viewport.GotoTop()
		if m.autoCopy {
			cmds = append(cmds, copyCmd(copyText(msg.resp)))
		}

	case errMsg:
		m.finish()
		if errors.Is(msg.err, context.Canceled) {
			m.feedback = "Rewrite canceled"
			cmds = append(cmds, clearFeedback(2*time.Second))
		} else {
			m.err = msg.err
		}

	case copiedMsg:
		if msg.err != nil {
			m.feedback = fmt.Sprintf("Copy failed: %v", msg.err)
		} else {
			m.feedback = "Copied rewrite to clipboard"
		}
		cmds = append(cmds, clearFeedback(2*time.Second))

	case RetryMsg:
		if m.loading {
			r := msg
			m.retry = &r
		}
		if m.notifier != nil {
			cmds = append(cmds, m.notifier.wait())
		}

	case feedbackClearMsg:
		m.feedback = ""

	case spinner.TickMsg:
		if m.loading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case animationTickMsg:
		if m.loading {
			m.animationFrame++
			cmds = append(cmds, animationTick())
		}
	}

	// Only key messages reach the textarea to prevent escape sequence leaks
	if key, ok := msg.(tea.KeyMsg); ok && !m.loading {
		m.textarea, cmd = m.textarea.Update(key)
		cmds = append(cmds, cmd)
	}

	if _, ok := msg.(tea.KeyMsg); !ok {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// handleComposeKey runs the shortcuts of the compose screen. Keys that are
// not shortcuts fall through to the textarea.
func (m Model) handleComposeKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit, true

	case "esc":
		if m.loading {
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil, true
		}
		return m, tea.Quit, true

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd, true
	}

	if m.loading {
		return m, nil, true
	}

	switch msg.String() {
	case "ctrl+s":
		next, cmd := m.submit()
		return next, cmd, true

	case "tab":
		_ = m.session.SetTone(m.session.Settings().Tone.Next())
		return m, nil, true

	case "shift+tab":
		_ = m.session.SetTone(m.session.Settings().Tone.Prev())
		return m, nil, true

	case "ctrl+o":
		_ = m.session.SetModel(models.NextModel(m.session.Settings().Model).Name)
		return m, nil, true

	case "ctrl+p":
		m.session.SetPrivacy(!m.session.Settings().Privacy)
		return m, nil, true

	case "alt+1", "alt+2", "alt+3":
		p, err := m.session.ApplyPreset(strings.TrimPrefix(msg.String(), "alt+"))
		if err != nil {
			m.err = err
			return m, nil, true
		}
		m.textarea.SetValue(p.Text)
		m.err = nil
		m.feedback = fmt.Sprintf("Loaded preset %q", p.Name)
		return m, clearFeedback(2 * time.Second), true

	case "ctrl+y":
		if m.last == nil {
			m.feedback = "Nothing to copy yet"
			return m, clearFeedback(2 * time.Second), true
		}
		return m, copyCmd(copyText(m.last)), true

	case "ctrl+x":
		m.textarea.Reset()
		m.err = nil
		return m, nil, true

	case "ctrl+r":
		m.screen = screenHistory
		m.historyCursor = 0
		m.expanded = false
		m.updateViewport()
		m.viewport.GotoTop()
		return m, nil, true

	case "ctrl+l":
		m.clearHistory()
		return m, clearFeedback(2 * time.Second), true
	}

	return m, nil, false
}

// submit starts a rewrite of the compose box. Blank text only raises the
// empty-input warning.
func (m Model) submit() (Model, tea.Cmd) {
	text := m.textarea.Value()
	if strings.TrimSpace(text) == "" {
		m.err = apierrors.NewEmptyInputError()
		return m, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.loading = true
	m.err = nil
	m.retry = nil
	m.feedback = ""
	m.animationFrame = 0

	return m, tea.Batch(
		rewriteCmd(ctx, m.session, text),
		m.spinner.Tick,
		animationTick(),
	)
}

func (m *Model) finish() {
	m.loading = false
	m.retry = nil
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

func (m *Model) clearHistory() {
	n := m.session.History().Len()
	m.session.ClearHistory()
	m.historyCursor = 0
	m.expanded = false
	m.feedback = fmt.Sprintf("Cleared %d history entries", n)
	m.updateViewport()
}

// updateHistory handles keys on the history screen
func (m Model) updateHistory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	entries := m.session.History().Entries()

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "esc", "ctrl+r", "q":
		m.screen = screenCompose
		m.updateViewport()
		return m, nil

	case "up", "k":
		if m.historyCursor > 0 {
			m.historyCursor--
			m.expanded = false
		}

	case "down", "j":
		if m.historyCursor < len(entries)-1 {
			m.historyCursor++
			m.expanded = false
		}

	case "enter", " ":
		if len(entries) > 0 {
			m.expanded = !m.expanded
		}

	case "u":
		if len(entries) > 0 {
			m.textarea.SetValue(entries[m.historyCursor].Original)
			m.screen = screenCompose
			m.updateViewport()
			return m, nil
		}

	case "y":
		if len(entries) > 0 {
			return m, copyCmd(entries[m.historyCursor].Rewritten)
		}

	case "x":
		return m, m.exportHistory()

	case "ctrl+l":
		m.clearHistory()
		return m, clearFeedback(2 * time.Second)

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	m.updateViewport()
	return m, nil
}

func (m *Model) exportHistory() tea.Cmd {
	if m.session.History().Len() == 0 {
		m.feedback = "History is empty"
		return clearFeedback(2 * time.Second)
	}

	opts := history.DefaultExportOptions()
	name := fmt.Sprintf("msgcoach-history-%s.%s", time.Now().Format("20060102-150405"), opts.Format.Extension())
	path := filepath.Join(m.exportDir, name)

	if err := m.session.History().ExportToFile(path, opts); err != nil {
		m.feedback = fmt.Sprintf("Export failed: %v", err)
	} else {
		m.feedback = "Exported to " + path
	}
	return clearFeedback(3 * time.Second)
}

// resize lays out components for the current window size
func (m *Model) resize() {
	headerHeight := 4 // Header panel with border
	inputHeight := 8  // Input panel with border, counter and advisory
	statusHeight := 1
	padding := 4 // Result border and error line

	vpHeight := m.height - headerHeight - inputHeight - statusHeight - padding
	if vpHeight < 5 {
		vpHeight = 5
	}

	contentWidth := m.width - 4
	if contentWidth < 20 {
		contentWidth = 20
	}

	if !m.ready {
		m.viewport = viewport.New(contentWidth-2, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = contentWidth - 2
		m.viewport.Height = vpHeight
	}
	m.textarea.SetWidth(contentWidth - 4)
}

// updateViewport refreshes the viewport content for the current screen
func (m *Model) updateViewport() {
	if !m.ready {
		return
	}
	switch m.screen {
	case screenHistory:
		m.viewport.SetContent(m.renderHistory())
	default:
		m.viewport.SetContent(m.renderResult())
	}
}

// renderResult renders the last rewrite, or the welcome text before any
func (m Model) renderResult() string {
	if m.last == nil {
		return m.renderWelcome()
	}

	bubbleWidth := m.viewport.Width - 2
	rendered, err := render.Rewrite(m.last.Result.RewrittenText, m.last.Notices, m.renderOpts.WithWidth(bubbleWidth-4))
	if err != nil {
		rendered = render.RewriteMarkdown(m.last.Result.RewrittenText, m.last.Notices)
	}
	rendered = strings.TrimRight(rendered, "\n")

	label := rewriteLabelStyle.Render(fmt.Sprintf("✦ %s rewrite", m.last.Entry.Tone))
	meta := historyMetaStyle.Render(fmt.Sprintf("  %s", m.last.Entry.Model))
	if m.last.Result.Attempts > 1 {
		meta += historyMetaStyle.Render(fmt.Sprintf(" • %d attempts", m.last.Result.Attempts))
	}

	return label + meta + "\n" + rewriteBubbleStyle.Width(bubbleWidth).Render(rendered)
}

// renderWelcome renders the welcome screen when nothing was rewritten yet
func (m Model) renderWelcome() string {
	width := m.viewport.Width - 2
	height := m.viewport.Height

	lines := []string{
		welcomeIconStyle.Width(width).Render("✦"),
		"",
		welcomeTitleStyle.Width(width).Render("Message Coach"),
		"",
		welcomeStyle.Width(width).Render("Type a message below, pick a tone and press Ctrl+S."),
		"",
	}
	for i, p := range models.DemoPresets() {
		lines = append(lines, welcomeStyle.Width(width).Render(
			fmt.Sprintf("Alt+%d  %s (%s)", i+1, p.Name, p.Tone.Lower()),
		))
	}

	content := lipgloss.JoinVertical(lipgloss.Center, lines...)

	topPadding := (height - lipgloss.Height(content)) / 2
	if topPadding < 0 {
		topPadding = 0
	}

	return strings.Repeat("\n", topPadding) + content
}

// renderHistory renders the newest-first history list
func (m Model) renderHistory() string {
	entries := m.session.History().Entries()
	if len(entries) == 0 {
		return hintStyle.Render("No rewrites yet this session.")
	}

	width := m.viewport.Width - 2
	var sb strings.Builder
	titleWidth := width - 30
	if titleWidth < 10 {
		titleWidth = 10
	}
	for i, e := range entries {
		title := history.Title(e, titleWidth)
		meta := historyMetaStyle.Render(fmt.Sprintf("  %s • %s", e.Tone, history.FormatRelativeTime(e.CreatedAt)))

		if i == m.historyCursor {
			sb.WriteString(configCursorStyle.Render("▸ ") + historySelectedStyle.Render(title) + meta)
		} else {
			sb.WriteString(historyItemStyle.Render(title) + meta)
		}
		sb.WriteString("\n")

		if i == m.historyCursor && m.expanded {
			sb.WriteString(m.renderEntry(e, width))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// renderEntry renders an expanded history entry
func (m Model) renderEntry(e models.HistoryEntry, width int) string {
	rendered, err := render.Rewrite(e.Rewritten, nil, m.renderOpts.WithWidth(width-6))
	if err != nil {
		rendered = e.Rewritten
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		"",
		originalLabelStyle.Render("  Original"),
		originalBubbleStyle.MarginLeft(2).Width(width-4).Render(e.Original),
		"",
		rewriteLabelStyle.Render("  Rewritten")+historyMetaStyle.Render("  "+e.Model),
		rewriteBubbleStyle.MarginLeft(2).Width(width-4).Render(strings.TrimRight(rendered, "\n")),
	)
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	var sections []string
	contentWidth := m.width - 4
	if contentWidth < 20 {
		contentWidth = 20
	}

	sections = append(sections, m.renderHeader(contentWidth))

	resultPanel := resultAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(m.viewport.View())
	sections = append(sections, resultPanel)

	if m.screen == screenCompose {
		sections = append(sections, m.renderInput(contentWidth))
	}

	sections = append(sections, m.renderStatusBar(contentWidth))

	if m.err != nil {
		sections = append(sections, FormatError(m.err))
	} else if m.feedback != "" {
		sections = append(sections, noticeStyle.Render("  "+m.feedback))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderHeader renders title, model, privacy and the tone selector
func (m Model) renderHeader(width int) string {
	settings := m.session.Settings()

	privacy := toggleOffStyle.Render("off")
	if settings.Privacy {
		privacy = toggleOnStyle.Render("on")
	}

	title := lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render("✦ Message Coach"),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(settings.Model.Name),
		hintStyle.Render("  •  "),
		subtitleStyle.Render("privacy "),
		privacy,
	)
	if m.screen == screenHistory {
		title = lipgloss.JoinHorizontal(lipgloss.Center,
			title,
			hintStyle.Render("  •  "),
			subtitleStyle.Render(fmt.Sprintf("history (%d)", m.session.History().Len())),
		)
	}

	var chips []string
	for _, t := range models.AllTones() {
		if t == settings.Tone {
			chips = append(chips, toneChipActiveStyle.Render(string(t)))
		} else {
			chips = append(chips, toneChipStyle.Render(string(t)))
		}
	}
	tones := lipgloss.JoinHorizontal(lipgloss.Center, chips...)

	return headerStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, title, tones))
}

// renderInput renders the compose box or the loading animation
func (m Model) renderInput(width int) string {
	if m.loading {
		return inputPanelStyle.Width(width).Render(m.renderLoadingAnimation())
	}

	text := m.textarea.Value()
	count := utf8.RuneCountInString(text)
	counter := counterStyle.Render(fmt.Sprintf("%d chars", count))
	if session.IsLong(text) {
		counter = counterLongStyle.Render(fmt.Sprintf("%d chars", count))
	}

	label := lipgloss.JoinHorizontal(lipgloss.Center,
		inputLabelStyle.Render("Message"),
		counter,
	)

	parts := []string{label, m.textarea.View()}
	if session.IsLong(text) {
		parts = append(parts, warningStyle.Render(models.LongMessageAdvice))
	}

	return inputPanelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// renderLoadingAnimation renders a colorful animated loading indicator
func (m Model) renderLoadingAnimation() string {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	barChars := []string{"█", "█", "█", "█", "█", "█", "█", "█", "▓", "▒", "░"}

	frame := m.animationFrame

	spinIdx := frame % len(chars)
	spinColor := gradientColors[frame%len(gradientColors)]
	spin := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[spinIdx])

	barWidth := 20
	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		colorIdx := (i + frame) % len(gradientColors)
		charIdx := (i + frame/2) % len(barChars)

		style := lipgloss.NewStyle().Foreground(gradientColors[colorIdx])
		bar.WriteString(style.Render(barChars[charIdx]))
	}

	dots := ""
	numDots := (frame / 3) % 4
	for i := 0; i < numDots; i++ {
		dotColor := gradientColors[(frame+i)%len(gradientColors)]
		dots += lipgloss.NewStyle().Foreground(dotColor).Render("●")
	}
	for i := numDots; i < 3; i++ {
		dots += lipgloss.NewStyle().Foreground(colorTextMute).Render("○")
	}

	label := " Rewriting "
	if m.retry != nil {
		label = fmt.Sprintf(" Retrying (%d/%d) ", m.retry.Next, m.retry.Max)
	}
	text := lipgloss.NewStyle().Foreground(colorText).Render(label)

	return fmt.Sprintf("%s %s %s %s", spin, bar.String(), text, dots)
}

// renderStatusBar renders the bottom status bar with shortcuts
func (m Model) renderStatusBar(width int) string {
	if m.screen == screenHistory {
		return renderShortcuts(statusBarStyle, width, []shortcut{
			{"↑↓", "Move"},
			{"Enter", "Expand"},
			{"u", "Reuse"},
			{"y", "Copy"},
			{"x", "Export"},
			{"^L", "Clear"},
			{"Esc", "Back"},
		})
	}
	if m.loading {
		return renderShortcuts(statusBarStyle, width, []shortcut{
			{"Esc", "Cancel"},
		})
	}
	return renderShortcuts(statusBarStyle, width, []shortcut{
		{"^S", "Rewrite"},
		{"Tab", "Tone"},
		{"^O", "Model"},
		{"^P", "Privacy"},
		{"Alt+1-3", "Preset"},
		{"^Y", "Copy"},
		{"^R", "History"},
		{"Esc", "Quit"},
	})
}

// RunCoach starts the coach TUI
func RunCoach(sess *session.Session, opts ...CoachOption) error {
	m := NewCoachModel(sess, opts...)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}
