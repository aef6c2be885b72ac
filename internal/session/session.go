// Package session holds the state of one user's rewrite session.
package session

import (
	"context"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	apierrors "github.com/diogo/msgcoach/internal/errors"
	"github.com/diogo/msgcoach/internal/history"
	"github.com/diogo/msgcoach/internal/models"
	"github.com/diogo/msgcoach/internal/rewrite"
)

// Notices shown next to a rewrite result
const (
	NoticeMasked = "Privacy mode masked sensitive information before sending."
)

// Settings are the user-selectable knobs of a session
type Settings struct {
	Tone         models.Tone
	Model        models.Model
	Privacy      bool
	SystemPrompt string
}

// DefaultSettings returns the settings of a fresh session
func DefaultSettings() Settings {
	return Settings{
		Tone:         models.DefaultTone,
		Model:        models.DefaultModel,
		Privacy:      true,
		SystemPrompt: models.DefaultSystemPrompt,
	}
}

// Response is a successful rewrite together with its user-facing notices
type Response struct {
	Result   *models.RewriteResult
	Entry    models.HistoryEntry
	Sections *models.Sections // nil when the output does not follow the template
	Notices  []string
}

// Session owns the settings and history of one user.
// One rewrite runs at a time; concurrent Submit calls are serialized.
type Session struct {
	mu       sync.Mutex
	submitMu sync.Mutex
	settings Settings
	invoker  *rewrite.Invoker
	history  *history.List
	logger   *zap.Logger
}

// Option configures a Session
type Option func(*Session)

// WithSettings overrides the initial settings
func WithSettings(s Settings) Option {
	return func(sess *Session) {
		sess.settings = s
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(sess *Session) {
		if l != nil {
			sess.logger = l
		}
	}
}

// New creates a session that rewrites through invoker
func New(invoker *rewrite.Invoker, opts ...Option) *Session {
	s := &Session{
		settings: DefaultSettings(),
		invoker:  invoker,
		history:  history.NewList(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.settings = normalize(s.settings)
	return s
}

// normalize replaces blank or unknown fields with the defaults
func normalize(st Settings) Settings {
	if strings.TrimSpace(st.SystemPrompt) == "" {
		st.SystemPrompt = models.DefaultSystemPrompt
	}
	if tone, err := models.ParseTone(string(st.Tone)); err == nil {
		st.Tone = tone
	} else {
		st.Tone = models.DefaultTone
	}
	if st.Model.Name == "" {
		st.Model = models.DefaultModel
	}
	return st
}

// Settings returns a snapshot of the current settings
func (s *Session) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// SetTone selects the tone for subsequent rewrites
func (s *Session) SetTone(t models.Tone) error {
	tone, err := models.ParseTone(string(t))
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.settings.Tone = tone
	s.mu.Unlock()
	return nil
}

// SetModel selects the model for subsequent rewrites
func (s *Session) SetModel(name string) error {
	m, err := models.ModelFromName(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.settings.Model = m
	s.mu.Unlock()
	return nil
}

// SetPrivacy toggles PII masking
func (s *Session) SetPrivacy(enabled bool) {
	s.mu.Lock()
	s.settings.Privacy = enabled
	s.mu.Unlock()
}

// SetSystemPrompt replaces the coach instructions; empty restores the default
func (s *Session) SetSystemPrompt(prompt string) {
	if strings.TrimSpace(prompt) == "" {
		prompt = models.DefaultSystemPrompt
	}
	s.mu.Lock()
	s.settings.SystemPrompt = prompt
	s.mu.Unlock()
}

// ApplyPreset selects the preset's tone and returns its text
func (s *Session) ApplyPreset(key string) (models.Preset, error) {
	p, err := models.FindPreset(key)
	if err != nil {
		return models.Preset{}, err
	}
	s.mu.Lock()
	s.settings.Tone = p.Tone
	s.mu.Unlock()
	return p, nil
}

// History returns the session history list
func (s *Session) History() *history.List {
	return s.history
}

// ClearHistory removes all entries
func (s *Session) ClearHistory() {
	s.history.Clear()
}

// Submit rewrites text with the current settings.
// Blank text returns an EmptyInputError without any network call.
// On success exactly one history entry is prepended; on failure none.
func (s *Session) Submit(ctx context.Context, text string) (*Response, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apierrors.NewEmptyInputError()
	}

	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	return s.submit(ctx, text, s.Settings())
}

// SubmitWith makes settings current and rewrites text with them as one step,
// so a concurrent caller cannot swap settings in between.
// Blank fields of settings fall back to the defaults.
func (s *Session) SubmitWith(ctx context.Context, text string, settings Settings) (*Response, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apierrors.NewEmptyInputError()
	}

	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	settings = normalize(settings)
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()

	return s.submit(ctx, text, settings)
}

func (s *Session) submit(ctx context.Context, text string, settings Settings) (*Response, error) {
	req := models.RewriteRequest{
		OriginalText:       text,
		Tone:               settings.Tone,
		SystemInstructions: settings.SystemPrompt,
		ModelID:            settings.Model.Name,
		PrivacyEnabled:     settings.Privacy,
	}

	result, err := s.invoker.Rewrite(ctx, req)
	if err != nil {
		s.logger.Warn("rewrite failed",
			zap.String("model", req.ModelID),
			zap.String("tone", string(req.Tone)),
			zap.Error(err))
		return nil, err
	}

	entry := s.history.Prepend(models.NewHistoryEntry(result))

	resp := &Response{
		Result:  result,
		Entry:   entry,
		Notices: Notices(text, result.Masked),
	}
	if sections, err := result.Sections(); err == nil {
		resp.Sections = &sections
	} else {
		s.logger.Debug("response did not follow the section template", zap.Error(err))
	}

	s.logger.Info("rewrite complete",
		zap.String("id", entry.ID),
		zap.String("model", req.ModelID),
		zap.Int("attempts", result.Attempts),
		zap.Bool("masked", result.Masked))
	return resp, nil
}

// Notices returns the advisories for a submitted text
func Notices(text string, masked bool) []string {
	var notices []string
	if masked {
		notices = append(notices, NoticeMasked)
	}
	if IsLong(text) {
		notices = append(notices, models.LongMessageAdvice)
	}
	return notices
}

// IsLong reports whether text exceeds the long-message threshold
func IsLong(text string) bool {
	return utf8.RuneCountInString(text) > models.LongMessageThreshold
}
