package rewrite

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/diogo/msgcoach/internal/api"
	apierrors "github.com/diogo/msgcoach/internal/errors"
	"github.com/diogo/msgcoach/internal/metrics"
	"github.com/diogo/msgcoach/internal/models"
	"github.com/diogo/msgcoach/internal/sanitize"
)

// State is a step of the retry state machine
type State int

const (
	StateIdle State = iota
	StateAttempting
	StateSuccess
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAttempting:
		return "attempting"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Attempt is the result of one generation call: either Text or Err is set
type Attempt struct {
	N    int
	Text string
	Err  error
}

// OK reports whether the attempt succeeded
func (a Attempt) OK() bool {
	return a.Err == nil
}

// Outcome is the terminal state of an Invoke call
type Outcome struct {
	State    State
	Text     string
	Err      error
	Attempts []Attempt
	Elapsed  time.Duration
}

// Policy bounds the retry loop. AttemptTimeout, when set, caps each
// generation call so a stalled connection fails that attempt only.
type Policy struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	AttemptTimeout time.Duration
}

// DefaultPolicy makes three attempts of at most 60s each, waiting 0.8s then
// 1.6s between them
var DefaultPolicy = Policy{
	MaxAttempts:    3,
	BaseDelay:      400 * time.Millisecond,
	AttemptTimeout: 60 * time.Second,
}

// Delay returns the wait after attempt k fails: BaseDelay * 2^k
func (p Policy) Delay(k int) time.Duration {
	return p.BaseDelay * time.Duration(1<<k)
}

// Budget is the longest a full chain can take when every attempt times out.
// Callers bounding a rewrite with a deadline need at least this much for all
// attempts to run.
func (p Policy) Budget() time.Duration {
	d := time.Duration(p.MaxAttempts) * p.AttemptTimeout
	for k := 1; k < p.MaxAttempts; k++ {
		d += p.Delay(k)
	}
	return d
}

// SleepFunc blocks for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// RetryFunc is called before waiting to start attempt next of max
type RetryFunc func(next, max int, err error)

// TransitionFunc is called on every state change; n is the attempt number
type TransitionFunc func(from, to State, n int)

// Invoker runs rewrite prompts against a generator with bounded retries.
// All error kinds are retried alike.
type Invoker struct {
	gen          api.Generator
	policy       Policy
	sleep        SleepFunc
	onRetry      RetryFunc
	onTransition TransitionFunc
	logger       *zap.Logger
}

// Option configures an Invoker
type Option func(*Invoker)

// WithSleep replaces the backoff sleep
func WithSleep(fn SleepFunc) Option {
	return func(i *Invoker) {
		if fn != nil {
			i.sleep = fn
		}
	}
}

// WithPolicy replaces the retry policy
func WithPolicy(p Policy) Option {
	return func(i *Invoker) {
		if p.MaxAttempts > 0 {
			i.policy = p
		}
	}
}

// OnRetry registers the retry notification hook
func OnRetry(fn RetryFunc) Option {
	return func(i *Invoker) {
		i.onRetry = fn
	}
}

// OnTransition registers the state change hook
func OnTransition(fn TransitionFunc) Option {
	return func(i *Invoker) {
		i.onTransition = fn
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(i *Invoker) {
		if l != nil {
			i.logger = l
		}
	}
}

// NewInvoker creates an Invoker over gen
func NewInvoker(gen api.Generator, opts ...Option) *Invoker {
	i := &Invoker{
		gen:    gen,
		policy: DefaultPolicy,
		sleep:  contextSleep,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func contextSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Invoke sends prompt to modelID, retrying failed attempts per the policy.
// The returned Outcome is always terminal: StateSuccess or StateFailed.
func (i *Invoker) Invoke(ctx context.Context, modelID, prompt string) Outcome {
	start := time.Now()
	out := Outcome{State: StateIdle}

	for n := 1; n <= i.policy.MaxAttempts; n++ {
		i.transition(&out, StateAttempting, n)

		attempt := i.attempt(ctx, n, modelID, prompt)
		out.Attempts = append(out.Attempts, attempt)

		if attempt.OK() {
			out.Text = attempt.Text
			i.transition(&out, StateSuccess, n)
			break
		}

		out.Err = attempt.Err
		i.logger.Warn("generate attempt failed",
			zap.String("model", modelID),
			zap.Int("attempt", n),
			zap.Int("max_attempts", i.policy.MaxAttempts),
			zap.String("kind", apierrors.Kind(attempt.Err)),
			zap.Error(attempt.Err))

		if n == i.policy.MaxAttempts {
			i.transition(&out, StateFailed, n)
			break
		}

		if i.onRetry != nil {
			i.onRetry(n+1, i.policy.MaxAttempts, attempt.Err)
		}
		if err := i.sleep(ctx, i.policy.Delay(n)); err != nil {
			out.Err = err
			i.transition(&out, StateFailed, n)
			break
		}
	}

	out.Elapsed = time.Since(start)
	metrics.RewritesTotal.WithLabelValues(modelID, out.State.String()).Inc()
	metrics.RewriteDuration.WithLabelValues(modelID).Observe(out.Elapsed.Seconds())
	return out
}

func (i *Invoker) attempt(ctx context.Context, n int, modelID, prompt string) Attempt {
	if i.policy.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.policy.AttemptTimeout)
		defer cancel()
	}
	text, err := i.gen.Generate(ctx, modelID, prompt)
	if err == nil && strings.TrimSpace(text) == "" {
		err = apierrors.ErrNoContent
	}

	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.AttemptsTotal.WithLabelValues(modelID, result).Inc()

	if err != nil {
		metrics.AttemptFailuresTotal.WithLabelValues(modelID, apierrors.Kind(err)).Inc()
		return Attempt{N: n, Err: err}
	}
	return Attempt{N: n, Text: text}
}

func (i *Invoker) transition(out *Outcome, to State, n int) {
	from := out.State
	out.State = to
	if i.onTransition != nil {
		i.onTransition(from, to, n)
	}
}

// Rewrite sanitizes the request text, builds the prompt, and invokes the model.
// A RewriteResult is returned only on success.
func (i *Invoker) Rewrite(ctx context.Context, req models.RewriteRequest) (*models.RewriteResult, error) {
	if strings.TrimSpace(req.OriginalText) == "" {
		return nil, apierrors.NewEmptyInputError()
	}

	sanitized := sanitize.Sanitize(req.OriginalText, req.PrivacyEnabled)
	masked := sanitize.Masked(req.OriginalText, sanitized)

	metrics.InputChars.Observe(float64(utf8.RuneCountInString(req.OriginalText)))
	if masked {
		metrics.MaskedTotal.Inc()
	}

	prompt := BuildPrompt(req.SystemInstructions, req.Tone, sanitized)

	i.logger.Debug("rewrite requested",
		zap.String("model", req.ModelID),
		zap.String("tone", string(req.Tone)),
		zap.Bool("privacy", req.PrivacyEnabled),
		zap.Bool("masked", masked),
		zap.Int("chars", utf8.RuneCountInString(req.OriginalText)))

	out := i.Invoke(ctx, req.ModelID, prompt)
	if out.State != StateSuccess {
		return nil, out.Err
	}

	return &models.RewriteResult{
		RewrittenText: out.Text,
		Request:       req,
		SanitizedText: sanitized,
		Masked:        masked,
		Attempts:      len(out.Attempts),
	}, nil
}
