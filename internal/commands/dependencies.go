package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/diogo/msgcoach/internal/api"
	"github.com/diogo/msgcoach/internal/rewrite"
	"github.com/diogo/msgcoach/internal/server"
	"github.com/diogo/msgcoach/internal/session"
	"github.com/diogo/msgcoach/internal/tui"
)

// TUIInterface defines the methods required from the TUI package.
type TUIInterface interface {
	RunCoach(sess *session.Session, opts ...tui.CoachOption) error
	RunConfig() error
}

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// TUI is the terminal user interface.
	TUI TUIInterface

	// NewGenerator builds the generation backend for an API key.
	NewGenerator func(apiKey string, mock bool, opts ...api.ClientOption) api.Generator

	// Serve runs the web UI until ctx is done.
	Serve func(ctx context.Context, srv *server.Server) error

	// Sleep replaces the retry backoff wait when set.
	Sleep rewrite.SleepFunc
}

// DefaultTUI is the production implementation of TUIInterface.
type DefaultTUI struct{}

func (d *DefaultTUI) RunCoach(sess *session.Session, opts ...tui.CoachOption) error {
	return tui.RunCoach(sess, opts...)
}

func (d *DefaultTUI) RunConfig() error {
	return tui.RunConfig()
}

func defaultGenerator(apiKey string, mock bool, opts ...api.ClientOption) api.Generator {
	if mock {
		return api.NewMockClient()
	}
	return api.NewClient(apiKey, opts...)
}

func defaultServe(ctx context.Context, srv *server.Server) error {
	return srv.Run(ctx)
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		TUI:          &DefaultTUI{},
		NewGenerator: defaultGenerator,
		Serve:        defaultServe,
	}
}

// newInvoker builds the retrying invoker over the configured generator
func newInvoker(apiKey string, log *zap.Logger, opts ...rewrite.Option) *rewrite.Invoker {
	opts = append([]rewrite.Option{
		rewrite.WithLogger(log),
		rewrite.OnTransition(func(from, to rewrite.State, n int) {
			log.Debug("rewrite state",
				zap.Stringer("from", from),
				zap.Stringer("to", to),
				zap.Int("attempt", n))
		}),
	}, opts...)
	if deps.Sleep != nil {
		opts = append(opts, rewrite.WithSleep(deps.Sleep))
	}
	return rewrite.NewInvoker(deps.NewGenerator(apiKey, mockFlag, clientOptions(log)...), opts...)
}

// deps is shared by all commands; tests replace its fields.
var deps = NewDependencies()
