package commands

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/diogo/msgcoach/internal/api"
	"github.com/diogo/msgcoach/internal/config"
	"github.com/diogo/msgcoach/internal/session"
	"github.com/diogo/msgcoach/internal/tui"
)

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

// fakeTUI records what the commands hand to the TUI
type fakeTUI struct {
	sess       *session.Session
	opts       []tui.CoachOption
	configRuns int
	err        error
}

func (f *fakeTUI) RunCoach(sess *session.Session, opts ...tui.CoachOption) error {
	f.sess = sess
	f.opts = opts
	return f.err
}

func (f *fakeTUI) RunConfig() error {
	f.configRuns++
	return f.err
}

// isolate points HOME at a temp dir, clears the API key, and restores the
// shared dependencies after the test
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(config.APIKeyEnv, "")
	t.Setenv("GLAMOUR_STYLE", "notty")

	saved := *deps
	savedPipe := stdinIsPipe
	savedClip := writeClipboard
	t.Cleanup(func() {
		*deps = saved
		stdinIsPipe = savedPipe
		writeClipboard = savedClip
	})

	deps.Sleep = noSleep
	stdinIsPipe = func() bool { return false }
	return home
}

// useGenerator makes every command use gen
func useGenerator(gen *api.MockClient) {
	deps.NewGenerator = func(string, bool, ...api.ClientOption) api.Generator { return gen }
}

func resetFlags() {
	modelFlag, toneFlag, personaFlag, systemFlag, presetFlag = "", "", "", "", ""
	noPrivacy, mockFlag, verboseFlag = false, false, false
	outputFlag, fileFlag = "", ""
	rawFlag, copyFlag, reportFlag = false, false, false
	addrFlag, exportDirFlag = "", "."
	personaDescFlag, personaPromptFlag, personaToneFlag, personaModelFlag = "", "", "", ""
	personaTempFlag, personaForceFlag = 0, false
	_ = rootCmd.Flags().Set("version", "false")
}

// execute runs the CLI with args and returns what it wrote
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	return executeWithInput(t, "", args...)
}

func executeWithInput(t *testing.T, input string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	resetFlags()

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	})

	err = rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}
