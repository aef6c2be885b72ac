package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/diogo/msgcoach/internal/config"
	"github.com/diogo/msgcoach/internal/render"
	"github.com/diogo/msgcoach/internal/rewrite"
	"github.com/diogo/msgcoach/internal/session"
	"github.com/diogo/msgcoach/internal/tui"
)

var exportDirFlag string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive message coach",
	Long: `Start an interactive session: type a message, pick a tone, and press
Ctrl+S to rewrite it. Rewrites are kept in a session history (Ctrl+R) that is
discarded on exit unless you export it.

With --verbose, logs are written to ~/.msgcoach/chat.log.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd)
	},
}

func init() {
	chatCmd.Flags().StringVar(&exportDirFlag, "export-dir", ".", "Directory for history exports")
	chatCmd.Flags().BoolVar(&copyFlag, "copy", false, "Copy every rewrite to the clipboard")
}

func runChat(cmd *cobra.Command) error {
	cfg := loadConfig()
	render.SetTUITheme(cfg.TUITheme)
	tui.UpdateTheme()

	settings, err := resolveSettings(cfg)
	if err != nil {
		return err
	}

	log, closeLog := chatLogger(verboseFlag || cfg.Verbose)
	defer closeLog()

	apiKey := config.LoadAPIKey()
	if apiKey == "" && !mockFlag {
		fmt.Fprintln(cmd.ErrOrStderr(), warnStyle.Render(
			"⚠ GEMINI_API_KEY is not set; rewrites will fail. Use --mock to try the coach offline."))
	}

	notifier := tui.NewRetryNotifier()
	inv := newInvoker(apiKey, log, rewrite.OnRetry(notifier.OnRetry))
	sess := session.New(inv, session.WithSettings(settings), session.WithLogger(log))

	opts := []tui.CoachOption{
		tui.WithRetryNotifier(notifier),
		tui.WithRenderOptions(render.OptionsFromConfig(cfg.Markdown)),
		tui.WithAutoCopy(copyFlag || cfg.CopyToClipboard),
		tui.WithExportDir(exportDirFlag),
	}

	if presetFlag != "" {
		p, err := sess.ApplyPreset(presetFlag)
		if err != nil {
			return err
		}
		if toneFlag != "" {
			// explicit --tone wins over the preset's tone
			_ = sess.SetTone(settings.Tone)
		}
		opts = append(opts, tui.WithInitialText(p.Text))
	}

	return deps.TUI.RunCoach(sess, opts...)
}

// chatLogger writes to a file under the config dir when verbose, since the
// TUI owns the terminal. Otherwise it is a nop.
func chatLogger(verbose bool) (*zap.Logger, func()) {
	nop := func() {}
	if !verbose {
		return zap.NewNop(), nop
	}
	dir, err := config.EnsureConfigDir()
	if err != nil {
		return zap.NewNop(), nop
	}
	l, err := newLogger(true, filepath.Join(dir, "chat.log"))
	if err != nil {
		return zap.NewNop(), nop
	}
	return l, func() { _ = l.Sync() }
}
