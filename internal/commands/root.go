// Package commands provides CLI commands for msgcoach.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/diogo/msgcoach/internal/api"
	"github.com/diogo/msgcoach/internal/config"
	"github.com/diogo/msgcoach/internal/models"
	"github.com/diogo/msgcoach/internal/rewrite"
	"github.com/diogo/msgcoach/internal/session"
)

var (
	// Global flags
	modelFlag   string
	toneFlag    string
	personaFlag string
	systemFlag  string
	presetFlag  string
	noPrivacy   bool
	mockFlag    bool
	verboseFlag bool

	// Rewrite flags
	outputFlag string
	fileFlag   string
	rawFlag    bool
	copyFlag   bool

	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// errReported marks errors that were already shown to the user
var errReported = errors.New("error already reported")

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "msgcoach [message]",
	Short: "Rewrite personal messages in a chosen tone with Gemini",
	Long: `msgcoach rewrites short personal messages (dating and social chat) into
a chosen tone using Google Gemini. Emails, phone numbers and @handles are masked
before anything leaves your machine unless privacy mode is turned off.

The API key is read from GEMINI_API_KEY (a .env file in the working directory
is loaded first).

Examples:
  msgcoach chat                              Start the interactive coach
  msgcoach serve                             Open the web UI
  msgcoach "wanna hang out sometime lol"     Rewrite a single message
  msgcoach -t Witty -f draft.txt             Read the message from a file
  pbpaste | msgcoach --raw                   Read from stdin, print plain text
  msgcoach --preset "First Date"             Rewrite a demo preset
  msgcoach "hey" --mock                      Try it without an API key`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, _ := config.LoadConfig()
		l, err := newLogger(verboseFlag || cfg.Verbose)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Check for version flag
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Fprintf(cmd.OutOrStdout(), "msgcoach %s (built %s)\n", Version, BuildTime)
			return nil
		}

		text, err := readInput(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}

		// No input - show help
		if text == "" && presetFlag == "" {
			return cmd.Help()
		}

		return runRewrite(cmd.Context(), text, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Error"))
		}
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "", "Model to use ("+strings.Join(models.ModelNames(), ", ")+")")
	rootCmd.PersistentFlags().StringVarP(&toneFlag, "tone", "t", "", "Target tone ("+strings.Join(models.ToneNames(), ", ")+")")
	rootCmd.PersistentFlags().StringVarP(&personaFlag, "persona", "p", "", "Coach persona to use as system prompt")
	rootCmd.PersistentFlags().StringVar(&systemFlag, "system", "", "Custom system prompt (overrides persona)")
	rootCmd.PersistentFlags().StringVar(&presetFlag, "preset", "", "Start from a demo preset (name or number)")
	rootCmd.PersistentFlags().BoolVar(&noPrivacy, "no-privacy", false, "Send the message without masking emails, phones and handles")
	rootCmd.PersistentFlags().BoolVar(&mockFlag, "mock", false, "Use an offline mock instead of the Gemini API")
	rootCmd.PersistentFlags().BoolVar(&verboseFlag, "verbose", false, "Enable debug logging")

	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Save the rewrite to file")
	rootCmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read the message from file")
	rootCmd.Flags().BoolVar(&rawFlag, "raw", false, "Print only the raw model output")
	rootCmd.Flags().BoolVar(&copyFlag, "copy", false, "Copy the rewritten message to the clipboard")
	rootCmd.Flags().BoolP("version", "v", false, "Show version and exit")

	// Add subcommands
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(personaCmd)
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(sanitizeCmd)
}

// stdinIsPipe reports whether stdin carries piped input
var stdinIsPipe = func() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readInput takes the message from --file, the positional argument, or stdin
func readInput(stdin io.Reader, args []string) (string, error) {
	if fileFlag != "" {
		data, err := os.ReadFile(fileFlag)
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), nil
	}

	if len(args) > 0 {
		return args[0], nil
	}

	if stdinIsPipe() {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	return "", nil
}

// loadConfig returns the user configuration, or defaults when it cannot be read
func loadConfig() config.Config {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Warn("using default configuration", zap.Error(err))
		return config.DefaultConfig()
	}
	return cfg
}

// resolveSettings builds the session settings from config, persona, and flags.
// Flags win over the persona's preferences, which win over config.
func resolveSettings(cfg config.Config) (session.Settings, error) {
	st := session.DefaultSettings()

	if m, err := models.ModelFromName(cfg.DefaultModel); err == nil {
		st.Model = m
	}
	if t, err := models.ParseTone(cfg.DefaultTone); err == nil {
		st.Tone = t
	}
	st.Privacy = cfg.PrivacyMode

	if personaFlag != "" {
		p, err := config.GetPersona(personaFlag)
		if err != nil {
			return st, fmt.Errorf("failed to load persona '%s': %w", personaFlag, err)
		}
		if m, err := models.ModelFromName(p.Model); err == nil {
			st.Model = m
		}
		if t, err := models.ParseTone(p.Tone); err == nil {
			st.Tone = t
		}
	}

	if modelFlag != "" {
		m, err := models.ModelFromName(modelFlag)
		if err != nil {
			return st, err
		}
		st.Model = m
	}
	if toneFlag != "" {
		t, err := models.ParseTone(toneFlag)
		if err != nil {
			return st, err
		}
		st.Tone = t
	}
	if noPrivacy {
		st.Privacy = false
	}

	prompt, err := config.ResolveSystemPrompt(cfg, systemFlag, personaFlag)
	if err != nil {
		return st, err
	}
	st.SystemPrompt = prompt

	return st, nil
}

// clientOptions returns the Gemini client options: the logger and HTTP client,
// plus the sampling temperature preferred by --persona when it sets one
func clientOptions(log *zap.Logger) []api.ClientOption {
	opts := []api.ClientOption{
		api.WithLogger(log),
		api.WithHTTPClient(&http.Client{Timeout: rewrite.DefaultPolicy.AttemptTimeout}),
	}
	if personaFlag == "" {
		return opts
	}
	if p, err := config.GetPersona(personaFlag); err == nil && p.Temperature > 0 {
		opts = append(opts, api.WithTemperature(float32(p.Temperature)))
	}
	return opts
}

// applyPreset fills text and tone from --preset. An explicit --tone wins
// over the preset's tone, and explicit text wins over the preset's text.
func applyPreset(text string, st session.Settings) (string, session.Settings, error) {
	if presetFlag == "" {
		return text, st, nil
	}
	p, err := models.FindPreset(presetFlag)
	if err != nil {
		return text, st, err
	}
	if strings.TrimSpace(text) == "" {
		text = p.Text
	}
	if toneFlag == "" {
		st.Tone = p.Tone
	}
	return text, st, nil
}
