package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/diogo/msgcoach/internal/config"
	apierrors "github.com/diogo/msgcoach/internal/errors"
	"github.com/diogo/msgcoach/internal/render"
	"github.com/diogo/msgcoach/internal/rewrite"
	"github.com/diogo/msgcoach/internal/session"
)

// cliTheme colors one-shot output; it matches the TUI's default palette.
var cliTheme = render.TokyoNightTheme

// gradientColors cycle through the spinner glyph and dots
var gradientColors = []lipgloss.Color{
	render.RoseTheme.Primary,
	render.RoseTheme.Warning,
	"#ebbcba",
	render.RoseTheme.Secondary,
	"#31748f",
	render.RoseTheme.Accent,
}

var (
	rewriteLabelStyle  = lipgloss.NewStyle().Foreground(cliTheme.Accent).Bold(true)
	rewriteBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(cliTheme.Accent).
				Foreground(cliTheme.Text).
				Padding(0, 1).
				Margin(1, 0)

	metaStyle    = lipgloss.NewStyle().Foreground(cliTheme.TextDim)
	warnStyle    = lipgloss.NewStyle().Foreground(cliTheme.Warning)
	successStyle = lipgloss.NewStyle().Foreground(cliTheme.Secondary)
	failStyle    = lipgloss.NewStyle().Foreground(cliTheme.Error)
)

// writeClipboard is swapped in tests
var writeClipboard = clipboard.WriteAll

// runRewrite rewrites a single message and prints the result.
// With --raw only the model output is written to stdout, undecorated.
func runRewrite(ctx context.Context, text string, stdout, stderr io.Writer) error {
	cfg := loadConfig()

	settings, err := resolveSettings(cfg)
	if err != nil {
		return err
	}
	text, settings, err = applyPreset(text, settings)
	if err != nil {
		return err
	}

	if strings.TrimSpace(text) == "" {
		return apierrors.NewEmptyInputError()
	}

	apiKey := config.LoadAPIKey()
	if apiKey == "" && !mockFlag {
		return fmt.Errorf("%w: export it or add it to .env (or use --mock to try offline)", apierrors.ErrNoAPIKey)
	}

	verbose := verboseFlag || cfg.Verbose
	log := interactiveLogger(verbose)

	var spin *spinner
	onRetry := func(next, max int, err error) {
		if spin != nil {
			spin.warn(
				fmt.Sprintf("⚠ Attempt %d failed: %v", next-1, err),
				fmt.Sprintf("Retry %d/%d", next, max),
			)
		}
	}

	inv := newInvoker(apiKey, log, rewrite.OnRetry(onRetry))
	sess := session.New(inv, session.WithSettings(settings), session.WithLogger(log))

	if verbose && !rawFlag {
		fmt.Fprintln(stderr, metaStyle.Render(fmt.Sprintf("[verbose] Model: %s • Tone: %s • Privacy: %v",
			settings.Model.Name, settings.Tone, settings.Privacy)))
	}

	if !rawFlag {
		spin = newSpinner(stderr, fmt.Sprintf("Rewriting in a %s tone", settings.Tone.Lower()))
		spin.start()
	}

	start := time.Now()
	resp, err := sess.Submit(ctx, text)
	elapsed := time.Since(start)
	if err != nil {
		if !rawFlag {
			spin.stopWithError()
			fmt.Fprintln(stderr, formatErrorMessage(err, "Rewrite failed"))
			return fmt.Errorf("%w: %w", errReported, err)
		}
		return fmt.Errorf("rewrite failed: %w", err)
	}

	if !rawFlag {
		spin.stopWithSuccess(fmt.Sprintf("Done (%s, %d attempt(s), %s)",
			resp.Entry.Model, resp.Result.Attempts, elapsed.Round(time.Millisecond)))
	}

	raw := resp.Result.RewrittenText
	if rawFlag {
		return writeRaw(stdout, raw)
	}

	fmt.Fprintln(stderr)
	if copyFlag || cfg.CopyToClipboard {
		if err := writeClipboard(copyText(resp)); err != nil {
			fmt.Fprintln(stderr, warnStyle.Render(fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err)))
		} else {
			fmt.Fprintln(stderr, successStyle.Render("✓ Copied rewrite to clipboard"))
		}
	}

	if outputFlag != "" {
		if err := writeOutputFile(render.RewriteMarkdown(raw, resp.Notices)); err != nil {
			return err
		}
		fmt.Fprintln(stderr, successStyle.Render(fmt.Sprintf("✓ Rewrite saved to %s", outputFlag)))
		return nil
	}

	printRewrite(stdout, resp, render.OptionsFromConfig(cfg.Markdown))
	return nil
}

// writeRaw sends the model output untouched to -o or stdout
func writeRaw(stdout io.Writer, raw string) error {
	if outputFlag != "" {
		return writeOutputFile(raw)
	}
	_, err := fmt.Fprint(stdout, raw)
	return err
}

func writeOutputFile(content string) error {
	if err := os.WriteFile(outputFlag, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// printRewrite draws the labeled bubble sized to the terminal, falling back
// to plain markdown when glamour cannot render
func printRewrite(stdout io.Writer, resp *session.Response, opts render.Options) {
	bubbleWidth := min(max(getTerminalWidth()-4, 40), 120)
	raw := resp.Result.RewrittenText

	rendered, err := render.Rewrite(raw, resp.Notices, opts.WithWidth(bubbleWidth-4))
	if err != nil {
		rendered = render.RewriteMarkdown(raw, resp.Notices)
	}

	fmt.Fprintln(stdout, rewriteLabelStyle.Render("✦ "+string(resp.Entry.Tone)+" rewrite"))
	fmt.Fprintln(stdout, rewriteBubbleStyle.Width(bubbleWidth).Render(strings.TrimRight(rendered, "\n")))
}

// copyText is what gets copied: the rewritten message alone when the
// output follows the template, otherwise the whole output
func copyText(resp *session.Response) string {
	if resp.Sections != nil && resp.Sections.RewrittenMessage != "" {
		return resp.Sections.RewrittenMessage
	}
	return strings.TrimSpace(resp.Result.RewrittenText)
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80 // default width
	}
	return width
}

// formatErrorMessage renders err under a heading with its HTTP status and
// remediation hint; empty input becomes a warning instead
func formatErrorMessage(err error, heading string) string {
	switch {
	case err == nil:
		return ""
	case apierrors.IsEmptyInput(err):
		return warnStyle.Render("⚠ " + apierrors.Hint(err))
	}

	lines := []string{failStyle.Render(fmt.Sprintf("✗ %s: %v", heading, err))}
	if status := apierrors.GetHTTPStatus(err); status > 0 {
		lines = append(lines, metaStyle.Render(fmt.Sprintf("  HTTP Status: %d", status)))
	}
	if hint := apierrors.Hint(err); hint != "" {
		lines = append(lines, metaStyle.Render("  Hint: "+hint))
	}
	return strings.Join(lines, "\n")
}
