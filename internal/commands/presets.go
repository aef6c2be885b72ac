package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/diogo/msgcoach/internal/models"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the demo presets",
	Long: `List the demo messages that can pre-fill a rewrite.

Use one with --preset <name|number>, for example:
  msgcoach --preset 2
  msgcoach chat --preset "Follow Up"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "#\tNAME\tTONE\tMESSAGE")
		for i, p := range models.DemoPresets() {
			_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, p.Name, p.Tone, truncate(p.Text, 50))
		}
		return w.Flush()
	},
}

// truncate shortens s to max runes, adding an ellipsis
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
