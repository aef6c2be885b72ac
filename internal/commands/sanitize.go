package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diogo/msgcoach/internal/sanitize"
)

var reportFlag bool

var sanitizeCmd = &cobra.Command{
	Use:   "sanitize [text]",
	Short: "Show what privacy mode would send",
	Long: `Print the text with emails, phone numbers and @handles masked, exactly as
privacy mode sends it. Nothing leaves your machine.

Reads the text from the argument, --file, or stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}
		if strings.TrimSpace(text) == "" {
			return cmd.Help()
		}

		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(sanitize.Sanitize(text, true), "\n"))

		if reportFlag {
			counts := sanitize.Report(text)
			for _, r := range sanitize.Rules() {
				fmt.Fprintln(cmd.ErrOrStderr(), metaStyle.Render(fmt.Sprintf("%-7s %d", r.Name, counts[r.Name])))
			}
		}
		return nil
	},
}

func init() {
	sanitizeCmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read the text from file")
	sanitizeCmd.Flags().BoolVar(&reportFlag, "report", false, "Print how many matches each rule masked")
}
