package commands

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/diogo/msgcoach/internal/config"
	"github.com/diogo/msgcoach/internal/models"
)

var (
	personaDescFlag   string
	personaPromptFlag string
	personaToneFlag   string
	personaModelFlag  string
	personaTempFlag   float64
	personaForceFlag  bool
)

var personaCmd = &cobra.Command{
	Use:   "persona",
	Short: "Manage coach personas",
	Long: `View and manage personas: named system prompts that shape how the coach
rewrites. A persona may also prefer a tone and a model, used unless --tone or
--model are given.`,
}

var personaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available personas",
	Args:  cobra.NoArgs,
	RunE:  runPersonaList,
}

var personaShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show persona details",
	Args:  cobra.ExactArgs(1),
	RunE:  runPersonaShow,

	ValidArgsFunction: completePersonaNames,
}

var personaAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a new persona",
	Long: `Add a new persona. Without --system the description and prompt are read
interactively; the prompt ends with an empty line. With --force an existing
persona of the same name is replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: runPersonaAdd,
}

var personaDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a persona",
	Args:  cobra.ExactArgs(1),
	RunE:  personaAction(config.DeletePersona, "Persona '%s' deleted."),

	ValidArgsFunction: completePersonaNames,
}

var personaSetDefaultCmd = &cobra.Command{
	Use:   "default <name>",
	Short: "Set default persona",
	Args:  cobra.ExactArgs(1),
	RunE:  personaAction(config.SetDefaultPersona, "Default persona set to '%s'."),

	ValidArgsFunction: completePersonaNames,
}

func init() {
	personaAddCmd.Flags().StringVar(&personaDescFlag, "description", "", "Short description")
	personaAddCmd.Flags().StringVar(&personaPromptFlag, "system", "", "System prompt")
	personaAddCmd.Flags().StringVar(&personaToneFlag, "tone", "", "Preferred tone")
	personaAddCmd.Flags().StringVar(&personaModelFlag, "model", "", "Preferred model")
	personaAddCmd.Flags().Float64Var(&personaTempFlag, "temperature", 0, "Sampling temperature (0-2, 0 keeps the model default)")
	personaAddCmd.Flags().BoolVar(&personaForceFlag, "force", false, "Replace an existing persona")

	personaCmd.AddCommand(personaListCmd)
	personaCmd.AddCommand(personaShowCmd)
	personaCmd.AddCommand(personaAddCmd)
	personaCmd.AddCommand(personaDeleteCmd)
	personaCmd.AddCommand(personaSetDefaultCmd)
}

func runPersonaList(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadPersonas()
	if err != nil {
		return fmt.Errorf("failed to load personas: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tDESCRIPTION\tTONE\tDEFAULT")
	_, _ = fmt.Fprintln(w, "----\t-----------\t----\t-------")

	for _, p := range cfg.Personas {
		isDefault := ""
		if p.Name == cfg.DefaultPersona {
			isDefault = "✓"
		}
		tone := p.Tone
		if tone == "" {
			tone = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Name, p.Description, tone, isDefault)
	}

	return w.Flush()
}

func runPersonaShow(cmd *cobra.Command, args []string) error {
	persona, err := config.GetPersona(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Name: %s\n", persona.Name)
	fmt.Fprintf(out, "Description: %s\n", persona.Description)
	if persona.Tone != "" {
		fmt.Fprintf(out, "Preferred Tone: %s\n", persona.Tone)
	}
	if persona.Model != "" {
		fmt.Fprintf(out, "Preferred Model: %s\n", persona.Model)
	}
	if persona.Temperature > 0 {
		fmt.Fprintf(out, "Temperature: %.2f\n", persona.Temperature)
	}
	fmt.Fprintf(out, "\nSystem Prompt:\n%s\n", persona.SystemPrompt)

	return nil
}

func runPersonaAdd(cmd *cobra.Command, args []string) error {
	name := args[0]

	_, err := config.GetPersona(name)
	exists := err == nil
	if exists && !personaForceFlag {
		return fmt.Errorf("persona '%s' already exists (use --force to replace it)", name)
	}

	desc, prompt := personaDescFlag, personaPromptFlag
	if prompt == "" {
		desc, prompt, err = readPersonaInteractive(cmd.InOrStdin(), cmd.OutOrStdout(), desc)
		if err != nil {
			return err
		}
	}

	persona, err := personaFromFlags(name, desc, prompt)
	if err != nil {
		return err
	}

	if err := config.ValidatePersona(persona); err != nil {
		return err
	}
	if exists {
		if err := config.UpdatePersona(persona); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Persona '%s' updated.\n", name)
		return nil
	}
	if err := config.AddPersona(persona); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Persona '%s' created.\n", name)
	return nil
}

// personaFromFlags builds a persona, normalizing --tone and --model to
// their canonical names
func personaFromFlags(name, desc, prompt string) (config.Persona, error) {
	p := config.Persona{Name: name, Description: desc, SystemPrompt: prompt, Temperature: personaTempFlag}
	if personaToneFlag != "" {
		t, err := models.ParseTone(personaToneFlag)
		if err != nil {
			return p, err
		}
		p.Tone = string(t)
	}
	if personaModelFlag != "" {
		m, err := models.ModelFromName(personaModelFlag)
		if err != nil {
			return p, err
		}
		p.Model = m.Name
	}
	return p, nil
}

// readPersonaInteractive prompts for the description (unless given) and the
// system prompt, which ends with an empty line or EOF
func readPersonaInteractive(in io.Reader, out io.Writer, desc string) (string, string, error) {
	reader := bufio.NewReader(in)

	if desc == "" {
		fmt.Fprint(out, "Enter description: ")
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return "", "", err
		}
		desc = strings.TrimSpace(line)
	}

	fmt.Fprintln(out, "Enter system prompt (end with an empty line):")
	var promptLines []string
	for {
		line, err := reader.ReadString('\n')
		line = strings.TrimRight(line, "\n\r")
		if line == "" {
			break
		}
		promptLines = append(promptLines, line)
		if err != nil {
			break
		}
	}

	return desc, strings.Join(promptLines, "\n"), nil
}

// completePersonaNames offers persona names for shell completion
func completePersonaNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	names, err := config.ListPersonaNames()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var out []string
	for _, n := range names {
		if strings.HasPrefix(n, toComplete) {
			out = append(out, n)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// personaAction runs fn on the named persona and prints done on success
func personaAction(fn func(name string) error, done string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), done+"\n", args[0])
		return nil
	}
}
