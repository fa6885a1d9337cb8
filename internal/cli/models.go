package cli

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"groundqa/internal/adapter/generator"
)

var modelsJSON bool

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models the configured generator serves",
	Long: `List the models served by the configured generator provider and show
which one 'ask' would use. For the openai provider this queries the
provider's /models endpoint.`,
	RunE: runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.Flags().BoolVar(&modelsJSON, "json", false, "output as JSON")
}

type modelsReport struct {
	Provider   string   `json:"provider"`
	Configured string   `json:"configured"`
	Selected   string   `json:"selected"`
	Models     []string `json:"models"`
}

func runModels(cmd *cobra.Command, args []string) error {
	gc := GetConfig().Generator
	report := modelsReport{Provider: gc.Provider, Configured: gc.Model}

	switch gc.Provider {
	case "openai":
		gen, err := generator.NewOpenAIGenerator(gc, logger)
		if err != nil {
			return err
		}
		models, err := gen.Models().Refresh(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list models: %w", err)
		}
		report.Models = models
		report.Selected = gen.Models().Resolve(cmd.Context(), gc.Model)
	case "mock":
		name := generator.NewMockGenerator().ModelName()
		report.Models = []string{name}
		report.Selected = name
	default:
		return fmt.Errorf("unsupported generator provider: %s", gc.Provider)
	}

	out := cmd.OutOrStdout()
	if modelsJSON {
		data, _ := json.MarshalIndent(report, "", "  ")
		fmt.Fprintln(out, string(data))
		return nil
	}

	if len(report.Models) == 0 {
		fmt.Fprintf(out, "Provider %s lists no models.\n", report.Provider)
		return nil
	}
	for _, m := range report.Models {
		marker := " "
		if m == report.Selected {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %s\n", marker, m)
	}
	if report.Configured != "" && !slices.Contains(report.Models, report.Configured) {
		fmt.Fprintf(out, "Configured model %q is not served; using %s.\n", report.Configured, report.Selected)
	}
	return nil
}
