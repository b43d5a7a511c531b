package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/internal/presentation/graph"
	"github.com/aretw0/lattice/internal/presentation/tui"
	"github.com/aretw0/lattice/pkg/pipeline"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [action]",
	Short: "Describe the configured actions",
	Long: `Prints the declarations of every configured action.

Formats:
- markdown (default): rendered for the terminal
- mermaid: a flowchart of the middleware chain (graph TD)
- json, yaml: machine readable descriptions`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		reg, err := buildActions(cfg, stack{logger: logging.NewNop(), keyMeta: cfg.RateLimit.KeyMeta})
		if err != nil {
			return err
		}
		actions := reg.Actions()
		if len(args) == 1 {
			a, err := reg.Get(args[0])
			if err != nil {
				return err
			}
			actions = []*pipeline.Action{a}
		}

		format, _ := cmd.Flags().GetString("format")
		out := cmd.OutOrStdout()
		switch format {
		case "markdown", "md":
			render := tui.NewRenderer()
			if raw, _ := cmd.Flags().GetBool("raw"); raw {
				fmt.Fprint(out, tui.Markdown(actions))
				return nil
			}
			text, err := render(tui.Markdown(actions))
			if err != nil {
				return err
			}
			fmt.Fprint(out, text)
		case "mermaid":
			for _, a := range actions {
				fmt.Fprint(out, graph.GenerateMermaid(a.Describe(), a.Stages()))
			}
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(describeAll(actions))
		case "yaml":
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(describeAll(actions)); err != nil {
				return err
			}
			return enc.Close()
		default:
			return fmt.Errorf("unknown format: %s. Supported: markdown, mermaid, json, yaml", format)
		}
		return nil
	},
}

type actionReport struct {
	pipeline.Description `yaml:",inline"`
	Stages               []pipeline.Stage `json:"stages" yaml:"stages"`
}

func describeAll(actions []*pipeline.Action) []actionReport {
	out := make([]actionReport, len(actions))
	for i, a := range actions {
		out[i] = actionReport{Description: a.Describe(), Stages: a.Stages()}
	}
	return out
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringP("format", "f", "markdown", "Output format: markdown, mermaid, json or yaml")
	inspectCmd.Flags().Bool("raw", false, "Print markdown without terminal rendering")
}
