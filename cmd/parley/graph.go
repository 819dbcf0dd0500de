package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/parley/internal/presentation/graph"
	"github.com/aretw0/parley/pkg/inspect"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [graph]",
	Short: "Export the state graph",
	Long:  `Outputs a Mermaid diagram (graph TD) of the states and the intents that connect them.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}
		app, _, err := buildApp(cmd, logger)
		if err != nil {
			return err
		}
		nodes := inspect.Describe(app.Inspect())

		format, _ := cmd.Flags().GetString("format")
		switch format {
		case "mermaid":
			var overlay *graph.Overlay
			if current, _ := cmd.Flags().GetString("current"); current != "" {
				overlay = &graph.Overlay{CurrentNode: current}
			}
			fmt.Print(graph.GenerateMermaid(nodes, overlay))
			return nil
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(nodes)
		default:
			return fmt.Errorf("unknown format %q (want mermaid or json)", format)
		}
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)

	graphCmd.Flags().String("format", "mermaid", "Output format: mermaid or json")
	graphCmd.Flags().String("current", "", "Highlight this state")
}
