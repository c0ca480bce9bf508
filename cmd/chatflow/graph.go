package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/chatflow/internal/presentation/diagram"
	"github.com/aretw0/chatflow/pkg/graph"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [graph]",
	Short: "Export the flow graph visualization",
	Long:  `Outputs a Mermaid flowchart of the graph, with choice numbers on option edges.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		graphArg(args)
		if cfg.Graph.Path == "" {
			return errors.New("no graph given")
		}
		g, err := graph.LoadFile(cfg.Graph.Path)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), diagram.GenerateMermaid(g, nil))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
