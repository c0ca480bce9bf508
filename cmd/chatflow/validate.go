package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/chatflow/internal/validator"
	"github.com/aretw0/chatflow/pkg/graph"
)

var validateCmd = &cobra.Command{
	Use:   "validate [graph]",
	Short: "Check the graph for consistency",
	Long: `Loads the graph, reporting structural problems (start node, dangling edges,
choice numbering) and lint findings such as unreachable nodes.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		graphArg(args)
		if cfg.Graph.Path == "" {
			return errors.New("no graph given")
		}

		out := cmd.OutOrStdout()
		g, err := graph.LoadFile(cfg.Graph.Path)
		if err != nil {
			for _, issue := range graph.Issues(err) {
				fmt.Fprintln(out, "error:", issue)
			}
			return fmt.Errorf("validation failed: %w", err)
		}

		report := validator.ValidateGraph(g)
		for _, f := range report.Findings {
			fmt.Fprintln(out, f)
		}
		if err := report.Err(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintln(out, "Graph is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
