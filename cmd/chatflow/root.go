package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/chatflow"
	"github.com/aretw0/chatflow/internal/cli"
	"github.com/aretw0/chatflow/internal/config"
	"github.com/aretw0/chatflow/pkg/domain"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "chatflow",
	Short: "Chatflow runs menu-driven conversation graphs",
	Long: `Chatflow executes conversation flows defined as JSON or YAML graphs.
A flow greets, shows numbered options and routes each reply to the next node.
Conversations can be served over HTTP, WebSocket, webhooks and MCP, or run in the terminal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(); err != nil {
			return err
		}
		v := config.New()
		flags := cmd.Flags()
		for key, flag := range map[string]string{
			"graph.path":   "graph",
			"store.driver": "store",
		} {
			if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
				return err
			}
		}
		file, _ := flags.GetString("config")
		c, err := config.Decode(v, file)
		if err != nil {
			return err
		}
		cfg = c
		debug, _ := flags.GetBool("debug")
		logger = cli.NewLogger(cfg.Log, debug)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Config file (default ./chatflow.yaml or ~/.config/chatflow/chatflow.yaml)")
	rootCmd.PersistentFlags().StringP("graph", "g", "", "Graph file (JSON or YAML)")
	rootCmd.PersistentFlags().String("store", "", "Session store: memory, file, redis or sqlite")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// graphArg lets a positional argument override the configured graph path.
func graphArg(args []string) {
	if len(args) > 0 {
		cfg.Graph.Path = args[0]
	}
}

// openEngine opens the configured store and builds the engine on top of it.
// The caller must Close the returned backend.
func openEngine(hooks ...domain.LifecycleHooks) (*chatflow.Engine, *cli.Backend, error) {
	backend, err := cli.OpenBackend(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	eng, err := cli.NewEngine(cfg, logger, cli.EngineOptions{Backend: backend, Hooks: hooks})
	if err != nil {
		_ = backend.Close()
		return nil, nil, err
	}
	return eng, backend, nil
}
