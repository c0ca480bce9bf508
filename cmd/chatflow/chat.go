package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/chatflow/internal/cli"
	"github.com/aretw0/chatflow/pkg/observability"
)

var chatCmd = &cobra.Command{
	Use:   "chat [graph]",
	Short: "Chat with a flow in the terminal",
	Long: `Runs a conversation over stdin/stdout. Type the number of an option to answer,
/reset to start over and /quit to leave. Reusing --session resumes a stored conversation.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		graphArg(args)
		flags := cmd.Flags()
		opts := cli.ChatOptions{MaxInput: cfg.Input.MaxSize}
		opts.SessionID, _ = flags.GetString("session")
		opts.JSON, _ = flags.GetBool("json")
		opts.Headless, _ = flags.GetBool("headless")
		opts.Watch, _ = flags.GetBool("watch")

		eng, backend, err := openEngine(observability.LoggingHooks(logger))
		if err != nil {
			return err
		}
		defer backend.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return cli.RunChat(ctx, eng, logger, opts)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringP("session", "s", "", "Session id to create or resume (random when empty)")
	chatCmd.Flags().Bool("json", false, "Exchange NDJSON on stdin/stdout instead of text")
	chatCmd.Flags().Bool("headless", false, "Exit when the conversation finishes, without banner or colors")
	chatCmd.Flags().BoolP("watch", "w", false, "Reload the graph when the file changes")
}
