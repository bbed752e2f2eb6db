package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/baikal-ai/baikalctl/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose the console as MCP tools over stdio",
	Long: `Expose the console as MCP tools over stdio.

Wire this command into an MCP-capable client to let it list automations,
trigger runs, generate documents, and ask the assistant through your
stored session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newConsole()
		if err != nil {
			return err
		}
		if !c.sessions.IsAuthenticated() {
			printWarning("Not logged in. Run 'baikalctl login' first.")
			return nil
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		mcpSrv := mcpserver.New(mcpserver.Deps{
			Automations: c.automations,
			Documents:   c.docs,
			Assistant:   c.assistant,
		})
		stdioSrv := server.NewStdioServer(mcpSrv)
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}
