package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/vmchat"
	"github.com/aretw0/vmchat/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts vmchat as an MCP Server.
This allows AI agents to manage virtual machines through the 'chat' tool.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")

		// Logs must not corrupt JSON-RPC on Stdout; stdio stays quiet unless --debug.
		stack, err := loadStack(cmd, transport == "stdio")
		if err != nil {
			return err
		}
		defer stack.Close()
		logger := stack.Logger

		srv := mcp.NewServer(stack.Assistant, vmchat.Version,
			mcp.WithSessions(stack.Sessions),
			mcp.WithLogger(logger),
			mcp.WithMaxInputSize(stack.Config.MaxInputSize),
		)

		switch transport {
		case "stdio":
			logger.Info("Starting vmchat MCP server (stdio)")
			return srv.ServeStdio()
		case "sse":
			addr := stack.Config.ListenAddr
			baseURL, _ := cmd.Flags().GetString("base-url")
			logger.Info("Starting vmchat MCP server (SSE)", "addr", addr)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, addr, baseURL); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Info("MCP server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", "", "Listen address (only for SSE, overrides listen_addr)")
	mcpCmd.Flags().String("base-url", "", "Public base URL advertised to SSE clients")
}
