package main

import (
	"github.com/akolanti/GoRAG/internal/mcpserver"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the retrieve and ask tools over MCP stdio",
	Long: `Run a Model Context Protocol server on stdin and stdout.

Tools:
  retrieve  nearest chunks with page references
  ask       answer generated from the nearest chunks

Logs go to stderr so they never mix with the protocol stream.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newRagService(cmd.Context(), appCfg, serviceOptions{generator: true, cache: true})
		if err != nil {
			return err
		}
		defer svc.Flush()
		return mcpserver.New(svc, version).Run(cmd.Context())
	},
}
