package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/chatguard/internal/config"
	guardmcp "github.com/ppiankov/chatguard/internal/mcp"
	"github.com/ppiankov/chatguard/internal/server"
)

var mcpAuditLog string

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVar(&mcpAuditLog, "audit-log", "", "Path to verdict audit log JSONL file")
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP tool server for agent integration",
	Long:  "Runs chatguard as an MCP (Model Context Protocol) server over stdio.\nExposes tools: chatguard_evaluate, chatguard_record, chatguard_reset.",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	host, err := server.New(server.Config{
		ConfigPath:   config.ResolvePath(configPath),
		AuditLogPath: mcpAuditLog,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer host.Close()

	srv := guardmcp.New(host, version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down MCP server...")
		cancel()
	}()

	fmt.Fprintln(os.Stderr, "chatguard MCP server running on stdio")
	fmt.Fprintln(os.Stderr)

	return srv.Run(ctx)
}
