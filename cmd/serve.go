// File: cmd/serve.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/remedy/internal/config"
	"github.com/xkilldash9x/remedy/internal/mcp"
	"github.com/xkilldash9x/remedy/internal/observability"
)

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the fix pipeline as MCP tools over stdio or streamable HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			mcpCfg := cfg.MCP()
			if err := mcpCfg.Validate(); err != nil {
				return fmt.Errorf("invalid MCP configuration: %w", err)
			}

			// 1. Pipeline
			c, err := initializeComponents(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize components: %w", err)
			}
			defer c.Shutdown()

			// 2. Tool server
			server := mcp.NewServer(logger, mcpCfg, mcp.Dependencies{
				Fixer:         c.Fixer,
				Batch:         c.Batch,
				Diagnostics:   c.Diagnostics,
				Catalog:       c.Catalog,
				DefaultChecks: cfg.Diagnostics().DefaultChecks,
				Version:       Version,
			})

			// 3. Transport
			switch mcpCfg.Transport {
			case config.TransportHTTP:
				addr := mcpCfg.ListenAddr()
				logger.Info("Serving MCP over HTTP.", zap.String("address", addr), zap.Bool("auth", mcpCfg.AuthEnabled()))
				return server.ListenAndServe(ctx, addr)
			default:
				return server.RunStdio(ctx)
			}
		},
	}

	serveCmd.Flags().String("transport", "", "transport: stdio or http (overrides config/env)")
	serveCmd.Flags().String("addr", "", "HTTP listen address, e.g. 127.0.0.1:8080 (overrides config/env)")
	return serveCmd
}

// applyServeOverrides copies serve flags into cfg. It runs before logging is
// set up because the transport decides where console logs go.
func applyServeOverrides(cmd *cobra.Command, cfg config.Interface) {
	if cmd.Name() != "serve" {
		return
	}
	if cmd.Flags().Changed("transport") {
		transport, _ := cmd.Flags().GetString("transport")
		cfg.SetMCPTransport(transport)
	}
	if cmd.Flags().Changed("addr") {
		addr, _ := cmd.Flags().GetString("addr")
		cfg.SetMCPAddr(addr)
	}
}
