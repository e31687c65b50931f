package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mj1618/wingman/internal/config"
	"github.com/mj1618/wingman/internal/platform"
	"github.com/mj1618/wingman/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an MCP server exposing wingman tools",
	Long: `Start a Model Context Protocol (MCP) server that exposes the wingman
actions as tools. Each tool call holds the desktop for its whole duration.

Supported transports:
  stdio             Standard I/O (default, for MCP clients)
  streamable-http   Streamable HTTP transport (for remote agents)

Examples:
  wingman serve
  wingman serve --transport streamable-http --port 8080
  wingman serve --cache-ttl 0 --warm-schedule "@every 10m"`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("transport", "", "Transport: stdio, streamable-http (default serve.transport)")
	serveCmd.Flags().Int("port", 0, "HTTP port for streamable-http transport (default serve.port)")
	serveCmd.Flags().Int("cache-ttl", -1, "Accessibility tree cache TTL in seconds, 0 disables (default serve.cache_ttl_seconds)")
	serveCmd.Flags().String("warm-schedule", "", `Cron spec for keeping the model loaded, e.g. "@every 10m" (default serve.warm_schedule)`)
}

func runServe(cmd *cobra.Command, args []string) error {
	var cache *server.TreeCache
	var sc config.ServeConfig
	a, err := newApp(cmd, appOptions{
		wrapTree: func(tree platform.TreeReader, cfg *config.Config) platform.TreeReader {
			sc = serveSettings(cmd, cfg.Serve)
			cache = server.NewTreeCache(tree, time.Duration(sc.CacheTTLSeconds)*time.Second)
			return cache
		},
	})
	if err != nil {
		return err
	}
	defer a.Close()
	if cache == nil {
		sc = serveSettings(cmd, a.cfg.Serve)
	}

	srv := server.New(a.svc, a.resolver, cache, a.logger)
	ctx := cmd.Context()
	err = srv.Serve(ctx, server.Config{
		Transport:    sc.Transport,
		Port:         sc.Port,
		WarmSchedule: sc.WarmSchedule,
	})
	if ctx.Err() != nil {
		a.logger.Info("shutdown signal received, MCP server stopped")
		return nil
	}
	if err != nil {
		return fmt.Errorf("MCP server: %w", err)
	}
	return nil
}

// serveSettings overlays the command-line flags on the serve config.
func serveSettings(cmd *cobra.Command, sc config.ServeConfig) config.ServeConfig {
	if v, _ := cmd.Flags().GetString("transport"); v != "" {
		sc.Transport = v
	}
	if v, _ := cmd.Flags().GetInt("port"); v > 0 {
		sc.Port = v
	}
	if v, _ := cmd.Flags().GetInt("cache-ttl"); v >= 0 {
		sc.CacheTTLSeconds = v
	}
	if v, _ := cmd.Flags().GetString("warm-schedule"); v != "" {
		sc.WarmSchedule = v
	}
	return sc
}
