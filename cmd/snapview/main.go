// Package main is the entry point for the snapview MCP server.
//
// The default subcommand, serve, speaks MCP over stdin/stdout and is
// what an AI assistant's client configuration should launch. The repos
// subcommand prints a human-readable listing of tracked repositories
// for debugging a setup from a terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"snapview/internal/config"
	"snapview/internal/logging"
	"snapview/internal/mcp"
	"snapview/internal/registry"
	"snapview/internal/snapshot"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// shutdownGrace bounds how long an in-flight request may run after a
// termination signal.
const shutdownGrace = 2 * time.Second

func main() {
	root := &cobra.Command{
		Use:     "snapview",
		Short:   "Read-only git queries over snapview snapshot histories, served over MCP",
		Version: mcp.Version,
	}

	root.AddCommand(serveCmd())
	root.AddCommand(reposCmd())

	// Launching with no subcommand serves stdio, so client configs can
	// point at the bare binary.
	root.RunE = serveCmd().RunE

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP over stdin/stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewAppLogger()
			cfg := config.Load()
			if err := cfg.Validate(); err != nil {
				logger.Warn("Configuration problem, continuing with it anyway", "error", err)
			}

			srv := mcp.NewServer(cfg, logger)

			// The signals stay caught until stop() runs, so a second
			// signal during shutdown is a no-op rather than a kill.
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start(ctx) }()

			select {
			case err := <-errCh:
				srv.Stop()
				return err
			case <-ctx.Done():
				logger.Info("Shutdown signal received, letting the in-flight request finish")
				select {
				case err := <-errCh:
					srv.Stop()
					return err
				case <-time.After(shutdownGrace):
					logger.Warn("Grace window elapsed, exiting")
					srv.Stop()
					return nil
				}
			}
		},
	}
}

var (
	repoNameStyle = lipgloss.NewStyle().Bold(true)
	repoPathStyle = lipgloss.NewStyle().Faint(true)
	repoInfoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

func reposCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repos",
		Short: "List tracked repositories and their snapshot state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			reg := registry.Load(cfg.RegistryPath)

			entries := reg.List()
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No repositories tracked by snapview.")
				return nil
			}

			out := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintf(out, "%s  %s\n", repoNameStyle.Render(e.Name), repoPathStyle.Render(e.Location))
				info, err := snapshot.Inspect(e.Location)
				if err != nil {
					fmt.Fprintf(out, "    %s\n", repoInfoStyle.Render("no snapshots ("+err.Error()+")"))
					continue
				}
				fmt.Fprintf(out, "    %s\n", repoInfoStyle.Render(fmt.Sprintf(
					"%d snapshots, latest %s at %s",
					info.Count, info.Head, info.LastSnapshot.Format(time.RFC3339))))
			}
			return nil
		},
	}
}
