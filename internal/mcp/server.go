// Package mcp implements the snapview MCP server using the mcp-go
// library.
//
// It exposes two tools to a calling assistant: list_repos (enumerate
// tracked repositories) and git (run an authorized read-only git
// command against a repository's snapshot store). Communication runs
// over stdin/stdout using JSON-RPC 2.0 as specified by the MCP
// standard; every domain outcome is returned as a text payload, never
// as a transport-level error.
package mcp

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"snapview/internal/authorize"
	"snapview/internal/config"
	"snapview/internal/gitexec"
	"snapview/internal/logging"
	"snapview/internal/registry"
	"snapview/internal/resolver"

	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Server wires the registry, resolver, authorizer and execution runner
// behind the MCP tool surface.
type Server struct {
	cfg      config.Config
	logger   *logging.AppLogger
	registry *registry.Registry
	resolver *resolver.Resolver
	runner   *gitexec.Runner

	mcpServer *server.MCPServer

	// execMu serializes git executions: one subprocess at a time,
	// whatever the transport's dispatch model is.
	execMu sync.Mutex
}

// NewServer loads the registry once and builds the server. The registry
// stays as loaded for the process lifetime; tracking new repositories
// requires a restart.
func NewServer(cfg config.Config, logger *logging.AppLogger) *Server {
	reg := registry.Load(cfg.RegistryPath)

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		resolver: resolver.New(reg),
		runner:   gitexec.NewRunner(cfg.GitBinary, cfg.Timeout(), cfg.MaxOutputBytes()),
	}

	s.mcpServer = server.NewMCPServer(
		"snapview",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)
	s.registerTools()

	return s
}

// Start serves the stdio transport until ctx is cancelled or stdin
// closes. This is the only place a process-fatal error can originate:
// if the transport cannot be established, there is nothing to answer
// requests on.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting MCP server",
		"repos", s.registry.Len(),
		"timeout", s.cfg.Timeout(),
		"gitBinary", s.cfg.GitBinary,
	)

	stdio := server.NewStdioServer(s.mcpServer)
	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		return fmt.Errorf("stdio transport failed: %w", err)
	}
	return nil
}

// Stop logs shutdown; the stdio listener exits with its context.
func (s *Server) Stop() {
	s.logger.Info("Stopping MCP server")
}

func serverInstructions() string {
	return strings.Join([]string{
		"snapview exposes read-only git queries over snapshot histories of tracked repositories.",
		"Use list_repos to discover repositories, then git(repo, command) to query one.",
		"Commands are restricted to read-only git subcommands: " + strings.Join(authorize.AllowedSubcommands(), ", ") + ".",
		"Anything that mutates state is denied.",
	}, " ")
}
