package mcp

import (
	"context"
	"fmt"
	"strings"

	"snapview/internal/authorize"
	"snapview/internal/gitexec"
	"snapview/internal/resolver"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerTools() {
	listTool := mcp.NewTool("list_repos",
		mcp.WithDescription("List every repository tracked by snapview, with its name and location."),
	)
	s.mcpServer.AddTool(listTool, s.handleListRepos)

	gitTool := mcp.NewTool("git",
		mcp.WithDescription("Run a read-only git command against a repository's snapshot history. "+
			"Allowed subcommands: "+strings.Join(authorize.AllowedSubcommands(), ", ")+"."),
		mcp.WithString("repo",
			mcp.Required(),
			mcp.Description("Repository name from list_repos, or an absolute path to a tracked repository."),
		),
		mcp.WithString("command",
			mcp.Required(),
			mcp.Description("Git command without the leading 'git', e.g. 'log --oneline -n 20'."),
		),
	)
	s.mcpServer.AddTool(gitTool, s.handleGit)
}

func (s *Server) handleListRepos(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries := s.registry.List()
	if len(entries) == 0 {
		return mcp.NewToolResultText(
			"No repositories are tracked by snapview yet. " +
				"Run the snapview CLI inside a repository to start tracking it."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Repositories tracked by snapview (%d):\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(&b, "- %s: %s\n", e.Name, e.Location)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleGit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repo := strings.TrimSpace(req.GetString("repo", ""))
	command := req.GetString("command", "")

	if repo == "" || strings.TrimSpace(command) == "" {
		return mcp.NewToolResultError(
			"usage: git(repo, command): both fields are required. " +
				"Example: git(repo=\"dotfiles\", command=\"log --oneline -n 10\")"), nil
	}

	location, err := s.resolver.Resolve(repo)
	if err != nil {
		s.logger.Debug("Resolution failed", "repo", repo, "error", err)
		return mcp.NewToolResultError(s.unknownRepoText(repo, err)), nil
	}

	verdict := authorize.Authorize(command)
	if !verdict.Allowed {
		s.logger.Info("Command denied", "repo", repo, "reason", verdict.Reason)
		return mcp.NewToolResultError("command denied: " + verdict.Reason), nil
	}

	s.execMu.Lock()
	outcome := s.runner.Run(ctx, verdict.Sanitized, location)
	s.execMu.Unlock()

	if outcome.Kind != gitexec.KindSuccess {
		s.logger.Debug("Execution failed", "repo", repo, "kind", outcome.Kind, "message", outcome.Message)
		return mcp.NewToolResultError(outcome.Message), nil
	}
	return mcp.NewToolResultText(outcome.Output), nil
}

// unknownRepoText explains a resolution failure using repository names
// only; registered locations of unrelated entries are never echoed.
func (s *Server) unknownRepoText(repo string, err error) string {
	var b strings.Builder
	if err == resolver.ErrTraversal {
		fmt.Fprintf(&b, "repository identifier %q was rejected. ", repo)
	} else {
		fmt.Fprintf(&b, "repository %q was not found. ", repo)
	}
	if names := s.registry.Names(); len(names) > 0 {
		fmt.Fprintf(&b, "Known repositories: %s. ", strings.Join(names, ", "))
	} else {
		b.WriteString("No repositories are tracked yet. ")
	}
	b.WriteString("Use list_repos to see what is available.")
	return b.String()
}
