package gitops

import (
	"context"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-git-ops/internal/gitexec"
	"github.com/sammcj/mcp-git-ops/internal/registry"
	"github.com/sirupsen/logrus"
)

// statusTimeout bounds a git status invocation.
const statusTimeout = 10 * time.Second

// StatusTool reports the working-tree state in porcelain form
type StatusTool struct {
	Exec gitexec.Executor
}

// init registers the git_status tool
func init() {
	registry.Register(&StatusTool{Exec: gitexec.NewOSExecutor()})
}

// Definition returns the tool's definition for MCP registration
func (t *StatusTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"git_status",
		mcp.WithDescription("Get the current git status in machine-readable porcelain form, one line per changed path. The output is returned verbatim; interpreting it is left to the caller."),
		mcp.WithString("repository_path",
			mcp.Description("Path to the git repository (defaults to the current directory)."),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)
}

// Execute runs the porcelain status query
func (t *StatusTool) Execute(ctx context.Context, logger *logrus.Logger, cache *sync.Map, args map[string]any) (*mcp.CallToolResult, error) {
	repoPath, resolveErr := gitexec.ResolveRepository(stringArg(args, "repository_path"))
	if resolveErr != nil {
		return resolveErrorResult(resolveErr)
	}

	spec := gitexec.Spec{
		Args:    []string{"git", "status", "--porcelain"},
		Dir:     repoPath,
		Timeout: statusTimeout,
	}

	outcome, failure := runCommand(ctx, logger, t.Exec, spec, "Git status command")
	if failure != nil {
		return failure.result(repoPath)
	}

	return successResult(map[string]any{
		"message":          "Git status retrieved successfully",
		"repository_path":  repoPath,
		"porcelain_output": outcome.Stdout,
	})
}
