package gitops

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-git-ops/internal/gitexec"
	"github.com/sammcj/mcp-git-ops/internal/registry"
	"github.com/sirupsen/logrus"
)

// commitTimeout bounds a git commit invocation.
const commitTimeout = 30 * time.Second

// CommitTool creates a commit from the staged changes
type CommitTool struct {
	Exec gitexec.Executor
}

// init registers the git_commit tool
func init() {
	registry.Register(&CommitTool{Exec: gitexec.NewOSExecutor()})
}

// Definition returns the tool's definition for MCP registration
func (t *CommitTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"git_commit",
		mcp.WithDescription("Create a git commit with the staged changes."),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("Commit message. Passed to git verbatim as a single argument."),
		),
		mcp.WithBoolean("all_files",
			mcp.Description("If true, automatically stage all modified files before committing (git commit -a)."),
			mcp.DefaultBool(false),
		),
		mcp.WithBoolean("amend",
			mcp.Description("If true, amend the previous commit instead of creating a new one."),
			mcp.DefaultBool(false),
		),
		mcp.WithString("repository_path",
			mcp.Description("Path to the git repository (defaults to the current directory)."),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)
}

// Execute creates the commit
func (t *CommitTool) Execute(ctx context.Context, logger *logrus.Logger, cache *sync.Map, args map[string]any) (*mcp.CallToolResult, error) {
	// The message is validated before any repository resolution takes place.
	message := stringArg(args, "message")
	if strings.TrimSpace(message) == "" {
		return errorResult(errKindEmptyMessage, "Commit message cannot be empty", nil)
	}

	repoPath, resolveErr := gitexec.ResolveRepository(stringArg(args, "repository_path"))
	if resolveErr != nil {
		return resolveErrorResult(resolveErr)
	}

	spec := gitexec.Spec{
		Args:    buildCommitArgs(message, boolArg(args, "all_files"), boolArg(args, "amend")),
		Dir:     repoPath,
		Timeout: commitTimeout,
	}

	outcome, failure := runCommand(ctx, logger, t.Exec, spec, "Git commit command")
	if failure != nil {
		return failure.result(repoPath)
	}

	return successResult(map[string]any{
		"message":         "Commit created successfully",
		"command":         spec.CommandString(),
		"stdout":          outcome.Stdout,
		"repository_path": repoPath,
	})
}

// buildCommitArgs composes the git commit argument vector. Flag order is
// deterministic: --amend precedes -a, and both precede the message flag,
// i.e. git commit --amend -a -m <message>.
func buildCommitArgs(message string, allFiles, amend bool) []string {
	cmdArgs := []string{"git", "commit"}
	if amend {
		cmdArgs = append(cmdArgs, "--amend")
	}
	if allFiles {
		cmdArgs = append(cmdArgs, "-a")
	}
	return append(cmdArgs, "-m", message)
}
