package gitops

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-git-ops/internal/gitexec"
	"github.com/sammcj/mcp-git-ops/internal/registry"
	"github.com/sammcj/mcp-git-ops/internal/tools"
	"github.com/sirupsen/logrus"
)

const (
	// pushTimeout is longer than the other operations to allow for network
	// variability.
	pushTimeout = 120 * time.Second
	// branchQueryTimeout bounds the read-only current-branch discovery.
	branchQueryTimeout = 10 * time.Second
)

// PushTool pushes commits to a remote repository
type PushTool struct {
	Exec gitexec.Executor
}

// init registers the git_push tool
func init() {
	registry.Register(&PushTool{Exec: gitexec.NewOSExecutor()})
}

// Definition returns the tool's definition for MCP registration
func (t *PushTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"git_push",
		mcp.WithDescription("Push commits to a remote git repository. If no branch is given the currently checked-out branch is discovered and pushed."),
		mcp.WithString("remote",
			mcp.Description("Name of the remote repository."),
			mcp.DefaultString("origin"),
		),
		mcp.WithString("branch",
			mcp.Description("Branch name to push. Defaults to the current branch."),
		),
		mcp.WithBoolean("force",
			mcp.Description("If true, force push. Use with caution."),
			mcp.DefaultBool(false),
		),
		mcp.WithBoolean("set_upstream",
			mcp.Description("If true, set upstream tracking for the branch (git push -u)."),
			mcp.DefaultBool(false),
		),
		mcp.WithString("repository_path",
			mcp.Description("Path to the git repository (defaults to the current directory)."),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// Execute discovers the branch when needed and performs the push
func (t *PushTool) Execute(ctx context.Context, logger *logrus.Logger, cache *sync.Map, args map[string]any) (*mcp.CallToolResult, error) {
	repoPath, resolveErr := gitexec.ResolveRepository(stringArg(args, "repository_path"))
	if resolveErr != nil {
		return resolveErrorResult(resolveErr)
	}

	remote := stringArg(args, "remote")
	if remote == "" {
		remote = "origin"
	}

	branch := stringArg(args, "branch")
	if branch == "" {
		discovered, result, err := t.discoverBranch(ctx, logger, repoPath)
		if result != nil || err != nil {
			return result, err
		}
		branch = discovered
	}

	spec := gitexec.Spec{
		Args:    buildPushArgs(remote, branch, boolArg(args, "force"), boolArg(args, "set_upstream")),
		Dir:     repoPath,
		Timeout: pushTimeout,
	}

	outcome, failure := runCommand(ctx, logger, t.Exec, spec, "Git push command")
	if failure != nil {
		if failure.kind == errKindCommandFailed {
			failure.message = fmt.Sprintf("Git push to %s/%s failed", remote, branch)
		}
		return failure.result(repoPath)
	}

	// Git routinely writes progress and summary lines to stderr even on a
	// successful push, so both streams are surfaced.
	return successResult(map[string]any{
		"message":         fmt.Sprintf("Successfully pushed to %s/%s", remote, branch),
		"command":         spec.CommandString(),
		"stdout":          outcome.Stdout,
		"stderr":          outcome.Stderr,
		"repository_path": repoPath,
	})
}

// discoverBranch runs the read-only current-branch query. It returns either
// the branch name or a ready error result for detached HEAD, query failure,
// timeout or launch failure.
func (t *PushTool) discoverBranch(ctx context.Context, logger *logrus.Logger, repoPath string) (string, *mcp.CallToolResult, error) {
	spec := gitexec.Spec{
		Args:    []string{"git", "branch", "--show-current"},
		Dir:     repoPath,
		Timeout: branchQueryTimeout,
	}

	outcome, failure := runCommand(ctx, logger, t.Exec, spec, "Git branch query")
	if failure != nil {
		if failure.kind == errKindCommandFailed {
			result, err := errorResult(errKindBranchQueryFailed, "Failed to get current branch", map[string]any{
				"stderr": outcome.Stderr,
			})
			return "", result, err
		}
		result, err := failure.result(repoPath)
		return "", result, err
	}

	if outcome.Stdout == "" {
		result, err := errorResult(errKindNoCurrentBranch, "Could not determine current branch", nil)
		return "", result, err
	}

	return outcome.Stdout, nil, nil
}

// buildPushArgs composes the git push argument vector. The force flag comes
// directly after the subcommand; remote and branch are always the final two
// positional tokens.
func buildPushArgs(remote, branch string, force, setUpstream bool) []string {
	cmdArgs := []string{"git", "push"}
	if force {
		cmdArgs = append(cmdArgs, "--force")
	}
	if setUpstream {
		cmdArgs = append(cmdArgs, "-u")
	}
	return append(cmdArgs, remote, branch)
}

// ProvideExtendedInfo provides detailed usage information for the push tool
func (t *PushTool) ProvideExtendedInfo() *tools.ExtendedHelp {
	return &tools.ExtendedHelp{
		Examples: []tools.ToolExample{
			{
				Description:    "Push the current branch to origin",
				Arguments:      map[string]any{},
				ExpectedResult: "The checked-out branch is discovered and pushed to origin; the result names the remote and branch.",
			},
			{
				Description: "Publish a new branch with upstream tracking",
				Arguments: map[string]any{
					"branch":       "feature/retry-policy",
					"set_upstream": true,
				},
				ExpectedResult: "Runs 'git push -u origin feature/retry-policy' so later pushes need no arguments.",
			},
			{
				Description: "Force push after an amended commit",
				Arguments: map[string]any{
					"force": true,
				},
				ExpectedResult: "Runs 'git push --force origin <current branch>'. Overwrites the remote branch.",
			},
		},
		CommonPatterns: []string{
			"Omit 'branch' to push whatever is currently checked out",
			"Combine 'force' and 'set_upstream' when re-publishing a rewritten branch",
			"Set 'repository_path' when the server's working directory is not the repository",
		},
		Troubleshooting: []tools.TroubleshootingTip{
			{
				Problem:  "Result is no_current_branch",
				Solution: "The repository is in detached HEAD state. Pass an explicit 'branch' or check out a branch first.",
			},
			{
				Problem:  "Push times out",
				Solution: "The push has a 120 second budget. Slow networks or very large pushes may exceed it; push smaller ranges or push manually.",
			},
			{
				Problem:  "Push is rejected as non-fast-forward",
				Solution: "Pull or rebase first, or set 'force': true if overwriting the remote branch is intended.",
			},
		},
		ParameterDetails: map[string]string{
			"remote":       "Optional. Remote name, defaults to 'origin'.",
			"branch":       "Optional. When omitted the current branch is discovered with a separate read-only query.",
			"force":        "Optional. Adds --force directly after the push subcommand.",
			"set_upstream": "Optional. Adds -u so the branch tracks the remote branch it is pushed to.",
		},
		WhenToUse:    "Use after git_commit to publish local commits to a remote.",
		WhenNotToUse: "Avoid force pushes to shared branches; there is no confirmation step.",
	}
}
