package gitops

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/shlex"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-git-ops/internal/gitexec"
	"github.com/sammcj/mcp-git-ops/internal/registry"
	"github.com/sirupsen/logrus"
)

// addTimeout bounds a git add invocation.
const addTimeout = 30 * time.Second

// AddTool stages files in a git repository
type AddTool struct {
	// Exec runs the composed git command; tests inject a mock here.
	Exec gitexec.Executor
}

// init registers the git_add tool
func init() {
	registry.Register(&AddTool{Exec: gitexec.NewOSExecutor()})
}

// Definition returns the tool's definition for MCP registration
func (t *AddTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"git_add",
		mcp.WithDescription(`Add files to the git staging area.

Exactly one selector is used, in this order of precedence: interactive, patch, all_files, files. Lower-priority selectors are ignored when a higher-priority one is set.`),
		mcp.WithString("files",
			mcp.Description("Space-separated list of file paths to add (e.g. \"file1.txt file2.py\"). Paths containing spaces may be quoted."),
		),
		mcp.WithBoolean("all_files",
			mcp.Description("If true, stages everything under the repository (equivalent to 'git add .')."),
			mcp.DefaultBool(false),
		),
		mcp.WithBoolean("interactive",
			mcp.Description("If true, runs git add in interactive mode."),
			mcp.DefaultBool(false),
		),
		mcp.WithBoolean("patch",
			mcp.Description("If true, runs git add in patch mode."),
			mcp.DefaultBool(false),
		),
		mcp.WithString("repository_path",
			mcp.Description("Path to the git repository (defaults to the current directory)."),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)
}

// Execute stages files according to the selector precedence policy
func (t *AddTool) Execute(ctx context.Context, logger *logrus.Logger, cache *sync.Map, args map[string]any) (*mcp.CallToolResult, error) {
	repoPath, resolveErr := gitexec.ResolveRepository(stringArg(args, "repository_path"))
	if resolveErr != nil {
		return resolveErrorResult(resolveErr)
	}

	cmdArgs, kindErr := buildAddArgs(args)
	if kindErr != nil {
		return errorResult(kindErr.kind, kindErr.message, nil)
	}

	spec := gitexec.Spec{Args: cmdArgs, Dir: repoPath, Timeout: addTimeout}
	outcome, failure := runCommand(ctx, logger, t.Exec, spec, "Git add command")
	if failure != nil {
		return failure.result(repoPath)
	}

	stdout := outcome.Stdout
	if stdout == "" {
		stdout = "No output"
	}

	return successResult(map[string]any{
		"message":         "Files successfully added to staging area",
		"command":         spec.CommandString(),
		"stdout":          stdout,
		"repository_path": repoPath,
	})
}

// addArgsError reports a selector validation failure.
type addArgsError struct {
	kind    string
	message string
}

// buildAddArgs composes the git add argument vector. The first matching
// selector wins; remaining selectors are silently ignored even if set.
func buildAddArgs(args map[string]any) ([]string, *addArgsError) {
	cmdArgs := []string{"git", "add"}

	files := stringArg(args, "files")

	switch {
	case boolArg(args, "interactive"):
		return append(cmdArgs, "--interactive"), nil
	case boolArg(args, "patch"):
		return append(cmdArgs, "--patch"), nil
	case boolArg(args, "all_files"):
		return append(cmdArgs, "."), nil
	case strings.TrimSpace(files) != "":
		tokens, err := shlex.Split(strings.TrimSpace(files))
		if err != nil {
			return nil, &addArgsError{
				kind:    errKindUnexpected,
				message: fmt.Sprintf("Unexpected error: invalid files list: %s", err.Error()),
			}
		}
		if len(tokens) == 0 {
			break
		}
		return append(cmdArgs, tokens...), nil
	}

	return nil, &addArgsError{
		kind:    errKindMissingTarget,
		message: "Must specify either files, all_files=true, interactive=true, or patch=true",
	}
}
