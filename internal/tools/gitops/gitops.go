// Package gitops exposes git staging, commit, push and status operations as
// MCP tools. Every tool resolves its target repository the same way, runs a
// single git invocation through the gitexec seam (push adds one read-only
// branch discovery query) and shapes the outcome into a uniform result map.
package gitops

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-git-ops/internal/gitexec"
	"github.com/sirupsen/logrus"
)

// Error kinds surfaced in the "error" field of error results.
const (
	errKindPathNotFound      = "path_not_found"
	errKindNotARepository    = "not_a_repository"
	errKindMissingTarget     = "missing_target"
	errKindEmptyMessage      = "empty_message"
	errKindNoCurrentBranch   = "no_current_branch"
	errKindBranchQueryFailed = "branch_query_failed"
	errKindCommandFailed     = "command_failed"
	errKindTimeout           = "timeout"
	errKindUnexpected        = "unexpected_error"
)

// toolResult marshals a result map into the text payload of a tool response.
// Handlers never return Go errors for tool-level failures; everything is
// reported through this uniform shape.
func toolResult(fields map[string]any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// successResult builds a success result from the given fields.
func successResult(fields map[string]any) (*mcp.CallToolResult, error) {
	fields["status"] = "success"
	return toolResult(fields)
}

// errorResult builds an error result of the given kind. extra fields (such as
// the composed command or captured stderr) are merged in.
func errorResult(kind, message string, extra map[string]any) (*mcp.CallToolResult, error) {
	fields := map[string]any{
		"status":  "error",
		"error":   kind,
		"message": message,
	}
	for k, v := range extra {
		fields[k] = v
	}
	return toolResult(fields)
}

// resolveErrorResult maps a repository resolution failure onto an error result.
func resolveErrorResult(resolveErr *gitexec.ResolveError) (*mcp.CallToolResult, error) {
	kind := errKindPathNotFound
	if resolveErr.Code == gitexec.ResolveNotARepository {
		kind = errKindNotARepository
	}
	return errorResult(kind, resolveErr.Message, nil)
}

// runFailure captures a failed git invocation in a form the handlers turn
// into an error result. Exactly one of the kinds timeout, unexpected_error or
// command_failed applies.
type runFailure struct {
	kind    string
	message string
	outcome gitexec.Outcome
	spec    gitexec.Spec
}

// runCommand executes the composed command and normalises timeout, launch
// failure and nonzero exit into a runFailure. label names the operation in
// messages, e.g. "Git add command".
func runCommand(ctx context.Context, logger *logrus.Logger, executor gitexec.Executor, spec gitexec.Spec, label string) (gitexec.Outcome, *runFailure) {
	outcome, err := executor.Run(ctx, logger, spec)
	if err != nil {
		return outcome, &runFailure{
			kind:    errKindUnexpected,
			message: fmt.Sprintf("Unexpected error: %s", err.Error()),
			spec:    spec,
		}
	}
	if outcome.TimedOut {
		return outcome, &runFailure{
			kind:    errKindTimeout,
			message: fmt.Sprintf("%s timed out after %d seconds", label, int(spec.Timeout.Seconds())),
			spec:    spec,
		}
	}
	if outcome.ExitCode != 0 {
		return outcome, &runFailure{
			kind:    errKindCommandFailed,
			message: fmt.Sprintf("%s failed", label),
			outcome: outcome,
			spec:    spec,
		}
	}
	return outcome, nil
}

// result renders a runFailure. Nonzero exits include the composed
// command and captured stderr; timeouts and launch failures carry only the
// message, since no trustworthy output exists.
func (f *runFailure) result(repoPath string) (*mcp.CallToolResult, error) {
	if f.kind != errKindCommandFailed {
		return errorResult(f.kind, f.message, nil)
	}
	return errorResult(f.kind, f.message, map[string]any{
		"command":         f.spec.CommandString(),
		"stderr":          f.outcome.Stderr,
		"repository_path": repoPath,
	})
}

// stringArg returns the named argument as a string, tolerating absence.
func stringArg(args map[string]any, name string) string {
	value, _ := args[name].(string)
	return value
}

// boolArg returns the named argument as a bool, tolerating absence.
func boolArg(args map[string]any, name string) bool {
	value, _ := args[name].(bool)
	return value
}
