package gitops_test

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"

	git "github.com/go-git/go-git/v5"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-git-ops/internal/gitexec"
	"github.com/sammcj/mcp-git-ops/internal/tools"
	"github.com/sammcj/mcp-git-ops/internal/tools/gitops"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockResult is one scripted executor response.
type mockResult struct {
	outcome gitexec.Outcome
	err     error
}

// mockExecutor records every Spec it receives and replays scripted results,
// so tests can assert on composed commands without spawning processes.
type mockExecutor struct {
	t       *testing.T
	specs   []gitexec.Spec
	results []mockResult
}

func (m *mockExecutor) Run(_ context.Context, _ *logrus.Logger, spec gitexec.Spec) (gitexec.Outcome, error) {
	m.specs = append(m.specs, spec)
	if len(m.results) == 0 {
		m.t.Fatalf("unexpected command execution: %v", spec.Args)
	}
	next := m.results[0]
	m.results = m.results[1:]
	return next.outcome, next.err
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testCache() *sync.Map {
	return &sync.Map{}
}

// newTestRepo creates a directory carrying the git metadata marker.
func newTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	return dir
}

// decodeResult parses the JSON payload of a tool result.
func decodeResult(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok, "expected text content")
	var fields map[string]any
	require.NoError(t, json.Unmarshal([]byte(text.Text), &fields))
	return fields
}

// allTools builds each handler wired to the given executor, keyed by name,
// together with a minimal valid argument set.
func allTools(exec gitexec.Executor) map[string]struct {
	tool tools.Tool
	args map[string]any
} {
	return map[string]struct {
		tool tools.Tool
		args map[string]any
	}{
		"git_add":    {&gitops.AddTool{Exec: exec}, map[string]any{"files": "a.txt"}},
		"git_commit": {&gitops.CommitTool{Exec: exec}, map[string]any{"message": "msg"}},
		"git_push":   {&gitops.PushTool{Exec: exec}, map[string]any{"branch": "main"}},
		"git_status": {&gitops.StatusTool{Exec: exec}, map[string]any{}},
	}
}

func TestAllTools_PathNotFound(t *testing.T) {
	for name, tc := range allTools(&mockExecutor{t: t}) {
		t.Run(name, func(t *testing.T) {
			args := map[string]any{"repository_path": "/definitely/not/here"}
			for k, v := range tc.args {
				args[k] = v
			}

			result, err := tc.tool.Execute(context.Background(), testLogger(), testCache(), args)
			require.NoError(t, err)

			fields := decodeResult(t, result)
			assert.Equal(t, "error", fields["status"])
			assert.Equal(t, "path_not_found", fields["error"])
			// The literal input path is echoed, not a resolved one.
			assert.Equal(t, "Repository path does not exist: /definitely/not/here", fields["message"])
		})
	}
}

func TestAllTools_NotARepository(t *testing.T) {
	for name, tc := range allTools(&mockExecutor{t: t}) {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()

			args := map[string]any{"repository_path": dir}
			for k, v := range tc.args {
				args[k] = v
			}

			result, err := tc.tool.Execute(context.Background(), testLogger(), testCache(), args)
			require.NoError(t, err)

			fields := decodeResult(t, result)
			assert.Equal(t, "error", fields["status"])
			assert.Equal(t, "not_a_repository", fields["error"])
			assert.Equal(t, "Not a git repository: "+dir, fields["message"])
		})
	}
}

func TestAllTools_Timeout(t *testing.T) {
	expected := map[string]string{
		"git_add":    "Git add command timed out after 30 seconds",
		"git_commit": "Git commit command timed out after 30 seconds",
		"git_push":   "Git push command timed out after 120 seconds",
		"git_status": "Git status command timed out after 10 seconds",
	}

	for name, message := range expected {
		t.Run(name, func(t *testing.T) {
			exec := &mockExecutor{t: t, results: []mockResult{
				{outcome: gitexec.Outcome{TimedOut: true}},
			}}
			tc := allTools(exec)[name]

			args := map[string]any{"repository_path": newTestRepo(t)}
			for k, v := range tc.args {
				args[k] = v
			}

			result, err := tc.tool.Execute(context.Background(), testLogger(), testCache(), args)
			require.NoError(t, err)

			fields := decodeResult(t, result)
			assert.Equal(t, "error", fields["status"])
			assert.Equal(t, "timeout", fields["error"])
			assert.Equal(t, message, fields["message"])
		})
	}
}

func TestAllTools_ExecutorLaunchFailure(t *testing.T) {
	for _, name := range []string{"git_add", "git_commit", "git_push", "git_status"} {
		t.Run(name, func(t *testing.T) {
			exec := &mockExecutor{t: t, results: []mockResult{
				{err: assert.AnError},
			}}
			tc := allTools(exec)[name]

			args := map[string]any{"repository_path": newTestRepo(t)}
			for k, v := range tc.args {
				args[k] = v
			}

			result, err := tc.tool.Execute(context.Background(), testLogger(), testCache(), args)
			require.NoError(t, err)

			fields := decodeResult(t, result)
			assert.Equal(t, "error", fields["status"])
			assert.Equal(t, "unexpected_error", fields["error"])
			assert.Contains(t, fields["message"], "Unexpected error: ")
		})
	}
}
