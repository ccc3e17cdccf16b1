package gitops_test

import (
	"context"
	"testing"

	"github.com/sammcj/mcp-git-ops/internal/gitexec"
	"github.com/sammcj/mcp-git-ops/internal/tools/gitops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdd_MissingTarget(t *testing.T) {
	exec := &mockExecutor{t: t} // any execution fails the test
	tool := &gitops.AddTool{Exec: exec}

	result, err := tool.Execute(context.Background(), testLogger(), testCache(), map[string]any{
		"repository_path": newTestRepo(t),
	})
	require.NoError(t, err)

	fields := decodeResult(t, result)
	assert.Equal(t, "error", fields["status"])
	assert.Equal(t, "missing_target", fields["error"])
	assert.Empty(t, exec.specs)
}

func TestAdd_SelectorPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		args     map[string]any
		expected []string
	}{
		{
			name:     "interactive wins over everything",
			args:     map[string]any{"interactive": true, "patch": true, "all_files": true, "files": "a.txt"},
			expected: []string{"git", "add", "--interactive"},
		},
		{
			name:     "patch wins over all_files and files",
			args:     map[string]any{"patch": true, "all_files": true, "files": "a.txt"},
			expected: []string{"git", "add", "--patch"},
		},
		{
			name:     "all_files wins over files",
			args:     map[string]any{"all_files": true, "files": "a.txt"},
			expected: []string{"git", "add", "."},
		},
		{
			name:     "files split in order",
			args:     map[string]any{"files": "a.txt b.txt"},
			expected: []string{"git", "add", "a.txt", "b.txt"},
		},
		{
			name:     "quoted path with spaces stays one token",
			args:     map[string]any{"files": `"my file.txt" other.go`},
			expected: []string{"git", "add", "my file.txt", "other.go"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			exec := &mockExecutor{t: t, results: []mockResult{{outcome: gitexec.Outcome{ExitCode: 0}}}}
			tool := &gitops.AddTool{Exec: exec}

			repo := newTestRepo(t)
			tc.args["repository_path"] = repo

			result, err := tool.Execute(context.Background(), testLogger(), testCache(), tc.args)
			require.NoError(t, err)

			fields := decodeResult(t, result)
			assert.Equal(t, "success", fields["status"])

			require.Len(t, exec.specs, 1)
			assert.Equal(t, tc.expected, exec.specs[0].Args)
			assert.Equal(t, repo, exec.specs[0].Dir)
		})
	}
}

func TestAdd_SuccessShape(t *testing.T) {
	exec := &mockExecutor{t: t, results: []mockResult{
		{outcome: gitexec.Outcome{ExitCode: 0, Stdout: ""}},
	}}
	tool := &gitops.AddTool{Exec: exec}
	repo := newTestRepo(t)

	result, err := tool.Execute(context.Background(), testLogger(), testCache(), map[string]any{
		"files":           "a.txt",
		"repository_path": repo,
	})
	require.NoError(t, err)

	fields := decodeResult(t, result)
	assert.Equal(t, "success", fields["status"])
	assert.Equal(t, "Files successfully added to staging area", fields["message"])
	assert.Equal(t, "git add a.txt", fields["command"])
	// Empty stdout is replaced by a placeholder.
	assert.Equal(t, "No output", fields["stdout"])
	assert.Equal(t, repo, fields["repository_path"])
}

func TestAdd_CommandFailed(t *testing.T) {
	exec := &mockExecutor{t: t, results: []mockResult{
		{outcome: gitexec.Outcome{ExitCode: 128, Stderr: "fatal: pathspec 'a.txt' did not match any files"}},
	}}
	tool := &gitops.AddTool{Exec: exec}

	result, err := tool.Execute(context.Background(), testLogger(), testCache(), map[string]any{
		"files":           "a.txt",
		"repository_path": newTestRepo(t),
	})
	require.NoError(t, err)

	fields := decodeResult(t, result)
	assert.Equal(t, "error", fields["status"])
	assert.Equal(t, "command_failed", fields["error"])
	assert.Equal(t, "Git add command failed", fields["message"])
	assert.Equal(t, "git add a.txt", fields["command"])
	assert.Equal(t, "fatal: pathspec 'a.txt' did not match any files", fields["stderr"])
}
