package gitexec_test

import (
	"path/filepath"
	"testing"

	git "github.com/go-git/go-git/v5"
	"github.com/sammcj/mcp-git-ops/internal/gitexec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRepository_PathNotFound(t *testing.T) {
	input := filepath.Join(t.TempDir(), "missing", "nested")

	resolved, resolveErr := gitexec.ResolveRepository(input)
	require.NotNil(t, resolveErr)

	assert.Empty(t, resolved)
	assert.Equal(t, gitexec.ResolvePathNotFound, resolveErr.Code)
	// The message carries the literal input path.
	assert.Equal(t, "Repository path does not exist: "+input, resolveErr.Message)
}

func TestResolveRepository_NotARepository(t *testing.T) {
	dir := t.TempDir()

	resolved, resolveErr := gitexec.ResolveRepository(dir)
	require.NotNil(t, resolveErr)

	assert.Empty(t, resolved)
	assert.Equal(t, gitexec.ResolveNotARepository, resolveErr.Code)
	assert.Equal(t, "Not a git repository: "+dir, resolveErr.Message)
}

func TestResolveRepository_ValidRepository(t *testing.T) {
	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	resolved, resolveErr := gitexec.ResolveRepository(dir)
	require.Nil(t, resolveErr)
	assert.Equal(t, dir, resolved)
}

func TestResolveRepository_RelativePathResolvedAbsolute(t *testing.T) {
	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	t.Chdir(filepath.Dir(dir))

	resolved, resolveErr := gitexec.ResolveRepository(filepath.Base(dir))
	require.Nil(t, resolveErr)
	assert.True(t, filepath.IsAbs(resolved))
	assert.Equal(t, dir, resolved)
}

func TestResolveRepository_DefaultsToWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	t.Chdir(dir)

	resolved, resolveErr := gitexec.ResolveRepository("")
	require.Nil(t, resolveErr)
	assert.Equal(t, dir, resolved)
}
