package git

import (
	"testing"

	gogit "github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	dir := t.TempDir()

	assert.False(t, IsRepo(dir))
	require.NoError(t, Init(dir))
	assert.True(t, IsRepo(dir))

	// A second init is a no-op.
	require.NoError(t, Init(dir))
}

func TestAddRemote(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(dir))

	require.NoError(t, AddRemote(dir, "origin", "git@github.com:octocat/platform.git"))

	repo, err := gogit.PlainOpen(dir)
	require.NoError(t, err)
	remote, err := repo.Remote("origin")
	require.NoError(t, err)
	assert.Equal(t, []string{"git@github.com:octocat/platform.git"}, remote.Config().URLs)

	// Re-adding the same remote name leaves the existing config untouched.
	require.NoError(t, AddRemote(dir, "origin", "git@github.com:other/elsewhere.git"))
	remote, err = repo.Remote("origin")
	require.NoError(t, err)
	assert.Equal(t, []string{"git@github.com:octocat/platform.git"}, remote.Config().URLs)
}

func TestAddRemote_NotARepository(t *testing.T) {
	err := AddRemote(t.TempDir(), "origin", "git@github.com:octocat/platform.git")
	require.Error(t, err)
}
