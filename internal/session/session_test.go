package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResolvesExplicitWorkdir(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, s.Workdir)
	assert.NotNil(t, s.Resolver)
	assert.NotNil(t, s.State)
	assert.NotNil(t, s.Config)
	assert.NotNil(t, s.Packwiz)
	assert.NotNil(t, s.Installer)
}

func TestNewFallsBackToEnvWorkdir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(envWorkdir, dir)

	s, err := New("")
	require.NoError(t, err)
	assert.Equal(t, dir, s.Workdir)
}

func TestCloseSavesCache(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}
