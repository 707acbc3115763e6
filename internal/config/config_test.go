package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasSourceExt(t *testing.T) {
	assert.True(t, HasSourceExt("main.fg"))
	assert.True(t, HasSourceExt("lib/thing.forge"))
	assert.False(t, HasSourceExt("main.go"))
	assert.False(t, HasSourceExt("README.md"))
}

func TestLoadDefaults(t *testing.T) {
	rt, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 100, rt.JITThreshold)
	assert.False(t, rt.DisableJIT)
	assert.Equal(t, "vm", rt.Backend)
	assert.Equal(t, 8192, rt.GCInitialThreshold)
}

func TestLoadHonorsEnv(t *testing.T) {
	t.Setenv("FORGE_JIT_THRESHOLD", "128")
	t.Setenv("FORGE_BACKEND", "tree")
	rt, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 128, rt.JITThreshold)
	assert.Equal(t, "tree", rt.Backend)
}
