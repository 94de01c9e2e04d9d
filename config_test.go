package simply_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"simply"
)

func TestLoadConfig_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := simply.LoadConfig("/nonexistent/path/simply.properties")
	assert.NoError(t, err)
	assert.Equal(t, simply.DefaultConfig(), cfg)
}

func TestLoadConfig_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := simply.LoadConfig("")
	assert.NoError(t, err)
	assert.Equal(t, simply.DefaultConfig(), cfg)
}

func TestLoadConfig_OverridesApplyAfterDefaults(t *testing.T) {
	cfg, err := simply.LoadConfig("", simply.WithVerbose(true), simply.WithTarget("x86_64"))
	assert.NoError(t, err)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "x86_64", cfg.Target)
	assert.Equal(t, simply.Info, cfg.MinSeverity, "verbose must raise the minimum diagnostics severity")
}

func TestLoadConfig_MallocSymbolOverride(t *testing.T) {
	cfg, err := simply.LoadConfig("", simply.WithMallocSymbol("GC_malloc"))
	assert.NoError(t, err)
	assert.Equal(t, "GC_malloc", cfg.MallocSymbol)
}
