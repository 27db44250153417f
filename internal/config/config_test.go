package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Validates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 0.7, cfg.QualityThreshold)
	assert.Equal(t, 3, cfg.MaxIterations)
	assert.Equal(t, 0.60, cfg.ConsensusDefaults.RoleWeights.PrimaryUser)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("HLCS_QUALITY_THRESHOLD", "0.9")
	t.Setenv("HLCS_MAX_ITERATIONS", "5")
	t.Setenv("HLCS_LISTEN_ADDRESS", ":9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0.9, cfg.QualityThreshold)
	assert.Equal(t, 5, cfg.MaxIterations)
	assert.Equal(t, ":9090", cfg.ListenAddress)
}

func TestValidate_RejectsOutOfRange(t *testing.T) {
	cfg := Default()
	cfg.QualityThreshold = 1.5
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.MaxIterations = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.ConsensusDefaults.Type = "NOT_A_RULE"
	assert.Error(t, cfg.Validate())
}

func TestIsFeatureEnabled(t *testing.T) {
	cfg := Default()
	cfg.FeatureFlags["beta"] = FeatureFlag{Enabled: true, Strategy: "WHITELIST", Whitelist: []string{"u1"}}
	assert.True(t, cfg.IsFeatureEnabled("beta", "u1"))
	assert.False(t, cfg.IsFeatureEnabled("beta", "u2"))
	assert.False(t, cfg.IsFeatureEnabled("unknown", "u1"))

	cfg.FeatureFlags["off"] = FeatureFlag{Enabled: false}
	assert.False(t, cfg.IsFeatureEnabled("off", "u1"))
}

func TestSaveAndLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/config.json"

	cfg := Default()
	cfg.ListenAddress = ":7777"
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, ":7777", loaded.ListenAddress)

	_, err = os.Stat(path)
	require.NoError(t, err)
}
