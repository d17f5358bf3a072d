package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, -85, cfg.MinSignal)
	assert.Equal(t, 4, cfg.DecisionThreshold)
	assert.InDelta(t, 0.8, cfg.HighConfidenceCutoff, 1e-9)
	assert.Equal(t, "wichain.verdicts", cfg.NATSSubject)
	assert.Empty(t, cfg.NATSUrl)
	assert.Equal(t, filepath.Join(cfg.DataDir, "networks.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join(cfg.ModelDir, "model.gob"), cfg.ModelPath())
	assert.Equal(t, filepath.Join(cfg.ModelDir, "encoder.gob"), cfg.EncoderPath())
}

func TestLoad_FlagsOverride(t *testing.T) {
	cfg, err := Load([]string{
		"-addr", ":9999",
		"-data-dir", "/tmp/wichain-test",
		"-min-signal", "-75",
		"-rogue-ssids", "Evil Twin, Fake AP",
	})
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, -75, cfg.MinSignal)
	assert.Equal(t, []string{"Evil Twin", "Fake AP"}, cfg.RogueSSIDs)
	assert.Equal(t, filepath.Join("/tmp/wichain-test", "chain.db"), cfg.ChainDBPath)
}

func TestLoad_EnvFallback(t *testing.T) {
	t.Setenv("WICHAIN_ADDR", ":7777")
	t.Setenv("WICHAIN_DEBUG", "true")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.Addr)
	assert.True(t, cfg.Debug)
}

func TestLoad_RejectsBadTuning(t *testing.T) {
	_, err := Load([]string{"-decision-threshold", "0"})
	assert.Error(t, err)

	_, err = Load([]string{"-high-confidence-cutoff", "1.5"})
	assert.Error(t, err)
}
