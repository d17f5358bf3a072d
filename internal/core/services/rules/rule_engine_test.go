package rules

import (
	"testing"

	"github.com/afraa786/wichain/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cleanObservation() domain.NetworkObservation {
	return domain.NetworkObservation{
		SSID:           "HomeNet-5G",
		BSSID:          "00:1A:2B:AA:BB:CC",
		SignalStrength: -50,
		Channel:        36,
		Encryption:     domain.EncryptionWPA2,
		Vendor:         "Cisco Systems",
	}
}

func TestEvaluate_CleanNetworkHasNoReasons(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	reasons := engine.Evaluate(cleanObservation())
	require.NotNil(t, reasons)
	assert.Empty(t, reasons)
}

func TestEvaluate_LowSignal(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	obs := cleanObservation()
	obs.SignalStrength = -90
	assert.Contains(t, engine.Evaluate(obs), "Low signal strength: -90dBm")

	// Exactly at the threshold is not flagged.
	obs.SignalStrength = -85
	assert.Empty(t, engine.Evaluate(obs))
}

func TestEvaluate_SuspiciousSSIDIsCaseInsensitive(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	obs := cleanObservation()
	obs.SSID = "FREE wifi by the pool"
	reasons := engine.Evaluate(obs)
	require.Len(t, reasons, 1)
	assert.Contains(t, reasons[0], "Suspicious SSID")
}

func TestEvaluate_InsecureEncryption(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	for _, enc := range []domain.Encryption{domain.EncryptionOpen, domain.EncryptionWEP} {
		obs := cleanObservation()
		obs.Encryption = enc
		reasons := engine.Evaluate(obs)
		require.Len(t, reasons, 1, "encryption %s", enc)
		assert.Contains(t, reasons[0], "Insecure encryption")
	}

	obs := cleanObservation()
	obs.Encryption = domain.EncryptionWPA
	assert.Empty(t, engine.Evaluate(obs), "WPA is weak but not rule-flagged")
}

func TestEvaluate_HiddenNetwork(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	obs := cleanObservation()
	obs.SSID = "   "
	reasons := engine.Evaluate(obs)
	require.Len(t, reasons, 1)
	assert.Equal(t, "Hidden network (no SSID)", reasons[0])
}

func TestEvaluate_ReasonOrderIsStable(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	// Trip every check except hidden: weak signal, rogue SSID, open
	// encryption, unknown vendor.
	obs := domain.NetworkObservation{
		SSID:           "Free WiFi",
		BSSID:          "12:34:56:78:90:AB",
		SignalStrength: -95,
		Encryption:     domain.EncryptionOpen,
		Vendor:         "Unknown",
	}

	first := engine.Evaluate(obs)
	require.Len(t, first, 4)
	assert.Contains(t, first[0], "Low signal strength")
	assert.Contains(t, first[1], "Suspicious SSID")
	assert.Contains(t, first[2], "Insecure encryption")
	assert.Contains(t, first[3], "Untrusted vendor")

	for i := 0; i < 10; i++ {
		assert.Equal(t, first, engine.Evaluate(obs))
	}
}

func TestEvaluate_ConfigurableThresholds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinSignalStrength = -60
	cfg.RiskyVendors = []string{"EvilCorp"}
	engine := NewEngine(cfg)

	obs := cleanObservation()
	obs.SignalStrength = -70
	obs.Vendor = "evilcorp"
	reasons := engine.Evaluate(obs)
	require.Len(t, reasons, 2)
	assert.Contains(t, reasons[0], "Low signal strength")
	assert.Contains(t, reasons[1], "Untrusted vendor")
}
