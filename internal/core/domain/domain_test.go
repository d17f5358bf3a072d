package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEncryption(t *testing.T) {
	cases := map[string]Encryption{
		"open":      EncryptionOpen,
		"NONE":      EncryptionOpen,
		"wep":       EncryptionWEP,
		"WPA":       EncryptionWPA,
		"wpa2":      EncryptionWPA2,
		"WPA/WPA2":  EncryptionWPA2,
		"WPA3":      EncryptionWPA3,
		"WPA2/WPA3": EncryptionWPA2WPA3,
		"":          EncryptionUnknown,
		"EAP-TLS":   EncryptionUnknown,
	}
	for input, want := range cases {
		assert.Equal(t, want, ParseEncryption(input), "input %q", input)
	}
}

func TestEncryptionRisk(t *testing.T) {
	assert.Equal(t, 2, EncryptionOpen.Risk())
	assert.Equal(t, 2, EncryptionWEP.Risk())
	assert.Equal(t, 0, EncryptionWPA2.Risk())
	assert.Equal(t, 0, EncryptionWPA3.Risk())
	assert.Equal(t, 1, EncryptionWPA.Risk())
	assert.Equal(t, 1, EncryptionUnknown.Risk())
}

func TestObservation_Normalize(t *testing.T) {
	obs := NetworkObservation{BSSID: "AA:BB:CC:00:00:01", SignalStrength: -50, Channel: 0}
	obs.Normalize()
	assert.Equal(t, 1, obs.Channel)
	assert.InDelta(t, 2.4, obs.Frequency, 1e-9)
	assert.False(t, obs.ObservedAt.IsZero())

	highBand := NetworkObservation{BSSID: "AA:BB:CC:00:00:01", SignalStrength: -50, Channel: 36}
	highBand.Normalize()
	assert.InDelta(t, 5.0, highBand.Frequency, 1e-9)

	explicit := NetworkObservation{BSSID: "AA:BB:CC:00:00:01", SignalStrength: -50, Channel: 6, Frequency: 2.437}
	explicit.Normalize()
	assert.InDelta(t, 2.437, explicit.Frequency, 1e-9)
}

func TestObservation_Validate(t *testing.T) {
	valid := NetworkObservation{BSSID: "AA:BB:CC:00:00:01", SignalStrength: -50}
	assert.NoError(t, valid.Validate())

	missing := NetworkObservation{SignalStrength: -50}
	assert.ErrorIs(t, missing.Validate(), ErrInvalidObservation)

	positive := NetworkObservation{BSSID: "AA:BB:CC:00:00:01", SignalStrength: 5}
	assert.ErrorIs(t, positive.Validate(), ErrInvalidObservation)

	tooWeak := NetworkObservation{BSSID: "AA:BB:CC:00:00:01", SignalStrength: -130}
	assert.ErrorIs(t, tooWeak.Validate(), ErrInvalidObservation)

	var verr *ValidationError
	assert.ErrorAs(t, missing.Validate(), &verr)
	assert.Equal(t, "bssid", verr.Field)

	// The signal error reports the offending reading, not the BSSID.
	assert.ErrorAs(t, positive.Validate(), &verr)
	assert.Equal(t, "signal_strength", verr.Field)
	assert.Equal(t, "5", verr.Value)

	assert.ErrorAs(t, tooWeak.Validate(), &verr)
	assert.Equal(t, "-130", verr.Value)
}

func TestObservation_IsHidden(t *testing.T) {
	assert.True(t, (&NetworkObservation{SSID: ""}).IsHidden())
	assert.True(t, (&NetworkObservation{SSID: "  "}).IsHidden())
	assert.False(t, (&NetworkObservation{SSID: "HomeNet"}).IsHidden())
}

func TestVendorRiskWeights(t *testing.T) {
	assert.Equal(t, 0, VendorTrusted.Weight())
	assert.Equal(t, 1, VendorUnknown.Weight())
	assert.Equal(t, 1, VendorMobileHeuristic.Weight())
	assert.Equal(t, 2, VendorRisky.Weight())
}

func TestComputeBlockHash_Deterministic(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 123456789, time.UTC)
	payload := []byte(`{"ssid":"Free WiFi"}`)

	h1 := ComputeBlockHash(3, "abc", payload, ts)
	h2 := ComputeBlockHash(3, "abc", payload, ts)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)

	assert.NotEqual(t, h1, ComputeBlockHash(4, "abc", payload, ts))
	assert.NotEqual(t, h1, ComputeBlockHash(3, "abd", payload, ts))
	assert.NotEqual(t, h1, ComputeBlockHash(3, "abc", []byte(`{}`), ts))
	assert.NotEqual(t, h1, ComputeBlockHash(3, "abc", payload, ts.Add(time.Nanosecond)))
}

func TestComputeBlockHash_TimestampStringStability(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 5000, time.UTC)
	block := Block{Index: 0, Timestamp: ts, Data: []byte(`{}`), PreviousHash: GenesisPreviousHash}
	block.Hash = ComputeBlockHash(block.Index, block.PreviousHash, block.Data, block.Timestamp)

	// Re-parsing the stored string form must reproduce the hash.
	reparsed, err := time.Parse(time.RFC3339Nano, block.TimestampString())
	require.NoError(t, err)
	assert.Equal(t, block.Hash, ComputeBlockHash(block.Index, block.PreviousHash, block.Data, reparsed))
}

func TestCanonicalJSON_SortsKeys(t *testing.T) {
	out, err := CanonicalJSON(map[string]any{"zeta": 1, "beta": map[string]any{"y": 1, "a": 2}, "alpha": 3})
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":3,"beta":{"a":2,"y":1},"zeta":1}`, string(out))
}

func TestCanonicalJSON_StructsViaTags(t *testing.T) {
	v := Verdict{ID: "x", SSID: "net", IsSpoof: true, MLConfidence: 0.9}
	out, err := CanonicalJSON(v)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, true, decoded["is_spoof"])
	assert.Equal(t, 0.9, decoded["ml_confidence"])
}

func TestFeatureVectorSlice_Width(t *testing.T) {
	fv := FeatureVector{SignalStrength: -60, Channel: 6, VendorRisk: 2}
	s := fv.Slice()
	require.Len(t, s, FeatureCount)
	assert.Equal(t, -60.0, s[0])
	assert.Equal(t, 2.0, s[6])
}
