package domain

import "time"

// VendorRisk classifies the trust level derived from a BSSID's OUI.
type VendorRisk int

const (
	VendorTrusted VendorRisk = iota
	VendorUnknown
	VendorRisky
	// VendorMobileHeuristic marks locally-administered (randomized) MACs with
	// no registry entry, which are overwhelmingly client devices rather than
	// infrastructure.
	VendorMobileHeuristic
)

// Weight returns the numeric risk tier used in the feature vector:
// 0 trusted, 1 unknown, 2 explicitly risky. MobileHeuristic carries the
// same weight as Unknown; the tag only changes how operators read it.
func (v VendorRisk) Weight() int {
	switch v {
	case VendorTrusted:
		return 0
	case VendorRisky:
		return 2
	default:
		return 1
	}
}

func (v VendorRisk) String() string {
	switch v {
	case VendorTrusted:
		return "trusted"
	case VendorRisky:
		return "risky"
	case VendorMobileHeuristic:
		return "mobile"
	default:
		return "unknown"
	}
}

// FeatureVector holds the raw (unscaled) features derived from one
// observation. It must be deterministically reproducible from the same
// observation, so every field is a pure function of the observation plus
// the vendor table.
type FeatureVector struct {
	SignalStrength        float64 `json:"signal_strength"`
	Channel               float64 `json:"channel"`
	Frequency             float64 `json:"frequency"`
	SSIDLength            float64 `json:"ssid_length"`
	HasRoguePattern       int     `json:"has_common_rogue_pattern"`
	IsHidden              int     `json:"is_hidden"`
	VendorRisk            int     `json:"vendor_risk"`
	IsLocallyAdministered int     `json:"is_locally_administered"`
	EncryptionRisk        int     `json:"encryption_risk"`
	SignalCategory        int     `json:"signal_category"`
	ChannelWidth          int     `json:"channel_width"`
	IsDFSChannel          int     `json:"is_dfs_channel"`
}

// Slice returns the vector in its canonical column order, the order the
// scaler and classifier were fitted against.
func (f FeatureVector) Slice() []float64 {
	return []float64{
		f.SignalStrength,
		f.Channel,
		f.Frequency,
		f.SSIDLength,
		float64(f.HasRoguePattern),
		float64(f.IsHidden),
		float64(f.VendorRisk),
		float64(f.IsLocallyAdministered),
		float64(f.EncryptionRisk),
		float64(f.SignalCategory),
		float64(f.ChannelWidth),
		float64(f.IsDFSChannel),
	}
}

// FeatureCount is the width of the canonical feature vector.
const FeatureCount = 12

// Verdict is the outcome of one detection pass. Immutable once created.
type Verdict struct {
	ID           string        `json:"id"`
	SSID         string        `json:"ssid"`
	BSSID        string        `json:"bssid"`
	IsSpoof      bool          `json:"is_spoof"`
	Vendor       string        `json:"vendor"`
	MLConfidence float64       `json:"ml_confidence"`
	MLPrediction int           `json:"ml_prediction"`
	Timestamp    time.Time     `json:"timestamp"`
	Features     FeatureVector `json:"features"`
	Reasons      []string      `json:"reasons"`
}

// TrainingReport summarizes a retraining run.
type TrainingReport struct {
	Family          string             `json:"family"`
	CVScores        map[string]float64 `json:"cv_f1_weighted"`
	HoldoutAccuracy float64            `json:"holdout_accuracy"`
	Samples         int                `json:"samples"`
	TrainedAt       time.Time          `json:"trained_at"`
}
