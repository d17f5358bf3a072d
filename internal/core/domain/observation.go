package domain

import (
	"strconv"
	"strings"
	"time"
)

// Encryption identifies the security mode advertised by an access point.
type Encryption string

const (
	EncryptionOpen     Encryption = "OPEN"
	EncryptionWEP      Encryption = "WEP"
	EncryptionWPA      Encryption = "WPA"
	EncryptionWPA2     Encryption = "WPA2"
	EncryptionWPA3     Encryption = "WPA3"
	EncryptionWPA2WPA3 Encryption = "WPA2/WPA3"
	EncryptionUnknown  Encryption = "UNKNOWN"
)

// ParseEncryption normalizes a free-form encryption string to a known mode.
// Anything unrecognized maps to EncryptionUnknown rather than failing, since
// scan sources disagree wildly on naming.
func ParseEncryption(s string) Encryption {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "OPEN", "NONE", "":
		if strings.TrimSpace(s) == "" {
			return EncryptionUnknown
		}
		return EncryptionOpen
	case "WEP":
		return EncryptionWEP
	case "WPA":
		return EncryptionWPA
	case "WPA2", "WPA/WPA2":
		return EncryptionWPA2
	case "WPA3":
		return EncryptionWPA3
	case "WPA2/WPA3":
		return EncryptionWPA2WPA3
	default:
		return EncryptionUnknown
	}
}

// Risk returns the encryption risk tier: 0 for WPA2/WPA3 class modes,
// 2 for OPEN/WEP, 1 for everything in between (WPA, unknown).
func (e Encryption) Risk() int {
	switch e {
	case EncryptionOpen, EncryptionWEP:
		return 2
	case EncryptionWPA2, EncryptionWPA3, EncryptionWPA2WPA3:
		return 0
	default:
		return 1
	}
}

// NetworkObservation is one Wi-Fi beacon/probe snapshot as reported by a
// scanner agent or submitted manually over the API. The BSSID uniquely
// identifies the radio; repeated observations of the same BSSID update the
// stored latest-known state but each one still gets its own verdict.
type NetworkObservation struct {
	SSID           string     `json:"ssid"`
	BSSID          string     `json:"bssid"`
	SignalStrength int        `json:"signal_strength"` // dBm, typically -100..0
	Frequency      float64    `json:"frequency"`       // GHz
	Channel        int        `json:"channel"`
	Encryption     Encryption `json:"encryption"`
	Latitude       float64    `json:"latitude,omitempty"`
	Longitude      float64    `json:"longitude,omitempty"`
	Vendor         string     `json:"vendor,omitempty"` // resolved from OUI if empty
	ObservedAt     time.Time  `json:"timestamp,omitempty"`
}

// LabeledObservation is a training sample: an observation plus ground truth.
type LabeledObservation struct {
	NetworkObservation
	IsSpoof bool `json:"is_spoof"`
}

// Normalize fills derivable defaults in place. It never rejects; Validate
// does that separately so callers can distinguish the two concerns.
func (o *NetworkObservation) Normalize() {
	if o.Channel < 1 {
		o.Channel = 1
	}
	if o.Frequency == 0 {
		if o.Channel > 14 {
			o.Frequency = 5.0
		} else {
			o.Frequency = 2.4
		}
	}
	o.Encryption = ParseEncryption(string(o.Encryption))
	if o.ObservedAt.IsZero() {
		o.ObservedAt = time.Now().UTC()
	}
}

// Validate checks the fields required before feature extraction can run.
func (o *NetworkObservation) Validate() error {
	if strings.TrimSpace(o.BSSID) == "" {
		return &ValidationError{Field: "bssid", Value: o.BSSID, Err: ErrInvalidObservation}
	}
	if o.SignalStrength > 0 || o.SignalStrength < -120 {
		return &ValidationError{Field: "signal_strength", Value: strconv.Itoa(o.SignalStrength), Err: ErrInvalidObservation}
	}
	return nil
}

// IsHidden reports whether the SSID is absent or whitespace only.
func (o *NetworkObservation) IsHidden() bool {
	return strings.TrimSpace(o.SSID) == ""
}

// ObservationRecord is the persisted latest-known state for a BSSID,
// combining the raw observation with the verdict that accompanied it.
type ObservationRecord struct {
	NetworkObservation
	IsSpoof    bool          `json:"is_spoof"`
	Confidence float64       `json:"confidence"`
	Reasons    []string      `json:"reasons"`
	Features   FeatureVector `json:"features"`
	FirstSeen  time.Time     `json:"first_seen"`
	LastSeen   time.Time     `json:"last_seen"`
}

// NetworkStats summarizes the observation store for the stats endpoint.
type NetworkStats struct {
	TotalNetworks      int     `json:"total_networks"`
	SpoofNetworks      int     `json:"spoof_networks"`
	LegitimateNetworks int     `json:"legitimate_networks"`
	SpoofPercentage    float64 `json:"spoof_percentage"`
}
