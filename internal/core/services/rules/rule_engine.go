package rules

import (
	"fmt"
	"strings"

	"github.com/afraa786/wichain/internal/core/domain"
)

// Config holds the tunable thresholds of the heuristic pass.
type Config struct {
	// MinSignalStrength flags anything weaker (more negative) than this dBm.
	MinSignalStrength int

	// RogueSSIDs is the known public-hotspot name list, matched
	// case-insensitively as substrings.
	RogueSSIDs []string

	// RiskyVendors flags resolved vendor names that warrant suspicion.
	RiskyVendors []string
}

// DefaultConfig returns the thresholds the detector ships with.
func DefaultConfig() Config {
	return Config{
		MinSignalStrength: -85,
		RogueSSIDs:        []string{"Free WiFi", "Public WiFi", "Airport WiFi", "Hotel Guest"},
		RiskyVendors:      []string{"Unknown", "Rogue", "Generic"},
	}
}

// Engine runs the rule-based pass over a raw observation. Checks execute in
// a fixed order and never short-circuit each other, so the reason list for a
// given observation is stable across runs.
type Engine struct {
	cfg Config
}

// NewEngine creates a rule engine with the given thresholds.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Evaluate returns one human-readable reason per failing check, in check
// order: signal strength, suspicious SSID, encryption, vendor, hidden SSID.
// The returned slice is never nil.
func (e *Engine) Evaluate(obs domain.NetworkObservation) []string {
	reasons := make([]string, 0, 5)

	if obs.SignalStrength < e.cfg.MinSignalStrength {
		reasons = append(reasons, fmt.Sprintf("Low signal strength: %ddBm", obs.SignalStrength))
	}

	if e.matchesRogueSSID(obs.SSID) {
		reasons = append(reasons, fmt.Sprintf("Suspicious SSID: %s", obs.SSID))
	}

	if enc := domain.ParseEncryption(string(obs.Encryption)); enc == domain.EncryptionOpen || enc == domain.EncryptionWEP {
		reasons = append(reasons, fmt.Sprintf("Insecure encryption: %s", enc))
	}

	if e.isRiskyVendor(obs.Vendor) {
		reasons = append(reasons, fmt.Sprintf("Untrusted vendor: %s", obs.Vendor))
	}

	if obs.IsHidden() {
		reasons = append(reasons, "Hidden network (no SSID)")
	}

	return reasons
}

func (e *Engine) matchesRogueSSID(ssid string) bool {
	lower := strings.ToLower(ssid)
	for _, pattern := range e.cfg.RogueSSIDs {
		if pattern == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

func (e *Engine) isRiskyVendor(vendor string) bool {
	for _, v := range e.cfg.RiskyVendors {
		if strings.EqualFold(vendor, v) {
			return true
		}
	}
	return false
}
