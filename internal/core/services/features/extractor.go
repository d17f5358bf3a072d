// Package features turns raw network observations into the fixed-width
// numeric vectors the classifier consumes, and owns the scaling/encoding
// state fitted during training.
package features

import (
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/afraa786/wichain/internal/core/domain"
)

// signalBins bucket dBm readings into ordinal categories. A reading below
// the first edge clamps to category 0; above the last edge clamps to the
// top category.
var signalBins = []float64{-100, -85, -70, -55, -40}

// roguePatterns match SSIDs commonly used by throwaway rogue access points.
var roguePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)free[\s_-]?wifi`),
	regexp.MustCompile(`(?i)public[\s_-]?wifi`),
	regexp.MustCompile(`(?i)airport[\s_-]?wifi`),
	regexp.MustCompile(`(?i)hotel[\s_-]?guest`),
	regexp.MustCompile(`(?i)guest[\s_-]?network`),
	regexp.MustCompile(`(?i)setup`),
	regexp.MustCompile(`(?i)default`),
}

// Vendor OUI tiers, keyed by bare six-hex-digit prefix.
var (
	trustedPrefixes = map[string]struct{}{
		"000C43": {},
		"001A2B": {},
		"0022F4": {},
		"08EA44": {},
	}
	riskyPrefixes = map[string]struct{}{
		"000000": {},
		"FFFFFF": {},
		"123456": {},
	}
)

// scaledColumns are the indices of the continuous features that get
// standardized; binary/ordinal columns pass through unscaled.
var scaledColumns = []int{0, 1, 3} // signal_strength, channel, ssid_length

// encoderState is the artifact persisted after Fit and loaded by Transform.
type encoderState struct {
	Mean    []float64
	Std     []float64
	Columns []int
	Fitted  bool
}

// Extractor derives feature vectors and applies the fitted scaler.
type Extractor struct {
	encoderPath string

	mu    sync.RWMutex
	state *encoderState
}

// NewExtractor creates an extractor that persists its scaler state at
// encoderPath.
func NewExtractor(encoderPath string) *Extractor {
	return &Extractor{encoderPath: encoderPath}
}

// Extract computes the raw feature vector for one observation. It is a pure
// function of the observation: no scaling, no I/O, no shared state.
func Extract(obs domain.NetworkObservation) domain.FeatureVector {
	fv := domain.FeatureVector{
		SignalStrength: float64(obs.SignalStrength),
		Channel:        float64(obs.Channel),
		Frequency:      obs.Frequency,
		SSIDLength:     float64(utf8.RuneCountInString(obs.SSID)),
		SignalCategory: signalCategory(float64(obs.SignalStrength)),
		EncryptionRisk: obs.Encryption.Risk(),
		ChannelWidth:   channelWidth(obs.Channel),
	}

	if hasRoguePattern(obs.SSID) {
		fv.HasRoguePattern = 1
	}
	if obs.IsHidden() {
		fv.IsHidden = 1
	}
	if isDFSChannel(obs.Channel) {
		fv.IsDFSChannel = 1
	}

	risk := VendorRiskFor(obs.BSSID, obs.Vendor)
	fv.VendorRisk = risk.Weight()

	if _, laa, ok := parseBSSID(obs.BSSID); ok && laa {
		fv.IsLocallyAdministered = 1
	}

	return fv
}

// VendorRiskFor classifies the OUI trust tier for a BSSID given its resolved
// vendor name. Locally-administered MACs with no registry entry get the
// mobile-heuristic tag instead of plain unknown.
func VendorRiskFor(bssid, vendor string) domain.VendorRisk {
	prefix, laa, ok := parseBSSID(bssid)
	if !ok {
		return domain.VendorUnknown
	}

	if _, ok := trustedPrefixes[prefix]; ok {
		return domain.VendorTrusted
	}
	if _, ok := riskyPrefixes[prefix]; ok {
		return domain.VendorRisky
	}

	switch strings.TrimSpace(vendor) {
	case "", "Unknown":
		if laa {
			return domain.VendorMobileHeuristic
		}
		return domain.VendorUnknown
	case "Rogue", "Generic":
		return domain.VendorRisky
	default:
		return domain.VendorUnknown
	}
}

// parseBSSID normalizes a MAC to its bare-hex form and reads the
// locally-administered bit. Accepts colon, dash and dot separated forms.
func parseBSSID(s string) (prefix string, laa bool, ok bool) {
	hex := make([]byte, 0, 12)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'A' && c <= 'F':
			hex = append(hex, c)
		case c >= 'a' && c <= 'f':
			hex = append(hex, c-('a'-'A'))
		case c == ':' || c == '-' || c == '.':
		default:
			return "", false, false
		}
	}
	if len(hex) != 12 {
		return "", false, false
	}
	return string(hex[:6]), hexVal(hex[1])&0x2 != 0, true
}

func hexVal(c byte) byte {
	if c >= 'A' {
		return c - 'A' + 10
	}
	return c - '0'
}

func hasRoguePattern(ssid string) bool {
	for _, re := range roguePatterns {
		if re.MatchString(ssid) {
			return true
		}
	}
	return false
}

// signalCategory returns the index of the last boundary at or below the
// reading: each bucket is lower-inclusive, readings below the first edge
// clamp to 0 and readings at or above the last edge clamp to the top.
func signalCategory(dbm float64) int {
	cat := 0
	for i, edge := range signalBins {
		if dbm >= edge {
			cat = i
		}
	}
	return cat
}

// channelWidth estimates the likely bandwidth class: 2.4 GHz channels run
// 20 MHz, 5 GHz channels typically 40+.
func channelWidth(channel int) int {
	if channel > 14 {
		return 40
	}
	return 20
}

// isDFSChannel reports whether the channel falls in the 5 GHz DFS range
// (52-144), where radar-avoidance rules apply and rogue APs rarely sit.
func isDFSChannel(channel int) bool {
	return channel >= 52 && channel <= 144
}

// Fit computes scaler statistics over the labeled corpus, persists the
// encoder artifact, and returns the scaled design matrix with its label
// column for the trainer.
func (e *Extractor) Fit(samples []domain.LabeledObservation) ([][]float64, []int, error) {
	if len(samples) == 0 {
		return nil, nil, fmt.Errorf("fit: empty training set")
	}

	raw := make([][]float64, len(samples))
	labels := make([]int, len(samples))
	for i, s := range samples {
		obs := s.NetworkObservation
		obs.Normalize()
		raw[i] = Extract(obs).Slice()
		if s.IsSpoof {
			labels[i] = 1
		}
	}

	state := &encoderState{
		Mean:    make([]float64, len(scaledColumns)),
		Std:     make([]float64, len(scaledColumns)),
		Columns: append([]int(nil), scaledColumns...),
		Fitted:  true,
	}

	n := float64(len(raw))
	for ci, col := range scaledColumns {
		var sum float64
		for _, row := range raw {
			sum += row[col]
		}
		mean := sum / n

		var sq float64
		for _, row := range raw {
			d := row[col] - mean
			sq += d * d
		}
		std := math.Sqrt(sq / n)
		if std < 1e-9 {
			std = 1
		}

		state.Mean[ci] = mean
		state.Std[ci] = std
	}

	matrix := make([][]float64, len(raw))
	for i, row := range raw {
		matrix[i] = state.apply(row)
	}

	if err := e.saveState(state); err != nil {
		return nil, nil, err
	}

	e.mu.Lock()
	e.state = state
	e.mu.Unlock()

	return matrix, labels, nil
}

// Transform scales a raw feature slice with the fitted encoder. Returns
// domain.ErrNotFitted when no artifact exists yet.
func (e *Extractor) Transform(raw []float64) ([]float64, error) {
	state, err := e.loadState()
	if err != nil {
		return nil, err
	}
	return state.apply(raw), nil
}

// Fitted reports whether an encoder artifact is available.
func (e *Extractor) Fitted() bool {
	_, err := e.loadState()
	return err == nil
}

func (s *encoderState) apply(raw []float64) []float64 {
	out := append([]float64(nil), raw...)
	for ci, col := range s.Columns {
		if col < len(out) {
			out[col] = (out[col] - s.Mean[ci]) / s.Std[ci]
		}
	}
	return out
}

func (e *Extractor) loadState() (*encoderState, error) {
	e.mu.RLock()
	if e.state != nil {
		s := e.state
		e.mu.RUnlock()
		return s, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != nil {
		return e.state, nil
	}

	f, err := os.Open(e.encoderPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrNotFitted
		}
		return nil, fmt.Errorf("open encoder artifact: %w", err)
	}
	defer f.Close()

	var state encoderState
	if err := gob.NewDecoder(f).Decode(&state); err != nil {
		return nil, fmt.Errorf("decode encoder artifact: %w", err)
	}
	if !state.Fitted {
		return nil, domain.ErrNotFitted
	}

	e.state = &state
	return e.state, nil
}

// saveState writes the artifact atomically: encode to a temp file in the
// same directory, then rename over the target.
func (e *Extractor) saveState(state *encoderState) error {
	dir := filepath.Dir(e.encoderPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "encoder-*.gob")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(state); err != nil {
		tmp.Close()
		return fmt.Errorf("encode encoder artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), e.encoderPath); err != nil {
		return fmt.Errorf("replace encoder artifact: %w", err)
	}
	return nil
}
