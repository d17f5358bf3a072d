// Package config loads runtime settings from flags with WICHAIN_*
// environment variable fallbacks.
package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config is the resolved runtime configuration.
type Config struct {
	Addr string

	DataDir     string
	DBPath      string
	ChainDBPath string
	OUIDBPath   string
	ModelDir    string

	NATSUrl     string
	NATSSubject string

	APITokenHash string
	Debug        bool
	Tracing      bool

	MinSignal            int
	RogueSSIDs           []string
	RiskyVendors         []string
	DecisionThreshold    int
	HighConfidenceCutoff float64

	DefaultLatitude  float64
	DefaultLongitude float64
}

// ModelPath is where the classifier artifact lives.
func (c Config) ModelPath() string { return filepath.Join(c.ModelDir, "model.gob") }

// EncoderPath is where the feature encoder artifact lives.
func (c Config) EncoderPath() string { return filepath.Join(c.ModelDir, "encoder.gob") }

// Load parses flags and environment into a Config. Flags win over
// environment, environment wins over defaults.
func Load(args []string) (Config, error) {
	defaultDir := defaultDataDir()

	fs := flag.NewFlagSet("wichain", flag.ContinueOnError)

	cfg := Config{}
	fs.StringVar(&cfg.Addr, "addr", envString("WICHAIN_ADDR", ":8080"), "listen address")
	fs.StringVar(&cfg.DataDir, "data-dir", envString("WICHAIN_DATA_DIR", defaultDir), "data directory")
	fs.StringVar(&cfg.DBPath, "db", envString("WICHAIN_DB", ""), "observations database path")
	fs.StringVar(&cfg.ChainDBPath, "chain-db", envString("WICHAIN_CHAIN_DB", ""), "ledger database path")
	fs.StringVar(&cfg.OUIDBPath, "oui-db", envString("WICHAIN_OUI_DB", ""), "OUI registry database path")
	fs.StringVar(&cfg.ModelDir, "model-dir", envString("WICHAIN_MODEL_DIR", ""), "model artifact directory")

	fs.StringVar(&cfg.NATSUrl, "nats-url", envString("WICHAIN_NATS_URL", ""), "NATS server URL (empty disables publishing)")
	fs.StringVar(&cfg.NATSSubject, "nats-subject", envString("WICHAIN_NATS_SUBJECT", "wichain.verdicts"), "NATS subject for spoof verdicts")

	fs.StringVar(&cfg.APITokenHash, "api-token-hash", envString("WICHAIN_API_TOKEN_HASH", ""), "bcrypt hash of the API bearer token (empty disables auth)")
	fs.BoolVar(&cfg.Debug, "debug", envBool("WICHAIN_DEBUG", false), "enable debug logging")
	fs.BoolVar(&cfg.Tracing, "tracing", envBool("WICHAIN_TRACING", false), "enable trace export")

	fs.IntVar(&cfg.MinSignal, "min-signal", envInt("WICHAIN_MIN_SIGNAL", -85), "dBm threshold below which signal is flagged")
	rogues := fs.String("rogue-ssids", envString("WICHAIN_ROGUE_SSIDS", ""), "comma-separated suspicious SSID substrings (empty uses defaults)")
	vendors := fs.String("risky-vendors", envString("WICHAIN_RISKY_VENDORS", ""), "comma-separated risky vendor names (empty uses defaults)")
	fs.IntVar(&cfg.DecisionThreshold, "decision-threshold", envInt("WICHAIN_DECISION_THRESHOLD", 4), "composite score at which a network is called spoofed")
	fs.Float64Var(&cfg.HighConfidenceCutoff, "high-confidence-cutoff", envFloat("WICHAIN_HIGH_CONFIDENCE_CUTOFF", 0.8), "model confidence above which a positive prediction scores double")

	fs.Float64Var(&cfg.DefaultLatitude, "lat", envFloat("WICHAIN_LAT", 0), "default latitude for observations without coordinates")
	fs.Float64Var(&cfg.DefaultLongitude, "lng", envFloat("WICHAIN_LNG", 0), "default longitude for observations without coordinates")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *rogues != "" {
		cfg.RogueSSIDs = splitTrim(*rogues)
	}
	if *vendors != "" {
		cfg.RiskyVendors = splitTrim(*vendors)
	}

	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "networks.db")
	}
	if cfg.ChainDBPath == "" {
		cfg.ChainDBPath = filepath.Join(cfg.DataDir, "chain.db")
	}
	if cfg.OUIDBPath == "" {
		cfg.OUIDBPath = filepath.Join(cfg.DataDir, "oui.db")
	}
	if cfg.ModelDir == "" {
		cfg.ModelDir = filepath.Join(cfg.DataDir, "models")
	}

	if cfg.DecisionThreshold < 1 {
		return Config{}, fmt.Errorf("decision threshold must be positive, got %d", cfg.DecisionThreshold)
	}
	if cfg.HighConfidenceCutoff <= 0 || cfg.HighConfidenceCutoff >= 1 {
		return Config{}, fmt.Errorf("high confidence cutoff must be in (0,1), got %v", cfg.HighConfidenceCutoff)
	}

	return cfg, nil
}

// EnsureDirs creates the data and model directories.
func (c Config) EnsureDirs() error {
	for _, dir := range []string{c.DataDir, c.ModelDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".wichain"
	}
	return filepath.Join(home, ".wichain")
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseBool(v)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(v)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func splitTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
