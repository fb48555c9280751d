package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Cross-validation schemes accepted by the cv key.
const (
	CVShuffle = "shuffle"
	CVKFold   = "kfold"
)

// Config drives the housing example: where the dataset lives and how models
// are evaluated.
type Config struct {
	DataHome     string
	Download     bool
	SourceURL    string
	Timeout      time.Duration
	Seed         int64
	TestRatio    float64
	CV           string
	CVSplits     int
	MaxDepthMin  int
	MaxDepthMax  int
	Neighbors    int
	LearningRate float64
	BatchSize    int
	LogLevel     string
}

type fileConfig struct {
	DataHome     string  `toml:"data_home"`
	Download     bool    `toml:"download"`
	SourceURL    string  `toml:"source_url"`
	Timeout      string  `toml:"timeout"`
	Seed         int64   `toml:"seed"`
	TestRatio    float64 `toml:"test_ratio"`
	CV           string  `toml:"cv"`
	CVSplits     int     `toml:"cv_splits"`
	MaxDepthMin  int     `toml:"max_depth_min"`
	MaxDepthMax  int     `toml:"max_depth_max"`
	Neighbors    int     `toml:"neighbors"`
	LearningRate float64 `toml:"learning_rate"`
	BatchSize    int     `toml:"batch_size"`
	LogLevel     string  `toml:"log_level"`
}

// Default returns the settings used when no file or key overrides them.
func Default() Config {
	return Config{
		Download:     true,
		SourceURL:    "http://lib.stat.cmu.edu/datasets/boston",
		Timeout:      30 * time.Second,
		Seed:         42,
		TestRatio:    0.2,
		CV:           CVShuffle,
		CVSplits:     10,
		MaxDepthMin:  1,
		MaxDepthMax:  10,
		Neighbors:    5,
		LearningRate: 0.01,
		BatchSize:    32,
		LogLevel:     "info",
	}
}

// Load reads a TOML file and overlays the keys it defines onto Default().
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("load config: unknown keys: %s", strings.Join(keys, ", "))
	}

	if meta.IsDefined("data_home") {
		cfg.DataHome = strings.TrimSpace(raw.DataHome)
	}
	if meta.IsDefined("download") {
		cfg.Download = raw.Download
	}
	if meta.IsDefined("source_url") {
		cfg.SourceURL = strings.TrimSpace(raw.SourceURL)
	}
	if meta.IsDefined("timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Timeout))
		if err != nil {
			return Config{}, fmt.Errorf("parse timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if meta.IsDefined("seed") {
		cfg.Seed = raw.Seed
	}
	if meta.IsDefined("test_ratio") {
		cfg.TestRatio = raw.TestRatio
	}
	if meta.IsDefined("cv") {
		cfg.CV = strings.ToLower(strings.TrimSpace(raw.CV))
	}
	if meta.IsDefined("cv_splits") {
		cfg.CVSplits = raw.CVSplits
	}
	if meta.IsDefined("max_depth_min") {
		cfg.MaxDepthMin = raw.MaxDepthMin
	}
	if meta.IsDefined("max_depth_max") {
		cfg.MaxDepthMax = raw.MaxDepthMax
	}
	if meta.IsDefined("neighbors") {
		cfg.Neighbors = raw.Neighbors
	}
	if meta.IsDefined("learning_rate") {
		cfg.LearningRate = raw.LearningRate
	}
	if meta.IsDefined("batch_size") {
		cfg.BatchSize = raw.BatchSize
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every out-of-range setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.SourceURL == "" {
		errs = append(errs, errors.New("source_url must not be empty"))
	}
	if c.Timeout <= 0 {
		errs = append(errs, errors.New("timeout must be positive"))
	}
	if c.TestRatio <= 0 || c.TestRatio >= 1 {
		errs = append(errs, fmt.Errorf("test_ratio must be in (0, 1), got %v", c.TestRatio))
	}
	if c.CV != CVShuffle && c.CV != CVKFold {
		errs = append(errs, fmt.Errorf("cv must be %q or %q, got %q", CVShuffle, CVKFold, c.CV))
	}
	if c.CVSplits < 2 {
		errs = append(errs, fmt.Errorf("cv_splits must be at least 2, got %d", c.CVSplits))
	}
	if c.MaxDepthMin < 1 || c.MaxDepthMax < c.MaxDepthMin {
		errs = append(errs, fmt.Errorf("need 1 <= max_depth_min <= max_depth_max, got %d..%d", c.MaxDepthMin, c.MaxDepthMax))
	}
	if c.Neighbors < 1 {
		errs = append(errs, fmt.Errorf("neighbors must be at least 1, got %d", c.Neighbors))
	}
	if c.LearningRate <= 0 {
		errs = append(errs, fmt.Errorf("learning_rate must be positive, got %v", c.LearningRate))
	}
	if c.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("batch_size must be at least 1, got %d", c.BatchSize))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Depths lists the tree depths to search, in increasing order.
func (c Config) Depths() []int {
	out := make([]int, 0, c.MaxDepthMax-c.MaxDepthMin+1)
	for d := c.MaxDepthMin; d <= c.MaxDepthMax; d++ {
		out = append(out, d)
	}
	return out
}
