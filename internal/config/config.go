// Package config loads the user-facing .healthscan/config.toml (§6.2),
// generalizing the teacher's DefaultConfig()+struct-tag pattern
// (internal/config/config.go in the teacher) from YAML to TOML per the
// spec's on-disk layout, via github.com/pelletier/go-toml/v2.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config holds every recognized option from §6.2.
type Config struct {
	TargetStrictScore  int               `toml:"target_strict_score"`
	ReviewMaxAgeDays   int               `toml:"review_max_age_days"`
	HolisticMaxAgeDays int               `toml:"holistic_max_age_days"`
	Exclude            []string          `toml:"exclude"`
	Ignore             []string          `toml:"ignore"`
	ZoneOverrides      map[string]string `toml:"zone_overrides"`
	LargeFilesThreshold int              `toml:"large_files_threshold"`
	FindingNoiseBudget  int              `toml:"finding_noise_budget"`
	FindingNoiseGlobalBudget int         `toml:"finding_noise_global_budget"`
	Languages          map[string]LanguageOverride `toml:"languages"`

	// Unknown collects top-level keys the loader doesn't recognize, so
	// callers can log a single lenient warning instead of failing to
	// survive forward schema drift (§6.2).
	Unknown map[string]any `toml:"-"`
}

// LanguageOverride is one entry of the per-language `languages` map.
type LanguageOverride struct {
	LargeFilesThreshold int `toml:"large_files_threshold"`
	ComplexityThreshold int `toml:"complexity_threshold"`
}

// Default returns the default configuration (§6.2 Default column).
func Default() *Config {
	return &Config{
		TargetStrictScore:        95,
		ReviewMaxAgeDays:         30,
		HolisticMaxAgeDays:       30,
		Exclude:                  nil,
		Ignore:                   nil,
		ZoneOverrides:            map[string]string{},
		LargeFilesThreshold:      0,
		FindingNoiseBudget:       10,
		FindingNoiseGlobalBudget: 0,
		Languages:                map[string]LanguageOverride{},
	}
}

// Load reads and parses path. An unparseable config is a fatal error
// (§7 Configuration errors): the caller must abort before scanning.
// Unknown top-level keys are retained in Unknown and never cause a
// parse failure (§6.2 "the loader is lenient").
func Load(path string) (*Config, []string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil, nil
		}
		return nil, nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(raw, cfg); err != nil {
		return nil, nil, fmt.Errorf("config: parse %s: %w (remediation: fix the TOML syntax error and rerun)", path, err)
	}

	var generic map[string]any
	if err := toml.Unmarshal(raw, &generic); err != nil {
		return nil, nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	known := map[string]bool{
		"target_strict_score": true, "review_max_age_days": true, "holistic_max_age_days": true,
		"exclude": true, "ignore": true, "zone_overrides": true, "large_files_threshold": true,
		"finding_noise_budget": true, "finding_noise_global_budget": true, "languages": true,
	}
	var warnings []string
	cfg.Unknown = map[string]any{}
	for k, v := range generic {
		if !known[k] {
			cfg.Unknown[k] = v
			warnings = append(warnings, fmt.Sprintf("config: unrecognized key %q ignored", k))
		}
	}

	return cfg, warnings, nil
}
