// Package rules holds the declarative budget configuration (global rules
// plus tag-matched subsets, per metric) and evaluates it against a diff
// to produce a pass/skip/fail verdict tree (§4.5, §6).
package rules

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/pelletier/go-toml/v2"

	"github.com/binbudget/git-metrics/internal/entity"
)

// RuleType discriminates the four budget rule shapes. The wire format
// disambiguates MaxIncrease/MaxDecrease's Absolute vs Relative payload by
// field presence (`value` vs `ratio`), not by a nested tag, so Rule
// carries both as optional fields rather than an embedded sum type.
type RuleType string

const (
	RuleMax         RuleType = "max"
	RuleMin         RuleType = "min"
	RuleMaxIncrease RuleType = "max-increase"
	RuleMaxDecrease RuleType = "max-decrease"
)

// ErrAmbiguousRule is returned by Rule.Validate when a rule does not carry
// the bound its type needs: a max-increase/max-decrease rule with neither
// or both of value/ratio, a max/min rule with no value, or an unknown type.
var ErrAmbiguousRule = errors.New("rules: max-increase/max-decrease rule must set exactly one of value or ratio")

// Rule is one budget check: Max/Min compare the current value directly
// against Value; MaxIncrease/MaxDecrease compare the delta against
// either Value (absolute) or Ratio (relative), whichever is set.
type Rule struct {
	Type  RuleType `toml:"type"`
	Value *float64 `toml:"value,omitempty"`
	Ratio *float64 `toml:"ratio,omitempty"`
}

// IsRelative reports whether this is a ratio-based change rule.
func (r Rule) IsRelative() bool { return r.Ratio != nil }

// Validate checks that a rule carries the bound its Type requires: Max
// and Min always compare against Value, so it must be set; MaxIncrease
// and MaxDecrease compare against exactly one of Value (absolute) or
// Ratio (relative), never neither or both.
func (r Rule) Validate() error {
	switch r.Type {
	case RuleMax, RuleMin:
		if r.Value == nil {
			return fmt.Errorf("%w: got type=%s with no value", ErrAmbiguousRule, r.Type)
		}
	case RuleMaxIncrease, RuleMaxDecrease:
		if (r.Value == nil) == (r.Ratio == nil) {
			return fmt.Errorf("%w: got type=%s value=%v ratio=%v", ErrAmbiguousRule, r.Type, r.Value, r.Ratio)
		}
	default:
		return fmt.Errorf("%w: unknown rule type %q", ErrAmbiguousRule, r.Type)
	}
	return nil
}

// MaxRule builds an absolute Max rule, for test fixtures and programmatic
// config construction.
func MaxRule(value float64) Rule { return Rule{Type: RuleMax, Value: &value} }

// MinRule builds an absolute Min rule.
func MinRule(value float64) Rule { return Rule{Type: RuleMin, Value: &value} }

// MaxAbsoluteIncrease builds an absolute MaxIncrease rule.
func MaxAbsoluteIncrease(value float64) Rule { return Rule{Type: RuleMaxIncrease, Value: &value} }

// MaxRelativeIncrease builds a ratio-based MaxIncrease rule.
func MaxRelativeIncrease(ratio float64) Rule { return Rule{Type: RuleMaxIncrease, Ratio: &ratio} }

// MaxAbsoluteDecrease builds an absolute MaxDecrease rule.
func MaxAbsoluteDecrease(value float64) Rule { return Rule{Type: RuleMaxDecrease, Value: &value} }

// MaxRelativeDecrease builds a ratio-based MaxDecrease rule.
func MaxRelativeDecrease(ratio float64) Rule { return Rule{Type: RuleMaxDecrease, Ratio: &ratio} }

// SubsetConfig scopes a subset of rules to metrics whose tags include
// every pair in Matching (extra tags on the metric do not prevent a match).
type SubsetConfig struct {
	Matching map[string]string `toml:"matching,omitempty"`
	Rules    []Rule            `toml:"rules,omitempty"`
}

// Matches reports whether header carries every (key, value) pair in
// Matching.
func (s SubsetConfig) Matches(header entity.MetricHeader) bool {
	for key, value := range s.Matching {
		v, ok := header.Tags.Get(key)
		if !ok || v != value {
			return false
		}
	}
	return true
}

// UnitScale selects the humanize scale family used to format a metric's
// value for display.
type UnitScale string

const (
	ScaleSI     UnitScale = "si"
	ScaleBinary UnitScale = "binary"
)

// Unit controls display formatting only; it has no effect on rule
// evaluation.
type Unit struct {
	Scale    UnitScale `toml:"scale,omitempty"`
	Suffix   string    `toml:"suffix,omitempty"`
	Decimals *int      `toml:"decimals,omitempty"`
}

// Format renders value per this unit's scale/suffix/decimals, using
// go-humanize as the SI/binary formatter (the Go analogue of the
// original's human_number crate). Decimals applies to the SI and default
// scales only; the binary scale uses humanize.IBytes's fixed precision.
func (u Unit) Format(value float64) string {
	decimals := 2
	if u.Decimals != nil {
		decimals = *u.Decimals
	}
	var rendered string
	switch u.Scale {
	case ScaleSI:
		rendered = humanize.SIWithDigits(value, decimals, "")
	case ScaleBinary:
		if value < 0 {
			rendered = "-" + humanize.IBytes(uint64(-value))
		} else {
			rendered = humanize.IBytes(uint64(value))
		}
	default:
		rendered = humanize.FormatFloat(decimalsFormat(decimals), value)
	}
	if u.Suffix != "" {
		rendered += u.Suffix
	}
	return rendered
}

func decimalsFormat(decimals int) string {
	return fmt.Sprintf("#,###.%s", repeatZero(decimals))
}

func repeatZero(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = '0'
	}
	return string(b)
}

// MetricConfig is the full rule set configured for one metric name:
// global rules, tag-scoped subsets, and display unit.
type MetricConfig struct {
	Rules   []Rule                  `toml:"rules,omitempty"`
	Subsets map[string]SubsetConfig `toml:"subsets,omitempty"`
	Unit    Unit                    `toml:"unit,omitempty"`
}

// Config is the top-level `.git-metrics.toml` document: one MetricConfig
// per monitored metric name.
type Config struct {
	Metrics map[string]MetricConfig `toml:"metrics,omitempty"`
}

// Formatter returns the Unit configured for metricName, or the zero Unit
// (undecorated default formatting) if the metric is not configured.
func (c Config) Formatter(metricName string) Unit {
	if mc, ok := c.Metrics[metricName]; ok {
		return mc.Unit
	}
	return Unit{}
}

const configFileName = ".git-metrics.toml"

// FromPath parses a config document read from path.
func FromPath(path string) (Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("rules: reading %s: %w", path, err)
	}
	var cfg Config
	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("rules: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("rules: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every global and subset rule across all configured
// metrics, so a malformed document (e.g. a max-increase rule with
// neither value nor ratio) is rejected at load time rather than
// panicking on its first evaluation.
func (c Config) Validate() error {
	names := make([]string, 0, len(c.Metrics))
	for name := range c.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		metric := c.Metrics[name]
		for _, rule := range metric.Rules {
			if err := rule.Validate(); err != nil {
				return fmt.Errorf("metric %q: %w", name, err)
			}
		}
		subsetNames := make([]string, 0, len(metric.Subsets))
		for subsetName := range metric.Subsets {
			subsetNames = append(subsetNames, subsetName)
		}
		sort.Strings(subsetNames)
		for _, subsetName := range subsetNames {
			for _, rule := range metric.Subsets[subsetName].Rules {
				if err := rule.Validate(); err != nil {
					return fmt.Errorf("metric %q subset %q: %w", name, subsetName, err)
				}
			}
		}
	}
	return nil
}

// FromRootPath loads the config at <root>/.git-metrics.toml, or returns
// the zero Config if that file does not exist — absence is not an error.
func FromRootPath(root string) (Config, error) {
	path := filepath.Join(root, configFileName)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("rules: checking %s: %w", path, err)
	}
	return FromPath(path)
}

// WriteSample writes the commented sample config to <root>/.git-metrics.toml,
// for `git-metrics init`.
func WriteSample(root string) error {
	path := filepath.Join(root, configFileName)
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}

const sampleConfig = `# For every metric you want to monitor, you need to add an entry
# [metrics.metric_name.unit]
# # This scale can be "si" for International System of Units or "binary" (optional)
# scale = "si"
# # Any string that will be added as a suffix (optional)
# suffix = "B"
# # Number of decimals for every number (optional)
# decimals = 3
#
# # Set of rules for the unit budget.
# [[metrics.metric_name.rules]]
# type = "max"
# value = 12.34
#
# [[metrics.metric_name.rules]]
# type = "min"
# value = 1.234
#
# [[metrics.metric_name.rules]]
# type = "max-decrease"
# # the metric cannot decrease of more than 5%
# ratio = 0.05
#
# [[metrics.metric_name.rules]]
# type = "max-decrease"
# # the metric cannot decrease of more than 1.234
# value = 1.234
#
# [[metrics.metric_name.rules]]
# type = "max-increase"
# # the metric cannot increase of more than 5%
# ratio = 0.05
#
# [[metrics.metric_name.rules]]
# type = "max-increase"
# # the metric cannot increase of more than 1.234
# value = 1.234
`
