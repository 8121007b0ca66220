// Package config holds the GenerationConfig the Orchestrator consumes,
// loaded from YAML in the same Options-plus-per-table-map shape the
// teacher's configuration loader used.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// RepetitionRule describes a block of rows that must be generated with
// specific fixed or once-per-rule-random values before general filling
// begins for a table.
type RepetitionRule struct {
	Count                 int               `yaml:"count"`
	FixedValues            map[string]string `yaml:"fixed_values"`
	RandomConstantColumns  []string          `yaml:"random_constant_columns"`
}

// TableConfig holds the per-table knobs of GenerationConfig.
type TableConfig struct {
	RowsPerTable    int              `yaml:"rows"`
	ExcludedColumns []string         `yaml:"excluded_columns"`
	RepetitionRules []RepetitionRule `yaml:"repetition_rules"`
	PKUuidOverrides []string         `yaml:"pk_uuid_overrides"`
}

// Options carries the run-wide switches of GenerationConfig that are not
// scoped to a single table.
type Options struct {
	Deferred                    bool     `yaml:"deferred"`
	SoftDeleteColumns           []string `yaml:"soft_delete_columns"`
	SoftDeleteUseSchemaDefault  bool     `yaml:"soft_delete_use_schema_default"`
	SoftDeleteValue             string   `yaml:"soft_delete_value"`
	NumericScale                int      `yaml:"numeric_scale"`
	UseLatinDictionary          bool     `yaml:"use_latin_dictionary"`
	UseEnglishDictionary        bool     `yaml:"use_english_dictionary"`
	UseSpanishDictionary        bool     `yaml:"use_spanish_dictionary"`
}

// Config is the YAML-backed GenerationConfig: run-wide Options plus a
// per-table map, mirroring the teacher's Options+Tables split.
type Config struct {
	Options Options                `yaml:"options"`
	Tables  map[string]TableConfig `yaml:"tables"`
}

// Load reads and parses a YAML config file. An empty path returns an empty
// Config rather than an error, matching the teacher's Load/LoadOrDefault
// split.
func Load(path string) (*Config, error) {
	if path == "" {
		return &Config{Tables: make(map[string]TableConfig)}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if cfg.Tables == nil {
		cfg.Tables = make(map[string]TableConfig)
	}
	return &cfg, nil
}

// RowsPerTable returns the configured row target for a table, falling back
// to defaultRows when unset or non-positive.
func (c *Config) RowsPerTable(table string, defaultRows int) int {
	if c == nil {
		return defaultRows
	}
	if tc, ok := c.Tables[table]; ok && tc.RowsPerTable > 0 {
		return tc.RowsPerTable
	}
	return defaultRows
}

// ExcludedColumns returns the set of column names excluded for a table.
func (c *Config) ExcludedColumns(table string) map[string]bool {
	out := make(map[string]bool)
	if c == nil {
		return out
	}
	if tc, ok := c.Tables[table]; ok {
		for _, col := range tc.ExcludedColumns {
			out[col] = true
		}
	}
	return out
}

// RepetitionRules returns the ordered repetition rules for a table.
func (c *Config) RepetitionRules(table string) []RepetitionRule {
	if c == nil {
		return nil
	}
	return c.Tables[table].RepetitionRules
}

// PKUuidOverrides returns the set of PK column names to promote to UUID
// for a table.
func (c *Config) PKUuidOverrides(table string) map[string]bool {
	out := make(map[string]bool)
	if c == nil {
		return out
	}
	if tc, ok := c.Tables[table]; ok {
		for _, col := range tc.PKUuidOverrides {
			out[col] = true
		}
	}
	return out
}

// SoftDeleteColumns returns the configured soft-delete column-name set
// (matched by name across all tables).
func (c *Config) SoftDeleteColumns() map[string]bool {
	out := make(map[string]bool)
	if c == nil {
		return out
	}
	for _, col := range c.Options.SoftDeleteColumns {
		out[col] = true
	}
	return out
}

// NumericScale returns the configured default Decimal scale, capped at 10.
// A zero or negative value, which includes an unset option, yields 2, so a
// default scale of 0 cannot be configured.
func (c *Config) NumericScale() int {
	if c == nil {
		return 2
	}
	s := c.Options.NumericScale
	if s <= 0 {
		return 2
	}
	if s > 10 {
		return 10
	}
	return s
}
