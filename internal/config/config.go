// Package config loads the server configuration from a YAML or JSON file with
// environment overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/arx-deidentifier/arx-sub007/internal/dataset"
	"github.com/arx-deidentifier/arx-sub007/internal/engine"
	"github.com/arx-deidentifier/arx-sub007/internal/history"
	"github.com/arx-deidentifier/arx-sub007/internal/logging"
	"github.com/arx-deidentifier/arx-sub007/internal/privacy"
)

var (
	// ErrMissingHierarchy indicates a quasi-identifier without a hierarchy file.
	ErrMissingHierarchy = errors.New("config: quasi-identifier has no hierarchy")
	// ErrUnknownColumn indicates a microaggregation of a column that is not analyzed.
	ErrUnknownColumn = errors.New("config: column is not an analyzed column")
	// ErrUnknownFunction indicates an unsupported aggregate function.
	ErrUnknownFunction = errors.New("config: unknown aggregate function")
)

var validate = validator.New()

// Config is the complete server configuration.
type Config struct {
	Data    DataConfig     `yaml:"data" json:"data"`
	Privacy PrivacyConfig  `yaml:"privacy" json:"privacy"`
	Metric  string         `yaml:"metric" json:"metric" validate:"oneof=discernibility precision"`
	History history.Budget `yaml:"history" json:"history"`
	Checker CheckerConfig  `yaml:"checker" json:"checker"`
	Server  ServerConfig   `yaml:"server" json:"server"`
	Logging logging.Config `yaml:"logging" json:"logging"`
}

// DataConfig locates the input and its hierarchies.
type DataConfig struct {
	Path             string   `yaml:"path" json:"path" validate:"required"`
	Delimiter        string   `yaml:"delimiter" json:"delimiter" validate:"omitempty,len=1"`
	QuasiIdentifiers []string `yaml:"quasi_identifiers" json:"quasi_identifiers" validate:"required,min=1,dive,required"`
	Analyzed         []string `yaml:"analyzed" json:"analyzed" validate:"dive,required"`
	// Hierarchies maps each quasi-identifier to its hierarchy file.
	Hierarchies map[string]string `yaml:"hierarchies" json:"hierarchies" validate:"required,dive,keys,required,endkeys,required"`
	// Workers parses the input in parallel; 0 uses every CPU.
	Workers int `yaml:"workers" json:"workers" validate:"gte=0"`
}

// PrivacyConfig describes the privacy model.
type PrivacyConfig struct {
	Criteria []privacy.Criterion `yaml:"criteria" json:"criteria" validate:"required,min=1,dive"`
	// SuppressionLimit is the fraction of rows that may be suppressed.
	SuppressionLimit         float64 `yaml:"suppression_limit" json:"suppression_limit" validate:"gte=0,lte=1"`
	MinimalClassSize         int     `yaml:"minimal_class_size" json:"minimal_class_size" validate:"gte=0"`
	SuppressionAlwaysEnabled bool    `yaml:"suppression_always_enabled" json:"suppression_always_enabled"`
}

// CheckerConfig tunes evaluation.
type CheckerConfig struct {
	Transformer      engine.TransformerConfig `yaml:"transformer" json:"transformer"`
	Trigger          engine.StorageTrigger    `yaml:"storage_trigger" json:"storage_trigger" validate:"omitempty,oneof=all not_anonymous"`
	LoadFactor       float64                  `yaml:"load_factor" json:"load_factor" validate:"gte=0,lt=1"`
	InitialCapacity  int                      `yaml:"initial_capacity" json:"initial_capacity" validate:"gte=0"`
	Microaggregation []MicroaggregationConfig `yaml:"microaggregation" json:"microaggregation" validate:"dive"`
}

// MicroaggregationConfig aggregates one analyzed column per class.
type MicroaggregationConfig struct {
	Column   string `yaml:"column" json:"column" validate:"required"`
	Function string `yaml:"function" json:"function" validate:"required,oneof=mean median mode"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr" validate:"required"`
}

// Default returns the configuration used for fields not set elsewhere.
func Default() Config {
	return Config{
		Privacy: PrivacyConfig{
			Criteria: []privacy.Criterion{{Name: "k-anonymity", K: 2}},
		},
		Metric:  "discernibility",
		History: history.DefaultBudget(),
		Checker: CheckerConfig{
			Transformer: engine.TransformerConfig{Workers: 1, MinPartitionSize: engine.DefaultMinPartitionSize},
			Trigger:     engine.TriggerAll,
		},
		Server:  ServerConfig{Addr: ":8080"},
		Logging: logging.DefaultConfig(),
	}
}

// Load reads path over the defaults, applies ANON_* environment overrides and
// validates the result. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return fmt.Errorf("parse config (tried YAML and JSON): YAML error: %v, JSON error: %w", err, jsonErr)
		}
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ANON_DATA_PATH"); v != "" {
		cfg.Data.Path = v
	}
	if v := os.Getenv("ANON_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("ANON_METRIC"); v != "" {
		cfg.Metric = v
	}
	if v := os.Getenv("ANON_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("ANON_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("ANON_WORKERS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Checker.Transformer.Workers = i
		}
	}
	if v := os.Getenv("ANON_HISTORY_MAX_ENTRIES"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.History.MaxEntries = i
		}
	}
	if v := os.Getenv("ANON_SUPPRESSION_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Privacy.SuppressionLimit = f
		}
	}
}

// Validate checks field constraints and that every quasi-identifier has a
// hierarchy.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	for _, qi := range c.Data.QuasiIdentifiers {
		if _, ok := c.Data.Hierarchies[qi]; !ok {
			return fmt.Errorf("%q: %w", qi, ErrMissingHierarchy)
		}
	}
	return nil
}

// Schema returns the columns to load.
func (d DataConfig) Schema() dataset.Schema {
	s := dataset.Schema{
		QuasiIdentifiers: d.QuasiIdentifiers,
		Analyzed:         d.Analyzed,
		Workers:          d.Workers,
	}
	if d.Delimiter != "" {
		s.Delimiter = d.Delimiter[0]
	}
	return s
}

// HierarchyFiles returns the hierarchy paths in quasi-identifier order.
func (d DataConfig) HierarchyFiles() []string {
	files := make([]string, len(d.QuasiIdentifiers))
	for i, qi := range d.QuasiIdentifiers {
		files[i] = d.Hierarchies[qi]
	}
	return files
}
