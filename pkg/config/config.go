package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/entrhq/formforest/pkg/autofill/classify"
	"github.com/entrhq/formforest/pkg/autofill/form"
)

// Config represents the formforest configuration file
type Config struct {
	// Autofill behavior of the forest
	Autofill AutofillConfig `yaml:"autofill" json:"autofill"`

	// Live page snapshots
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// AutofillConfig configures the forest and the field classifier
type AutofillConfig struct {
	// SensitiveFieldTypes may not be filled from the main frame's origin
	// into frames of other origins. Empty means the built-in set.
	SensitiveFieldTypes []form.FieldType `yaml:"sensitive_field_types" json:"sensitive_field_types"`

	// MaxTreeDepth caps how deep frames are nested when flattening
	MaxTreeDepth int `yaml:"max_tree_depth" json:"max_tree_depth"`

	// ClassifierRules replace the built-in classifier rules when set
	ClassifierRules []classify.Rule `yaml:"classifier_rules,omitempty" json:"classifier_rules,omitempty"`

	// TrustAllOrigins disables the cross-origin fill policy
	TrustAllOrigins bool `yaml:"trust_all_origins" json:"trust_all_origins"`
}

// BrowserConfig configures the playwright session
type BrowserConfig struct {
	Headless bool          `yaml:"headless" json:"headless"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout"`
	Viewport Viewport      `yaml:"viewport" json:"viewport"`
}

// Viewport is the browser window size in CSS pixels
type Viewport struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Verbosity controls logging level: quiet, normal, verbose, debug
	Verbosity string `yaml:"verbosity" json:"verbosity"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Autofill.MaxTreeDepth < 0 {
		return fmt.Errorf("max_tree_depth cannot be negative")
	}

	for _, t := range c.Autofill.SensitiveFieldTypes {
		if !t.IsKnown() {
			return fmt.Errorf("invalid sensitive field type: %s", t)
		}
	}

	if len(c.Autofill.ClassifierRules) > 0 {
		if _, err := classify.New(c.Autofill.ClassifierRules); err != nil {
			return fmt.Errorf("invalid classifier rules: %w", err)
		}
	}

	if c.Browser.Timeout < 0 {
		return fmt.Errorf("browser timeout cannot be negative")
	}

	if c.Browser.Viewport.Width < 0 || c.Browser.Viewport.Height < 0 {
		return fmt.Errorf("viewport dimensions cannot be negative")
	}

	// Set default verbosity if not specified
	if c.Logging.Verbosity == "" {
		c.Logging.Verbosity = "normal"
	}

	validLevels := map[string]bool{
		"quiet":   true,
		"normal":  true,
		"verbose": true,
		"debug":   true,
	}
	if !validLevels[c.Logging.Verbosity] {
		return fmt.Errorf("invalid logging verbosity: %s (must be 'quiet', 'normal', 'verbose', or 'debug')", c.Logging.Verbosity)
	}

	return nil
}

// Classifier returns the field classifier the configuration describes.
func (c *Config) Classifier() (*classify.Classifier, error) {
	if len(c.Autofill.ClassifierRules) == 0 {
		return classify.Default(), nil
	}
	return classify.New(c.Autofill.ClassifierRules)
}

// Debug reports whether debug output is enabled.
func (c *Config) Debug() bool {
	return c.Logging.Verbosity == "debug"
}

// DefaultConfig returns a default configuration suitable for most use cases
func DefaultConfig() *Config {
	return &Config{
		Autofill: AutofillConfig{
			SensitiveFieldTypes: []form.FieldType{
				form.FieldTypeCreditCardNumber,
				form.FieldTypeCreditCardCVC,
			},
			MaxTreeDepth: 64,
		},
		Browser: BrowserConfig{
			Headless: true,
			Timeout:  30 * time.Second,
			Viewport: Viewport{Width: 1280, Height: 800},
		},
		Logging: LoggingConfig{
			Verbosity: "normal",
		},
	}
}

// DefaultPath returns ~/.formforest/config.yaml
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".formforest", "config.yaml"), nil
}

// Load reads the configuration at path on top of DefaultConfig. An empty
// path means DefaultPath. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	config := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return config, nil
}

// Save writes the configuration to path atomically.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp config file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
