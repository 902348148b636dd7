package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds settings shared by the toolkit binaries.
type Config struct {
	// PluginName is the directory name the plugin is packaged and installed under.
	PluginName string `yaml:"plugin_name"`
	// UpdateFolder is the URL where update artifacts are hosted.
	UpdateFolder string `yaml:"update_folder"`
	// Timeout is the duration for network operations.
	Timeout time.Duration `yaml:"timeout"`
}

const (
	// DefaultConfigFilename is the default filename for toolkit settings.
	DefaultConfigFilename = "plugin-kit-settings.yaml"

	// DefaultPluginName matches the scaffolding template directory shipped to developers.
	DefaultPluginName = "plugin_template"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errPluginNameRequired is returned when the plugin name is missing.
	errPluginNameRequired = errors.New("plugin name must be provided")
	// errPluginNameInvalid is returned when the plugin name contains path separators.
	errPluginNameInvalid = errors.New("plugin name must not contain path separators")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and formatting.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.PluginName == "" {
		return errPluginNameRequired
	}

	if strings.ContainsAny(cfg.PluginName, `/\`) {
		return fmt.Errorf("%w: %s", errPluginNameInvalid, cfg.PluginName)
	}

	// Set default timeout if not specified.
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.UpdateFolder == "" {
		return nil
	}

	if _, err := url.ParseRequestURI(cfg.UpdateFolder); err != nil {
		return fmt.Errorf("invalid update folder URI: %w", err)
	}

	return nil
}
