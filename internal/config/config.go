package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"patchrebase.dev/patchrebase/internal/patch"
	"patchrebase.dev/patchrebase/internal/policy"
)

// DefaultConfigFile is read when no --config flag is given
const DefaultConfigFile = "patchrebase.yaml"

// Default directories, relative to the config file
const (
	DefaultOldSources = "old_sources"
	DefaultNewSources = "new_sources"
	DefaultOutputDir  = "rebased_sources"
	DefaultPatchDir   = "."
)

// Config is the run configuration
type Config struct {
	OldSources      string        `yaml:"old_sources"`
	NewSources      string        `yaml:"new_sources"`
	OutputDir       string        `yaml:"output_dir"`
	PatchDir        string        `yaml:"patch_dir,omitempty"`
	ResultsDir      string        `yaml:"results_dir,omitempty"`
	FavorOnConflict policy.Favor  `yaml:"favor_on_conflict"`
	NonInteractive  bool          `yaml:"non_interactive"`
	LogFile         string        `yaml:"log_file,omitempty"`
	OldVersion      string        `yaml:"old_version,omitempty"`
	NewVersion      string        `yaml:"new_version,omitempty"`
	Patches         []patch.Entry `yaml:"patches"`

	// baseDir is the directory relative paths are resolved against
	baseDir string
}

// Default returns a configuration with default directories rooted at baseDir
func Default(baseDir string) *Config {
	return &Config{
		OldSources: DefaultOldSources,
		NewSources: DefaultNewSources,
		OutputDir:  DefaultOutputDir,
		PatchDir:   DefaultPatchDir,
		baseDir:    baseDir,
	}
}

// Load reads the configuration at path. A missing file yields the
// defaults rooted at the file's directory.
func Load(path string) (*Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}
	cfg := Default(filepath.Dir(absPath))

	data, err := os.ReadFile(absPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", absPath, err)
	}
	return cfg, nil
}

// Save writes the configuration to path as YAML
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// Resolve turns a configured path into an absolute one
func (c *Config) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.baseDir, path)
}

// Queue builds the patch queue from the configured entries
func (c *Config) Queue() (*patch.Queue, error) {
	return patch.NewQueue(c.Patches)
}

// Validate checks that the configuration can drive a rebase
func (c *Config) Validate() error {
	var errs []error
	if c.OldSources == "" {
		errs = append(errs, errors.New("old_sources is required"))
	}
	if c.NewSources == "" {
		errs = append(errs, errors.New("new_sources is required"))
	}
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output_dir is required"))
	}
	if c.OldSources != "" && c.Resolve(c.OldSources) == c.Resolve(c.NewSources) {
		errs = append(errs, errors.New("old_sources and new_sources must differ"))
	}
	if _, err := c.Queue(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
