package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// FileName is the project config looked up in the current directory.
const FileName = ".ccheck.yaml"

// EnvPrefix prefixes environment overrides, e.g. CCHECK_COMPILER.
const EnvPrefix = "CCHECK"

// ToolchainPolicy decides what a toolchain failure does to the rest of a run.
type ToolchainPolicy string

const (
	// ToolchainContinue skips the failing fixture and keeps going.
	ToolchainContinue ToolchainPolicy = "continue"
	// ToolchainAbort stops the run on the first toolchain failure, the way
	// the old harness scripts did.
	ToolchainAbort ToolchainPolicy = "abort"
)

type Config struct {
	SourceDir          string          `mapstructure:"source_dir" yaml:"source_dir"`
	SourceSuffix       string          `mapstructure:"source_suffix" yaml:"source_suffix"`
	Compiler           string          `mapstructure:"compiler" yaml:"compiler"`
	Toolchain          string          `mapstructure:"toolchain" yaml:"toolchain"`
	ToolchainArgs      []string        `mapstructure:"toolchain_args" yaml:"toolchain_args,omitempty"`
	WordWidth          int             `mapstructure:"word_width" yaml:"word_width"`
	StagingDir         string          `mapstructure:"staging_dir" yaml:"staging_dir,omitempty"`
	OutputDir          string          `mapstructure:"output_dir" yaml:"output_dir,omitempty"`
	Timeout            time.Duration   `mapstructure:"timeout" yaml:"-"`
	Workers            int             `mapstructure:"workers" yaml:"workers"`
	OnToolchainFailure ToolchainPolicy `mapstructure:"on_toolchain_failure" yaml:"on_toolchain_failure"`
	KeepArtifacts      bool            `mapstructure:"keep_artifacts" yaml:"keep_artifacts,omitempty"`
	Filter             string          `mapstructure:"filter" yaml:"filter,omitempty"`
	Report             string          `mapstructure:"report" yaml:"report,omitempty"`
}

// flagKeys maps config keys to the command-line flags that override them.
var flagKeys = map[string]string{
	"source_dir":           "source-dir",
	"source_suffix":        "suffix",
	"compiler":             "compiler",
	"toolchain":            "toolchain",
	"toolchain_args":       "toolchain-arg",
	"word_width":           "word-width",
	"staging_dir":          "staging-dir",
	"output_dir":           "output-dir",
	"timeout":              "timeout",
	"workers":              "workers",
	"on_toolchain_failure": "on-toolchain-failure",
	"keep_artifacts":       "keep-artifacts",
	"filter":               "filter",
	"report":               "report",
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		SourceDir:          ".",
		SourceSuffix:       ".c",
		Toolchain:          "gcc",
		ToolchainArgs:      []string{},
		WordWidth:          64,
		Timeout:            10 * time.Second,
		Workers:            1,
		OnToolchainFailure: ToolchainContinue,
	}
}

func setDefaults(v *viper.Viper) {
	def := Default()
	v.SetDefault("source_dir", def.SourceDir)
	v.SetDefault("source_suffix", def.SourceSuffix)
	v.SetDefault("compiler", def.Compiler)
	v.SetDefault("toolchain", def.Toolchain)
	v.SetDefault("toolchain_args", def.ToolchainArgs)
	v.SetDefault("word_width", def.WordWidth)
	v.SetDefault("staging_dir", def.StagingDir)
	v.SetDefault("output_dir", def.OutputDir)
	v.SetDefault("timeout", def.Timeout)
	v.SetDefault("workers", def.Workers)
	v.SetDefault("on_toolchain_failure", string(def.OnToolchainFailure))
	v.SetDefault("keep_artifacts", def.KeepArtifacts)
	v.SetDefault("filter", def.Filter)
	v.SetDefault("report", def.Report)
}

// Load builds the configuration from, lowest precedence first: defaults,
// the config file, CCHECK_* environment variables and the flags in fs that
// were set on the command line.
//
// configFile names an explicit file; when empty, FileName is looked up in the
// current directory and silently skipped if absent.
func Load(configFile string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(strings.TrimSuffix(FileName, ".yaml"))
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if fs != nil {
		for key, name := range flagKeys {
			flag := fs.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings a run cannot do without.
func (cfg *Config) Validate() error {
	var errs []error

	if cfg.Compiler == "" {
		errs = append(errs, errors.New("no compiler configured. Pass --compiler or set it in "+FileName))
	}
	if cfg.SourceSuffix == "" {
		errs = append(errs, errors.New("source suffix cannot be empty"))
	}
	if cfg.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", cfg.Timeout))
	}
	if cfg.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", cfg.Workers))
	}
	if cfg.WordWidth < 0 {
		errs = append(errs, fmt.Errorf("word width cannot be negative, got %d", cfg.WordWidth))
	}
	switch cfg.OnToolchainFailure {
	case ToolchainContinue, ToolchainAbort:
	default:
		errs = append(errs, fmt.Errorf("unknown toolchain failure policy %q (want %q or %q)",
			cfg.OnToolchainFailure, ToolchainContinue, ToolchainAbort))
	}

	return errors.Join(errs...)
}

// Save writes cfg to path as YAML, refusing to replace an existing file
// unless overwrite is set.
func Save(path string, cfg *Config, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(newSavedConfig(cfg)); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}

// savedConfig is Config as written to disk, with the timeout spelled as a
// duration string ("10s") instead of nanoseconds.
type savedConfig struct {
	Config  `yaml:",inline"`
	Timeout string `yaml:"timeout"`
}

func newSavedConfig(cfg *Config) savedConfig {
	return savedConfig{Config: *cfg, Timeout: cfg.Timeout.String()}
}
