// Package config loads the settings of a documentation build from
// defaults, a YAML file, METADOC_* environment variables and flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/phobologic/metadoc/internal/diag"
)

// FileName is the project config file looked up in the source root and
// the working directory.
const FileName = ".metadoc.yml"

// EnvPrefix prefixes the environment variables overriding settings.
const EnvPrefix = "METADOC"

// ErrInvalid is returned when the loaded settings fail validation.
var ErrInvalid = errors.New("invalid configuration")

// Config holds the complete build configuration.
type Config struct {
	Source      string            `mapstructure:"source" yaml:"source" validate:"required,dir"`
	Output      string            `mapstructure:"output" yaml:"output" validate:"required"`
	Format      string            `mapstructure:"format" yaml:"format" validate:"oneof=json yaml"`
	Ignore      []string          `mapstructure:"ignore" yaml:"ignore"`
	Extensions  []string          `mapstructure:"extensions" yaml:"extensions" validate:"min=1,dive,startswith=."`
	MaxFileSize int64             `mapstructure:"max_file_size" yaml:"max_file_size" validate:"gt=0"`
	Workers     int               `mapstructure:"workers" yaml:"workers" validate:"gte=0"`
	SkipTests   bool              `mapstructure:"skip_tests" yaml:"skip_tests"`
	Framework   FrameworkConfig   `mapstructure:"framework" yaml:"framework"`
	Warnings    WarningsConfig    `mapstructure:"warnings" yaml:"warnings"`
	Include     IncludeConfig     `mapstructure:"include" yaml:"include"`
	TagAliases  map[string]string `mapstructure:"tag_aliases" yaml:"tag_aliases"`
}

// FrameworkConfig names the framework tokens recognized in source.
type FrameworkConfig struct {
	Namespace        string `mapstructure:"namespace" yaml:"namespace" validate:"required"`
	Bus              string `mapstructure:"bus" yaml:"bus" validate:"required"`
	ExceptionFactory string `mapstructure:"exception_factory" yaml:"exception_factory" validate:"required"`
}

// WarningsConfig enables the optional diagnostic classes.
type WarningsConfig struct {
	NoCode         bool `mapstructure:"no_code" yaml:"no_code"`
	SkippedEvents  bool `mapstructure:"skipped_events" yaml:"skipped_events"`
	SkippedTags    bool `mapstructure:"skipped_tags" yaml:"skipped_tags"`
	CommentFailure bool `mapstructure:"comment_failure" yaml:"comment_failure"`
}

// IncludeConfig adds optional collections to the output document.
type IncludeConfig struct {
	Requires bool `mapstructure:"requires" yaml:"requires"`
	Globals  bool `mapstructure:"globals" yaml:"globals"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Source:      ".",
		Output:      "docs",
		Format:      "json",
		Extensions:  []string{".js", ".mjs", ".cjs"},
		MaxFileSize: 1_000_000,
		Framework: FrameworkConfig{
			Namespace:        "NGN",
			Bus:              "NGN.BUS",
			ExceptionFactory: "createException",
		},
		Warnings: WarningsConfig{
			SkippedTags:    true,
			CommentFailure: true,
		},
		TagAliases: map[string]string{},
	}
}

// Policy returns the diagnostic policy selected by the warnings section.
func (c *Config) Policy() diag.Policy {
	return diag.Policy{
		NoCode:         c.Warnings.NoCode,
		SkippedEvents:  c.Warnings.SkippedEvents,
		SkippedTags:    c.Warnings.SkippedTags,
		CommentFailure: c.Warnings.CommentFailure,
	}
}

// flagKeys maps CLI flag names to configuration keys.
var flagKeys = map[string]string{
	"source":            "source",
	"output":            "output",
	"format":            "format",
	"ignore":            "ignore",
	"warnnocode":        "warnings.no_code",
	"warnskippedevents": "warnings.skipped_events",
}

// Load resolves the configuration. configFile, when set, must exist.
// Otherwise FileName is looked up in the source root, then in the working
// directory. flags may be nil.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	if configFile == "" {
		configFile = find(v.GetString("source"))
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if cfg.Source != "" {
		abs, err := filepath.Abs(cfg.Source)
		if err != nil {
			return nil, fmt.Errorf("resolving source: %w", err)
		}
		cfg.Source = abs
	}
	for i, ext := range cfg.Extensions {
		cfg.Extensions[i] = strings.ToLower(strings.TrimSpace(ext))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// find returns the first FileName present in source or the working
// directory.
func find(source string) string {
	for _, dir := range []string{source, "."} {
		if dir == "" {
			continue
		}
		p := filepath.Join(dir, FileName)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report settings by their file keys rather than Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the settings against their constraints.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		key := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s (got %v)", key, fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s (got %v)", key, fe.Tag(), fe.Value()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("source", d.Source)
	v.SetDefault("output", d.Output)
	v.SetDefault("format", d.Format)
	v.SetDefault("ignore", d.Ignore)
	v.SetDefault("extensions", d.Extensions)
	v.SetDefault("max_file_size", d.MaxFileSize)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("skip_tests", d.SkipTests)
	v.SetDefault("framework.namespace", d.Framework.Namespace)
	v.SetDefault("framework.bus", d.Framework.Bus)
	v.SetDefault("framework.exception_factory", d.Framework.ExceptionFactory)
	v.SetDefault("warnings.no_code", d.Warnings.NoCode)
	v.SetDefault("warnings.skipped_events", d.Warnings.SkippedEvents)
	v.SetDefault("warnings.skipped_tags", d.Warnings.SkippedTags)
	v.SetDefault("warnings.comment_failure", d.Warnings.CommentFailure)
	v.SetDefault("include.requires", d.Include.Requires)
	v.SetDefault("include.globals", d.Include.Globals)
	v.SetDefault("tag_aliases", d.TagAliases)
}
