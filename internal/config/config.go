package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// CurrentVersion is the config schema version written by `orivus init`.
const CurrentVersion = 1

// Config is the content of .orivus/config.json.
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Project     ProjectConfig     `json:"project" mapstructure:"project"`
	Layout      LayoutConfig      `json:"layout" mapstructure:"layout"`
	Specs       SpecsConfig       `json:"specs" mapstructure:"specs"`
	Synth       SynthConfig       `json:"synth" mapstructure:"synth"`
	SchemaSync  SchemaSyncConfig  `json:"schemaSync" mapstructure:"schemaSync"`
	SyntaxCheck SyntaxCheckConfig `json:"syntaxCheck" mapstructure:"syntaxCheck"`
	History     HistoryConfig     `json:"history" mapstructure:"history"`
	Watch       WatchConfig       `json:"watch" mapstructure:"watch"`
	Logging     LoggingConfig     `json:"logging" mapstructure:"logging"`
}

type ProjectConfig struct {
	Name    string `json:"name" mapstructure:"name"`
	Version string `json:"version" mapstructure:"version"`
}

// LayoutConfig locates generated output and the shared registry files,
// relative to the project root.
type LayoutConfig struct {
	DomainDir          string `json:"domainDir" mapstructure:"domainDir"`
	PagesDir           string `json:"pagesDir" mapstructure:"pagesDir"`
	SchemaRegistry     string `json:"schemaRegistry" mapstructure:"schemaRegistry"`
	RouterRegistry     string `json:"routerRegistry" mapstructure:"routerRegistry"`
	NavigationRegistry string `json:"navigationRegistry" mapstructure:"navigationRegistry"`
	// DBModule is the file exporting the database client imported by services.
	DBModule string `json:"dbModule" mapstructure:"dbModule"`
}

// SpecsConfig controls spec discovery when a directory has no manifest.
type SpecsConfig struct {
	Dir     string   `json:"dir" mapstructure:"dir"`
	Include []string `json:"include" mapstructure:"include"`
	Exclude []string `json:"exclude" mapstructure:"exclude"`
}

type SynthConfig struct {
	ConflictSuffix        string   `json:"conflictSuffix" mapstructure:"conflictSuffix"`
	FingerprintExtensions []string `json:"fingerprintExtensions" mapstructure:"fingerprintExtensions"`
}

type SchemaSyncConfig struct {
	Enabled        bool   `json:"enabled" mapstructure:"enabled"`
	Command        string `json:"command" mapstructure:"command"`
	TimeoutSeconds int    `json:"timeoutSeconds" mapstructure:"timeoutSeconds"`
}

type SyntaxCheckConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
}

type HistoryConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" mapstructure:"path"`
}

type WatchConfig struct {
	DebounceMs int      `json:"debounceMs" mapstructure:"debounceMs"`
	Ignore     []string `json:"ignore" mapstructure:"ignore"`
}

type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"` // human or json
	Level  string `json:"level" mapstructure:"level"`
	File   string `json:"file,omitempty" mapstructure:"file"` // relative to .orivus/logs
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Layout: LayoutConfig{
			DomainDir:          "src/domain",
			PagesDir:           "src/app",
			SchemaRegistry:     "prisma/schema.prisma",
			RouterRegistry:     "src/server/trpc/index.ts",
			NavigationRegistry: "src/config/navigation.ts",
			DBModule:           "src/orivus/core/db.ts",
		},
		Specs: SpecsConfig{
			Dir:     "specs",
			Include: []string{"**/*.spec.json", "**/*.spec.yaml", "**/*.spec.yml", "**/*.spec.toml"},
			Exclude: []string{"**/node_modules/**", "**/_*", "**/_*/**"},
		},
		Synth: SynthConfig{
			ConflictSuffix:        ".orivus-new",
			FingerprintExtensions: []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs", ".go"},
		},
		SchemaSync: SchemaSyncConfig{
			Enabled:        true,
			Command:        "npx prisma db push --accept-data-loss",
			TimeoutSeconds: 120,
		},
		SyntaxCheck: SyntaxCheckConfig{Enabled: true},
		History: HistoryConfig{
			Enabled: false,
			Path:    ".orivus/history.db",
		},
		Watch: WatchConfig{
			DebounceMs: 300,
			Ignore:     []string{"**/.git/**", "**/node_modules/**", "**/*.orivus-new"},
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// LoadConfig reads <root>/.orivus/config.json, layering ORIVUS_* environment
// variables over it. A missing file yields the defaults.
func LoadConfig(root string) (*Config, error) {
	v := viper.New()
	if err := setDefaults(v, DefaultConfig()); err != nil {
		return nil, err
	}

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(root, ".orivus"))
	v.SetEnvPrefix("ORIVUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, &ConfigError{Field: "config.json", Message: err.Error()}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ConfigError{Field: "config.json", Message: err.Error()}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key of def so that env overrides and partial
// files resolve against a complete tree.
func setDefaults(v *viper.Viper, def *Config) error {
	data, err := json.Marshal(def)
	if err != nil {
		return err
	}
	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		return err
	}
	for k, val := range tree {
		v.SetDefault(k, val)
	}
	return nil
}

// Save writes the config as indented JSON under <root>/.orivus.
func (c *Config) Save(root string) error {
	dir := filepath.Join(root, ".orivus")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), append(data, '\n'), 0o644)
}

// Exists reports whether <root>/.orivus/config.json is present.
func Exists(root string) bool {
	_, err := os.Stat(filepath.Join(root, ".orivus", "config.json"))
	return err == nil
}

func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: fmt.Sprintf("unsupported config version %d", c.Version)}
	}
	if c.Layout.DomainDir == "" {
		return &ConfigError{Field: "layout.domainDir", Message: "must not be empty"}
	}
	if filepath.IsAbs(c.Layout.DomainDir) {
		return &ConfigError{Field: "layout.domainDir", Message: "must be relative to the project root"}
	}
	if c.Synth.ConflictSuffix == "" {
		return &ConfigError{Field: "synth.conflictSuffix", Message: "must not be empty"}
	}
	for _, ext := range c.Synth.FingerprintExtensions {
		if !strings.HasPrefix(ext, ".") {
			return &ConfigError{Field: "synth.fingerprintExtensions", Message: fmt.Sprintf("%q must start with a dot", ext)}
		}
	}
	if c.SchemaSync.Enabled && strings.TrimSpace(c.SchemaSync.Command) == "" {
		return &ConfigError{Field: "schemaSync.command", Message: "required when schema sync is enabled"}
	}
	if c.SchemaSync.TimeoutSeconds < 0 {
		return &ConfigError{Field: "schemaSync.timeoutSeconds", Message: "must not be negative"}
	}
	if c.Watch.DebounceMs < 0 {
		return &ConfigError{Field: "watch.debounceMs", Message: "must not be negative"}
	}
	switch c.Logging.Format {
	case "", "human", "json":
	default:
		return &ConfigError{Field: "logging.format", Message: fmt.Sprintf("unknown format %q", c.Logging.Format)}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in " + e.Field + ": " + e.Message
}
