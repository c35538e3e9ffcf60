package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/spf13/viper"
)

// EnvVar carries the JSON config written by the Lua plugin when it spawns us.
const EnvVar = "CTAGLINE_CONFIG"

// EnvPrefix scopes per-key overrides, e.g. CTAGLINE_TOOL_PATH.
const EnvPrefix = "CTAGLINE"

// Default values for every recognised option.
const (
	DefaultToolPath        = "ctags"
	DefaultToolArgs        = "--c-kinds=cfsgu --vim-kinds=f --if0=yes"
	DefaultRefreshInterval = 500 // ms
	DefaultMaxDocuments    = 256
	DefaultLogLevel        = "info"
)

// Config is built once at startup and passed by value; nothing mutates it.
type Config struct {
	ToolPath               string `mapstructure:"tool_path"`
	ToolArgs               string `mapstructure:"tool_args"`
	EnableGeneration       bool   `mapstructure:"enable_generation"`
	RegenerateOnSave       bool   `mapstructure:"regenerate_on_save"`
	ShowInStatusLine       bool   `mapstructure:"show_in_status_line"`
	ShowInTitle            bool   `mapstructure:"show_in_title"`
	RefreshInterval        int    `mapstructure:"refresh_interval"` // in milliseconds
	MaxDocuments           int    `mapstructure:"max_documents"`
	LogLevel               string `mapstructure:"log_level"` // trace, debug, info, warn, error
	DebugImmediateShutdown bool   `mapstructure:"debug_immediate_shutdown"`
}

func defaults() map[string]any {
	return map[string]any{
		"tool_path":                DefaultToolPath,
		"tool_args":                DefaultToolArgs,
		"enable_generation":        true,
		"regenerate_on_save":       true,
		"refresh_interval":         DefaultRefreshInterval,
		"max_documents":            DefaultMaxDocuments,
		"log_level":                DefaultLogLevel,
		"debug_immediate_shutdown": false,
	}
}

// LoadFromEnv reads the JSON in EnvVar plus CTAGLINE_* overrides.
func LoadFromEnv() (Config, error) {
	return Load(os.Getenv(EnvVar))
}

// Load decodes raw JSON over the defaults. An empty string means defaults only.
//
// show_in_status_line and show_in_title have no defaults on purpose: when
// neither is given the title is used and the status line is not.
func Load(raw string) (Config, error) {
	v := viper.New()
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetConfigType("json")

	if strings.TrimSpace(raw) != "" {
		if err := v.ReadConfig(strings.NewReader(raw)); err != nil {
			return Config{}, fmt.Errorf("invalid config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	// AutomaticEnv only answers Get for unknown keys; Unmarshal skips them.
	c.ShowInStatusLine = v.GetBool("show_in_status_line")
	c.ShowInTitle = v.GetBool("show_in_title")
	if !v.IsSet("show_in_status_line") && !v.IsSet("show_in_title") {
		c.ShowInTitle = true
	}

	return c, nil
}

// Validate reports the first option that cannot work.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ToolPath) == "" {
		return &Error{Field: "tool_path", Message: "must not be empty"}
	}
	if _, err := c.ToolArgv(); err != nil {
		return &Error{Field: "tool_args", Message: err.Error()}
	}
	if c.RefreshInterval <= 0 {
		return &Error{Field: "refresh_interval", Message: "must be positive"}
	}
	if c.MaxDocuments <= 0 {
		return &Error{Field: "max_documents", Message: "must be positive"}
	}
	return nil
}

// ToolArgv splits ToolArgs the way a shell would.
func (c Config) ToolArgv() ([]string, error) {
	return shlex.Split(c.ToolArgs)
}

// Interval returns RefreshInterval as a duration.
func (c Config) Interval() time.Duration {
	return time.Duration(c.RefreshInterval) * time.Millisecond
}

// Error names the option that failed validation.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
