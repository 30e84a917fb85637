package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	params "github.com/goliatone/go-params"
)

// Config is the process configuration of paramctl and of hosts that embed
// the store.
type Config struct {
	Path         string        `mapstructure:"path"`
	LegacyPath   string        `mapstructure:"legacy_path"`
	FileMode     string        `mapstructure:"file_mode"`
	Disabled     bool          `mapstructure:"disabled"`
	ReadInterval time.Duration `mapstructure:"read_interval"`
	ForceUpdate  bool          `mapstructure:"force_update"`
	DefaultsFile string        `mapstructure:"defaults_file"`
	Log          LogConfig     `mapstructure:"log"`
	Eval         EvalConfig    `mapstructure:"eval"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	// File, when set, receives a JSON copy of every log record.
	File string `mapstructure:"file"`
}

type EvalConfig struct {
	Engine    string        `mapstructure:"engine"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
	CacheSize uint64        `mapstructure:"cache_size"`
}

// CIEnvVars force Disabled when any of them is present in the environment.
var CIEnvVars = []string{"CI", "TRAVIS"}

func DefaultConfig() *Config {
	return &Config{
		Path:         "/data/params.json",
		FileMode:     "0764",
		ReadInterval: params.DefaultReadInterval,
		Log:          LogConfig{Level: "info"},
		Eval: EvalConfig{
			Engine:    params.EngineExpr,
			CacheTTL:  params.DefaultProgramTTL,
			CacheSize: 256,
		},
	}
}

// Load reads configuration from an optional file and the environment.
// Environment variables use the prefix "PARAMS" and the dot character in keys
// is replaced by an underscore, so "log.level" becomes "PARAMS_LOG_LEVEL".
// When file is empty, paramctl.{yaml,json,toml} in the working directory is
// used if present.
func Load(file string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("paramctl")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("PARAMS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read %s: %w", describeFile(file), err)
		}
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if ciDetected() {
		cfg.Disabled = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields that would otherwise fail late.
func (c *Config) Validate() error {
	if !c.Disabled && strings.TrimSpace(c.Path) == "" {
		return fmt.Errorf("config: path is required unless disabled")
	}
	if _, err := c.Mode(); err != nil {
		return err
	}
	if c.ReadInterval < 0 {
		return fmt.Errorf("config: read_interval must not be negative")
	}
	return nil
}

// Mode parses FileMode as an octal permission string.
func (c *Config) Mode() (fs.FileMode, error) {
	raw := strings.TrimSpace(c.FileMode)
	if raw == "" {
		return 0, nil
	}
	mode, err := strconv.ParseUint(raw, 8, 32)
	if err != nil || mode > 0o777 {
		return 0, fmt.Errorf("config: file_mode %q is not an octal permission", c.FileMode)
	}
	return fs.FileMode(mode), nil
}

// Defaults reads the JSON object in DefaultsFile. No file means no defaults.
func (c *Config) Defaults() (params.Set, error) {
	if c.DefaultsFile == "" {
		return params.Set{}, nil
	}
	raw, err := os.ReadFile(c.DefaultsFile)
	if err != nil {
		return nil, fmt.Errorf("config: defaults: %w", err)
	}
	var defaults params.Set
	if err := json.Unmarshal(raw, &defaults); err != nil {
		return nil, fmt.Errorf("config: defaults %s: %w", c.DefaultsFile, err)
	}
	return defaults, nil
}

// StoreConfig converts c into the library configuration.
func (c *Config) StoreConfig() (params.Config, error) {
	mode, err := c.Mode()
	if err != nil {
		return params.Config{}, err
	}
	defaults, err := c.Defaults()
	if err != nil {
		return params.Config{}, err
	}
	return params.Config{
		Path:         c.Path,
		LegacyPath:   c.LegacyPath,
		FileMode:     mode,
		Disabled:     c.Disabled,
		ReadInterval: c.ReadInterval,
		ForceUpdate:  c.ForceUpdate,
		Defaults:     defaults,
	}, nil
}

// ciDetected reports whether any CI marker is set to a truthy value. Values
// that are not booleans, such as CI=woodpecker, count as set.
func ciDetected() bool {
	for _, name := range CIEnvVars {
		value := strings.TrimSpace(os.Getenv(name))
		if value == "" {
			continue
		}
		if on, err := strconv.ParseBool(value); err != nil || on {
			return true
		}
	}
	return false
}

func describeFile(file string) string {
	if file == "" {
		return "paramctl config"
	}
	return file
}

// bindEnvs registers all keys within cfg so that viper will look up
// corresponding environment variables when unmarshalling.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Pointer {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(append([]string{}, parts...), tag)
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, val.Field(i).Interface(), key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}
