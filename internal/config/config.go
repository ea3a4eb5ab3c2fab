package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/candidash/internal/filter"
	"github.com/KaramelBytes/candidash/internal/source"
)

// Global configuration structure.
type Global struct {
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr" validate:"required"`

	// Data sources
	ProxyURL     string `mapstructure:"proxy_url" yaml:"proxy_url"`
	SheetsAPIKey string `mapstructure:"sheets_api_key" yaml:"sheets_api_key"`
	SheetsRange  string `mapstructure:"sheets_range" yaml:"sheets_range"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec" validate:"gte=1"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts" validate:"gte=1,lte=10"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms" validate:"gte=0"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms" validate:"gtefield=RetryBaseDelayMs"`

	// Dashboard
	MaxExperience float64 `mapstructure:"max_experience" yaml:"max_experience" validate:"gt=0"`
	MaxSalary     float64 `mapstructure:"max_salary" yaml:"max_salary" validate:"gt=0"`
	SalaryTopN    int     `mapstructure:"salary_top_n" yaml:"salary_top_n" validate:"gte=1"`

	// Output
	LogLevel    string `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
	ImageFormat string `mapstructure:"image_format" yaml:"image_format" validate:"oneof=png svg"`
	OutputDir   string `mapstructure:"output_dir" yaml:"output_dir"`

	// Load endpoint limiter
	LoadRatePerSec float64 `mapstructure:"load_rate_per_sec" yaml:"load_rate_per_sec" validate:"gt=0"`
	LoadBurst      int     `mapstructure:"load_burst" yaml:"load_burst" validate:"gte=1"`
}

// Keys lists every settable key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var defaults = map[string]any{
	"listen_addr":         ":8080",
	"proxy_url":           source.DefaultProxy,
	"sheets_api_key":      "",
	"sheets_range":        source.DefaultSheetsRange,
	"http_timeout_sec":    30,
	"retry_max_attempts":  3,
	"retry_base_delay_ms": 500,
	"retry_max_delay_ms":  4000,
	"max_experience":      float64(filter.DefaultMaxExperience),
	"max_salary":          float64(filter.DefaultMaxSalary),
	"salary_top_n":        10,
	"log_level":           "info",
	"image_format":        "png",
	"output_dir":          "",
	"load_rate_per_sec":   1.0,
	"load_burst":          3,
}

// Dir is the per-user config directory, ~/.candidash.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".candidash"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.candidash/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env (CANDIDASH_*) > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("CANDIDASH")
	v.AutomaticEnv()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.OutputDir == "" {
		c.OutputDir = "charts"
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

var validate = validator.New()

// Validate reports every out-of-range field.
func (c *Global) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// Set parses val for key and assigns it, then validates the result.
func (c *Global) Set(key, val string) error {
	prev := *c
	if err := c.set(key, strings.TrimSpace(val)); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		*c = prev
		return err
	}
	return nil
}

func (c *Global) set(key, val string) error {
	strs := map[string]*string{
		"listen_addr":    &c.ListenAddr,
		"proxy_url":      &c.ProxyURL,
		"sheets_api_key": &c.SheetsAPIKey,
		"sheets_range":   &c.SheetsRange,
		"log_level":      &c.LogLevel,
		"image_format":   &c.ImageFormat,
		"output_dir":     &c.OutputDir,
	}
	ints := map[string]*int{
		"http_timeout_sec":    &c.HTTPTimeoutSec,
		"retry_max_attempts":  &c.RetryMaxAttempts,
		"retry_base_delay_ms": &c.RetryBaseDelayMs,
		"retry_max_delay_ms":  &c.RetryMaxDelayMs,
		"salary_top_n":        &c.SalaryTopN,
		"load_burst":          &c.LoadBurst,
	}
	floats := map[string]*float64{
		"max_experience":    &c.MaxExperience,
		"max_salary":        &c.MaxSalary,
		"load_rate_per_sec": &c.LoadRatePerSec,
	}
	if p, ok := strs[key]; ok {
		*p = val
		return nil
	}
	if p, ok := ints[key]; ok {
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int for %s: %v", key, val)
		}
		*p = i
		return nil
	}
	if p, ok := floats[key]; ok {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid float for %s: %v", key, val)
		}
		*p = f
		return nil
	}
	return fmt.Errorf("unknown key: %s", key)
}

// HTTPOptions maps the retry settings onto the URL source.
func (c *Global) HTTPOptions() source.HTTPOptions {
	return source.HTTPOptions{
		Timeout:          time.Duration(c.HTTPTimeoutSec) * time.Second,
		RetryMaxAttempts: c.RetryMaxAttempts,
		RetryBaseDelay:   time.Duration(c.RetryBaseDelayMs) * time.Millisecond,
		RetryMaxDelay:    time.Duration(c.RetryMaxDelayMs) * time.Millisecond,
		ProxyURL:         c.ProxyURL,
	}
}

// Limits returns the slider sentinels.
func (c *Global) Limits() filter.Limits {
	return filter.Limits{MaxExperience: c.MaxExperience, MaxSalary: c.MaxSalary}
}
