// Package config builds the service configuration from defaults, an optional
// YAML file (CONFIG_FILE) and environment variables, in that order of
// precedence, lowest first.
//
// The resulting Config is a plain value: it is handed to the clients at
// construction and never mutated afterwards.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/manzanit0/mobacesso/pkg/geocode"
	"github.com/manzanit0/mobacesso/pkg/navigation"
	"github.com/manzanit0/mobacesso/pkg/routing"
	"github.com/manzanit0/mobacesso/pkg/whttp"
)

// ConfigError points at the offending setting.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: field %q: %s", e.Field, e.Message)
}

type Config struct {
	Port        int    `yaml:"port"`
	DatabaseURL string `yaml:"database_url"`
	Debug       bool   `yaml:"debug"`

	NominatimURL   string `yaml:"nominatim_url"`
	OSRMURL        string `yaml:"osrm_url"`
	UserAgent      string `yaml:"user_agent"`
	AcceptLanguage string `yaml:"accept_language"`
	CountryCode    string `yaml:"country_code"`
	SearchLimit    int    `yaml:"search_limit"`

	FetchTimeout     time.Duration `yaml:"fetch_timeout"`
	FetchAttempts    int           `yaml:"fetch_attempts"`
	FetchBackoffStep time.Duration `yaml:"fetch_backoff_step"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
}

func Default() Config {
	return Config{
		Port:             3000,
		NominatimURL:     geocode.DefaultNominatimURL,
		OSRMURL:          routing.DefaultOSRMURL,
		UserAgent:        "MobiAcess/1.0",
		AcceptLanguage:   "pt-BR,pt;q=0.9",
		CountryCode:      navigation.DefaultCountryCode,
		SearchLimit:      navigation.DefaultSearchLimit,
		FetchTimeout:     whttp.DefaultTimeout,
		FetchAttempts:    whttp.DefaultMaxAttempts,
		FetchBackoffStep: whttp.DefaultBackoffStep,
		RequestTimeout:   30 * time.Second,
	}
}

// Load reads the configuration. Unset variables keep their defaults.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.mergeEnv(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return &ConfigError{Field: "CONFIG_FILE", Message: err.Error()}
	}

	if err := yaml.Unmarshal(b, c); err != nil {
		return &ConfigError{Field: "CONFIG_FILE", Message: fmt.Sprintf("invalid yaml: %s", err.Error())}
	}

	return nil
}

func (c *Config) mergeEnv() error {
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.NominatimURL, "NOMINATIM_URL")
	setString(&c.OSRMURL, "OSRM_URL")
	setString(&c.UserAgent, "USER_AGENT")
	setString(&c.AcceptLanguage, "ACCEPT_LANGUAGE")
	setString(&c.CountryCode, "COUNTRY_CODE")

	var errs []error
	errs = append(errs,
		setInt(&c.Port, "PORT"),
		setInt(&c.SearchLimit, "SEARCH_LIMIT"),
		setInt(&c.FetchAttempts, "FETCH_ATTEMPTS"),
		setDuration(&c.FetchTimeout, "FETCH_TIMEOUT"),
		setDuration(&c.FetchBackoffStep, "FETCH_BACKOFF_STEP"),
		setDuration(&c.RequestTimeout, "REQUEST_TIMEOUT"),
		setBool(&c.Debug, "DEBUG"),
	)

	return errors.Join(errs...)
}

// Validate checks the invariants the rest of the service relies on.
func (c Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, &ConfigError{Field: "PORT", Message: "must be between 1 and 65535"})
	}
	if c.NominatimURL == "" {
		errs = append(errs, &ConfigError{Field: "NOMINATIM_URL", Message: "cannot be empty"})
	}
	if c.OSRMURL == "" {
		errs = append(errs, &ConfigError{Field: "OSRM_URL", Message: "cannot be empty"})
	}
	if c.UserAgent == "" {
		errs = append(errs, &ConfigError{Field: "USER_AGENT", Message: "cannot be empty, nominatim rejects anonymous clients"})
	}
	if len(c.CountryCode) != 0 && len(c.CountryCode) != 2 {
		errs = append(errs, &ConfigError{Field: "COUNTRY_CODE", Message: "must be a two letter country code"})
	}
	if c.SearchLimit < 1 || c.SearchLimit > 50 {
		errs = append(errs, &ConfigError{Field: "SEARCH_LIMIT", Message: "must be between 1 and 50"})
	}
	if c.FetchAttempts < 1 {
		errs = append(errs, &ConfigError{Field: "FETCH_ATTEMPTS", Message: "must be at least 1"})
	}
	if c.FetchTimeout <= 0 {
		errs = append(errs, &ConfigError{Field: "FETCH_TIMEOUT", Message: "must be positive"})
	}
	if c.FetchBackoffStep < 0 {
		errs = append(errs, &ConfigError{Field: "FETCH_BACKOFF_STEP", Message: "cannot be negative"})
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, &ConfigError{Field: "REQUEST_TIMEOUT", Message: "must be positive"})
	}

	return errors.Join(errs...)
}

func (c Config) Identity() whttp.Identity {
	return whttp.Identity{UserAgent: c.UserAgent, AcceptLanguage: c.AcceptLanguage}
}

func (c Config) Geocode() geocode.Config {
	return geocode.Config{BaseURL: c.NominatimURL, Identity: c.Identity()}
}

func (c Config) Routing() routing.Config {
	return routing.Config{BaseURL: c.OSRMURL, Identity: c.Identity()}
}

func (c Config) Navigation() navigation.Config {
	return navigation.Config{SearchLimit: c.SearchLimit, CountryCode: strings.ToLower(c.CountryCode)}
}

func (c Config) FetcherOptions() []whttp.FetcherOption {
	return []whttp.FetcherOption{
		whttp.WithMaxAttempts(c.FetchAttempts),
		whttp.WithAttemptTimeout(c.FetchTimeout),
		whttp.WithBackoffStep(c.FetchBackoffStep),
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return &ConfigError{Field: key, Message: "must be a valid integer"}
	}

	*dst = v
	return nil
}

// setDuration accepts Go duration strings like "10s" or "1500ms".
func setDuration(dst *time.Duration, key string) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return &ConfigError{Field: key, Message: "must be a duration such as 10s or 500ms"}
	}

	*dst = v
	return nil
}

func setBool(dst *bool, key string) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return &ConfigError{Field: key, Message: "must be true or false"}
	}

	*dst = v
	return nil
}
