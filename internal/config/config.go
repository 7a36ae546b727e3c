// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for pipdeck.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.pipdeck/config.toml
//   - ~/.pipdeck/config.json
//   - Built-in defaults
package config

import (
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/pipdeck/internal/api"
	"github.com/jeranaias/pipdeck/internal/model"
	"github.com/jeranaias/pipdeck/internal/tasks"
	"github.com/jeranaias/pipdeck/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete pipdeck configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	Server  ServerConfig  `toml:"server" json:"server"`
	Monitor MonitorConfig `toml:"monitor" json:"monitor"`
	Refresh RefreshConfig `toml:"refresh" json:"refresh"`
	Storage StorageConfig `toml:"storage" json:"storage"`
	UI      UIConfig      `toml:"ui" json:"ui"`
	Logging LoggingConfig `toml:"logging" json:"logging"`
}

// ServerConfig points the client at the package-management server.
type ServerConfig struct {
	// BaseURL is the API root, including the /api prefix
	BaseURL string `toml:"base_url" json:"base_url"`

	// RequestTimeout aborts any single HTTP request
	RequestTimeout Duration `toml:"request_timeout" json:"request_timeout"`

	// RateLimit in requests per second; negative disables limiting
	RateLimit float64 `toml:"rate_limit" json:"rate_limit"`

	// UseCache asks the server for its cached dependency list on reload
	UseCache bool `toml:"use_cache" json:"use_cache"`
}

// MonitorConfig tunes task progress polling.
type MonitorConfig struct {
	PollInterval            Duration `toml:"poll_interval" json:"poll_interval"`
	SafetyTimeout           Duration `toml:"safety_timeout" json:"safety_timeout"`
	MaxConsecutiveErrors    int      `toml:"max_consecutive_errors" json:"max_consecutive_errors"`
	CompletionStagnantTicks int      `toml:"completion_stagnant_ticks" json:"completion_stagnant_ticks"`
	AdvisoryStagnantTicks   int      `toml:"advisory_stagnant_ticks" json:"advisory_stagnant_ticks"`
}

// RefreshConfig controls the description-update poll.
type RefreshConfig struct {
	Enabled                 bool     `toml:"enabled" json:"enabled"`
	DescriptionPollInterval Duration `toml:"description_poll_interval" json:"description_poll_interval"`
}

// StorageConfig controls the local SQLite snapshot.
type StorageConfig struct {
	SnapshotEnabled bool `toml:"snapshot_enabled" json:"snapshot_enabled"`

	// Path of the database; empty means ~/.pipdeck/pipdeck.db
	Path string `toml:"path" json:"path"`

	HistoryLimit int `toml:"history_limit" json:"history_limit"`
}

// UIConfig contains terminal UI preferences.
type UIConfig struct {
	Theme         string `toml:"theme" json:"theme"`
	DefaultFilter string `toml:"default_filter" json:"default_filter"`
	Compact       bool   `toml:"compact" json:"compact"`
}

// LoggingConfig controls diagnostic output.
type LoggingConfig struct {
	Verbose bool `toml:"verbose" json:"verbose"`

	// File receives log output; empty means ~/.pipdeck/pipdeck.log in the TUI
	// and stderr elsewhere
	File string `toml:"file" json:"file"`
}

// Duration is a time.Duration stored as a string such as "500ms".
type Duration struct {
	time.Duration
}

// D wraps d.
func D(d time.Duration) Duration { return Duration{d} }

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" {
		d.Duration = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// =============================================================================
// DEFAULTS
// =============================================================================

// CurrentVersion is the config schema version written by Save.
const CurrentVersion = "1"

// KnownThemes lists the theme names the UI understands.
var KnownThemes = []string{"dark", "light", "auto"}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Server: ServerConfig{
			BaseURL:        api.DefaultBaseURL,
			RequestTimeout: D(api.DefaultTimeout),
			RateLimit:      api.DefaultRateLimit,
			UseCache:       true,
		},
		Monitor: MonitorConfig{
			PollInterval:            D(tasks.DefaultPollInterval),
			SafetyTimeout:           D(tasks.DefaultSafetyTimeout),
			MaxConsecutiveErrors:    tasks.DefaultLimits().MaxConsecutiveErrors,
			CompletionStagnantTicks: tasks.DefaultLimits().CompletionStagnantTicks,
			AdvisoryStagnantTicks:   tasks.DefaultLimits().AdvisoryStagnantTicks,
		},
		Refresh: RefreshConfig{
			Enabled:                 true,
			DescriptionPollInterval: D(5 * time.Second),
		},
		Storage: StorageConfig{
			SnapshotEnabled: true,
			HistoryLimit:    200,
		},
		UI: UIConfig{
			Theme:         "dark",
			DefaultFilter: string(model.FilterAll),
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the pipdeck configuration directory path.
func ConfigDir() (string, error) {
	if dir := os.Getenv("PIPDECK_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".pipdeck"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions tightens config files to 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			} else {
				return finish(cfg)
			}
		}
	}

	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			cfg = Default()
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = fmt.Errorf("failed to load JSON config: %w", err)
			} else {
				return finish(cfg)
			}
		}
	}

	cfg = Default()
	cfg, err = finish(cfg)
	if err != nil {
		return nil, err
	}
	// Defaults are returned alongside the load error for informational purposes
	return cfg, loadErr
}

// finish applies env overrides, migration and validation.
func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	if err := cfg.Migrate(); err != nil {
		return nil, fmt.Errorf("config migration failed: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return fillDefaults(cfg)
}

// LoadJSON loads configuration from a JSON file.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return fillDefaults(cfg)
}

// LoadFromPath loads configuration from a specific file path with full validation.
// Booleans absent from the file keep their defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}
	return finish(cfg)
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) error {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}

	// Server
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = defaults.Server.BaseURL
	}
	if cfg.Server.RequestTimeout.Duration == 0 {
		cfg.Server.RequestTimeout = defaults.Server.RequestTimeout
	}
	if cfg.Server.RateLimit == 0 {
		cfg.Server.RateLimit = defaults.Server.RateLimit
	}

	// Monitor
	if cfg.Monitor.PollInterval.Duration == 0 {
		cfg.Monitor.PollInterval = defaults.Monitor.PollInterval
	}
	if cfg.Monitor.SafetyTimeout.Duration == 0 {
		cfg.Monitor.SafetyTimeout = defaults.Monitor.SafetyTimeout
	}
	if cfg.Monitor.MaxConsecutiveErrors == 0 {
		cfg.Monitor.MaxConsecutiveErrors = defaults.Monitor.MaxConsecutiveErrors
	}
	if cfg.Monitor.CompletionStagnantTicks == 0 {
		cfg.Monitor.CompletionStagnantTicks = defaults.Monitor.CompletionStagnantTicks
	}
	if cfg.Monitor.AdvisoryStagnantTicks == 0 {
		cfg.Monitor.AdvisoryStagnantTicks = defaults.Monitor.AdvisoryStagnantTicks
	}

	// Refresh
	if cfg.Refresh.DescriptionPollInterval.Duration == 0 {
		cfg.Refresh.DescriptionPollInterval = defaults.Refresh.DescriptionPollInterval
	}

	// Storage
	if cfg.Storage.HistoryLimit == 0 {
		cfg.Storage.HistoryLimit = defaults.Storage.HistoryLimit
	}

	// UI
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}
	if cfg.UI.DefaultFilter == "" {
		cfg.UI.DefaultFilter = defaults.UI.DefaultFilter
	}

	return nil
}

// Migrate upgrades older config layouts in place.
func (c *Config) Migrate() error {
	switch c.Version {
	case "", "0":
		// Version 0 stored the server root without the /api prefix.
		if c.Server.BaseURL != "" && !strings.HasSuffix(strings.TrimRight(c.Server.BaseURL, "/"), "/api") {
			c.Server.BaseURL = strings.TrimRight(c.Server.BaseURL, "/") + "/api"
		}
		c.Version = CurrentVersion
	case CurrentVersion:
	default:
		return fmt.Errorf("unsupported config version %q", c.Version)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf strings.Builder
	buf.WriteString("# pipdeck configuration file\n")
	buf.WriteString("# Generated by pipdeck - edit with care\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, []byte(buf.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file with 0600 permissions.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// MinPollInterval is the fastest progress poll Validate accepts.
const MinPollInterval = 50 * time.Millisecond

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// ==========================================================================
	// Server
	// ==========================================================================

	if u, err := url.Parse(c.Server.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "server.base_url",
			Message: fmt.Sprintf("invalid URL '%s', must be http:// or https:// with a host", c.Server.BaseURL),
		})
	}
	if c.Server.RequestTimeout.Duration < 0 {
		errs = append(errs, ValidationError{
			Field:   "server.request_timeout",
			Message: "must not be negative",
		})
	}

	// ==========================================================================
	// Monitor
	// ==========================================================================

	if c.Monitor.PollInterval.Duration < MinPollInterval {
		errs = append(errs, ValidationError{
			Field:   "monitor.poll_interval",
			Message: fmt.Sprintf("%s is below the minimum of %s", c.Monitor.PollInterval.Duration, MinPollInterval),
		})
	}
	if c.Monitor.SafetyTimeout.Duration <= c.Monitor.PollInterval.Duration {
		errs = append(errs, ValidationError{
			Field:   "monitor.safety_timeout",
			Message: fmt.Sprintf("%s must be longer than the poll interval (%s)", c.Monitor.SafetyTimeout.Duration, c.Monitor.PollInterval.Duration),
		})
	}
	if c.Monitor.MaxConsecutiveErrors < 1 {
		errs = append(errs, ValidationError{
			Field:   "monitor.max_consecutive_errors",
			Message: "must be at least 1",
		})
	}
	if c.Monitor.CompletionStagnantTicks < 0 || c.Monitor.AdvisoryStagnantTicks < 0 {
		errs = append(errs, ValidationError{
			Field:   "monitor",
			Message: "stagnant tick thresholds must not be negative",
		})
	}

	// ==========================================================================
	// Refresh / Storage
	// ==========================================================================

	if c.Refresh.DescriptionPollInterval.Duration < 0 {
		errs = append(errs, ValidationError{
			Field:   "refresh.description_poll_interval",
			Message: "must not be negative",
		})
	}
	if c.Storage.HistoryLimit < 0 {
		errs = append(errs, ValidationError{
			Field:   "storage.history_limit",
			Message: "must not be negative",
		})
	}

	// ==========================================================================
	// UI
	// ==========================================================================

	if !isKnownTheme(c.UI.Theme) {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("unknown theme '%s', must be one of: %s", c.UI.Theme, strings.Join(KnownThemes, ", ")),
		})
	}
	if _, err := model.ParseFilter(c.UI.DefaultFilter); err != nil {
		errs = append(errs, ValidationError{
			Field:   "ui.default_filter",
			Message: err.Error(),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func isKnownTheme(name string) bool {
	for _, t := range KnownThemes {
		if strings.EqualFold(t, name) {
			return true
		}
	}
	return false
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
//
// Supported variables:
//   - PIPDECK_SERVER: overrides server.base_url
//   - PIPDECK_TIMEOUT: overrides server.request_timeout (duration, e.g. "10s")
//   - PIPDECK_THEME: overrides ui.theme
//   - PIPDECK_VERBOSE: enables logging.verbose
//   - PIPDECK_NO_SNAPSHOT: disables storage.snapshot_enabled
func (c *Config) ApplyEnvOverrides() {
	if server := os.Getenv("PIPDECK_SERVER"); server != "" {
		c.Server.BaseURL = server
	}

	if timeout := os.Getenv("PIPDECK_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			c.Server.RequestTimeout = D(d)
		} else {
			fmt.Fprintf(os.Stderr, "Warning: ignoring PIPDECK_TIMEOUT=%q: %v\n", timeout, err)
		}
	}

	if theme := os.Getenv("PIPDECK_THEME"); theme != "" {
		c.UI.Theme = theme
	}

	if verbose := os.Getenv("PIPDECK_VERBOSE"); verbose != "" {
		c.Logging.Verbose = truthy(verbose)
	}

	if noSnap := os.Getenv("PIPDECK_NO_SNAPSHOT"); noSnap != "" && truthy(noSnap) {
		c.Storage.SnapshotEnabled = false
	}
}

func truthy(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true" || s == "yes"
}

// =============================================================================
// DERIVED SETTINGS
// =============================================================================

// ClientConfig builds the API client configuration.
func (c *Config) ClientConfig(logger *log.Logger) api.ClientConfig {
	return api.ClientConfig{
		BaseURL:   c.Server.BaseURL,
		Timeout:   c.Server.RequestTimeout.Duration,
		RateLimit: c.Server.RateLimit,
		Logger:    c.debugLogger(logger),
	}
}

// MonitorOptions builds the task monitor options.
func (c *Config) MonitorOptions(logger *log.Logger) tasks.Options {
	return tasks.Options{
		PollInterval:  c.Monitor.PollInterval.Duration,
		SafetyTimeout: c.Monitor.SafetyTimeout.Duration,
		Limits: tasks.Limits{
			MaxConsecutiveErrors:    c.Monitor.MaxConsecutiveErrors,
			CompletionStagnantTicks: c.Monitor.CompletionStagnantTicks,
			AdvisoryStagnantTicks:   c.Monitor.AdvisoryStagnantTicks,
		},
		Transient: api.IsTransient,
		Logger:    logger,
	}
}

// StoragePath returns the snapshot database path, resolving the default.
func (c *Config) StoragePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "pipdeck.db"), nil
}

// LogPath returns the log file path, resolving the default.
func (c *Config) LogPath() (string, error) {
	if c.Logging.File != "" {
		return c.Logging.File, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "pipdeck.log"), nil
}

// FilterType returns the parsed default filter.
func (c *Config) FilterType() model.FilterType {
	f, err := model.ParseFilter(c.UI.DefaultFilter)
	if err != nil {
		return model.FilterAll
	}
	return f
}

// debugLogger passes logger through only when verbose logging is on.
func (c *Config) debugLogger(logger *log.Logger) *log.Logger {
	if !c.Logging.Verbose {
		return nil
	}
	return logger
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "server.base_url").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	if d, ok := field.Interface().(Duration); ok {
		return d.Duration.String(), nil
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "ui.theme").
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)

		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			return field, nil
		}

		if field.Kind() != reflect.Struct || field.Type() == reflect.TypeOf(Duration{}) {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a section", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		if tu, ok := field.Addr().Interface().(encoding.TextUnmarshaler); ok {
			return tu.UnmarshalText([]byte(strVal))
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			field.SetBool(truthy(strVal))
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"server.base_url",
		"server.request_timeout",
		"server.rate_limit",
		"server.use_cache",
		"monitor.poll_interval",
		"monitor.safety_timeout",
		"monitor.max_consecutive_errors",
		"monitor.completion_stagnant_ticks",
		"monitor.advisory_stagnant_ticks",
		"refresh.enabled",
		"refresh.description_poll_interval",
		"storage.snapshot_enabled",
		"storage.path",
		"storage.history_limit",
		"ui.theme",
		"ui.default_filter",
		"ui.compact",
		"logging.verbose",
		"logging.file",
	}
}

// Clone creates a copy of the configuration. Config holds no reference
// types, so a value copy is deep.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns a string representation of the config for debugging.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
