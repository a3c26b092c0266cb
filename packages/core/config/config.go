package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/storyspec/packages/core/env"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Config represents the storyspec configuration
type Config struct {
	BaseURL         string            `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty"`
	AuthPath        string            `json:"authPath,omitempty" yaml:"authPath,omitempty"`
	TokenField      string            `json:"tokenField,omitempty" yaml:"tokenField,omitempty"`
	Username        string            `json:"username,omitempty" yaml:"username,omitempty"`
	Password        string            `json:"password,omitempty" yaml:"password,omitempty"`
	Timeout         int               `json:"timeout,omitempty" yaml:"timeout,omitempty"` // milliseconds
	FollowRedirects *bool             `json:"followRedirects,omitempty" yaml:"followRedirects,omitempty"`
	MaxRedirects    int               `json:"maxRedirects,omitempty" yaml:"maxRedirects,omitempty"`
	ValidateSSL     *bool             `json:"validateSSL,omitempty" yaml:"validateSSL,omitempty"`
	Proxy           string            `json:"proxy,omitempty" yaml:"proxy,omitempty"`
	Headers         map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	RateLimit       float64           `json:"rateLimit,omitempty" yaml:"rateLimit,omitempty"` // requests per second, 0 = unlimited
	Output          string            `json:"output,omitempty" yaml:"output,omitempty"`
	OutputFile      string            `json:"outputFile,omitempty" yaml:"outputFile,omitempty"`
	NoColor         *bool             `json:"noColor,omitempty" yaml:"noColor,omitempty"`
	Verbose         *bool             `json:"verbose,omitempty" yaml:"verbose,omitempty"`
	History         string            `json:"history,omitempty" yaml:"history,omitempty"` // sqlite DSN, empty = disabled
}

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetFollowRedirects returns the follow redirects setting, defaulting to true
func (c *Config) GetFollowRedirects() bool {
	return getBool(c.FollowRedirects, true)
}

// GetValidateSSL returns the validate SSL setting, defaulting to true
func (c *Config) GetValidateSSL() bool {
	return getBool(c.ValidateSSL, true)
}

// GetVerbose returns the verbose setting, defaulting to false
func (c *Config) GetVerbose() bool {
	return getBool(c.Verbose, false)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// TimeoutDuration returns the per-call timeout
func (c *Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}

// ConfigFilenames contains the possible config file names, in search order
var ConfigFilenames = []string{
	".storyspec.yaml",
	"storyspec.yaml",
	".storyspec.json",
	"storyspec.json",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	if path := FindConfigFile(dir); path != "" {
		return loadConfigFromFile(path)
	}

	// Return defaults if no config file found
	return DefaultConfig(), nil
}

// FindConfigFile returns the first config file present in dir, or "".
func FindConfigFile(dir string) string {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
	}
	return ""
}

// loadConfigFromFile loads configuration from a specific file. ${VAR}
// references are expanded from the environment before parsing.
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	expanded, missing := env.NewResolver(nil).Resolve(string(data))
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s references unset variables: %s", ErrInvalid, path, strings.Join(missing, ", "))
	}

	config := DefaultConfig()
	if isYAML(path) {
		err = yaml.Unmarshal([]byte(expanded), config)
	} else {
		err = json.Unmarshal([]byte(expanded), config)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrInvalid, path, err)
	}

	return config, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy

	if other.BaseURL != "" {
		result.BaseURL = other.BaseURL
	}
	if other.AuthPath != "" {
		result.AuthPath = other.AuthPath
	}
	if other.TokenField != "" {
		result.TokenField = other.TokenField
	}
	if other.Username != "" {
		result.Username = other.Username
	}
	if other.Password != "" {
		result.Password = other.Password
	}
	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.MaxRedirects > 0 {
		result.MaxRedirects = other.MaxRedirects
	}
	if other.Proxy != "" {
		result.Proxy = other.Proxy
	}
	if other.RateLimit > 0 {
		result.RateLimit = other.RateLimit
	}
	if other.Output != "" {
		result.Output = other.Output
	}
	if other.OutputFile != "" {
		result.OutputFile = other.OutputFile
	}
	if other.History != "" {
		result.History = other.History
	}

	// Boolean flags - only override if explicitly set in other config
	if other.FollowRedirects != nil {
		result.FollowRedirects = other.FollowRedirects
	}
	if other.ValidateSSL != nil {
		result.ValidateSSL = other.ValidateSSL
	}
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	// Merge headers
	if len(other.Headers) > 0 {
		headers := make(map[string]string, len(result.Headers)+len(other.Headers))
		for k, v := range result.Headers {
			headers[k] = v
		}
		for k, v := range other.Headers {
			headers[k] = v
		}
		result.Headers = headers
	}

	return &result
}

// FromEnv builds a partial config from STORYSPEC_* variables, keyed without
// the prefix (BASE_URL, USERNAME, PASSWORD, ...). Only set variables produce
// values, so the result is meant to be merged over a loaded config.
func FromEnv(vars map[string]string) (*Config, error) {
	c := &Config{}
	var err error

	c.BaseURL = vars["BASE_URL"]
	c.AuthPath = vars["AUTH_PATH"]
	c.TokenField = vars["TOKEN_FIELD"]
	c.Username = vars["USERNAME"]
	c.Password = vars["PASSWORD"]
	c.Proxy = vars["PROXY"]
	c.Output = vars["OUTPUT"]
	c.OutputFile = vars["OUTPUT_FILE"]
	c.History = vars["HISTORY"]

	if v, ok := vars["TIMEOUT"]; ok && v != "" {
		if c.Timeout, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("%w: STORYSPEC_TIMEOUT: %v", ErrInvalid, err)
		}
	}
	if v, ok := vars["RATE_LIMIT"]; ok && v != "" {
		if c.RateLimit, err = strconv.ParseFloat(v, 64); err != nil {
			return nil, fmt.Errorf("%w: STORYSPEC_RATE_LIMIT: %v", ErrInvalid, err)
		}
	}

	boolVars := map[string]**bool{
		"FOLLOW_REDIRECTS": &c.FollowRedirects,
		"VALIDATE_SSL":     &c.ValidateSSL,
		"VERBOSE":          &c.Verbose,
		"NO_COLOR":         &c.NoColor,
	}
	for key, target := range boolVars {
		v, ok := vars[key]
		if !ok || v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%w: STORYSPEC_%s: %v", ErrInvalid, key, err)
		}
		*target = BoolPtr(b)
	}

	return c, nil
}

// ApplyEnv returns c with STORYSPEC_* overrides applied.
func (c *Config) ApplyEnv(vars map[string]string) (*Config, error) {
	overrides, err := FromEnv(vars)
	if err != nil {
		return nil, err
	}
	return c.Merge(overrides), nil
}

// Validate checks that the configuration can drive a run.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL is required", ErrInvalid)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("%w: base URL: %v", ErrInvalid, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: base URL scheme must be http or https, got %q", ErrInvalid, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: base URL has no host", ErrInvalid)
	}
	if c.Username == "" || c.Password == "" {
		return fmt.Errorf("%w: username and password are required", ErrInvalid)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: timeout must not be negative", ErrInvalid)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%w: rate limit must not be negative", ErrInvalid)
	}
	if c.Output != "" && !isKnownOutput(c.Output) {
		return fmt.Errorf("%w: unknown output format %q", ErrInvalid, c.Output)
	}
	return nil
}

// OutputFormats lists the report formats a run can produce.
var OutputFormats = []string{"console", "json", "junit", "tap"}

func isKnownOutput(format string) bool {
	for _, f := range OutputFormats {
		if f == format {
			return true
		}
	}
	return false
}

// SaveConfig saves the configuration to a file, as YAML or JSON by extension
func (c *Config) SaveConfig(path string) error {
	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
