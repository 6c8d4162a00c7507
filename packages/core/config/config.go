package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/hitclient/packages/client"
	hithttp "github.com/abdul-hamid-achik/hitclient/packages/http"
	"gopkg.in/yaml.v3"
)

// Config represents the hitclient configuration file
type Config struct {
	BaseURL         string            `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`
	Timeout         int               `json:"timeout,omitempty" yaml:"timeout,omitempty"` // milliseconds
	FollowRedirects *bool             `json:"followRedirects,omitempty" yaml:"followRedirects,omitempty"`
	MaxRedirects    int               `json:"maxRedirects,omitempty" yaml:"maxRedirects,omitempty"`
	ValidateSSL     *bool             `json:"validateSSL,omitempty" yaml:"validateSSL,omitempty"`
	Proxy           string            `json:"proxy,omitempty" yaml:"proxy,omitempty"`
	Headers         map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"` // sent with every request
	Params          map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
	Variables       map[string]string `json:"variables,omitempty" yaml:"variables,omitempty"` // {{name}} placeholders
	EnvFile         string            `json:"envFile,omitempty" yaml:"envFile,omitempty"`
	Auth            *AuthConfig       `json:"auth,omitempty" yaml:"auth,omitempty"`
	Rate            float64           `json:"rate,omitempty" yaml:"rate,omitempty"` // requests per second, 0 is unlimited
	RequestID       *bool             `json:"requestID,omitempty" yaml:"requestID,omitempty"`
	Verbose         *bool             `json:"verbose,omitempty" yaml:"verbose,omitempty"`
	NoColor         *bool             `json:"noColor,omitempty" yaml:"noColor,omitempty"`
}

// AuthConfig selects an auth scheme and its positional parameters, e.g.
// {type: basic, params: [user, pass]}.
type AuthConfig struct {
	Type   string   `json:"type" yaml:"type"`
	Params []string `json:"params,omitempty" yaml:"params,omitempty"`
}

// boolPtr returns a pointer to a bool value
func boolPtr(b bool) *bool {
	return &b
}

// BoolPtr is exported version of boolPtr for external use
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

// GetRequestID returns whether requests are tagged with an ID, defaulting to false
func (c *Config) GetRequestID() bool {
	return getBool(c.RequestID, false)
}

// GetVerbose returns the verbose setting, defaulting to false
func (c *Config) GetVerbose() bool {
	return getBool(c.Verbose, false)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// ConfigFilenames contains the possible config file names, in lookup order
var ConfigFilenames = []string{
	".hitclient.yaml",
	".hitclient.yml",
	".hitclient.json",
	"hitclient.config.json",
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
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	// Return defaults if no config file found
	return DefaultConfig(), nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// loadConfigFromFile loads configuration from a specific file
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return config, nil
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
	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.MaxRedirects > 0 {
		result.MaxRedirects = other.MaxRedirects
	}
	if other.Proxy != "" {
		result.Proxy = other.Proxy
	}
	if other.EnvFile != "" {
		result.EnvFile = other.EnvFile
	}
	if other.Rate > 0 {
		result.Rate = other.Rate
	}
	if other.Auth != nil {
		result.Auth = other.Auth
	}

	// Boolean flags - only override if explicitly set in other config
	if other.FollowRedirects != nil {
		result.FollowRedirects = other.FollowRedirects
	}
	if other.ValidateSSL != nil {
		result.ValidateSSL = other.ValidateSSL
	}
	if other.RequestID != nil {
		result.RequestID = other.RequestID
	}
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	result.Headers = mergeStrings(c.Headers, other.Headers)
	result.Params = mergeStrings(c.Params, other.Params)
	result.Variables = mergeStrings(c.Variables, other.Variables)

	return &result
}

func mergeStrings(base, other map[string]string) map[string]string {
	if len(base) == 0 && len(other) == 0 {
		return base
	}
	out := make(map[string]string, len(base)+len(other))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// ToClientConfig returns the client defaults described by c. Headers go to
// the common section so per-method defaults still apply.
func (c *Config) ToClientConfig() *client.Config {
	cfg := &client.Config{
		BaseURL: c.BaseURL,
		Timeout: time.Duration(c.Timeout) * time.Millisecond,
		Params:  mergeStrings(nil, c.Params),
	}

	if len(c.Headers) > 0 {
		common := client.Headers{}
		for k, v := range c.Headers {
			common[k] = v
		}
		cfg.Headers = client.Headers{client.CommonSection: common}
	}

	return cfg
}

// AdapterOptions returns the transport settings described by c.
func (c *Config) AdapterOptions() []hithttp.Option {
	opts := []hithttp.Option{
		hithttp.WithFollowRedirects(c.GetFollowRedirects()),
		hithttp.WithValidateSSL(c.GetValidateSSL()),
	}
	if c.MaxRedirects > 0 {
		opts = append(opts, hithttp.WithMaxRedirects(c.MaxRedirects))
	}
	if c.Proxy != "" {
		opts = append(opts, hithttp.WithProxy(c.Proxy))
	}
	return opts
}

// SaveConfig saves the configuration to a file, as YAML when the extension
// says so and as JSON otherwise
func (c *Config) SaveConfig(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
