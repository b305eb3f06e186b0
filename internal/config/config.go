package config

import (
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// Defaults match the limits the mobile client was built against.
const (
	DefaultMaxHistoryEntries = 5000
	DefaultMaxEntryAmountML  = 5000
)

// Config contains runtime configuration required by the service.
// Values are populated from CLI flags and their environment sources.
type Config struct {
	Addr      string
	DataDir   string
	ExportDir string
	EnvFile   string

	MaxHistoryEntries int64
	MaxEntryAmountML  int64

	RequireAPIKey bool
	APIKey        string // resolved expected key, empty when unconfigured
}

// Validate checks structural constraints before the server starts.
func (c *Config) Validate() error {
	if c.MaxHistoryEntries <= 0 {
		return goerr.New("max history entries must be positive", goerr.V("value", c.MaxHistoryEntries))
	}
	if c.MaxEntryAmountML <= 0 {
		return goerr.New("max entry amount must be positive", goerr.V("value", c.MaxEntryAmountML))
	}
	if c.DataDir == "" {
		return goerr.New("data dir is required")
	}
	if c.ExportDir == "" {
		return goerr.New("export dir is required")
	}
	return nil
}

// ResolveAPIKey returns the expected API key: the WATER_API_KEY environment
// variable wins, then the API_KEY entry of the settings file. Empty means no
// key is configured.
func (c *Config) ResolveAPIKey() string {
	if key := strings.TrimSpace(os.Getenv("WATER_API_KEY")); key != "" {
		return key
	}
	return EnvFileValue(c.EnvFile, "API_KEY")
}

// EnvFileValue reads a KEY=value settings file and returns the value for key.
// Blank lines and lines starting with "#" are ignored, and an inline "#"
// comment after the value is stripped. A missing file yields "".
func EnvFileValue(path, key string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, value, ok := strings.Cut(line, "=")
		if !ok || strings.TrimSpace(name) != key {
			continue
		}
		value = strings.TrimSpace(value)
		if i := strings.Index(value, "#"); i >= 0 {
			value = strings.TrimSpace(value[:i])
		}
		return value
	}
	return ""
}
