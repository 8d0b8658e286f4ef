// Package config holds the settings shared by every pfr-pbp command.
//
// Values start from Defaults, are overridden by PFR_* environment variables via
// FromEnv, and finally by command-line flags bound in the cli package.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL   = "https://www.pro-football-reference.com"
	DefaultUserAgent = "pfr-pbp/1.0 (github.com/pfrederiksen/pfr-pbp)"
	DefaultDelay     = 3 * time.Second
	DefaultTimeout   = 30 * time.Second
	DefaultRetries   = 3
)

// Environment variable names
const (
	EnvDataDir   = "PFR_DATA_DIR"
	EnvBaseURL   = "PFR_BASE_URL"
	EnvDelay     = "PFR_DELAY"
	EnvUserAgent = "PFR_USER_AGENT"
	EnvYears     = "PFR_YEARS"
)

// Config is the resolved configuration for a run.
type Config struct {
	DataDir    string
	BaseURL    string
	UserAgent  string
	Years      []int
	Delay      time.Duration
	Timeout    time.Duration
	MaxRetries uint64
	Force      bool
}

// Defaults returns the configuration used when nothing is overridden.
// The season range matches the 2012-2021 corpus the dataset was built from.
func Defaults() Config {
	years := make([]int, 0, 10)
	for y := 2012; y <= 2021; y++ {
		years = append(years, y)
	}
	return Config{
		DataDir:    ".",
		BaseURL:    DefaultBaseURL,
		UserAgent:  DefaultUserAgent,
		Years:      years,
		Delay:      DefaultDelay,
		Timeout:    DefaultTimeout,
		MaxRetries: DefaultRetries,
	}
}

// FromEnv applies PFR_* environment overrides on top of c.
func FromEnv(c Config, getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	if v := strings.TrimSpace(getenv(EnvDataDir)); v != "" {
		c.DataDir = v
	}
	if v := strings.TrimSpace(getenv(EnvBaseURL)); v != "" {
		c.BaseURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(getenv(EnvUserAgent)); v != "" {
		c.UserAgent = v
	}
	if v := strings.TrimSpace(getenv(EnvDelay)); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return c, fmt.Errorf("parsing %s: %w", EnvDelay, err)
		}
		c.Delay = d
	}
	if v := strings.TrimSpace(getenv(EnvYears)); v != "" {
		years, err := ParseYears(v)
		if err != nil {
			return c, fmt.Errorf("parsing %s: %w", EnvYears, err)
		}
		c.Years = years
	}

	return c, nil
}

// ParseYears parses a comma-separated list of seasons. Ranges such as
// "2012-2015" are expanded.
func ParseYears(s string) ([]int, error) {
	var years []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if from, to, ok := strings.Cut(part, "-"); ok {
			start, err := strconv.Atoi(strings.TrimSpace(from))
			if err != nil {
				return nil, fmt.Errorf("invalid year %q", from)
			}
			end, err := strconv.Atoi(strings.TrimSpace(to))
			if err != nil {
				return nil, fmt.Errorf("invalid year %q", to)
			}
			if end < start {
				return nil, fmt.Errorf("invalid year range %q", part)
			}
			for y := start; y <= end; y++ {
				years = append(years, y)
			}
			continue
		}

		y, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid year %q", part)
		}
		years = append(years, y)
	}
	return years, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data directory is required")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	if len(c.Years) == 0 {
		return fmt.Errorf("at least one year is required")
	}
	for _, y := range c.Years {
		if y < 1920 || y > 2100 {
			return fmt.Errorf("year out of range: %d", y)
		}
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay must not be negative: %s", c.Delay)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive: %s", c.Timeout)
	}
	return nil
}

// ExpandHome resolves a leading "~/" against the user's home directory.
func ExpandHome(dir string) (string, error) {
	if !strings.HasPrefix(dir, "~/") {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, dir[2:]), nil
}
