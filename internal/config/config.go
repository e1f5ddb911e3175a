package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

const (
	// defaultLineupCode is the provider's over-the-air lineup marker; any
	// other code names a custom receiver lineup.
	defaultLineupCode = "lineupId"

	defaultDevice        = "-"
	defaultDays          = 1
	defaultRetentionDays = 1
	defaultReceiverHost  = "localhost"
	defaultReceiverPort  = 9981
	defaultOutputFile    = "xmltv.xml"
	cacheDirName         = "cache"
)

type Config struct {
	Provider Provider `toml:"provider"`
	Stations Stations `toml:"stations"`
	Details  Details  `toml:"details"`
	Receiver Receiver `toml:"receiver"`
	Output   Output   `toml:"output"`
	Log      Log      `toml:"log"`
}

// Provider identifies the lineup and fetch horizon for the grid endpoint.
type Provider struct {
	PostalCode    string `toml:"postal_code"`
	Lineup        string `toml:"lineup"`
	LineupCode    string `toml:"lineup_code"`
	Device        string `toml:"device"`
	Days          int    `toml:"days"`
	RetentionDays int    `toml:"retention_days"`
}

type Stations struct {
	// IDs filters ingestion to the listed provider channel ids; empty keeps
	// every station.
	IDs []string `toml:"ids"`
	// ChannelMatch derives a ".N" sub-number from the call sign for numbers
	// that have none.
	ChannelMatch bool `toml:"channel_match"`
}

type Details struct {
	FetchDetails         bool  `toml:"fetch_details"`
	ComposedDescriptions bool  `toml:"composed_descriptions"`
	IconMode             int   `toml:"icon_mode"`
	Genres               bool  `toml:"genres"`
	DescriptionOrder     []int `toml:"description_order"`
}

type Receiver struct {
	Enabled       bool   `toml:"enabled"`
	MatchChannels bool   `toml:"match_channels"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Username      string `toml:"username"`
	Password      string `toml:"password"`
}

type Output struct {
	DataDir string `toml:"data_dir"`
	File    string `toml:"file"`
}

type Log struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// Load reads, normalizes and validates the settings file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading settings file: %w", err)
	}

	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decoding settings file: %w", err)
	}

	cfg.applyDefaults()
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Provider.LineupCode == "" {
		c.Provider.LineupCode = defaultLineupCode
	}
	if c.Provider.Device == "" {
		c.Provider.Device = defaultDevice
	}
	if c.Provider.Days <= 0 {
		c.Provider.Days = defaultDays
	}
	if c.Provider.RetentionDays <= 0 {
		c.Provider.RetentionDays = defaultRetentionDays
	}
	if c.Receiver.Host == "" {
		c.Receiver.Host = defaultReceiverHost
	}
	if c.Receiver.Port <= 0 {
		c.Receiver.Port = defaultReceiverPort
	}
	if c.Output.DataDir == "" {
		c.Output.DataDir = "."
	}
	if len(c.Details.DescriptionOrder) == 0 {
		// Plot only, the provider's short description.
		c.Details.DescriptionOrder = []int{9}
	}
}

// normalize resolves inter-setting constraints. A custom lineup code means
// the channel numbers already come from the receiver lineup, so call-sign
// sub-numbering and receiver matching are forced off.
func (c *Config) normalize() {
	if c.Provider.LineupCode != defaultLineupCode {
		c.Stations.ChannelMatch = false
		c.Receiver.MatchChannels = false
	}
	if !c.Receiver.Enabled {
		c.Receiver.MatchChannels = false
	}
}

func (c *Config) validate() error {
	if c.Provider.PostalCode == "" {
		return fmt.Errorf("provider.postal_code is required")
	}
	if c.Details.IconMode < 0 || c.Details.IconMode > 2 {
		return fmt.Errorf("details.icon_mode must be 0, 1 or 2")
	}
	return nil
}

// Country is derived from the postal code: all digits means USA, else CAN.
func (c *Config) Country() string {
	for _, r := range c.Provider.PostalCode {
		if r < '0' || r > '9' {
			return "CAN"
		}
	}
	return "USA"
}

func (c *Config) CacheDir() string {
	return filepath.Join(c.Output.DataDir, cacheDirName)
}

func (c *Config) OutputPath() string {
	if c.Output.File != "" {
		return c.Output.File
	}
	return filepath.Join(c.Output.DataDir, defaultOutputFile)
}

func (c *Config) ReceiverURL() string {
	return fmt.Sprintf("http://%s:%d", c.Receiver.Host, c.Receiver.Port)
}
