package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"wingetbridge/pkg/manager"
)

// Config represents the complete wingetbridge configuration.
type Config struct {
	General  GeneralConfig               `toml:"general"`
	Output   OutputConfig                `toml:"output"`
	Winget   WingetConfig                `toml:"winget"`
	Defaults manager.InstallationOptions `toml:"defaults"`
	Server   ServerConfig                `toml:"server"`
	Aliases  map[string]string           `toml:"aliases"`

	// Unknown lists keys in the file that no setting matched.
	Unknown []string `toml:"-"`
}

// GeneralConfig contains general settings.
type GeneralConfig struct {
	// AutoConfirm skips confirmation prompts when true (like -y flag).
	AutoConfirm bool `toml:"auto_confirm"`

	// DryRun shows what would happen without executing when true.
	DryRun bool `toml:"dry_run"`

	// LogLevel is a logrus level name (debug, info, warn, error).
	LogLevel string `toml:"log_level"`

	// LogFile appends logs to this file instead of stderr.
	LogFile string `toml:"log_file"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	// Color enables colored output (respects NO_COLOR env var).
	Color bool `toml:"color"`

	// Unicode enables unicode symbols in output.
	Unicode bool `toml:"unicode"`

	// Verbose enables detailed output.
	Verbose bool `toml:"verbose"`
}

// WingetConfig contains adapter settings.
type WingetConfig struct {
	// Executable overrides the winget binary (e.g., a bundled winget.exe).
	Executable string `toml:"executable"`

	// Elevator is the helper prepended to elevated commands.
	Elevator string `toml:"elevator"`

	// Locale is passed to "winget show". Falls back to en-US.
	Locale string `toml:"locale"`

	// InferArchitecture forces x64/x86 from hints in package names and ids.
	InferArchitecture bool `toml:"infer_architecture"`

	// FetchInstallerSize issues an HTTP HEAD for the installer URL in details.
	FetchInstallerSize bool `toml:"fetch_installer_size"`

	// DetailsAttempts bounds how often "winget show" is retried when it
	// returns too little information.
	DetailsAttempts int `toml:"details_attempts"`
}

// ServerConfig contains settings for "wingetbridge serve".
type ServerConfig struct {
	Listen                 string `toml:"listen"`
	RefreshIntervalMinutes int    `toml:"refresh_interval_minutes"`
	MetricsTextfile        string `toml:"metrics_textfile"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		General: GeneralConfig{LogLevel: "info"},
		Output:  OutputConfig{Color: true, Unicode: true},
		Winget: WingetConfig{
			Executable:      "winget",
			Elevator:        "gsudo",
			DetailsAttempts: 3,
		},
		Server: ServerConfig{
			Listen:                 "127.0.0.1:8639",
			RefreshIntervalMinutes: 60,
		},
		Aliases: map[string]string{},
	}
}

// Load reads the configuration file in the config directory.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the configuration at path over the defaults. A missing
// file yields the defaults. Keys the decoder did not recognise are kept in
// Unknown.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	md, err := toml.DecodeFile(path, cfg)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return cfg, nil
	case err != nil:
		return nil, err
	}

	for _, key := range md.Undecoded() {
		cfg.Unknown = append(cfg.Unknown, key.String())
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values the TOML decoder cannot.
func (c *Config) Validate() error {
	if _, err := manager.ParseScope(string(c.Defaults.Scope)); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}
	if c.Defaults.Version != "" {
		return errors.New("defaults: version cannot be set globally")
	}
	if c.Winget.DetailsAttempts < 0 {
		return errors.New("winget: details_attempts must not be negative")
	}
	if c.Server.RefreshIntervalMinutes < 0 {
		return errors.New("server: refresh_interval_minutes must not be negative")
	}
	return nil
}

// Save writes the configuration to the config directory.
func (c *Config) Save() error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	return c.SaveTo(ConfigPath())
}

// SaveTo writes the configuration to path. The file is replaced in one
// rename so readers never see a partial file.
func (c *Config) SaveTo(path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// ResolveAlias maps an alias to its package id. Aliases match without
// regard to case; anything else is returned as given.
func (c *Config) ResolveAlias(name string) string {
	if id, ok := c.Aliases[name]; ok {
		return id
	}
	for alias, id := range c.Aliases {
		if strings.EqualFold(alias, name) {
			return id
		}
	}
	return name
}

// ResolveAliases applies ResolveAlias to each name.
func (c *Config) ResolveAliases(names []string) []string {
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = c.ResolveAlias(name)
	}
	return out
}

// ShouldUseColor reports whether output may be colored. NO_COLOR wins over
// the config file.
func (c *Config) ShouldUseColor() bool {
	return c.Output.Color && os.Getenv("NO_COLOR") == ""
}
