package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wingetbridge/pkg/manager"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	if cfg.Winget.Executable != "winget" {
		t.Errorf("expected executable winget, got %q", cfg.Winget.Executable)
	}
	if cfg.Winget.Elevator != "gsudo" {
		t.Errorf("expected elevator gsudo, got %q", cfg.Winget.Elevator)
	}
	if cfg.Winget.InferArchitecture {
		t.Error("expected InferArchitecture to be false by default")
	}
	if cfg.Server.RefreshIntervalMinutes != 60 {
		t.Errorf("expected 60 minute refresh, got %d", cfg.Server.RefreshIntervalMinutes)
	}

	if !cfg.Output.Color {
		t.Error("expected Color to be true by default")
	}
	if cfg.Output.Verbose {
		t.Error("expected Verbose to be false by default")
	}
	if cfg.General.DryRun {
		t.Error("expected DryRun to be false by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestResolveAlias(t *testing.T) {
	cfg := &Config{
		Aliases: map[string]string{
			"git":    "Git.Git",
			"vscode": "Microsoft.VisualStudioCode",
		},
	}

	tests := []struct {
		input    string
		expected string
	}{
		{"git", "Git.Git"},
		{"vscode", "Microsoft.VisualStudioCode"},
		{"VSCode", "Microsoft.VisualStudioCode"},
		{"7zip.7zip", "7zip.7zip"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := cfg.ResolveAlias(tt.input)
			if result != tt.expected {
				t.Errorf("ResolveAlias(%s) = %s, want %s", tt.input, result, tt.expected)
			}
		})
	}
}

func TestResolveAliases(t *testing.T) {
	cfg := &Config{Aliases: map[string]string{"git": "Git.Git"}}

	input := []string{"git", "Mozilla.Firefox"}
	expected := []string{"Git.Git", "Mozilla.Firefox"}

	result := cfg.ResolveAliases(input)
	if len(result) != len(expected) {
		t.Fatalf("expected %d results, got %d", len(expected), len(result))
	}
	for i, r := range result {
		if r != expected[i] {
			t.Errorf("result[%d] = %s, want %s", i, r, expected[i])
		}
	}
}

func TestShouldUseColor(t *testing.T) {
	cfg := &Config{Output: OutputConfig{Color: true}}

	t.Setenv("NO_COLOR", "")
	if !cfg.ShouldUseColor() {
		t.Error("expected ShouldUseColor() to return true")
	}

	t.Setenv("NO_COLOR", "1")
	if cfg.ShouldUseColor() {
		t.Error("expected ShouldUseColor() to return false when NO_COLOR is set")
	}

	t.Setenv("NO_COLOR", "")
	cfg.Output.Color = false
	if cfg.ShouldUseColor() {
		t.Error("expected ShouldUseColor() to return false when Color is false")
	}
}

func TestLoadSaveConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Aliases["git"] = "Git.Git"
	cfg.Winget.Locale = "de-DE"
	cfg.Defaults.Scope = manager.ScopeMachine
	cfg.Defaults.CustomArgs = []string{"--silent"}

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("SaveTo() error: %v", err)
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}

	if loaded.ResolveAlias("git") != "Git.Git" {
		t.Error("loaded config doesn't have expected alias")
	}
	if loaded.Winget.Locale != "de-DE" {
		t.Errorf("expected locale de-DE, got %q", loaded.Winget.Locale)
	}
	if loaded.Defaults.Scope != manager.ScopeMachine {
		t.Errorf("expected machine scope, got %q", loaded.Defaults.Scope)
	}
	if len(loaded.Defaults.CustomArgs) != 1 || loaded.Defaults.CustomArgs[0] != "--silent" {
		t.Errorf("unexpected custom args %v", loaded.Defaults.CustomArgs)
	}
}

func TestLoadPartialConfigKeepsDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	data := "[winget]\ninfer_architecture = true\n\n[defaults]\nrun_as_admin = true\n"
	if err := os.WriteFile(configPath, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if !cfg.Winget.InferArchitecture || !cfg.Defaults.RunAsAdmin {
		t.Error("expected values from file")
	}
	if cfg.Winget.Executable != "winget" || cfg.Server.Listen == "" {
		t.Error("expected defaults for keys missing from file")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"scope":   "[defaults]\nscope = \"global\"\n",
		"version": "[defaults]\nversion = \"1.0\"\n",
		"syntax":  "[winget\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(configPath, []byte(data), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadFrom(configPath); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadNonExistentConfig(t *testing.T) {
	cfg, err := LoadFrom("/non/existent/path/config.toml")
	if err != nil {
		t.Fatalf("LoadFrom() should not error for non-existent file: %v", err)
	}
	if cfg == nil {
		t.Fatal("LoadFrom() should return default config for non-existent file")
	}
	if !cfg.Output.Color {
		t.Error("expected default Color to be true")
	}
}

func TestLoadReportsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	data := "[winget]\nlocale = \"fr-FR\"\nshell = \"pwsh\"\n\n[search]\nlimit = 5\n"
	if err := os.WriteFile(configPath, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if cfg.Winget.Locale != "fr-FR" {
		t.Errorf("expected locale fr-FR, got %q", cfg.Winget.Locale)
	}

	unknown := strings.Join(cfg.Unknown, ",")
	for _, key := range []string{"winget.shell", "search.limit"} {
		if !strings.Contains(unknown, key) {
			t.Errorf("expected %s in unknown keys %v", key, cfg.Unknown)
		}
	}
}

func TestSaveToReplacesFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("garbage = ["), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Default().SaveTo(configPath); err != nil {
		t.Fatalf("SaveTo() error: %v", err)
	}
	if _, err := os.Stat(configPath + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}
	if _, err := LoadFrom(configPath); err != nil {
		t.Errorf("saved config does not load: %v", err)
	}
}
