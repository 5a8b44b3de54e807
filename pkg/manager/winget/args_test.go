package winget

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"wingetbridge/pkg/manager"
)

var gitPackage = manager.Package{Name: "Git", ID: "Git.Git", Version: "2.42.0", Source: "Winget: winget"}

func TestOperationArgsVersionOnly(t *testing.T) {
	args := operationArgs(manager.IntentInstall, gitPackage, manager.InstallationOptions{Version: "2.40.0"})
	assert.Equal(t, []string{
		"install", "--id", "Git.Git", "--exact",
		"--accept-source-agreements", "--disable-interactivity",
		"--version", "2.40.0", "--force",
		"--accept-package-agreements",
	}, args)
}

func TestOperationArgsDefaults(t *testing.T) {
	tests := []struct {
		intent manager.Intent
		want   []string
	}{
		{manager.IntentInstall, []string{"install", "--id", "Git.Git", "--exact", "--accept-source-agreements", "--disable-interactivity", "--accept-package-agreements"}},
		{manager.IntentUpdate, []string{"upgrade", "--id", "Git.Git", "--exact", "--include-unknown", "--accept-source-agreements", "--disable-interactivity", "--accept-package-agreements"}},
		{manager.IntentUninstall, []string{"uninstall", "--id", "Git.Git", "--exact", "--accept-source-agreements", "--disable-interactivity"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.intent), func(t *testing.T) {
			assert.Equal(t, tt.want, operationArgs(tt.intent, gitPackage, manager.InstallationOptions{}))
		})
	}
}

func TestOperationArgsAllOptions(t *testing.T) {
	opts := manager.InstallationOptions{
		Architecture:    "arm64",
		SkipHashCheck:   true,
		InstallLocation: `C:\Tools\Git`,
		Scope:           manager.ScopeMachine,
		Interactive:     true,
		CustomArgs:      []string{"--silent"},
		Version:         "2.40.0",
	}

	assert.Equal(t, []string{
		"install", "--id", "Git.Git", "--exact",
		"--accept-source-agreements",
		"--architecture", "arm64",
		"--ignore-security-hash",
		"--location", `C:\Tools\Git`,
		"--silent",
		"--scope", "machine",
		"--interactive",
		"--version", "2.40.0", "--force",
		"--accept-package-agreements",
	}, operationArgs(manager.IntentInstall, gitPackage, opts))

	// Uninstalls ignore architecture, hash and location.
	assert.Equal(t, []string{
		"uninstall", "--id", "Git.Git", "--exact",
		"--accept-source-agreements",
		"--silent",
		"--scope", "machine",
		"--interactive",
		"--version", "2.40.0", "--force",
	}, operationArgs(manager.IntentUninstall, gitPackage, opts))
}

func TestTargetByName(t *testing.T) {
	assert.Equal(t, []string{"--name", "Some Product"}, target(manager.Package{Name: "Some Product", ID: "Vendor.SomeProd…"}))
	assert.Equal(t, []string{"--name", "Tool"}, target(manager.Package{Name: "Tool"}))
	assert.Equal(t, []string{"--id", "Vendor.Tool", "--exact"}, target(manager.Package{Name: "Tool", ID: "Vendor.Tool"}))
}

func TestInferArchitecture(t *testing.T) {
	tests := []struct {
		name   string
		intent manager.Intent
		pkg    manager.Package
		opts   manager.InstallationOptions
		want   string
		forced bool
	}{
		{"x64 in id", manager.IntentInstall, manager.Package{Name: "7-Zip", ID: "7zip.7zip.x64"}, manager.InstallationOptions{}, "x64", true},
		{"x86 in id", manager.IntentInstall, manager.Package{Name: "Tool", ID: "Vendor.Tool.x86"}, manager.InstallationOptions{}, "x86", true},
		{"32-bit name", manager.IntentUninstall, manager.Package{Name: "Tool 32-bit", ID: "Vendor.Tool"}, manager.InstallationOptions{}, "x86", true},
		{"update 64-bit name", manager.IntentUpdate, manager.Package{Name: "Tool 64-bit", ID: "Vendor.Tool"}, manager.InstallationOptions{}, "x64", true},
		{"update ignores bare 64", manager.IntentUpdate, manager.Package{Name: "Tool 64", ID: "Vendor.Tool64"}, manager.InstallationOptions{}, "", false},
		{"no hint", manager.IntentInstall, gitPackage, manager.InstallationOptions{}, "", false},
		{"explicit wins", manager.IntentInstall, manager.Package{Name: "Tool", ID: "Vendor.Tool.x64"}, manager.InstallationOptions{Architecture: "arm64"}, "arm64", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, forced := inferArchitecture(tt.intent, tt.pkg, tt.opts)
			assert.Equal(t, tt.forced, forced)
			assert.Equal(t, tt.want, opts.Architecture)
		})
	}
}
