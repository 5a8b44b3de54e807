package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wingetbridge/pkg/manager"
)

func noColor(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

func TestFprintPackages(t *testing.T) {
	noColor(t)
	var buf bytes.Buffer
	FprintPackages(&buf, []manager.Package{
		{Name: "Git", ID: "Git.Git", Version: "2.42.0", Source: "Winget: winget"},
		{Name: "Visual Studio Code", ID: "Microsoft.VisualStudioCode", Version: "1.85.0", Source: "Winget: winget"},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"NAME", "ID", "VERSION", "SOURCE"}, strings.Fields(lines[0]))
	assert.True(t, strings.HasPrefix(lines[1], "Git "))
	assert.Contains(t, lines[2], "Microsoft.VisualStudioCode")
	// Columns are aligned.
	assert.Equal(t, strings.Index(lines[1], "Git.Git"), strings.Index(lines[2], "Microsoft.VisualStudioCode"))
}

func TestFprintPackagesEmpty(t *testing.T) {
	noColor(t)
	var buf bytes.Buffer
	FprintPackages(&buf, nil)
	assert.Equal(t, "No packages found\n", buf.String())
}

func TestFprintUpdates(t *testing.T) {
	noColor(t)
	var buf bytes.Buffer
	FprintUpdates(&buf, []manager.UpgradablePackage{{
		Package:          manager.Package{Name: "Git", ID: "Git.Git", Version: "2.40.0", Source: "Winget: winget"},
		AvailableVersion: "2.42.0",
	}})
	assert.Contains(t, buf.String(), "AVAILABLE")
	assert.Contains(t, buf.String(), "2.42.0")
}

func TestFprintDetailsSkipsEmptyFields(t *testing.T) {
	noColor(t)
	var buf bytes.Buffer
	FprintDetails(&buf, &manager.PackageDetails{
		Package:       manager.Package{Name: "Git", ID: "Git.Git"},
		Publisher:     "The Git Development Community",
		InstallerSize: 3 << 20,
		Tags:          []string{"vcs", "git"},
		Description:   "Git is a free and open source distributed version control system.",
	})

	out := buf.String()
	assert.Contains(t, out, "Publisher: The Git Development Community")
	assert.Contains(t, out, "Installer size: 3.0 MiB")
	assert.Contains(t, out, "Tags: vcs, git")
	assert.NotContains(t, out, "License")
	assert.NotContains(t, out, "Release notes")
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "", FormatSize(0))
	assert.Equal(t, "512 B", FormatSize(512))
	assert.Equal(t, "1.5 KiB", FormatSize(1536))
	assert.Equal(t, "2.0 GiB", FormatSize(2<<30))
}

func TestFprintSources(t *testing.T) {
	noColor(t)
	var buf bytes.Buffer
	FprintSources(&buf, []manager.ManagerSource{{Name: "winget", URL: "https://cdn.winget.microsoft.com/cache", Manager: "winget"}})
	assert.Contains(t, buf.String(), "https://cdn.winget.microsoft.com/cache")

	buf.Reset()
	FprintSources(&buf, nil)
	assert.Equal(t, "No sources configured\n", buf.String())
}
