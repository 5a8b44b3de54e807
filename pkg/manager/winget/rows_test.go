package winget

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wingetbridge/pkg/manager"
)

func newParser(t *testing.T, intent manager.Intent, header string) *RowParser {
	t.Helper()
	cols, ok := LocateColumns(header)
	require.True(t, ok)
	return &RowParser{Intent: intent, Columns: cols, Repositories: []string{"msstore", "winget"}, Label: Label}
}

func TestParseSearchRows(t *testing.T) {
	p := newParser(t, manager.IntentSearch, searchHeader())

	tests := []struct {
		name string
		line string
		want Row
	}{
		{
			name: "plain",
			line: fmt.Sprintf(searchFmt, "Git", "Git.Git", "2.43.0", "winget"),
			want: Row{Name: "Git", ID: "Git.Git", Version: "2.43.0", Source: "Winget: winget"},
		},
		{
			name: "store",
			line: fmt.Sprintf(searchFmt, "Microsoft To Do", "9NBLGGH5R558", "Unknown", "msstore"),
			want: Row{Name: "Microsoft To Do", ID: "9NBLGGH5R558", Version: "Unknown", Source: "Winget: msstore"},
		},
		{
			name: "match column before source",
			line: fmt.Sprintf("%-30s%-25s%-12s%-14s%s", "Visual Studio Code", "Microsoft.VisualStudioCode", "1.85.1", "Tag: vscode", "winget"),
			want: Row{Name: "Visual Studio Code", ID: "Microsoft.VisualStudioCode", Version: "1.85.1", Source: "Winget: winget"},
		},
		{
			name: "no source token",
			line: fmt.Sprintf(searchFmt, "Tool", "Vendor.Tool", "1.0", ""),
			want: Row{Name: "Tool", ID: "Vendor.Tool", Version: "1.0", Source: "Winget"},
		},
		{
			name: "elided id kept verbatim",
			line: fmt.Sprintf(searchFmt, "Some Long Product…", "Vendor.SomeLongProd…", "3.1", "winget"),
			want: Row{Name: "Some Long Product…", ID: "Vendor.SomeLongProd…", Version: "3.1", Source: "Winget: winget"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, ok := p.Parse(tt.line)
			require.True(t, ok)
			assert.Equal(t, tt.want, row)
		})
	}
}

func TestParseVersionGlyph(t *testing.T) {
	p := newParser(t, manager.IntentListUpdates, updatesHeader())

	row, ok := p.Parse(fmt.Sprintf(updatesFmt, "Foo Tool", "Foo.Tool", "< 1.4.0", "1.5.0", "winget"))
	require.True(t, ok)
	assert.Equal(t, Row{Name: "Foo Tool", ID: "Foo.Tool", Version: "< 1.4.0", Available: "1.5.0", Source: "Winget: winget"}, row)
}

func TestParseOneRuneShift(t *testing.T) {
	p := newParser(t, manager.IntentSearch, searchHeader())

	// The name's last word starts exactly at the Id column.
	name := strings.Repeat("a", 29) + " X"
	row, ok := p.Parse(fmt.Sprintf("%-32s%-23s%-12s%s", name, "App.Id", "1.0", "winget"))
	require.True(t, ok)
	assert.Equal(t, name, row.Name)
	assert.Equal(t, "App.Id", row.ID)
	assert.Equal(t, "1.0", row.Version)
	assert.Equal(t, FallbackNone, row.Fallback)
}

func TestParseDoubleSpaceFallback(t *testing.T) {
	p := newParser(t, manager.IntentSearch, searchHeader())

	t.Run("id split by the column boundary", func(t *testing.T) {
		row, ok := p.Parse("Long App Name  LongPub.LongApp1 1.0 winget")
		require.True(t, ok)
		assert.Equal(t, "Long App Name", row.Name)
		assert.Equal(t, "LongPub.LongApp1", row.ID)
		assert.Equal(t, "1.0", row.Version)
		assert.Equal(t, "Winget: winget", row.Source)
		assert.Equal(t, FallbackMarker, row.Fallback)
	})

	t.Run("id entirely inside the name column", func(t *testing.T) {
		row, ok := p.Parse(fmt.Sprintf("%-30s%s", "Some App  Vendor.App", "2.0 winget"))
		require.True(t, ok)
		assert.Equal(t, "Some App", row.Name)
		assert.Equal(t, "Vendor.App", row.ID)
		assert.Equal(t, "2.0", row.Version)
		assert.Equal(t, FallbackMarker, row.Fallback)
	})
}

func TestParseFixedOffsetFallback(t *testing.T) {
	p := newParser(t, manager.IntentListUpdates, updatesHeader())

	row, ok := p.Parse(fmt.Sprintf(updatesFmt, "Broken", "Broken.App", "1.0", "", ""))
	require.True(t, ok)
	assert.Equal(t, Row{Name: "Broken", ID: "Broken.App", Version: "1.0", Source: "Winget", Fallback: FallbackOffsets}, row)
}

func TestParseInstalledRows(t *testing.T) {
	p := newParser(t, manager.IntentListInstalled, updatesHeader())

	tests := []struct {
		name string
		line string
		want Row
	}{
		{
			name: "repository column",
			line: fmt.Sprintf(updatesFmt, "Git", "Git.Git", "2.43.0", "", "winget"),
			want: Row{Name: "Git", ID: "Git.Git", Version: "2.43.0", Source: "Winget: winget"},
		},
		{
			name: "id with spaces",
			line: fmt.Sprintf(updatesFmt, "Portal 2", "Steam App 620", "Unknown", "", ""),
			want: Row{Name: "Portal 2", ID: "Steam App 620", Version: "Unknown", Source: OriginSteam},
		},
		{
			name: "registry key",
			line: fmt.Sprintf(updatesFmt, "Legacy Tool", "{8A69D345-D564}", "4.2", "", ""),
			want: Row{Name: "Legacy Tool", ID: "{8A69D345-D564}", Version: "4.2", Source: OriginLocalPC},
		},
		{
			name: "android package",
			line: fmt.Sprintf(updatesFmt, "Kindle", "com.amazon.kindle", "1.0", "", ""),
			want: Row{Name: "Kindle", ID: "com.amazon.kindle", Version: "1.0", Source: OriginAndroid},
		},
		{
			name: "unsourced winget id",
			line: fmt.Sprintf(updatesFmt, "Mozilla Firefox (x64 en-US)", "Mozilla.Firefox", "121.0", "", ""),
			want: Row{Name: "Mozilla Firefox (x64 en-US)", ID: "Mozilla.Firefox", Version: "121.0", Source: "Winget: winget"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, ok := p.Parse(tt.line)
			require.True(t, ok)
			assert.Equal(t, tt.want, row)
		})
	}
}

func TestParseNoSourcesColumn(t *testing.T) {
	header := fmt.Sprintf("%-30s%-25s%s", "Name", "Id", "Version")
	p := newParser(t, manager.IntentSearch, header)

	row, ok := p.Parse(fmt.Sprintf("%-30s%-25s%s", "Tool", "Vendor.Tool", "1.0"))
	require.True(t, ok)
	assert.Equal(t, "Winget", row.Source)
}

func TestParseDenylist(t *testing.T) {
	p := newParser(t, manager.IntentSearch, searchHeader())

	for _, line := range []string{
		"",
		"     ",
		searchHeader(),
		fmt.Sprintf(searchFmt, "Tool", "Vendor.Tool", "Version", "winget"),
		fmt.Sprintf(searchFmt, "Some", "the", "1.0", "winget"),
	} {
		_, ok := p.Parse(line)
		assert.False(t, ok, "%q", line)
	}
}

func TestParseDoubleSpaceInAlignedName(t *testing.T) {
	t.Run("update row", func(t *testing.T) {
		p := newParser(t, manager.IntentListUpdates, updatesHeader())
		row, ok := p.Parse(fmt.Sprintf(updatesFmt, "Big  Name", "Vendor.Big", "1.0", "2.0", "winget"))
		require.True(t, ok)
		assert.Equal(t, Row{Name: "Big  Name", ID: "Vendor.Big", Version: "1.0", Available: "2.0", Source: "Winget: winget"}, row)
	})

	t.Run("hash in name", func(t *testing.T) {
		p := newParser(t, manager.IntentSearch, searchHeader())
		row, ok := p.Parse(fmt.Sprintf(searchFmt, "C# Dev  Kit", "Microsoft.CSDevKit", "1.0", "winget"))
		require.True(t, ok)
		assert.Equal(t, Row{Name: "C# Dev  Kit", ID: "Microsoft.CSDevKit", Version: "1.0", Source: "Winget: winget"}, row)
	})

	t.Run("hash in misaligned name", func(t *testing.T) {
		p := newParser(t, manager.IntentSearch, searchHeader())
		row, ok := p.Parse("C# Dev  Kit  Microsoft.CSharpDevKit 1.0 winget")
		require.True(t, ok)
		assert.Equal(t, Row{Name: "C# Dev Kit", ID: "Microsoft.CSharpDevKit", Version: "1.0", Source: "Winget: winget", Fallback: FallbackMarker}, row)
	})
}

func TestParseVCRedist2010(t *testing.T) {
	const format = "%-42s%-30s%-14s%-12s%s"
	p := newParser(t, manager.IntentListUpdates, fmt.Sprintf(format, "Name", "Id", "Version", "Available", "Source"))

	line := fmt.Sprintf(format, "Microsoft Visual C++ 2010  x64 Redistr…", "Microsoft.VCRedist.2010.x64", "10.0.40219", "10.0.40219.1", "winget")
	row, ok := p.Parse(line)
	require.True(t, ok)
	assert.Equal(t, Row{
		Name:      "Microsoft Visual C++ 2010 x64 Redistr…",
		ID:        "Microsoft.VCRedist.2010.x64",
		Version:   "10.0.40219",
		Available: "10.0.40219.1",
		Source:    "Winget: winget",
	}, row)
}

func TestRecoverRow(t *testing.T) {
	_, err := recoverRow(func() (Row, error) { panic("index out of range") })
	assert.ErrorContains(t, err, "index out of range")

	row, err := recoverRow(func() (Row, error) { return Row{ID: "A.B"}, nil })
	require.NoError(t, err)
	assert.Equal(t, "A.B", row.ID)
}

func TestSplitRuns(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitRuns("a  b     c"))
	assert.Equal(t, []string{"a b", "c"}, splitRuns("a b   c"))
	assert.Equal(t, []string{"C# Dev", "Kit"}, splitRuns(" C# Dev  Kit "))
}
