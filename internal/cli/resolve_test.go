package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wingetbridge/internal/config"
	"wingetbridge/pkg/manager"
)

// queryManager answers Search and ListInstalled from fixed lists. Other
// methods are not used by package resolution.
type queryManager struct {
	manager.Manager
	found     []manager.Package
	installed []manager.Package
}

func (q *queryManager) Name() string { return "winget" }

func (q *queryManager) Search(_ context.Context, query string) ([]manager.Package, error) {
	var out []manager.Package
	for _, p := range q.found {
		if containsFold(p.Name, query) || containsFold(p.ID, query) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (q *queryManager) ListInstalled(context.Context) ([]manager.Package, error) {
	return q.installed, nil
}

func withConfig(t *testing.T, autoConfirm bool) {
	t.Helper()
	prev := cfg
	cfg = config.Default()
	cfg.General.AutoConfirm = autoConfirm
	t.Cleanup(func() { cfg = prev })
}

func TestResolvePackage(t *testing.T) {
	withConfig(t, true)
	mgr := &queryManager{
		found: []manager.Package{
			{Name: "Git", ID: "Git.Git", Source: "Winget: winget"},
			{Name: "GitHub Desktop", ID: "GitHub.GitHubDesktop", Source: "Winget: winget"},
			{Name: "7-Zip", ID: "7zip.7zip", Source: "Winget: winget"},
		},
		installed: []manager.Package{
			{Name: "Steam", ID: "Steam", Source: "Winget: Steam"},
		},
	}
	ctx := context.Background()

	t.Run("Exact flag skips lookup", func(t *testing.T) {
		pkg, err := resolvePackage(ctx, mgr, "Some.Id", false, true)
		require.NoError(t, err)
		assert.Equal(t, manager.Package{Name: "Some.Id", ID: "Some.Id", Manager: "winget"}, pkg)
	})

	t.Run("Exact Id wins over other matches", func(t *testing.T) {
		pkg, err := resolvePackage(ctx, mgr, "git.git", false, false)
		require.NoError(t, err)
		assert.Equal(t, "Git.Git", pkg.ID)
	})

	t.Run("Single candidate", func(t *testing.T) {
		pkg, err := resolvePackage(ctx, mgr, "7-zip", false, false)
		require.NoError(t, err)
		assert.Equal(t, "7zip.7zip", pkg.ID)
	})

	t.Run("Ambiguous without prompt", func(t *testing.T) {
		_, err := resolvePackage(ctx, mgr, "git", false, false)
		assert.ErrorIs(t, err, ErrAmbiguous)
	})

	t.Run("Not found", func(t *testing.T) {
		_, err := resolvePackage(ctx, mgr, "vim", false, false)
		assert.ErrorIs(t, err, ErrPackageNotFound)
	})

	t.Run("Installed list", func(t *testing.T) {
		pkg, err := resolvePackage(ctx, mgr, "steam", true, false)
		require.NoError(t, err)
		assert.Equal(t, "Winget: Steam", pkg.Source)

		_, err = resolvePackage(ctx, mgr, "git", true, false)
		assert.ErrorIs(t, err, ErrPackageNotFound)
	})
}

func TestOptionFlags(t *testing.T) {
	var f optionFlags
	cmd := &cobra.Command{Use: "install"}
	f.register(cmd, false)
	require.NoError(t, cmd.ParseFlags([]string{"--scope", "machine", "-a", "arm64", "--custom", "--override,/S", "--version", "1.2.3"}))

	opts, err := f.options()
	require.NoError(t, err)
	assert.Equal(t, manager.ScopeMachine, opts.Scope)
	assert.Equal(t, "arm64", opts.Architecture)
	assert.Equal(t, "1.2.3", opts.Version)
	assert.Equal(t, []string{"--override", "/S"}, opts.CustomArgs)

	f.scope = "everyone"
	_, err = f.options()
	assert.Error(t, err)
}

func TestUninstallFlagsOmitInstallerOptions(t *testing.T) {
	var f optionFlags
	cmd := &cobra.Command{Use: "uninstall"}
	f.register(cmd, true)
	assert.Nil(t, cmd.Flags().Lookup("arch"))
	assert.Nil(t, cmd.Flags().Lookup("skip-hash"))
	assert.NotNil(t, cmd.Flags().Lookup("scope"))
}

func TestConfirmSkippedWhenAutoConfirm(t *testing.T) {
	withConfig(t, true)
	assert.NoError(t, confirm("Proceed?", false))
}

func TestFilterSource(t *testing.T) {
	pkgs := []manager.Package{
		{ID: "A", Source: "Winget: winget"},
		{ID: "B", Source: "Winget: msstore"},
	}
	assert.Len(t, filterSource(pkgs, ""), 2)
	got := filterSource(pkgs, "MSSTORE")
	require.Len(t, got, 1)
	assert.Equal(t, "B", got[0].ID)
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Install", titleCase("install"))
	assert.Equal(t, "", titleCase(""))
	assert.True(t, strings.HasPrefix(titleCase(intentVerb(manager.IntentUninstall)), "Un"))
}
