package winget

import (
	"strings"

	"wingetbridge/pkg/manager"
)

const (
	flagAcceptSource  = "--accept-source-agreements"
	flagAcceptPackage = "--accept-package-agreements"
)

// target addresses the package by exact Id, or by name when the Id is elided.
func target(pkg manager.Package) []string {
	if !pkg.Elided() && pkg.ID != "" {
		return []string{"--id", pkg.ID, "--exact"}
	}
	return []string{"--name", strings.TrimSpace(strings.ReplaceAll(pkg.Name, manager.ElisionMarker, ""))}
}

// parameters renders InstallationOptions. Uninstalls take no architecture,
// hash or location arguments.
func parameters(opts manager.InstallationOptions, uninstall bool) []string {
	params := []string{flagAcceptSource}
	if !uninstall {
		if opts.Architecture != "" {
			params = append(params, "--architecture", opts.Architecture)
		}
		if opts.SkipHashCheck {
			params = append(params, "--ignore-security-hash")
		}
		if opts.InstallLocation != "" {
			params = append(params, "--location", opts.InstallLocation)
		}
	}
	params = append(params, opts.CustomArgs...)
	if opts.Scope != manager.ScopeDefault {
		params = append(params, "--scope", string(opts.Scope))
	}
	if opts.Interactive {
		params = append(params, "--interactive")
	} else {
		params = append(params, "--disable-interactivity")
	}
	if opts.Version != "" {
		params = append(params, "--version", opts.Version, "--force")
	}
	return params
}

// operationArgs builds the argument vector for a mutating intent.
func operationArgs(intent manager.Intent, pkg manager.Package, opts manager.InstallationOptions) []string {
	switch intent {
	case manager.IntentUpdate:
		args := append([]string{"upgrade"}, target(pkg)...)
		args = append(args, "--include-unknown")
		args = append(args, parameters(opts, false)...)
		return append(args, flagAcceptPackage)
	case manager.IntentUninstall:
		args := append([]string{"uninstall"}, target(pkg)...)
		return append(args, parameters(opts, true)...)
	default:
		args := append([]string{"install"}, target(pkg)...)
		args = append(args, parameters(opts, false)...)
		return append(args, flagAcceptPackage)
	}
}

// inferArchitecture forces an architecture from hints in the package name or
// Id. An explicit architecture always wins.
func inferArchitecture(intent manager.Intent, pkg manager.Package, opts manager.InstallationOptions) (manager.InstallationOptions, bool) {
	if opts.Architecture != "" {
		return opts, false
	}

	var x64, x86 bool
	if intent == manager.IntentUpdate {
		id := strings.ToLower(pkg.ID)
		x64 = strings.Contains(pkg.Name, "64-bit") || strings.Contains(id, "x64")
		x86 = strings.Contains(pkg.Name, "32-bit") || strings.Contains(id, "x86")
	} else {
		x64 = strings.Contains(pkg.Name, "64") || strings.Contains(pkg.ID, "64")
		x86 = strings.Contains(pkg.ID, ".x86") || strings.Contains(pkg.Name, "32-bit")
	}

	switch {
	case x64:
		opts.Architecture = "x64"
	case x86:
		opts.Architecture = "x86"
	default:
		return opts, false
	}
	return opts, true
}
