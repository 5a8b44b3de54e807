// Package detector reports host facts the winget adapter depends on.
package detector

import (
	"os"
	"runtime"
	"strings"
)

// OSType represents the detected operating system type.
type OSType string

const (
	OSLinux   OSType = "linux"
	OSDarwin  OSType = "darwin"
	OSWindows OSType = "windows"
	OSUnknown OSType = "unknown"
)

// SystemInfo contains information about the detected system.
type SystemInfo struct {
	OS         OSType `json:"os"`
	Arch       string `json:"arch"`        // Go architecture of this binary
	HostArch   string `json:"host_arch"`   // Native architecture reported by the OS
	PrettyName string `json:"pretty_name"` // Human-readable name
	Version    string `json:"version,omitempty"`
	Build      string `json:"build,omitempty"`
}

// Detect detects the current system.
func Detect() (*SystemInfo, error) {
	info := &SystemInfo{
		Arch:     runtime.GOARCH,
		HostArch: hostArch(),
	}

	switch runtime.GOOS {
	case "linux":
		info.OS = OSLinux
		info.PrettyName = "Linux"
	case "darwin":
		info.OS = OSDarwin
		info.PrettyName = "macOS"
	case "windows":
		info.OS = OSWindows
		info.PrettyName = "Windows"
	default:
		info.OS = OSUnknown
	}

	return info, nil
}

// hostArch prefers the WOW64 variable so an x86 binary on an x64 host still
// reports the host.
func hostArch() string {
	for _, key := range []string{"PROCESSOR_ARCHITEW6432", "PROCESSOR_ARCHITECTURE"} {
		if v := os.Getenv(key); v != "" {
			return NormalizeArch(v)
		}
	}
	return NormalizeArch(runtime.GOARCH)
}

// NormalizeArch maps OS and Go architecture names to winget's vocabulary.
func NormalizeArch(arch string) string {
	switch strings.ToLower(strings.TrimSpace(arch)) {
	case "amd64", "x64", "x86_64":
		return "x64"
	case "386", "x86", "i386", "i686":
		return "x86"
	case "arm64", "aarch64":
		return "arm64"
	case "arm":
		return "arm"
	}
	return strings.ToLower(arch)
}

// IsARM returns true on ARM hosts.
func (s *SystemInfo) IsARM() bool {
	return strings.HasPrefix(s.HostArch, "arm")
}

// IsWindows returns true if the system is running Windows.
func (s *SystemInfo) IsWindows() bool {
	return s.OS == OSWindows
}

// InstallerArchitectures lists the installer architectures the host can run.
func (s *SystemInfo) InstallerArchitectures() []string {
	archs := []string{"x64", "x86"}
	if s.IsARM() {
		archs = append(archs, "arm64")
	}
	return archs
}
