package detector

import (
	"context"
	"os/exec"
	"strings"
)

// DetectWindows fills in the Windows product name, version and build.
// Failures leave the fields unchanged.
func (s *SystemInfo) DetectWindows(ctx context.Context) {
	if !s.IsWindows() {
		return
	}

	cmd := exec.CommandContext(ctx, "powershell", "-NoProfile", "-Command",
		"$o = Get-CimInstance Win32_OperatingSystem; \"$($o.Caption)|$($o.Version)|$($o.BuildNumber)\"")
	output, err := cmd.Output()
	if err != nil {
		return
	}

	parts := strings.Split(strings.TrimSpace(string(output)), "|")
	if len(parts) != 3 {
		return
	}
	if parts[0] != "" {
		s.PrettyName = parts[0]
	}
	s.Version = parts[1]
	s.Build = parts[2]
}
