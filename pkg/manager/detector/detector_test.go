package detector

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	info, err := Detect()
	require.NoError(t, err)
	require.NotNil(t, info)

	assert.Equal(t, runtime.GOARCH, info.Arch)
	assert.NotEmpty(t, info.HostArch)

	switch runtime.GOOS {
	case "linux":
		assert.Equal(t, OSLinux, info.OS)
	case "darwin":
		assert.Equal(t, OSDarwin, info.OS)
	case "windows":
		assert.Equal(t, OSWindows, info.OS)
	}
}

func TestHostArchFromEnvironment(t *testing.T) {
	t.Setenv("PROCESSOR_ARCHITEW6432", "")
	t.Setenv("PROCESSOR_ARCHITECTURE", "ARM64")

	info, err := Detect()
	require.NoError(t, err)
	assert.Equal(t, "arm64", info.HostArch)
	assert.True(t, info.IsARM())
	assert.Equal(t, []string{"x64", "x86", "arm64"}, info.InstallerArchitectures())

	t.Setenv("PROCESSOR_ARCHITEW6432", "AMD64")
	t.Setenv("PROCESSOR_ARCHITECTURE", "x86")
	info, err = Detect()
	require.NoError(t, err)
	assert.Equal(t, "x64", info.HostArch)
	assert.False(t, info.IsARM())
	assert.Equal(t, []string{"x64", "x86"}, info.InstallerArchitectures())
}

func TestNormalizeArch(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"AMD64", "x64"},
		{"x86_64", "x64"},
		{"386", "x86"},
		{"aarch64", "arm64"},
		{"arm", "arm"},
		{"riscv64", "riscv64"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeArch(tt.in))
		})
	}
}

func TestDetectWindowsNoopElsewhere(t *testing.T) {
	info := &SystemInfo{OS: OSLinux, PrettyName: "Linux"}
	info.DetectWindows(context.Background())
	assert.Equal(t, "Linux", info.PrettyName)
	assert.Empty(t, info.Build)
}
