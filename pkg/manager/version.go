package manager

import (
	"sort"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CompareVersions compares two version strings. It uses semantic versioning
// when both sides parse, and a segment-wise numeric comparison otherwise
// (winget versions often carry four components).
// Returns -1 if a < b, 0 if equal and 1 if a > b.
func CompareVersions(a, b string) int {
	a = strings.TrimPrefix(strings.TrimSpace(a), "v")
	b = strings.TrimPrefix(strings.TrimSpace(b), "v")

	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	if errA == nil && errB == nil {
		return va.Compare(vb)
	}
	return compareSegments(a, b)
}

func compareSegments(a, b string) int {
	sa := strings.FieldsFunc(a, isVersionSeparator)
	sb := strings.FieldsFunc(b, isVersionSeparator)
	for i := 0; i < len(sa) || i < len(sb); i++ {
		var x, y string
		if i < len(sa) {
			x = sa[i]
		}
		if i < len(sb) {
			y = sb[i]
		}
		if c := compareSegment(x, y); c != 0 {
			return c
		}
	}
	return 0
}

func compareSegment(x, y string) int {
	nx, errX := strconv.ParseUint(orZero(x), 10, 64)
	ny, errY := strconv.ParseUint(orZero(y), 10, 64)
	switch {
	case errX == nil && errY == nil:
		switch {
		case nx < ny:
			return -1
		case nx > ny:
			return 1
		}
		return 0
	case errX == nil:
		// Numeric segments sort after textual ones ("1.0.beta" < "1.0.1").
		return 1
	case errY == nil:
		return -1
	}
	return strings.Compare(x, y)
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

func isVersionSeparator(r rune) bool {
	return r == '.' || r == '-' || r == '+' || r == '_'
}

// IsUpgrade reports whether the record denotes a genuine upgrade: the
// available version differs from the installed one, or is unknown.
func (u UpgradablePackage) IsUpgrade() bool {
	if u.AvailableVersion == "" {
		return false
	}
	if u.AvailableVersion == UnknownVersion {
		return true
	}
	if u.AvailableVersion == u.Version {
		return false
	}
	return CompareVersions(u.Version, u.AvailableVersion) != 0
}

// SortVersionsDesc orders versions newest first.
func SortVersionsDesc(versions []string) {
	sort.SliceStable(versions, func(i, j int) bool {
		return CompareVersions(versions[i], versions[j]) > 0
	})
}
