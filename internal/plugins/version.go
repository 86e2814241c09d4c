package plugins

import (
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CompareVersions compares two version strings component-wise: split on
// ".", each component parsed as an integer, missing trailing components
// treated as 0. The first non-equal component decides the ordering.
// Returns:
// - -1 if v1 < v2
// - 0 if v1 == v2
// - 1 if v1 > v2
func CompareVersions(v1, v2 string) int {
	// Strip leading 'v' if present (common in version strings)
	c1 := strings.Split(strings.TrimPrefix(strings.TrimSpace(v1), "v"), ".")
	c2 := strings.Split(strings.TrimPrefix(strings.TrimSpace(v2), "v"), ".")

	n := len(c1)
	if len(c2) > n {
		n = len(c2)
	}
	for i := 0; i < n; i++ {
		a := componentValue(c1, i)
		b := componentValue(c2, i)
		if a != b {
			if a < b {
				return -1
			}
			return 1
		}
	}
	return 0
}

func componentValue(components []string, i int) int {
	if i >= len(components) {
		return 0
	}
	// Non-numeric components (pre-release tags and the like) compare as 0.
	v, err := strconv.Atoi(strings.TrimSpace(components[i]))
	if err != nil {
		return 0
	}
	return v
}

// IsNewerVersion checks if v2 is newer than v1.
func IsNewerVersion(v1, v2 string) bool {
	return CompareVersions(v1, v2) < 0
}

// IsValidVersion checks if a version string is a valid semantic version.
// Used to filter garbage version strings out of repository manifests
// before they reach the update list.
func IsValidVersion(version string) bool {
	// Strip leading 'v' if present
	version = strings.TrimPrefix(version, "v")
	_, err := semver.NewVersion(version)
	return err == nil
}
