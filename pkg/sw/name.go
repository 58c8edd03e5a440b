package sw

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CacheName builds the version-stamped region name "<prefix>-v<version>".
// version must be a full semantic version; a leading "v" is accepted.
//
// Example:
//
//	CacheName("northwest-bus", "1.0.0") // "northwest-bus-v1.0.0"
func CacheName(prefix, version string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", fmt.Errorf("cache prefix cannot be empty")
	}

	v, err := semver.StrictNewVersion(strings.TrimPrefix(strings.TrimSpace(version), "v"))
	if err != nil {
		return "", fmt.Errorf("cache version %q: %w", version, err)
	}

	return fmt.Sprintf("%s-v%s", prefix, v.String()), nil
}
