package plugins

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"gitlab.com/tozd/go/errors"
)

// APIVersion is the plugin API version provided by this build.
const APIVersion = "1.0"

// CompareVersions compares two version strings semantically.
// Returns:
// - -1 if v1 < v2
// - 0 if v1 == v2
// - 1 if v1 > v2
// - error if either version string is invalid
func CompareVersions(v1, v2 string) (int, error) {
	// Strip leading 'v' if present (common in version strings)
	v1 = strings.TrimPrefix(v1, "v")
	v2 = strings.TrimPrefix(v2, "v")

	version1, err := semver.NewVersion(v1)
	if err != nil {
		return 0, errors.Errorf("invalid version %s: %w", v1, err)
	}

	version2, err := semver.NewVersion(v2)
	if err != nil {
		return 0, errors.Errorf("invalid version %s: %w", v2, err)
	}

	return version1.Compare(version2), nil
}

// IsNewerVersion checks if v2 is newer than v1.
func IsNewerVersion(v1, v2 string) (bool, error) {
	comparison, err := CompareVersions(v1, v2)
	if err != nil {
		return false, err
	}
	return comparison < 0, nil
}

// IsValidVersion checks if a version string is valid semantic version.
func IsValidVersion(version string) bool {
	version = strings.TrimPrefix(version, "v")
	_, err := semver.NewVersion(version)
	return err == nil
}

// ValidateAPIVersion checks that a plugin written against pluginAPIVersion
// runs on this build: same major version, minor not newer than ours.
func ValidateAPIVersion(pluginAPIVersion string) error {
	constraint, err := semver.NewConstraint("^" + strings.TrimPrefix(pluginAPIVersion, "v"))
	if err != nil {
		return errors.Errorf("invalid api_version %q: %w", pluginAPIVersion, err)
	}
	if !constraint.Check(semver.MustParse(APIVersion)) {
		return errors.Errorf("plugin requires API version %s, but xwc-settings provides %s", pluginAPIVersion, APIVersion)
	}
	return nil
}
