package descriptor

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var buildMetadataReplacer = regexp.MustCompile(`[^0-9A-Za-z.-]+`)

// BuildVersion is the plugin's own version stamp, used for diagnostics and
// update checks. Build is free-form (a commit hash, a date, "x").
type BuildVersion struct {
	Major    int    `yaml:"major" json:"major" validate:"gte=0"`
	Minor    int    `yaml:"minor" json:"minor" validate:"gte=0"`
	Revision int    `yaml:"revision" json:"revision" validate:"gte=0"`
	Build    string `yaml:"build,omitempty" json:"build,omitempty"`
}

// String renders major.minor.revision[.build], the form shown in plugin managers.
func (v BuildVersion) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Revision)
	if v.Build != "" {
		s += "." + v.Build
	}
	return s
}

// Semver returns the version with Build carried as semver build metadata.
// Build metadata does not take part in ordering.
func (v BuildVersion) Semver() (*semver.Version, error) {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Revision)
	if build := strings.Trim(buildMetadataReplacer.ReplaceAllString(v.Build, "-"), ".-"); build != "" {
		s += "+" + build
	}
	return semver.NewVersion(s)
}

// CompareVersions compares two version strings semantically.
// Returns:
// - -1 if v1 < v2
// - 0 if v1 == v2
// - 1 if v1 > v2
// - error if either version string is invalid
func CompareVersions(v1, v2 string) (int, error) {
	v1 = strings.TrimPrefix(v1, "v")
	v2 = strings.TrimPrefix(v2, "v")

	version1, err := semver.NewVersion(v1)
	if err != nil {
		return 0, fmt.Errorf("invalid version %s: %w", v1, err)
	}

	version2, err := semver.NewVersion(v2)
	if err != nil {
		return 0, fmt.Errorf("invalid version %s: %w", v2, err)
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
