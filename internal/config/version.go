package config

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CheckVersions compares the old and new upstream versions. It returns a
// warning when the new version is not newer; versions that are not
// semantic versions are not compared.
func CheckVersions(oldVersion, newVersion string) (string, error) {
	if oldVersion == "" || newVersion == "" {
		return "", nil
	}
	oldV, err := semver.NewVersion(strings.TrimPrefix(oldVersion, "v"))
	if err != nil {
		return "", nil
	}
	newV, err := semver.NewVersion(strings.TrimPrefix(newVersion, "v"))
	if err != nil {
		return "", fmt.Errorf("new version %q is not comparable with %q: %w", newVersion, oldVersion, err)
	}

	switch newV.Compare(oldV) {
	case 0:
		return fmt.Sprintf("new version %s is the same as the old version", newV), nil
	case -1:
		return fmt.Sprintf("new version %s is older than the old version %s", newV, oldV), nil
	}
	return "", nil
}
