package config

import "fmt"

// CurrentVersion is the latest supported configuration file version.
const CurrentVersion = 1

// VersionError describes a configuration version mismatch.
type VersionError struct {
	Version int
	Current int
	Reason  string
}

const reasonNewer = "newer than this build"

func (e *VersionError) Error() string {
	if e == nil {
		return ""
	}
	if e.Reason == reasonNewer {
		return fmt.Sprintf("config version %d is newer than this build (current: %d); upgrade simpleplugin to continue", e.Version, e.Current)
	}
	return fmt.Sprintf("config version %d is %s (current: %d); set version: %d and review `simpleplugin config schema`", e.Version, e.Reason, e.Current, e.Current)
}

// ValidateVersion ensures the provided config version is supported.
func ValidateVersion(version int) error {
	switch {
	case version <= 0:
		return &VersionError{Version: version, Current: CurrentVersion, Reason: "missing or outdated"}
	case version < CurrentVersion:
		return &VersionError{Version: version, Current: CurrentVersion, Reason: "outdated"}
	case version > CurrentVersion:
		return &VersionError{Version: version, Current: CurrentVersion, Reason: reasonNewer}
	}
	return nil
}
