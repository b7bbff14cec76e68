package config

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateVersion(t *testing.T) {
	tests := []struct {
		name    string
		version int
		reason  string
	}{
		{name: "current", version: CurrentVersion},
		{name: "zero", version: 0, reason: "missing or outdated"},
		{name: "negative", version: -1, reason: "missing or outdated"},
		{name: "newer", version: CurrentVersion + 1, reason: "newer than this build"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVersion(tt.version)
			if tt.reason == "" {
				if err != nil {
					t.Fatalf("ValidateVersion(%d) = %v", tt.version, err)
				}
				return
			}
			var ve *VersionError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *VersionError, got %v", err)
			}
			if ve.Reason != tt.reason {
				t.Fatalf("reason = %q, want %q", ve.Reason, tt.reason)
			}
		})
	}
}

func TestVersionErrorMessage(t *testing.T) {
	newer := ValidateVersion(CurrentVersion + 1).Error()
	if !strings.Contains(newer, "upgrade simpleplugin") {
		t.Errorf("newer message = %q", newer)
	}
	old := ValidateVersion(0).Error()
	if !strings.Contains(old, "set version: 1") {
		t.Errorf("outdated message = %q", old)
	}

	var nilErr *VersionError
	if nilErr.Error() != "" {
		t.Errorf("nil VersionError should render empty")
	}
}
