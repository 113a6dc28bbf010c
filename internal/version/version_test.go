package version

import (
	"strings"
	"testing"
)

func TestShortRevision(t *testing.T) {
	tests := []struct {
		revision string
		dirty    bool
		want     string
	}{
		{"0123456789abcdef", false, "0123456"},
		{"0123456789abcdef", true, "0123456-dirty"},
		{"abc", false, "abc"},
	}

	for _, tt := range tests {
		if got := shortRevision(tt.revision, tt.dirty); got != tt.want {
			t.Errorf("shortRevision(%q, %v) = %q, want %q", tt.revision, tt.dirty, got, tt.want)
		}
	}
}

func TestFullAndDescribe(t *testing.T) {
	if Version == "" || Commit == "" {
		t.Fatalf("Version = %q, Commit = %q; want both populated", Version, Commit)
	}
	if !strings.Contains(Full(), Commit) {
		t.Errorf("Full() = %q, want commit %q", Full(), Commit)
	}
	if got := Describe("wsecho-server"); !strings.HasPrefix(got, "wsecho-server "+Version) {
		t.Errorf("Describe() = %q", got)
	}
}
