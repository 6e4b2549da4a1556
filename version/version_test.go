package version

import (
	"runtime/debug"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFromBuildInfo(t *testing.T) {
	base := Info{Version: "0.0.0", Branch: "unknown", Revision: "unknown", BuiltAt: "unknown", GoVersion: "go1.24.0"}
	bi := &debug.BuildInfo{
		Main: debug.Module{Version: "v1.4.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2025-03-01T12:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}

	want := Info{
		Version:   "v1.4.0",
		Branch:    "unknown",
		Revision:  "0123456",
		BuiltAt:   "2025-03-01T12:00:00Z",
		GoVersion: "go1.24.0",
		Modified:  true,
	}
	if diff := cmp.Diff(want, fromBuildInfo(base, bi)); diff != "" {
		t.Errorf("fromBuildInfo() mismatch (-want +got):\n%s", diff)
	}

	// ldflags values win
	set := Info{Version: "2.0.0", Branch: "main", Revision: "abc", BuiltAt: "yesterday"}
	got := fromBuildInfo(set, bi)
	if got.Version != "2.0.0" || got.Revision != "abc" || got.BuiltAt != "yesterday" {
		t.Errorf("fromBuildInfo() overrode ldflags values: %+v", got)
	}

	if got := fromBuildInfo(base, &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}); got.Version != "0.0.0" {
		t.Errorf("devel build Version = %q", got.Version)
	}
}

func TestInfoString(t *testing.T) {
	s := Info{Version: "1.0.0", Revision: "abc1234", Modified: true}.String()
	if !strings.Contains(s, "Version: 1.0.0") || !strings.Contains(s, "Revision: abc1234-dirty") {
		t.Errorf("String() = %q", s)
	}
	if _, err := GetVersionInfo().JSON(); err != nil {
		t.Errorf("JSON() error: %v", err)
	}
}
