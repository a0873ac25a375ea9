package versions

import (
	"fmt"
	"runtime"
	"testing"
)

func TestGetVersionInfo(t *testing.T) { //nolint:paralleltest // Modifies global variables
	// Cannot run in parallel because it modifies global variables
	origVersion := Version
	origCommit := Commit
	origBuildDate := BuildDate
	defer func() {
		Version = origVersion
		Commit = origCommit
		BuildDate = origBuildDate
	}()

	tests := []struct {
		name      string
		version   string
		commit    string
		buildDate string
		wantCheck func(VersionInfo) bool
	}{
		{
			name:      "release version",
			version:   "v1.2.3",
			commit:    "abc123def456789",
			buildDate: "2024-01-15T10:30:00Z",
			wantCheck: func(v VersionInfo) bool {
				return v.Version == "v1.2.3" &&
					v.Commit == "abc123def456789" &&
					v.BuildDate == "2024-01-15 10:30:00 UTC" &&
					v.GoVersion == runtime.Version() &&
					v.Platform == fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
			},
		},
		{
			name:      "invalid date passes through",
			version:   "v2.0.0",
			commit:    "xyz789",
			buildDate: "not-a-date",
			wantCheck: func(v VersionInfo) bool {
				return v.Version == "v2.0.0" && v.BuildDate == "not-a-date"
			},
		},
		{
			name:      "unknown build date stays unknown",
			version:   "v2.0.0",
			commit:    "xyz789",
			buildDate: unknownStr,
			wantCheck: func(v VersionInfo) bool {
				return v.BuildDate == unknownStr
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Version = tt.version
			Commit = tt.commit
			BuildDate = tt.buildDate

			got := GetVersionInfo()
			if !tt.wantCheck(got) {
				t.Errorf("GetVersionInfo() = %+v, failed check", got)
			}
		})
	}
}
