package version

const (
	// Name of the application
	Name = "LogTrackr"
)

var (
	// Version is the semantic version
	Version = "0.4.0"
	// BuildTime is set during build via ldflags
	BuildTime = "unknown"
	// GitCommit is set during build via ldflags
	GitCommit = "unknown"
)

// Full returns the complete version string.
func Full() string {
	if BuildTime != "unknown" && GitCommit != "unknown" {
		return Name + " " + Version + " (commit: " + GitCommit + ", built: " + BuildTime + ")"
	}
	return Name + " " + Version
}
