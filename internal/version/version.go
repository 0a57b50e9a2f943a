package version

var (
	// Version is the release version (set via -ldflags).
	Version = ""
	// Commit is the git commit hash (set via -ldflags).
	Commit = ""
)

// String returns a human-readable version, "dev" when built without ldflags.
func String() string {
	v := Version
	if v == "" {
		v = "dev"
	}
	if Commit == "" {
		return v
	}
	c := Commit
	if len(c) > 12 {
		c = c[:12]
	}
	return v + " (" + c + ")"
}
