package build

// Info holds build-time information injected during compilation, for
// example:
//
//	go build -ldflags "-X .../internal/build.buildVersion=0.2.0"
//
// Development builds leave the flags unset and fall back to defaults.
type Info struct {
	Name    string // Application name
	Time    string // Build timestamp
	Commit  string // Git commit hash
	Version string // Semantic version
}

var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string

	info = Info{
		Name:    "micmon",
		Time:    "unknown",
		Commit:  "unknown",
		Version: "dev",
	}
)

// Initialize copies any injected ldflags values over the development
// defaults. Call once at startup before reading GetInfo.
func Initialize() {
	if buildName != "" {
		info.Name = buildName
	}
	if buildTime != "" {
		info.Time = buildTime
	}
	if buildCommit != "" {
		info.Commit = buildCommit
	}
	if buildVersion != "" {
		info.Version = buildVersion
	}
}

// GetInfo returns the current build information.
func GetInfo() Info {
	return info
}
