package config

// Build information injected at build time via ldflags.
//
// Build with:
//   go build -ldflags "-X 'github.com/slipstream/releasedecider/internal/config.Version=1.2.0' \
//                      -X 'github.com/slipstream/releasedecider/internal/config.Commit=abc123'"
var (
	Version = "dev"
	Commit  = ""
)

// VersionString returns the version with the commit when known.
func VersionString() string {
	if Commit == "" {
		return Version
	}
	return Version + " (" + Commit + ")"
}
