package version

// Version is the engine version stamped on summaries and compared against
// the engine_version a strategy document may declare.
// Set at build time using ldflags:
// -ldflags "-X github.com/zakaria-lahyani/backtester/internal/version.Version=0.4.0"
// The value "main" marks a development build.
var Version = "v0.4.0"

// GetVersion returns the current engine version.
func GetVersion() string {
	return Version
}
