// Package version holds build information. Values are overridden at build time via -ldflags -X.
package version

//nolint:gochecknoglobals // set by the linker
var (
	name    = "logsift"
	version = "dev"
	commit  = "unknown"
)

// Name returns the program name.
func Name() string {
	return name
}

// Version returns the semantic version.
func Version() string {
	return version
}

// Commit returns the git commit the binary was built from.
func Commit() string {
	return commit
}
