package version

// Version is set at build time using ldflags:
// -ldflags "-X github.com/rxtech-lab/argo-ablation/internal/version.Version=1.2.3"
// The default value "main" indicates a development build.
var Version = "main"

// GetVersion returns the version of the running engine.
func GetVersion() string {
	return Version
}
