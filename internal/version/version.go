package version

import "fmt"

// Set at link time with -ldflags "-X github.com/banshee-data/lidarpaint/internal/version.Version=...".
var (
	// Version is the release tag
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String formats the build identity for -version output and startup logs.
func String() string {
	sha := GitSHA
	if len(sha) > 7 {
		sha = sha[:7]
	}
	return fmt.Sprintf("lidarpaint %s (%s, built %s)", Version, sha, BuildTime)
}
