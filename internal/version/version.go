// Package version carries build information for the syncer binary.
//
// Set at build time via ldflags:
//
//	go build -ldflags "-X github.com/rickgao/dao-risk/internal/version.Version=1.0.0 \
//	                   -X github.com/rickgao/dao-risk/internal/version.Commit=$(git rev-parse --short HEAD) \
//	                   -X github.com/rickgao/dao-risk/internal/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	         ./cmd/syncer
package version

// Product names this software in user agents and logs.
const Product = "dao-risk"

var (
	// Version is the semantic version, "dev" for local builds.
	Version = "dev"

	// Commit is the short git commit hash.
	Commit = "unknown"

	// BuildTime is the UTC build timestamp (ISO 8601).
	BuildTime = "unknown"
)

// String returns "<version> (<commit>) built <time>".
func String() string {
	return Version + " (" + Commit + ") built " + BuildTime
}

// UserAgent identifies outbound requests to upstream providers, which
// rate-limit per client.
func UserAgent() string {
	return Product + "/" + Version + " (+" + Commit + ")"
}
