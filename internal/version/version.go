// Package version carries build information stamped in with ldflags:
//
//	go build -ldflags "-X github.com/rickgao/kalshi-tennis/internal/version.Version=0.3.0 \
//	                   -X github.com/rickgao/kalshi-tennis/internal/version.Commit=$(git rev-parse --short HEAD)" ./cmd/...
package version

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// String returns "version (commit) built time".
func String() string {
	return Version + " (" + Commit + ") built " + BuildTime
}

// UserAgent is sent on outgoing Kalshi requests.
func UserAgent() string {
	return "kalshi-tennis/" + Version
}
