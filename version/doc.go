// Package version reports build information on the /info endpoint and in
// the startup log.
//
// Values are set at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/wirekit/version.Version=1.0.0"
package version
