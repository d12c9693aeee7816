// Package buildinfo reports the relay's version.
//
// Version, Commit and BuildTime are injected at build time:
//
//	go build -ldflags "-X github.com/yndnr/mixrelay-go/internal/infra/buildinfo.Version=v1.0.0"
//
// Anything not injected falls back to the module version and VCS stamp
// recorded by the Go toolchain.
package buildinfo
