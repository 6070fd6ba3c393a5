package license

import (
	"runtime"
	"strings"
)

// Env provides the environment descriptors used to seed a machine identifier
// when no query parameters are supplied.
type Env interface {
	// Platform returns the platform identifier (a browser's userAgent).
	Platform() (string, error)

	// Version returns the version string (a browser's appVersion).
	Version() (string, error)
}

// RuntimeEnv describes the Go runtime the CLI is executing in.
type RuntimeEnv struct{}

// Platform returns "GOOS/GOARCH".
func (RuntimeEnv) Platform() (string, error) {
	return runtime.GOOS + "/" + runtime.GOARCH, nil
}

// Version returns the Go runtime version.
func (RuntimeEnv) Version() (string, error) {
	return runtime.Version(), nil
}

// UserAgentEnv describes a browser from its User-Agent request header.
type UserAgentEnv struct {
	UserAgent string
}

// Platform returns the raw User-Agent.
func (e UserAgentEnv) Platform() (string, error) {
	return e.UserAgent, nil
}

// Version returns the User-Agent without its leading "Mozilla/" product token,
// which is what navigator.appVersion reports.
func (e UserAgentEnv) Version() (string, error) {
	return strings.TrimPrefix(e.UserAgent, "Mozilla/"), nil
}

// StaticEnv returns fixed descriptors. A non-nil Err is returned from both methods.
type StaticEnv struct {
	PlatformValue string
	VersionValue  string
	Err           error
}

func (e StaticEnv) Platform() (string, error) {
	return e.PlatformValue, e.Err
}

func (e StaticEnv) Version() (string, error) {
	return e.VersionValue, e.Err
}
