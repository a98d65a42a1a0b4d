// Package platform describes the host the pipeline targets. The host is
// decided once at startup and passed down as a value; nothing below the
// entrypoint inspects runtime.GOOS.
package platform

import (
	"fmt"
	"runtime"
	"strings"
)

const (
	Darwin  = "darwin"
	Linux   = "linux"
	Windows = "windows"
)

// Host is the platform the pipeline runs on.
type Host struct {
	OS string
}

// Detect returns the platform of the running process.
func Detect() Host {
	return Host{OS: runtime.GOOS}
}

// Parse resolves a --platform value. "auto" or an empty string detects the
// running host.
func Parse(name string) (Host, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return Detect(), nil
	case Darwin, "macos":
		return Host{OS: Darwin}, nil
	case Linux:
		return Host{OS: Linux}, nil
	case Windows:
		return Host{OS: Windows}, nil
	default:
		return Host{}, fmt.Errorf("invalid platform %q: must be 'auto', 'darwin', 'linux' or 'windows'", name)
	}
}

// MetalCapable reports whether the Metal object compiler and library
// linker are available on the host.
func (h Host) MetalCapable() bool {
	return h.OS == Darwin
}

func (h Host) String() string {
	return h.OS
}
