// Package buildinfo describes the build of the virtual machine: its version,
// release channel and target. Binaries carry the same information in their
// header and the loader compares the two.
package buildinfo

import (
	"fmt"
	"runtime"
)

// Channel is a release channel.
type Channel uint8

const (
	Release Channel = 0
	Alpha   Channel = 1
	Beta    Channel = 2
)

func (c Channel) String() string {
	switch c {
	case Release:
		return "release"
	case Alpha:
		return "alpha"
	case Beta:
		return "beta"
	default:
		return "unknown"
	}
}

// Version is a semantic version with a release channel.
type Version struct {
	Major   uint32  `json:"major"`
	Minor   uint16  `json:"minor"`
	Patch   uint16  `json:"patch"`
	Channel Channel `json:"channel"`
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d-%s", v.Major, v.Minor, v.Patch, v.Channel)
}

// Accepts reports whether a virtual machine at version v can run a binary
// built for other. Patch levels and channels never block execution.
func (v Version) Accepts(other Version) bool {
	if other.Major != v.Major {
		return other.Major < v.Major
	}
	return other.Minor <= v.Minor
}

// Info describes a build of the virtual machine.
type Info struct {
	Version Version `json:"version"`
	Target  string  `json:"target"`
	Commit  string  `json:"commit"`
	Date    string  `json:"date"`
}

// Default returns the build info of this package's release.
func Default() Info {
	return Info{
		Version: Version{Major: 0, Minor: 5, Patch: 0, Channel: Alpha},
		Target:  Target(runtime.GOOS, runtime.GOARCH),
		Commit:  "unknown",
		Date:    "unknown",
	}
}

// Target returns a human readable name for an operating system and
// architecture pair, for example "Linux x86_64".
func Target(goos, goarch string) string {
	osNames := map[string]string{
		"linux":   "Linux",
		"darwin":  "macOS",
		"windows": "Windows",
		"freebsd": "FreeBSD",
		"openbsd": "OpenBSD",
		"netbsd":  "NetBSD",
	}
	archNames := map[string]string{
		"amd64":   "x86_64",
		"386":     "x86",
		"arm64":   "aarch64",
		"arm":     "arm",
		"riscv64": "riscv64",
	}
	osName, ok := osNames[goos]
	if !ok {
		osName = goos
	}
	archName, ok := archNames[goarch]
	if !ok {
		archName = goarch
	}
	return osName + " " + archName
}
