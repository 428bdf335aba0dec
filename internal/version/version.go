// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package version houses the version information for mixrelayd and
// sendrelay.
package version

import (
	"fmt"
	"regexp"
	"runtime/debug"
	"strconv"
)

// semverRE matches a semantic version string and captures its major, minor,
// patch, pre-release, and build metadata portions.
var semverRE = regexp.MustCompile(`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)` +
	`(?:-((?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*)(?:\.(?:0|[1-9]\d*|\d*` +
	`[a-zA-Z-][0-9a-zA-Z-]*))*))?(?:\+([0-9a-zA-Z-]+(?:\.[0-9a-zA-Z-]+)*))?$`)

// Version is the application version per the semantic versioning 2.0.0 spec
// (https://semver.org/).
//
// It may be overridden at build time with:
// '-ldflags "-X github.com/decred/mixrelay/internal/version.Version=fullsemver"'
//
// It MUST be a full semantic version or the package panics at init.
var Version = "0.1.0-pre"

// SemVer holds the components of a semantic version.
type SemVer struct {
	Major         uint
	Minor         uint
	Patch         uint
	PreRelease    string
	BuildMetadata string
}

// Parsed is the parsed form of Version.
var Parsed SemVer

// Parse parses a semantic version string.
func Parse(s string) (SemVer, error) {
	m := semverRE.FindStringSubmatch(s)
	if m == nil {
		return SemVer{}, fmt.Errorf("malformed version string %q: does not "+
			"conform to semver specification", s)
	}
	var v SemVer
	for i, p := range []*uint{&v.Major, &v.Minor, &v.Patch} {
		n, err := strconv.ParseUint(m[i+1], 10, 0)
		if err != nil {
			return SemVer{}, fmt.Errorf("malformed semver %q: %w", s, err)
		}
		*p = uint(n)
	}
	v.PreRelease = m[4]
	v.BuildMetadata = m[5]
	return v, nil
}

func init() {
	var err error
	Parsed, err = Parse(Version)
	if err != nil {
		panic(err)
	}
}

// String returns the application version.  When built from a version control
// checkout without build metadata, the abbreviated commit is appended as
// build metadata.
func String() string {
	if Parsed.BuildMetadata != "" {
		return Version
	}
	if commit := vcsCommitID(); commit != "" {
		return Version + "+" + commit
	}
	return Version
}

// vcsCommitID returns the abbreviated git revision embedded by the Go
// toolchain, if any.
func vcsCommitID() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	var vcs, revision string
	for _, bs := range bi.Settings {
		switch bs.Key {
		case "vcs":
			vcs = bs.Value
		case "vcs.revision":
			revision = bs.Value
		}
	}
	if vcs == "git" && len(revision) > 9 {
		revision = revision[:9]
	}
	if vcs == "" {
		return ""
	}
	return revision
}
