// Copyright 2024 Gapwatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package version provides information about the gapwatch build.
package version

import (
	"runtime/debug"

	"github.com/gapwatch/gapwatch/internal/util/debugbuild"
)

// Info provides details about the current build.
//
//nolint:vet // for readability
type Info struct {
	Version    string
	Commit     string
	Dirty      bool
	DebugBuild bool
	GoVersion  string
}

// Set by the linker via -ldflags for release builds;
// the VCS information from the build info is the fallback.
var version = "unknown"

var info *Info

// Get returns current build's info.
//
// It returns a shared instance without any synchronization;
// the caller must not modify it.
func Get() *Info {
	return info
}

func init() {
	info = &Info{
		Version:    version,
		Commit:     "unknown",
		DebugBuild: debugbuild.Enabled,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	info.GoVersion = bi.GoVersion

	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Commit = s.Value
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
}
