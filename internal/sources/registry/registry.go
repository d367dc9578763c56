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

// Package registry provides a registry of sources.
//
// It separates the rest of the code from the engine packages so that engines
// can be excluded from the build with `gapwatch_no_postgresql` and
// `gapwatch_no_mysql` build tags.
package registry

import (
	"fmt"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/exp/maps"

	"github.com/gapwatch/gapwatch/internal/sources"
	"github.com/gapwatch/gapwatch/internal/util/state"
)

// newSource represents a function that constructs a new source.
type newSource func(opts *NewSourceOpts) (sources.Source, error)

// registry maps source names to constructors.
//
// The values are set through the `init()` functions of files in this package
// so that we can control which engines are included in the build with build tags.
var registry = map[string]newSource{}

// NewSourceOpts represents configuration for constructing sources.
type NewSourceOpts struct {
	Logger        *zap.Logger
	StateProvider *state.Provider

	SQLiteURI     string
	PostgreSQLURI string
	MySQLURI      string
}

// NewSource constructs a new source by name.
func NewSource(name string, opts *NewSourceOpts) (sources.Source, error) {
	f := registry[name]
	if f == nil {
		return nil, fmt.Errorf("unknown source %q (available: %v)", name, Sources())
	}

	return f(opts)
}

// Sources returns a sorted list of names of registered sources.
func Sources() []string {
	res := maps.Keys(registry)
	slices.Sort(res)

	return res
}
