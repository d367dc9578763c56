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

// Package state stores gapwatch process state.
package state

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/gapwatch/gapwatch/internal/util/lazyerrors"
)

// State represents gapwatch process state.
//
// Keep all fields backward compatible.
type State struct {
	UUID string `json:"uuid"`

	// EngineVersion is the version reported by the last database engine this process connected to.
	EngineVersion string `json:"engineVersion,omitempty"`
}

// fill replaces invalid values with default ones.
func (s *State) fill() {
	if _, err := uuid.Parse(s.UUID); err != nil {
		s.UUID = uuid.NewString()
	}
}

// deepCopy returns a deep copy of the state.
func (s *State) deepCopy() *State {
	res := *s
	return &res
}

// persistState saves state to the given file, overwriting it.
//
// If filename is empty, state is not persisted.
func persistState(s *State, filename string) error {
	if filename == "" {
		return nil
	}

	b, err := json.Marshal(s)
	if err != nil {
		return lazyerrors.Error(err)
	}

	if err = os.MkdirAll(filepath.Dir(filename), 0o777); err != nil {
		return lazyerrors.Error(err)
	}

	if err = os.WriteFile(filename, b, 0o666); err != nil {
		return lazyerrors.Error(err)
	}

	return nil
}
