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

package state

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider(t *testing.T) {
	t.Parallel()

	filename := filepath.Join(t.TempDir(), "state.json")

	p1, err := NewProvider(filename)
	require.NoError(t, err)

	s1 := p1.Get()
	require.NotEmpty(t, s1.UUID)
	_, err = uuid.Parse(s1.UUID)
	require.NoError(t, err)

	// a different provider for the same file sees the same state
	p2, err := NewProvider(filename)
	require.NoError(t, err)
	assert.Equal(t, s1, p2.Get())

	ch := p1.Subscribe()
	<-ch

	err = p1.Update(func(s *State) { s.EngineVersion = "3.45.0" })
	require.NoError(t, err)

	select {
	case <-ch:
	default:
		t.Fatal("subscriber was not notified")
	}

	assert.Equal(t, "3.45.0", p1.Get().EngineVersion)

	// Get returns a copy
	p1.Get().EngineVersion = "changed"
	assert.Equal(t, "3.45.0", p1.Get().EngineVersion)
}

func TestProviderNotPersisted(t *testing.T) {
	t.Parallel()

	p, err := NewProvider("")
	require.NoError(t, err)
	require.NotEmpty(t, p.Get().UUID)
}
