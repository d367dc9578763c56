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

package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestCircularBuffer(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() {
		NewCircularBuffer(0)
	})

	cb := NewCircularBuffer(2)
	assert.Empty(t, cb.Get())

	e1 := &zapcore.Entry{Message: "one"}
	e2 := &zapcore.Entry{Message: "two"}
	e3 := &zapcore.Entry{Message: "three"}

	cb.append(e1)
	assert.Equal(t, []*zapcore.Entry{e1}, cb.Get())

	cb.append(e2)
	assert.Equal(t, []*zapcore.Entry{e1, e2}, cb.Get())

	// oldest entry is evicted
	cb.append(e3)
	assert.Equal(t, []*zapcore.Entry{e2, e3}, cb.Get())
}
