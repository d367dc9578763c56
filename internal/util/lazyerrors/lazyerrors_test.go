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

package lazyerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unwrap(err error, n int) error {
	for i := 0; i < n; i++ {
		err = errors.Unwrap(err)
	}
	return err
}

func TestErrors(t *testing.T) {
	t.Parallel()

	err := New("err")
	err1 := Errorf("err1: %w", err)
	err2 := Error(err1)

	assert.Contains(t, err.Error(), "lazyerrors_test.go:")
	assert.Contains(t, err.Error(), "lazyerrors.TestErrors] err")
	assert.Contains(t, err1.Error(), "err1: [lazyerrors_test.go:")
	assert.Contains(t, err2.Error(), "err1:")

	// every wrapper adds exactly one level
	assert.Equal(t, err1, unwrap(err2, 1))
	assert.NotEqual(t, err, unwrap(err1, 1))
	assert.Equal(t, err, unwrap(err1, 2))

	assert.True(t, errors.Is(err2, err1))
	assert.True(t, errors.Is(err2, err))
	assert.True(t, errors.Is(err1, err))
}

func TestUnwrapAll(t *testing.T) {
	t.Parallel()

	assert.Nil(t, UnwrapAll(nil))

	err := errors.New("err")
	assert.Equal(t, err, UnwrapAll(err))
	assert.Equal(t, err, UnwrapAll(Error(err)))
	assert.Equal(t, err, UnwrapAll(fmt.Errorf("wrapped: %w", Error(err))))
}

func TestErrorNil(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() {
		_ = Error(nil)
	})
}
