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

package sources

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	t.Parallel()

	err := NewError(ErrorCodeTableDoesNotExist, errors.New("no such table"))
	assert.Equal(t, ErrorCodeTableDoesNotExist, err.Code())
	assert.Equal(t, "TableDoesNotExist: no such table", err.Error())

	assert.True(t, ErrorCodeIs(err, ErrorCodeTableDoesNotExist))
	assert.True(t, ErrorCodeIs(err, ErrorCodeTableNameIsInvalid, ErrorCodeTableDoesNotExist))
	assert.False(t, ErrorCodeIs(err, ErrorCodeColumnNotInteger))
	assert.False(t, ErrorCodeIs(errors.New("other"), ErrorCodeTableDoesNotExist))

	require.Panics(t, func() {
		NewError(0, nil)
	})
}

func TestValidation(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validateTableName("users"))
	assert.NoError(t, validateTableName("_migrations"))
	assert.NoError(t, validateColumnName("id"))

	for _, name := range []string{"", "1users", "users; DROP TABLE users", `us"ers`, "таблица"} {
		assert.True(t, ErrorCodeIs(validateTableName(name), ErrorCodeTableNameIsInvalid), "table %q", name)
		assert.True(t, ErrorCodeIs(validateColumnName(name), ErrorCodeColumnNameIsInvalid), "column %q", name)
	}
}
