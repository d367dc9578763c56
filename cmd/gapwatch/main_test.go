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

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gapwatch/gapwatch/internal/scanner"
	"github.com/gapwatch/gapwatch/internal/sources/registry"
)

func TestParseTables(t *testing.T) {
	t.Parallel()

	tables, err := parseTables([]string{"employees", "orders:order_id"})
	require.NoError(t, err)
	assert.Equal(t, []scanner.Table{
		{Name: "employees"},
		{Name: "orders", Column: "order_id"},
	}, tables)

	tables, err = parseTables(nil)
	require.NoError(t, err)
	assert.Empty(t, tables)

	_, err = parseTables([]string{":id"})
	assert.Error(t, err)
}

func TestSourceFlags(t *testing.T) {
	t.Parallel()

	// every registered source must have flags for setCLIPlugins
	for _, s := range registry.Sources() {
		assert.Contains(t, sourceFlags, s)
	}
}
