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

package scanner

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite" // register database/sql driver

	"github.com/gapwatch/gapwatch/internal/gaps"
	"github.com/gapwatch/gapwatch/internal/sources/sqlite"
	"github.com/gapwatch/gapwatch/internal/util/testutil"
)

func TestScan(t *testing.T) {
	t.Parallel()

	ctx := testutil.Ctx(t)
	uri := testutil.TestSQLiteURI(t)

	// keep a connection open for the whole test so the shared in-memory database survives
	db, err := sql.Open("sqlite", uri)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.ExecContext(ctx, `CREATE TABLE employees (id INTEGER PRIMARY KEY, name TEXT)`)
	require.NoError(t, err)

	for _, id := range []int64{1, 2, 4, 5, 7} {
		_, err = db.ExecContext(ctx, `INSERT INTO employees (id) VALUES (?)`, id)
		require.NoError(t, err)
	}

	_, err = db.ExecContext(ctx, `CREATE TABLE dense (id INTEGER PRIMARY KEY)`)
	require.NoError(t, err)

	for id := int64(1); id <= 5; id++ {
		_, err = db.ExecContext(ctx, `INSERT INTO dense (id) VALUES (?)`, id)
		require.NoError(t, err)
	}

	_, err = db.ExecContext(ctx, `CREATE TABLE wide (id INTEGER PRIMARY KEY)`)
	require.NoError(t, err)

	for _, id := range []int64{0, 200_000_000} {
		_, err = db.ExecContext(ctx, `INSERT INTO wide (id) VALUES (?)`, id)
		require.NoError(t, err)
	}

	src, err := sqlite.NewSource(&sqlite.NewSourceParams{
		URI: uri,
		L:   testutil.Logger(t),
	})
	require.NoError(t, err)
	t.Cleanup(src.Close)

	s := NewScanner(&NewScannerOpts{
		Source: src,
		Logger: testutil.Logger(t),
	})

	t.Run("All", func(t *testing.T) {
		res, err := s.Scan(ctx, new(ScanParams))
		require.NoError(t, err)
		require.Len(t, res.Reports, 3)

		// sorted by table name: dense, employees, wide
		dense, employees, wide := res.Reports[0], res.Reports[1], res.Reports[2]

		assert.Equal(t, "dense", dense.Table)
		assert.Empty(t, dense.Error)
		assert.Empty(t, dense.Gaps)
		assert.Equal(t, 5, dense.Rows)

		assert.Equal(t, "employees", employees.Table)
		assert.Equal(t, "id", employees.Column)
		assert.Empty(t, employees.Error)
		assert.Equal(t, []int64{3, 6}, employees.Gaps)
		assert.Equal(t, []gaps.Run{{First: 3, Last: 3}, {First: 6, Last: 6}}, employees.Runs)
		assert.Equal(t, int64(1), employees.Lo)
		assert.Equal(t, int64(7), employees.Hi)

		// span limit
		assert.Equal(t, "wide", wide.Table)
		assert.NotEmpty(t, wide.Error)
		assert.Empty(t, wide.Gaps)

		assert.Equal(t, 1, res.Failed)
	})

	t.Run("Explicit", func(t *testing.T) {
		res, err := s.Scan(ctx, &ScanParams{
			Tables: []Table{
				{Name: "employees"},
				{Name: "employees", Column: "name"},
				{Name: "missing"},
			},
		})
		require.NoError(t, err)
		require.Len(t, res.Reports, 3)

		assert.Empty(t, res.Reports[0].Error)
		assert.Equal(t, []int64{3, 6}, res.Reports[0].Gaps)

		assert.NotEmpty(t, res.Reports[1].Error)
		assert.NotEmpty(t, res.Reports[2].Error)
		assert.Equal(t, 2, res.Failed)
	})

	t.Run("MaxSpan", func(t *testing.T) {
		res, err := s.Scan(ctx, &ScanParams{
			Tables:  []Table{{Name: "employees"}},
			MaxSpan: 5,
		})
		require.NoError(t, err)
		require.Len(t, res.Reports, 1)

		r := res.Reports[0]
		assert.Contains(t, r.Error, "exceeds limit")
		assert.Empty(t, r.Gaps)
		assert.Equal(t, 1, res.Failed)
	})

	t.Run("Render", func(t *testing.T) {
		res, err := s.Scan(ctx, &ScanParams{
			Tables: []Table{{Name: "employees"}},
		})
		require.NoError(t, err)

		var text bytes.Buffer
		require.NoError(t, res.RenderText(&text))
		assert.Contains(t, text.String(), "employees")
		assert.Contains(t, text.String(), "1..7")
		assert.Contains(t, text.String(), "3, 6")

		var buf bytes.Buffer
		require.NoError(t, res.RenderJSON(&buf))

		var decoded ScanResult
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		require.Len(t, decoded.Reports, 1)
		assert.Equal(t, []int64{3, 6}, decoded.Reports[0].Gaps)
	})
}
