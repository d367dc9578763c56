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

package sqlite

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gapwatch/gapwatch/internal/sources"
	"github.com/gapwatch/gapwatch/internal/util/testutil"
)

func TestSource(t *testing.T) {
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
		_, err = db.ExecContext(ctx, `INSERT INTO employees (id, name) VALUES (?, ?)`, id, "employee")
		require.NoError(t, err)
	}

	_, err = db.ExecContext(ctx, `CREATE TABLE notes (word TEXT PRIMARY KEY, id INTEGER)`)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `CREATE TABLE pairs (a INTEGER, b INTEGER, PRIMARY KEY (a, b)) WITHOUT ROWID`)
	require.NoError(t, err)

	s, err := NewSource(&NewSourceParams{
		URI: uri,
		L:   testutil.Logger(t),
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)

	t.Run("ListTables", func(t *testing.T) {
		res, err := s.ListTables(ctx, new(sources.ListTablesParams))
		require.NoError(t, err)

		// notes has a non-integer primary key, pairs has a composite one
		assert.Equal(t, []sources.TableInfo{{Name: "employees", IDColumn: "id"}}, res.Tables)
	})

	t.Run("ReadIDs", func(t *testing.T) {
		res, err := s.ReadIDs(ctx, &sources.ReadIDsParams{Table: "employees", Column: "id"})
		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{1, 2, 4, 5, 7}, res.IDs)
	})

	t.Run("Errors", func(t *testing.T) {
		_, err := s.ReadIDs(ctx, &sources.ReadIDsParams{Table: "missing", Column: "id"})
		assert.True(t, sources.ErrorCodeIs(err, sources.ErrorCodeTableDoesNotExist), "%v", err)

		_, err = s.ReadIDs(ctx, &sources.ReadIDsParams{Table: "bad name", Column: "id"})
		assert.True(t, sources.ErrorCodeIs(err, sources.ErrorCodeTableNameIsInvalid), "%v", err)

		_, err = s.ReadIDs(ctx, &sources.ReadIDsParams{Table: "employees", Column: "missing"})
		assert.True(t, sources.ErrorCodeIs(err, sources.ErrorCodeColumnDoesNotExist), "%v", err)

		_, err = s.ReadIDs(ctx, &sources.ReadIDsParams{Table: "employees", Column: "name"})
		assert.True(t, sources.ErrorCodeIs(err, sources.ErrorCodeColumnNotInteger), "%v", err)
	})
}

func TestParseURI(t *testing.T) {
	t.Parallel()

	for _, uri := range []string{"file:data.db", "file:data.db?mode=ro", "file:mem?mode=memory&cache=shared"} {
		res, err := parseURI(uri)
		require.NoError(t, err, "%q", uri)
		assert.Equal(t, uri, res)
	}

	for _, uri := range []string{"", "file:", "data.db", "http://example.com/data.db"} {
		_, err := parseURI(uri)
		assert.Error(t, err, "%q", uri)
	}
}
