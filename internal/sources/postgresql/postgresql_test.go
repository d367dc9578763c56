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

package postgresql

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gapwatch/gapwatch/internal/sources"
	"github.com/gapwatch/gapwatch/internal/util/testutil"
)

func TestSource(t *testing.T) {
	t.Parallel()

	ctx := testutil.Ctx(t)
	uri := testutil.TestPostgreSQLURI(t)

	tableName := testutil.TableName(t)
	table := pgx.Identifier{tableName}.Sanitize()

	p, err := pgxpool.New(ctx, uri)
	require.NoError(t, err)
	t.Cleanup(p.Close)

	_, err = p.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, table))
	require.NoError(t, err)

	_, err = p.Exec(ctx, fmt.Sprintf(`CREATE TABLE %s (id bigint PRIMARY KEY, name text)`, table))
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = p.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, table))
	})

	for _, id := range []int64{1, 2, 4, 5, 7} {
		_, err = p.Exec(ctx, fmt.Sprintf(`INSERT INTO %s (id, name) VALUES ($1, $2)`, table), id, "employee")
		require.NoError(t, err)
	}

	s, err := NewSource(&NewSourceParams{
		URI: uri,
		L:   testutil.Logger(t),
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)

	t.Run("ListTables", func(t *testing.T) {
		res, err := s.ListTables(ctx, new(sources.ListTablesParams))
		require.NoError(t, err)

		assert.Contains(t, res.Tables, sources.TableInfo{Name: tableName, IDColumn: "id"})
	})

	t.Run("ReadIDs", func(t *testing.T) {
		res, err := s.ReadIDs(ctx, &sources.ReadIDsParams{Table: tableName, Column: "id"})
		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{1, 2, 4, 5, 7}, res.IDs)
	})

	t.Run("Errors", func(t *testing.T) {
		_, err := s.ReadIDs(ctx, &sources.ReadIDsParams{Table: "missing", Column: "id"})
		assert.True(t, sources.ErrorCodeIs(err, sources.ErrorCodeTableDoesNotExist), "%v", err)

		_, err = s.ReadIDs(ctx, &sources.ReadIDsParams{Table: tableName, Column: "missing"})
		assert.True(t, sources.ErrorCodeIs(err, sources.ErrorCodeColumnDoesNotExist), "%v", err)

		_, err = s.ReadIDs(ctx, &sources.ReadIDsParams{Table: tableName, Column: "name"})
		assert.True(t, sources.ErrorCodeIs(err, sources.ErrorCodeColumnNotInteger), "%v", err)
	})
}
