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

// Package sqlite provides a sources.Source for SQLite databases.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // register database/sql driver

	"github.com/gapwatch/gapwatch/internal/sources"
	"github.com/gapwatch/gapwatch/internal/util/fsql"
	"github.com/gapwatch/gapwatch/internal/util/lazyerrors"
	"github.com/gapwatch/gapwatch/internal/util/state"
)

// source implements sources.Source for SQLite.
type source struct {
	db *fsql.DB
	l  *zap.Logger
}

// NewSourceParams represents the parameters of NewSource function.
type NewSourceParams struct {
	URI string
	L   *zap.Logger
	P   *state.Provider
}

// NewSource creates a new source for a single SQLite database
// specified by SQLite URI, like `file:data.db?mode=ro`.
func NewSource(params *NewSourceParams) (sources.Source, error) {
	uri, err := parseURI(params.URI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SQLite URI %q: %s", params.URI, err)
	}

	db, err := sql.Open("sqlite", uri)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	db.SetConnMaxIdleTime(0)
	db.SetConnMaxLifetime(0)

	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, lazyerrors.Error(err)
	}

	if params.P != nil {
		if err = params.P.Update(func(s *state.State) {
			row := db.QueryRowContext(context.Background(), `SELECT sqlite_version()`)
			if err := row.Scan(&s.EngineVersion); err != nil {
				params.L.Error("failed to query SQLite version", zap.Error(err))
			}
		}); err != nil {
			params.L.Error("failed to update state", zap.Error(err))
		}
	}

	return sources.SourceContract(&source{
		db: fsql.WrapDB(db, "sqlite", params.L),
		l:  params.L,
	}), nil
}

// parseURI checks the given SQLite URI and returns it in the form
// expected by the driver.
//
// Directories are not supported; the URI must point to a single database file
// or an in-memory database.
func parseURI(u string) (string, error) {
	uri, err := url.Parse(u)
	if err != nil {
		return "", err
	}

	if uri.Scheme != "file" {
		return "", fmt.Errorf(`expected "file:" schema, got %q`, uri.Scheme)
	}

	if uri.Opaque == "" && uri.Path == "" {
		return "", lazyerrors.New("database file path is empty")
	}

	return u, nil
}

// Close implements sources.Source interface.
func (s *source) Close() {
	_ = s.db.Close()
}

// ListTables implements sources.Source interface.
func (s *source) ListTables(ctx context.Context, params *sources.ListTablesParams) (*sources.ListTablesResult, error) {
	q := `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}
	defer rows.Close()

	var names []string

	for rows.Next() {
		var name string
		if err = rows.Scan(&name); err != nil {
			return nil, lazyerrors.Error(err)
		}

		names = append(names, name)
	}

	if err = rows.Err(); err != nil {
		return nil, lazyerrors.Error(err)
	}

	res := new(sources.ListTablesResult)

	for _, name := range names {
		cols, err := s.tableColumns(ctx, name)
		if err != nil {
			return nil, lazyerrors.Error(err)
		}

		var pk *column

		for i, c := range cols {
			if c.pk == 0 {
				continue
			}

			if c.pk > 1 || pk != nil {
				// composite primary key
				pk = nil
				break
			}

			pk = &cols[i]
		}

		if pk == nil || !integerType(pk.typ) {
			continue
		}

		res.Tables = append(res.Tables, sources.TableInfo{
			Name:     name,
			IDColumn: pk.name,
		})
	}

	return res, nil
}

// ReadIDs implements sources.Source interface.
func (s *source) ReadIDs(ctx context.Context, params *sources.ReadIDsParams) (*sources.ReadIDsResult, error) {
	cols, err := s.tableColumns(ctx, params.Table)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	if len(cols) == 0 {
		return nil, sources.NewError(sources.ErrorCodeTableDoesNotExist, nil)
	}

	var col *column

	for i, c := range cols {
		if c.name == params.Column {
			col = &cols[i]
			break
		}
	}

	if col == nil {
		return nil, sources.NewError(sources.ErrorCodeColumnDoesNotExist, nil)
	}

	if !integerType(col.typ) {
		return nil, sources.NewError(
			sources.ErrorCodeColumnNotInteger,
			fmt.Errorf("column %q is declared as %q", col.name, col.typ),
		)
	}

	q := fmt.Sprintf(`SELECT %q FROM %q WHERE %q IS NOT NULL`, params.Column, params.Table, params.Column)

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}
	defer rows.Close()

	res := new(sources.ReadIDsResult)

	for rows.Next() {
		var id int64

		// SQLite columns are dynamically typed;
		// a non-integer value in an integer column is a caller error, not a partial result
		if err = rows.Scan(&id); err != nil {
			return nil, sources.NewError(sources.ErrorCodeColumnNotInteger, err)
		}

		res.IDs = append(res.IDs, id)
	}

	if err = rows.Err(); err != nil {
		return nil, lazyerrors.Error(err)
	}

	return res, nil
}

// column represents a row of `PRAGMA table_info` output.
type column struct {
	name string
	typ  string
	pk   int // 0 for non-PK columns, 1-based position in the primary key otherwise
}

// tableColumns returns columns of the given table, or nil if the table does not exist.
func (s *source) tableColumns(ctx context.Context, table string) ([]column, error) {
	q := fmt.Sprintf(`PRAGMA table_info(%q)`, table)

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}
	defer rows.Close()

	var res []column

	for rows.Next() {
		var cid int
		var c column
		var notNull sql.NullInt64
		var dflt any

		if err = rows.Scan(&cid, &c.name, &c.typ, &notNull, &dflt, &c.pk); err != nil {
			return nil, lazyerrors.Error(err)
		}

		res = append(res, c)
	}

	if err = rows.Err(); err != nil {
		return nil, lazyerrors.Error(err)
	}

	return res, nil
}

// integerType returns true for SQLite column types with INTEGER affinity.
func integerType(typ string) bool {
	return strings.Contains(strings.ToUpper(typ), "INT")
}

// Describe implements prometheus.Collector.
func (s *source) Describe(ch chan<- *prometheus.Desc) {
	s.db.Describe(ch)
}

// Collect implements prometheus.Collector.
func (s *source) Collect(ch chan<- prometheus.Metric) {
	s.db.Collect(ch)
}

// check interfaces
var (
	_ sources.Source = (*source)(nil)
)
