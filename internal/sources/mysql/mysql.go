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

// Package mysql provides a sources.Source for MySQL databases.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/gapwatch/gapwatch/internal/sources"
	"github.com/gapwatch/gapwatch/internal/util/fsql"
	"github.com/gapwatch/gapwatch/internal/util/lazyerrors"
	"github.com/gapwatch/gapwatch/internal/util/state"
)

// errNoSuchTable is the server error code for ER_NO_SUCH_TABLE.
const errNoSuchTable = 1146

// source implements sources.Source for MySQL.
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

// NewSource creates a pool of connections to a MySQL database
// specified by DSN, like `user:password@tcp(127.0.0.1:3306)/db`.
func NewSource(params *NewSourceParams) (sources.Source, error) {
	if _, err := mysql.ParseDSN(params.URI); err != nil {
		return nil, fmt.Errorf("failed to parse MySQL DSN: %s", err)
	}

	db, err := sql.Open("mysql", params.URI)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, lazyerrors.Error(err)
	}

	if params.P != nil {
		if err = params.P.Update(func(s *state.State) {
			row := db.QueryRowContext(context.Background(), `SELECT VERSION()`)
			if err := row.Scan(&s.EngineVersion); err != nil {
				params.L.Error("failed to query MySQL version", zap.Error(err))
			}
		}); err != nil {
			params.L.Error("failed to update state", zap.Error(err))
		}
	}

	return sources.SourceContract(&source{
		db: fsql.WrapDB(db, "mysql", params.L),
		l:  params.L,
	}), nil
}

// Close implements sources.Source interface.
func (s *source) Close() {
	_ = s.db.Close()
}

// ListTables implements sources.Source interface.
func (s *source) ListTables(ctx context.Context, params *sources.ListTablesParams) (*sources.ListTablesResult, error) {
	q := `
		SELECT k.TABLE_NAME, k.COLUMN_NAME
		FROM information_schema.KEY_COLUMN_USAGE k
		JOIN information_schema.COLUMNS c
		  ON c.TABLE_SCHEMA = k.TABLE_SCHEMA AND c.TABLE_NAME = k.TABLE_NAME AND c.COLUMN_NAME = k.COLUMN_NAME
		WHERE k.TABLE_SCHEMA = DATABASE()
		  AND k.CONSTRAINT_NAME = 'PRIMARY'
		  AND c.DATA_TYPE IN ('tinyint', 'smallint', 'mediumint', 'int', 'bigint')
		  AND (
		    SELECT COUNT(*)
		    FROM information_schema.KEY_COLUMN_USAGE k2
		    WHERE k2.TABLE_SCHEMA = k.TABLE_SCHEMA AND k2.TABLE_NAME = k.TABLE_NAME AND k2.CONSTRAINT_NAME = 'PRIMARY'
		  ) = 1
		ORDER BY k.TABLE_NAME`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}
	defer rows.Close()

	res := new(sources.ListTablesResult)

	for rows.Next() {
		var info sources.TableInfo
		if err = rows.Scan(&info.Name, &info.IDColumn); err != nil {
			return nil, lazyerrors.Error(err)
		}

		res.Tables = append(res.Tables, info)
	}

	if err = rows.Err(); err != nil {
		return nil, lazyerrors.Error(err)
	}

	return res, nil
}

// ReadIDs implements sources.Source interface.
func (s *source) ReadIDs(ctx context.Context, params *sources.ReadIDsParams) (*sources.ReadIDsResult, error) {
	if err := s.checkColumn(ctx, params.Table, params.Column); err != nil {
		return nil, err
	}

	q := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s IS NOT NULL",
		quote(params.Column), quote(params.Table), quote(params.Column),
	)

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, wrapError(err)
	}
	defer rows.Close()

	res := new(sources.ReadIDsResult)

	for rows.Next() {
		var id int64
		if err = rows.Scan(&id); err != nil {
			return nil, lazyerrors.Error(err)
		}

		res.IDs = append(res.IDs, id)
	}

	if err = rows.Err(); err != nil {
		return nil, wrapError(err)
	}

	return res, nil
}

// checkColumn ensures that the given table exists,
// has the given column, and that column is of an integer type.
func (s *source) checkColumn(ctx context.Context, table, col string) error {
	q := `
		SELECT DATA_TYPE
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? AND COLUMN_NAME = ?`

	var typ string

	if err := s.db.QueryRowContext(ctx, q, table, col).Scan(&typ); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return lazyerrors.Error(err)
		}

		var exists bool

		q = `SELECT EXISTS (SELECT 1 FROM information_schema.TABLES WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?)`
		if err = s.db.QueryRowContext(ctx, q, table).Scan(&exists); err != nil {
			return lazyerrors.Error(err)
		}

		if !exists {
			return sources.NewError(sources.ErrorCodeTableDoesNotExist, nil)
		}

		return sources.NewError(sources.ErrorCodeColumnDoesNotExist, nil)
	}

	switch typ {
	case "tinyint", "smallint", "mediumint", "int", "bigint":
		return nil
	}

	return sources.NewError(
		sources.ErrorCodeColumnNotInteger,
		lazyerrors.Errorf("column %q is of type %q", col, typ),
	)
}

// quote returns the given identifier quoted with backticks.
//
// The identifier is already validated by the contract,
// so that is a formality.
func quote(ident string) string {
	return "`" + ident + "`"
}

// wrapError converts MySQL errors to source errors where a code is defined,
// and wraps them with lazyerrors otherwise.
func wrapError(err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == errNoSuchTable {
		return sources.NewError(sources.ErrorCodeTableDoesNotExist, err)
	}

	return lazyerrors.Error(err)
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
