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

// Package postgresql provides a sources.Source for PostgreSQL databases.
package postgresql

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	zapadapter "github.com/jackc/pgx-zap"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/gapwatch/gapwatch/internal/sources"
	"github.com/gapwatch/gapwatch/internal/util/lazyerrors"
	"github.com/gapwatch/gapwatch/internal/util/state"
)

// Integer type names as reported by pg_type.typname.
var integerTypes = []string{"int2", "int4", "int8"}

// source implements sources.Source for PostgreSQL.
type source struct {
	p *pgxpool.Pool
	l *zap.Logger
}

// NewSourceParams represents the parameters of NewSource function.
type NewSourceParams struct {
	URI string
	L   *zap.Logger
	P   *state.Provider
}

// NewSource creates a pool of connections to a PostgreSQL database
// and checks that it works (authentication passes, queries are accepted).
func NewSource(params *NewSourceParams) (sources.Source, error) {
	config, err := pgxpool.ParseConfig(params.URI)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	config.ConnConfig.Tracer = &tracelog.TraceLog{
		Logger:   zapadapter.NewLogger(params.L.Named("pgx")),
		LogLevel: tracelog.LogLevelTrace,
	}

	// version could change without gapwatch restart
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		if params.P == nil {
			return nil
		}

		var v string
		var err error //nolint:vet // to avoid capturing the outer variable

		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		if err = conn.QueryRow(ctx, `SHOW server_version`).Scan(&v); err != nil {
			return lazyerrors.Error(err)
		}

		if params.P.Get().EngineVersion != v {
			if err = params.P.Update(func(s *state.State) { s.EngineVersion = v }); err != nil {
				params.L.Error("failed to update state", zap.Error(err))
			}
		}

		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	if err = p.Ping(ctx); err != nil {
		p.Close()
		return nil, lazyerrors.Error(err)
	}

	return sources.SourceContract(&source{
		p: p,
		l: params.L,
	}), nil
}

// Close implements sources.Source interface.
func (s *source) Close() {
	s.p.Close()
}

// ListTables implements sources.Source interface.
func (s *source) ListTables(ctx context.Context, params *sources.ListTablesParams) (*sources.ListTablesResult, error) {
	q := `
		SELECT c.relname, a.attname
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		JOIN pg_index i ON i.indrelid = c.oid AND i.indisprimary AND i.indnatts = 1
		JOIN pg_attribute a ON a.attrelid = c.oid AND a.attnum = i.indkey[0]
		JOIN pg_type t ON t.oid = a.atttypid
		WHERE n.nspname = current_schema()
		  AND c.relkind = 'r'
		  AND t.typname::text = ANY($1)
		ORDER BY c.relname`

	rows, err := s.p.Query(ctx, q, integerTypes)
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

	q := `SELECT ` + pgx.Identifier{params.Column}.Sanitize() +
		` FROM ` + pgx.Identifier{params.Table}.Sanitize() +
		` WHERE ` + pgx.Identifier{params.Column}.Sanitize() + ` IS NOT NULL`

	rows, err := s.p.Query(ctx, q)
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
		SELECT t.typname
		FROM pg_attribute a
		JOIN pg_class c ON c.oid = a.attrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		JOIN pg_type t ON t.oid = a.atttypid
		WHERE n.nspname = current_schema()
		  AND c.relkind = 'r'
		  AND c.relname = $1
		  AND a.attname = $2
		  AND NOT a.attisdropped`

	var typ string

	if err := s.p.QueryRow(ctx, q, table, col).Scan(&typ); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return lazyerrors.Error(err)
		}

		var exists bool

		q = `
			SELECT EXISTS (
				SELECT 1 FROM pg_class c
				JOIN pg_namespace n ON n.oid = c.relnamespace
				WHERE n.nspname = current_schema() AND c.relkind = 'r' AND c.relname = $1
			)`
		if err = s.p.QueryRow(ctx, q, table).Scan(&exists); err != nil {
			return lazyerrors.Error(err)
		}

		if !exists {
			return sources.NewError(sources.ErrorCodeTableDoesNotExist, nil)
		}

		return sources.NewError(sources.ErrorCodeColumnDoesNotExist, nil)
	}

	for _, t := range integerTypes {
		if typ == t {
			return nil
		}
	}

	return sources.NewError(
		sources.ErrorCodeColumnNotInteger,
		lazyerrors.Errorf("column %q is of type %q", col, typ),
	)
}

// wrapError converts PostgreSQL errors to source errors where a code is defined,
// and wraps them with lazyerrors otherwise.
func wrapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UndefinedTable:
			return sources.NewError(sources.ErrorCodeTableDoesNotExist, err)
		case pgerrcode.UndefinedColumn:
			return sources.NewError(sources.ErrorCodeColumnDoesNotExist, err)
		}
	}

	return lazyerrors.Error(err)
}

// Describe implements prometheus.Collector.
func (s *source) Describe(ch chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(s, ch)
}

// Collect implements prometheus.Collector.
func (s *source) Collect(ch chan<- prometheus.Metric) {
	stat := s.p.Stat()

	labels := prometheus.Labels{"db": "postgresql"}

	ch <- prometheus.MustNewConstMetric(
		prometheus.NewDesc(
			prometheus.BuildFQName("gapwatch", "pgxpool", "total_connections"),
			"The total number of connections currently in the pool.",
			nil, labels,
		),
		prometheus.GaugeValue,
		float64(stat.TotalConns()),
	)

	ch <- prometheus.MustNewConstMetric(
		prometheus.NewDesc(
			prometheus.BuildFQName("gapwatch", "pgxpool", "acquired_connections"),
			"The number of connections currently acquired from the pool.",
			nil, labels,
		),
		prometheus.GaugeValue,
		float64(stat.AcquiredConns()),
	)

	ch <- prometheus.MustNewConstMetric(
		prometheus.NewDesc(
			prometheus.BuildFQName("gapwatch", "pgxpool", "acquires_total"),
			"The total number of successful connection acquires from the pool.",
			nil, labels,
		),
		prometheus.CounterValue,
		float64(stat.AcquireCount()),
	)
}

// check interfaces
var (
	_ sources.Source = (*source)(nil)
)
