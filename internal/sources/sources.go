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

// Package sources provides access to identifier columns of SQL databases.
//
// # Design principles
//
//  1. Sources are stateful objects wrapping database connection pools.
//     They are constructed once, used for any number of scans, and closed explicitly.
//  2. Sources only read. They never create, modify, or drop anything;
//     isolation and consistency of reads are the engine's responsibility.
//  3. All methods accept parameter structs and return result structs
//     so that fields can be added without breaking implementations.
//
// Engine packages (sqlite, postgresql, mysql) implement the Source interface
// and wrap themselves with SourceContract, which validates parameters and
// enforces documented error codes.
package sources

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gapwatch/gapwatch/internal/util/observability"
	"github.com/gapwatch/gapwatch/internal/util/resource"
)

// Source is a generic interface for reading identifier columns of a single database.
//
// Source methods can be called concurrently; implementations should be thread-safe.
//
// See sourceContract and its methods for additional details.
type Source interface {
	Close()
	ListTables(context.Context, *ListTablesParams) (*ListTablesResult, error)
	ReadIDs(context.Context, *ReadIDsParams) (*ReadIDsResult, error)

	prometheus.Collector
}

// sourceContract implements Source interface.
type sourceContract struct {
	s     Source
	token *resource.Token
}

// SourceContract wraps Source and enforces its contract.
//
// All source implementations should use that function when they create new Source instances.
// The scanner should not use that function.
//
// See sourceContract and its methods for additional details.
func SourceContract(s Source) Source {
	sc := &sourceContract{
		s:     s,
		token: resource.NewToken(),
	}
	resource.Track(sc, sc.token)

	return sc
}

// Close closes all database connections and frees all resources associated with the source.
func (sc *sourceContract) Close() {
	sc.s.Close()

	resource.Untrack(sc, sc.token)
}

// ListTablesParams represents the parameters of Source.ListTables method.
type ListTablesParams struct{}

// ListTablesResult represents the results of Source.ListTables method.
type ListTablesResult struct {
	Tables []TableInfo
}

// TableInfo represents information about a single table with an integer identifier column.
type TableInfo struct {
	Name     string
	IDColumn string
}

// ListTables returns tables that have a single-column integer identifier
// (typically the primary key), sorted by name.
func (sc *sourceContract) ListTables(ctx context.Context, params *ListTablesParams) (*ListTablesResult, error) {
	defer observability.FuncCall(ctx)()

	res, err := sc.s.ListTables(ctx, params)
	checkError(err)

	return res, err
}

// ReadIDsParams represents the parameters of Source.ReadIDs method.
type ReadIDsParams struct {
	Table  string
	Column string
}

// ReadIDsResult represents the results of Source.ReadIDs method.
type ReadIDsResult struct {
	IDs []int64
}

// ReadIDs reads the full current set of values of the given integer column.
//
// NULL values are skipped. The order of returned values is unspecified.
// Non-integer columns are rejected with ErrorCodeColumnNotInteger
// before any value is returned (no partial results).
func (sc *sourceContract) ReadIDs(ctx context.Context, params *ReadIDsParams) (*ReadIDsResult, error) {
	defer observability.FuncCall(ctx)()

	var res *ReadIDsResult

	err := validateTableName(params.Table)
	if err == nil {
		err = validateColumnName(params.Column)
	}
	if err == nil {
		res, err = sc.s.ReadIDs(ctx, params)
	}

	checkError(err,
		ErrorCodeTableNameIsInvalid,
		ErrorCodeTableDoesNotExist,
		ErrorCodeColumnNameIsInvalid,
		ErrorCodeColumnDoesNotExist,
		ErrorCodeColumnNotInteger,
	)

	return res, err
}

// Describe implements prometheus.Collector.
func (sc *sourceContract) Describe(ch chan<- *prometheus.Desc) {
	sc.s.Describe(ch)
}

// Collect implements prometheus.Collector.
func (sc *sourceContract) Collect(ch chan<- prometheus.Metric) {
	sc.s.Collect(ch)
}

// check interfaces
var (
	_ Source = (*sourceContract)(nil)
)
