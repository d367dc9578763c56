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

// Package scanner orchestrates gap scans over identifier sources.
package scanner

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/gapwatch/gapwatch/internal/gaps"
	"github.com/gapwatch/gapwatch/internal/sources"
	"github.com/gapwatch/gapwatch/internal/util/lazyerrors"
	"github.com/gapwatch/gapwatch/internal/util/observability"
)

// DefaultMaxSpan is the default limit on the hi-lo+1 span of a scanned column.
const DefaultMaxSpan = 100_000_000

// Scanner binds a source, a logger, and scan metrics.
//
// Tables are scanned sequentially: the computation itself is synchronous,
// and the identifier read is the only I/O boundary.
type Scanner struct {
	s sources.Source
	l *zap.Logger
	m *Metrics
}

// NewScannerOpts represents configuration for constructing scanners.
type NewScannerOpts struct {
	Source  sources.Source
	Logger  *zap.Logger
	Metrics *Metrics
}

// NewScanner creates a new Scanner.
func NewScanner(opts *NewScannerOpts) *Scanner {
	m := opts.Metrics
	if m == nil {
		m = NewMetrics()
	}

	return &Scanner{
		s: opts.Source,
		l: opts.Logger,
		m: m,
	}
}

// Table selects a single table for scanning.
type Table struct {
	Name string

	// Column to read; if empty, the discovered identifier column is used.
	Column string
}

// ScanParams represents the parameters of Scanner.Scan method.
type ScanParams struct {
	// Tables to scan; if empty, all discovered tables with integer identifier columns are scanned.
	Tables []Table

	// MaxSpan limits hi-lo+1 of a scanned column; 0 means DefaultMaxSpan.
	//
	// A table whose span exceeds the limit fails fast
	// instead of materializing an unbounded gap list.
	MaxSpan int64
}

// ScanResult represents the results of Scanner.Scan method.
type ScanResult struct {
	Reports []TableReport `json:"reports"`

	// Failed is the number of reports with a non-empty Error.
	Failed int `json:"failed"`
}

// TableReport represents the outcome of scanning a single table.
//
//nolint:vet // grouped by meaning, not by alignment
type TableReport struct {
	Table  string `json:"table"`
	Column string `json:"column"`

	Rows     int   `json:"rows"`     // values read, including duplicates
	Distinct int   `json:"distinct"` // distinct values
	Lo       int64 `json:"lo"`       // valid if Distinct > 0
	Hi       int64 `json:"hi"`       // valid if Distinct > 0

	Gaps []int64    `json:"gaps,omitempty"`
	Runs []gaps.Run `json:"runs,omitempty"`

	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// Scan resolves the table list, reads identifiers, and computes gaps.
//
// Per-table failures (missing table, non-integer column, span limit) are recorded
// in the corresponding report and do not stop the scan.
// An error is returned only when the table list itself can't be resolved.
func (s *Scanner) Scan(ctx context.Context, params *ScanParams) (*ScanResult, error) {
	defer observability.FuncCall(ctx)()

	maxSpan := params.MaxSpan
	if maxSpan == 0 {
		maxSpan = DefaultMaxSpan
	}

	tables, err := s.resolveTables(ctx, params.Tables)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	s.m.Scans.Inc()

	res := &ScanResult{
		Reports: make([]TableReport, 0, len(tables)),
	}

	for _, t := range tables {
		report := s.scanTable(ctx, t, maxSpan)

		s.m.Duration.Observe(report.Duration.Seconds())

		if report.Error == "" {
			s.m.Tables.WithLabelValues("ok").Inc()
			s.m.Gaps.Add(float64(len(report.Gaps)))
		} else {
			s.m.Tables.WithLabelValues("failed").Inc()
			res.Failed++
		}

		res.Reports = append(res.Reports, report)
	}

	return res, nil
}

// resolveTables returns the tables to scan with their identifier columns.
func (s *Scanner) resolveTables(ctx context.Context, tables []Table) ([]Table, error) {
	discovered, err := s.s.ListTables(ctx, new(sources.ListTablesParams))
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	if len(tables) == 0 {
		res := make([]Table, len(discovered.Tables))
		for i, info := range discovered.Tables {
			res[i] = Table{Name: info.Name, Column: info.IDColumn}
		}

		return res, nil
	}

	columns := make(map[string]string, len(discovered.Tables))
	for _, info := range discovered.Tables {
		columns[info.Name] = info.IDColumn
	}

	res := make([]Table, len(tables))

	for i, t := range tables {
		if t.Column == "" {
			t.Column = columns[t.Name]

			if t.Column == "" {
				// let the source report the exact error for that name
				t.Column = "id"
			}
		}

		res[i] = t
	}

	return res, nil
}

// scanTable reads one identifier column and computes its gaps.
func (s *Scanner) scanTable(ctx context.Context, t Table, maxSpan int64) TableReport {
	start := time.Now()

	report := TableReport{
		Table:  t.Name,
		Column: t.Column,
	}

	ids, err := s.s.ReadIDs(ctx, &sources.ReadIDsParams{Table: t.Name, Column: t.Column})
	if err != nil {
		report.Duration = time.Since(start)
		report.Error = err.Error()

		s.l.Warn("Table scan failed",
			zap.String("table", t.Name), zap.String("column", t.Column), zap.Error(err))

		return report
	}

	report.Rows = len(ids.IDs)

	lo, hi, distinct, ok := gaps.Span(ids.IDs)
	if ok {
		report.Distinct = distinct
		report.Lo = lo
		report.Hi = hi

		if span := hi - lo + 1; span <= 0 || span > maxSpan {
			report.Duration = time.Since(start)
			report.Error = lazyerrors.Errorf("identifier span %d..%d exceeds limit %d", lo, hi, maxSpan).Error()

			s.l.Warn("Table scan failed",
				zap.String("table", t.Name), zap.String("column", t.Column), zap.String("error", report.Error))

			return report
		}

		report.Gaps = gaps.Find(ids.IDs)
		report.Runs = gaps.Runs(report.Gaps)
	}

	report.Duration = time.Since(start)

	s.l.Info("Table scanned",
		zap.String("table", t.Name), zap.String("column", t.Column),
		zap.Int("rows", report.Rows), zap.Int("gaps", len(report.Gaps)),
		zap.Duration("duration", report.Duration))

	return report
}
