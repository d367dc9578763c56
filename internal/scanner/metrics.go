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

import "github.com/prometheus/client_golang/prometheus"

// Parts of Prometheus metric names.
const (
	namespace = "gapwatch"
	subsystem = "scanner"
)

// Metrics represents scan metrics.
type Metrics struct {
	Scans    prometheus.Counter
	Tables   *prometheus.CounterVec
	Gaps     prometheus.Counter
	Duration prometheus.Histogram
}

// NewMetrics creates new scan metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Scans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "scans_total",
			Help:      "Total number of scans started.",
		}),
		Tables: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tables_total",
			Help:      "Total number of tables scanned.",
		}, []string{"result"}),
		Gaps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "gaps_total",
			Help:      "Total number of missing identifiers found.",
		}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "table_duration_seconds",
			Help:      "Time to scan a single table.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.Scans.Describe(ch)
	m.Tables.Describe(ch)
	m.Gaps.Describe(ch)
	m.Duration.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.Scans.Collect(ch)
	m.Tables.Collect(ch)
	m.Gaps.Collect(ch)
	m.Duration.Collect(ch)
}

// check interfaces
var (
	_ prometheus.Collector = (*Metrics)(nil)
)
