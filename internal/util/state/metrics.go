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

package state

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gapwatch/gapwatch/build/version"
)

// metricsCollector exposes process state as Prometheus metrics.
type metricsCollector struct {
	p       *Provider
	addUUID bool
}

// newMetricsCollector creates a new metricsCollector.
//
// If addUUID is true, then the UUID is added to the metric.
func newMetricsCollector(p *Provider, addUUID bool) *metricsCollector {
	return &metricsCollector{
		p:       p,
		addUUID: addUUID,
	}
}

// Describe implements prometheus.Collector.
func (c *metricsCollector) Describe(ch chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(c, ch)
}

// Collect implements prometheus.Collector.
func (c *metricsCollector) Collect(ch chan<- prometheus.Metric) {
	info := version.Get()

	constLabels := prometheus.Labels{
		"version": info.Version,
		"commit":  info.Commit,
		"dirty":   strconv.FormatBool(info.Dirty),
		"debug":   strconv.FormatBool(info.DebugBuild),
	}

	if c.addUUID {
		constLabels["uuid"] = c.p.Get().UUID
	}

	ch <- prometheus.MustNewConstMetric(
		prometheus.NewDesc(
			prometheus.BuildFQName("gapwatch", "", "up"),
			"gapwatch process information.",
			nil, constLabels,
		),
		prometheus.GaugeValue,
		1,
	)
}

// check interfaces
var (
	_ prometheus.Collector = (*metricsCollector)(nil)
)
