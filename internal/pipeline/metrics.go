// Copyright 2024 The Cockroach Authors
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
//
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"github.com/mcslender97/textjson/internal/util/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fileDurations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pipeline_file_duration_seconds",
		Help:    "the length of time it took to process an input file",
		Buckets: metrics.LatencyBuckets,
	}, metrics.FileLabels)
	fileLines = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pipeline_file_lines",
		Help:    "the number of lines read from each input file",
		Buckets: metrics.CountBuckets,
	})
	linesRead = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_lines_total",
		Help: "the number of input lines read, by outcome",
	}, []string{"outcome"})
	recordsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_records_total",
		Help: "the number of records published to the output topic",
	})
)

var (
	linesBlank    = linesRead.WithLabelValues("blank")
	linesOK       = linesRead.WithLabelValues("ok")
	linesRejected = linesRead.WithLabelValues("rejected")
)
