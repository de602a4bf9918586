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

package textio

import (
	"github.com/mcslender97/textjson/internal/util/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	providerLabels = []string{"provider"}
)
var (
	filesOpened = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "textio_files_opened_total",
		Help: "the number of input files opened",
	}, providerLabels)
	matchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "textio_match_seconds",
		Help:    "the time spent listing and matching input files",
		Buckets: metrics.LatencyBuckets,
	}, providerLabels)
	retryCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "textio_retry_count",
		Help: "the total number of times we are retrying a storage operation",
	}, []string{"operation"})
)
