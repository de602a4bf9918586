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

package dlq

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	parseErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "textjson_parse_errors_total",
		Help: "the number of input lines that could not be flattened",
	}, []string{"kind"})
	routed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dlq_routed_total",
		Help: "the number of rejected lines published to the dead-letter topic",
	})
)
