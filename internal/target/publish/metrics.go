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

package publish

import (
	"context"
	"time"

	"github.com/mcslender97/textjson/internal/util/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	topicLabels = []string{"backend", "topic"}

	publishCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "publish_messages_total",
		Help: "the number of messages accepted for publishing",
	}, topicLabels)
	publishBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "publish_bytes_total",
		Help: "the number of payload bytes accepted for publishing",
	}, topicLabels)
	publishErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "publish_errors_total",
		Help: "the number of publish or flush calls that returned an error",
	}, topicLabels)
	flushDurations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "publish_flush_duration_seconds",
		Help:    "the length of time it took to flush outstanding messages",
		Buckets: metrics.LatencyBuckets,
	}, topicLabels)
)

// instrumented records metrics for a Publisher.
type instrumented struct {
	Publisher

	bytes    prometheus.Counter
	count    prometheus.Counter
	errors   prometheus.Counter
	flushDur prometheus.Observer
}

func instrument(p Publisher, t *Topic) Publisher {
	labels := []string{t.Kind.String(), t.String()}
	return &instrumented{
		Publisher: p,
		bytes:     publishBytes.WithLabelValues(labels...),
		count:     publishCount.WithLabelValues(labels...),
		errors:    publishErrors.WithLabelValues(labels...),
		flushDur:  flushDurations.WithLabelValues(labels...),
	}
}

// Publish implements Publisher.
func (p *instrumented) Publish(ctx context.Context, msg Message) error {
	if err := p.Publisher.Publish(ctx, msg); err != nil {
		p.errors.Inc()
		return err
	}
	p.count.Inc()
	p.bytes.Add(float64(len(msg.Data)))
	return nil
}

// Flush implements Publisher.
func (p *instrumented) Flush(ctx context.Context) error {
	start := time.Now()
	if err := p.Publisher.Flush(ctx); err != nil {
		p.errors.Inc()
		return err
	}
	p.flushDur.Observe(time.Since(start).Seconds())
	return nil
}
