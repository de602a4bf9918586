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

// Package publish delivers messages to a topic.
//
// A topic identifier selects the backend:
//
//	projects/<project-id>/topics/<topic-name>   Google Cloud Pub/Sub
//	kafka://<host:port>[,<host:port>...]/<topic> Apache Kafka
//	file:///path/to/file or -                  newline-delimited file or stdout
package publish

import (
	"context"
)

// Message is a single payload to publish.
type Message struct {
	Data       []byte
	Attributes map[string]string // May be nil.
}

// A Publisher delivers messages to a single topic. Implementations are
// safe for concurrent use.
type Publisher interface {
	// Publish enqueues the message for delivery. An error is returned
	// if the message cannot be accepted or if a previously enqueued
	// message is known to have failed.
	Publish(ctx context.Context, msg Message) error
	// Flush waits until all enqueued messages have been delivered and
	// returns the first delivery error.
	Flush(ctx context.Context) error
	// Close releases the resources held by the Publisher. Messages that
	// have not been flushed may be lost.
	Close() error
}
