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
	"sync"

	"cloud.google.com/go/pubsub"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

// maxPendingResults bounds the number of outstanding publish results
// that are tracked before Publish waits for them.
const maxPendingResults = 4096

// pubsubPublisher sends messages to a Google Cloud Pub/Sub topic. The
// client library batches messages in the background.
type pubsubPublisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic

	mu struct {
		sync.Mutex
		pending []*pubsub.PublishResult
	}
}

var _ Publisher = (*pubsubPublisher)(nil)

// openPubSub connects to the project named by the topic. The
// PUBSUB_EMULATOR_HOST environment variable is honored by the client.
func openPubSub(ctx context.Context, t *Topic, opts ...option.ClientOption) (*pubsubPublisher, error) {
	client, err := pubsub.NewClient(ctx, t.Project, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "could not create Pub/Sub client for %s", t)
	}
	return &pubsubPublisher{client: client, topic: client.Topic(t.Name)}, nil
}

// Publish implements Publisher.
func (p *pubsubPublisher) Publish(ctx context.Context, msg Message) error {
	p.mu.Lock()
	err := p.reapLocked(ctx)
	p.mu.Unlock()
	if err != nil {
		return err
	}

	res := p.topic.Publish(ctx, &pubsub.Message{
		Data:       msg.Data,
		Attributes: msg.Attributes,
	})

	var toWait []*pubsub.PublishResult
	p.mu.Lock()
	p.mu.pending = append(p.mu.pending, res)
	if len(p.mu.pending) >= maxPendingResults {
		toWait = p.mu.pending
		p.mu.pending = nil
	}
	p.mu.Unlock()

	return p.wait(ctx, toWait)
}

// Flush implements Publisher.
func (p *pubsubPublisher) Flush(ctx context.Context) error {
	p.topic.Flush()
	p.mu.Lock()
	toWait := p.mu.pending
	p.mu.pending = nil
	p.mu.Unlock()

	return p.wait(ctx, toWait)
}

// Close implements Publisher.
func (p *pubsubPublisher) Close() error {
	p.topic.Stop()
	return errors.WithStack(p.client.Close())
}

// reapLocked discards completed results from the front of the pending
// list and returns the first failure. It stops at the first result that
// is still outstanding.
func (p *pubsubPublisher) reapLocked(ctx context.Context) error {
	for len(p.mu.pending) > 0 {
		res := p.mu.pending[0]
		select {
		case <-res.Ready():
		default:
			return nil
		}
		p.mu.pending = p.mu.pending[1:]
		if _, err := res.Get(ctx); err != nil {
			return errors.Wrapf(err, "could not publish to %s", p.topic)
		}
	}
	return nil
}

// wait blocks until all results are available and returns the first
// error.
func (p *pubsubPublisher) wait(ctx context.Context, results []*pubsub.PublishResult) error {
	var first error
	for _, res := range results {
		if _, err := res.Get(ctx); err != nil && first == nil {
			first = errors.Wrapf(err, "could not publish to %s", p.topic)
		}
	}
	return first
}
