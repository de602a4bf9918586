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
	"sort"
	"sync"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
)

// kafkaPublisher accumulates messages and sends them in batches through
// a synchronous producer.
type kafkaPublisher struct {
	batchSize int
	producer  sarama.SyncProducer
	topic     string

	mu struct {
		sync.Mutex
		pending []*sarama.ProducerMessage
	}
}

var _ Publisher = (*kafkaPublisher)(nil)

func newKafkaPublisher(producer sarama.SyncProducer, topic string, batchSize int) *kafkaPublisher {
	if batchSize <= 0 {
		batchSize = defaultKafkaBatchSize
	}
	return &kafkaPublisher{batchSize: batchSize, producer: producer, topic: topic}
}

// Publish implements Publisher.
func (p *kafkaPublisher) Publish(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	pm := &sarama.ProducerMessage{
		Topic:   p.topic,
		Value:   sarama.ByteEncoder(msg.Data),
		Headers: headers(msg.Attributes),
	}
	var toSend []*sarama.ProducerMessage
	p.mu.Lock()
	p.mu.pending = append(p.mu.pending, pm)
	if len(p.mu.pending) >= p.batchSize {
		toSend = p.mu.pending
		p.mu.pending = nil
	}
	p.mu.Unlock()

	return p.send(toSend)
}

// Flush implements Publisher.
func (p *kafkaPublisher) Flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	toSend := p.mu.pending
	p.mu.pending = nil
	p.mu.Unlock()

	return p.send(toSend)
}

// Close implements Publisher.
func (p *kafkaPublisher) Close() error {
	return errors.WithStack(p.producer.Close())
}

func (p *kafkaPublisher) send(batch []*sarama.ProducerMessage) error {
	if len(batch) == 0 {
		return nil
	}
	if err := p.producer.SendMessages(batch); err != nil {
		var perrs sarama.ProducerErrors
		if errors.As(err, &perrs) && len(perrs) > 0 {
			return errors.Wrapf(perrs[0].Err, "could not send %d of %d messages to %s",
				len(perrs), len(batch), p.topic)
		}
		return errors.Wrapf(err, "could not send messages to %s", p.topic)
	}
	return nil
}

// headers converts message attributes into record headers, ordered by
// key.
func headers(attrs map[string]string) []sarama.RecordHeader {
	if len(attrs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ret := make([]sarama.RecordHeader, len(keys))
	for i, k := range keys {
		ret[i] = sarama.RecordHeader{Key: []byte(k), Value: []byte(attrs[k])}
	}
	return ret
}
