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

	"github.com/IBM/sarama"
	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/google/wire"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Set is used by Wire.
var Set = wire.NewSet(
	ProvidePublisher,
)

// Open constructs a Publisher for the topic identifier, using the
// backend options from the configuration.
func (c *Config) Open(ctx context.Context, topic string) (Publisher, error) {
	t, err := ParseTopic(topic)
	if err != nil {
		return nil, err
	}
	var ret Publisher
	switch t.Kind {
	case KindPubSub:
		ret, err = openPubSub(ctx, t, c.clientOptions...)
	case KindKafka:
		var sc *sarama.Config
		sc, err = c.Kafka.saramaConfig(ctx)
		if err != nil {
			return nil, err
		}
		var producer sarama.SyncProducer
		producer, err = sarama.NewSyncProducer(t.Brokers, sc)
		if err != nil {
			return nil, errors.Wrapf(err, "could not connect to %s", t)
		}
		ret = newKafkaPublisher(producer, t.Name, c.Kafka.BatchSize)
	case KindFile:
		ret, err = openFile(t)
	default:
		err = errors.Errorf("unsupported topic %s", t)
	}
	if err != nil {
		return nil, err
	}
	ret = instrument(ret, t)
	if c.PublishRate > 0 {
		ret = withRateLimit(ret, c.PublishRate)
	}
	log.WithFields(log.Fields{
		"backend": t.Kind,
		"topic":   t,
	}).Debug("opened publisher")
	return ret, nil
}

// ProvidePublisher is called by Wire to open the output topic. The
// publisher is closed when the stopper has stopped.
func ProvidePublisher(ctx *stopper.Context, config *Config) (Publisher, error) {
	ret, err := config.Open(ctx, config.OutputTopic)
	if err != nil {
		return nil, err
	}
	ctx.Defer(func() {
		if err := ret.Close(); err != nil {
			log.WithError(err).Warnf("could not close publisher for %s", config.OutputTopic)
		}
	})
	return ret, nil
}
