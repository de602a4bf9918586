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
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"google.golang.org/api/option"
)

// Config contains the configuration necessary for publishing messages.
type Config struct {
	Kafka KafkaConfig

	OutputTopic string  // The topic identifier records are sent to.
	PublishRate float64 // Messages per second, per topic; zero is unlimited.

	// Additional options for the Pub/Sub client, used by tests.
	clientOptions []option.ClientOption
	// Computed by Preflight.
	topic *Topic
}

// Bind adds flags to the set.
func (c *Config) Bind(f *pflag.FlagSet) {
	c.Kafka.Bind(f)

	f.StringVar(&c.OutputTopic, "outputTopic", "",
		"the topic to publish records to, in the format projects/<project>/topics/<topic>; "+
			"kafka://<brokers>/<topic>, file:///<path> and - (stdout) are also accepted")
	f.Float64Var(&c.PublishRate, "publishRate", 0,
		"the maximum number of messages per second to publish to each topic; zero disables the limit")
}

// Preflight updates the configuration with sane defaults or returns an
// error if there are missing options for which a default cannot be
// provided.
func (c *Config) Preflight() error {
	if c.OutputTopic == "" {
		return errors.New("outputTopic must be set")
	}
	if c.PublishRate < 0 {
		return errors.New("publishRate must not be negative")
	}
	topic, err := ParseTopic(c.OutputTopic)
	if err != nil {
		return err
	}
	c.topic = topic
	return c.Kafka.Preflight()
}

// Topic returns the parsed output topic. Preflight must have been
// called.
func (c *Config) Topic() *Topic {
	return c.topic
}
