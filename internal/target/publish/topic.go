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
	"path"
	"regexp"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// Kind identifies a publishing backend.
//
//go:generate go run golang.org/x/tools/cmd/stringer -type=Kind -linecomment
type Kind int

// The supported backends.
const (
	KindUnknown Kind = iota // unknown
	KindPubSub              // pubsub
	KindKafka               // kafka
	KindFile                // file
)

// Stdout is the topic identifier which writes to standard output.
const Stdout = "-"

// Topic is a parsed topic identifier.
type Topic struct {
	Kind Kind

	Brokers []string // Kafka only.
	Name    string   // The Pub/Sub or Kafka topic name.
	Path    string   // File only; empty for stdout.
	Project string   // Pub/Sub only.

	raw string
}

func (t *Topic) String() string {
	return t.raw
}

// SameDestination returns true if both topics deliver to the same
// file, Pub/Sub topic or Kafka topic. Kafka topics are considered the
// same if their names match and they share a broker.
func (t *Topic) SameDestination(o *Topic) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindFile:
		return cleanPath(t.Path) == cleanPath(o.Path)
	case KindPubSub:
		return t.Project == o.Project && t.Name == o.Name
	case KindKafka:
		if t.Name != o.Name {
			return false
		}
		for _, b := range t.Brokers {
			if slices.Contains(o.Brokers, b) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// cleanPath leaves the empty stdout path alone.
func cleanPath(p string) string {
	if p == "" {
		return ""
	}
	return path.Clean(p)
}

var (
	pubsubTopicPattern = regexp.MustCompile(`^projects/([^/]+)/topics/([^/]+)$`)
	pubsubNamePattern  = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9\-_.~+%]{2,254}$`)
	kafkaNamePattern   = regexp.MustCompile(`^[A-Za-z0-9._\-]{1,249}$`)
)

// ParseTopic validates a topic identifier.
func ParseTopic(s string) (*Topic, error) {
	switch {
	case s == "":
		return nil, errors.New("empty topic identifier")

	case s == Stdout:
		return &Topic{Kind: KindFile, raw: s}, nil

	case strings.HasPrefix(s, "file://"):
		p := strings.TrimPrefix(s, "file://")
		if !strings.HasPrefix(p, "/") {
			return nil, errors.Errorf("file topic %q must be an absolute file:/// URL", s)
		}
		return &Topic{Kind: KindFile, Path: p, raw: s}, nil

	case strings.HasPrefix(s, "kafka://"):
		rest := strings.TrimPrefix(s, "kafka://")
		idx := strings.IndexByte(rest, '/')
		if idx < 0 {
			return nil, errors.Errorf("kafka topic %q must be kafka://host:port/topic", s)
		}
		hosts, name := rest[:idx], rest[idx+1:]
		var brokers []string
		for _, h := range strings.Split(hosts, ",") {
			if h = strings.TrimSpace(h); h != "" {
				brokers = append(brokers, h)
			}
		}
		if len(brokers) == 0 {
			return nil, errors.Errorf("kafka topic %q has no brokers", s)
		}
		if err := validateKafkaName(name); err != nil {
			return nil, err
		}
		return &Topic{Kind: KindKafka, Brokers: brokers, Name: name, raw: s}, nil

	default:
		m := pubsubTopicPattern.FindStringSubmatch(s)
		if m == nil {
			return nil, errors.Errorf(
				"unknown topic %q; must be projects/<project>/topics/<topic>, kafka://<brokers>/<topic>, file:///<path> or -", s)
		}
		if err := validatePubSubName(m[2]); err != nil {
			return nil, err
		}
		return &Topic{Kind: KindPubSub, Project: m[1], Name: m[2], raw: s}, nil
	}
}

// validatePubSubName checks the resource naming rules for Pub/Sub
// topics.
func validatePubSubName(name string) error {
	if !pubsubNamePattern.MatchString(name) {
		return errors.Errorf(
			"invalid Pub/Sub topic name %q; must be 3-255 characters, start with a letter "+
				"and contain only letters, numbers or -_.~+%%", name)
	}
	if strings.HasPrefix(strings.ToLower(name), "goog") {
		return errors.Errorf("invalid Pub/Sub topic name %q; must not start with goog", name)
	}
	return nil
}

func validateKafkaName(name string) error {
	if name == "." || name == ".." || !kafkaNamePattern.MatchString(name) {
		return errors.Errorf(
			"invalid Kafka topic name %q; must be 1-249 characters of letters, numbers or ._-", name)
	}
	return nil
}
