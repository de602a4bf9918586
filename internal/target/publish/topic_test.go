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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTopic(t *testing.T) {
	tests := []struct {
		topic   string
		want    Topic
		wantErr string
	}{
		{
			topic: "projects/my-project/topics/my-topic",
			want:  Topic{Kind: KindPubSub, Project: "my-project", Name: "my-topic"},
		},
		{
			topic: "projects/p/topics/a.b~c+d%e_f-g",
			want:  Topic{Kind: KindPubSub, Project: "p", Name: "a.b~c+d%e_f-g"},
		},
		{
			topic: "kafka://localhost:9092/records",
			want:  Topic{Kind: KindKafka, Brokers: []string{"localhost:9092"}, Name: "records"},
		},
		{
			topic: "kafka://a:9092, b:9092/records.v1",
			want:  Topic{Kind: KindKafka, Brokers: []string{"a:9092", "b:9092"}, Name: "records.v1"},
		},
		{
			topic: "file:///tmp/out.txt",
			want:  Topic{Kind: KindFile, Path: "/tmp/out.txt"},
		},
		{
			topic: "-",
			want:  Topic{Kind: KindFile},
		},
		{topic: "", wantErr: "empty topic"},
		{topic: "my-topic", wantErr: "unknown topic"},
		{topic: "projects/p/topics/", wantErr: "unknown topic"},
		{topic: "projects//topics/t", wantErr: "unknown topic"},
		{topic: "projects/p/subscriptions/t", wantErr: "unknown topic"},
		{topic: "projects/p/topics/ab", wantErr: "3-255 characters"},
		{topic: "projects/p/topics/1abc", wantErr: "start with a letter"},
		{topic: "projects/p/topics/a b c", wantErr: "unknown topic"},
		{topic: "projects/p/topics/abc$", wantErr: "invalid Pub/Sub topic name"},
		{topic: "projects/p/topics/google-topic", wantErr: "must not start with goog"},
		{topic: "projects/p/topics/" + strings.Repeat("a", 256), wantErr: "3-255 characters"},
		{topic: "kafka://localhost:9092", wantErr: "must be kafka://host:port/topic"},
		{topic: "kafka:///records", wantErr: "no brokers"},
		{topic: "kafka://localhost:9092/", wantErr: "invalid Kafka topic"},
		{topic: "kafka://localhost:9092/..", wantErr: "invalid Kafka topic"},
		{topic: "kafka://localhost:9092/a/b", wantErr: "invalid Kafka topic"},
		{topic: "file://out.txt", wantErr: "absolute"},
	}
	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			a := assert.New(t)
			r := require.New(t)
			got, err := ParseTopic(tt.topic)
			if tt.wantErr != "" {
				r.ErrorContains(err, tt.wantErr)
				return
			}
			r.NoError(err)
			a.Equal(tt.want.Kind, got.Kind)
			a.Equal(tt.want.Brokers, got.Brokers)
			a.Equal(tt.want.Name, got.Name)
			a.Equal(tt.want.Path, got.Path)
			a.Equal(tt.want.Project, got.Project)
			a.Equal(tt.topic, got.String())
		})
	}
}

func TestPubSubNameBounds(t *testing.T) {
	a := assert.New(t)
	a.NoError(validatePubSubName("abc"))
	a.NoError(validatePubSubName("a" + strings.Repeat("b", 254)))
	a.Error(validatePubSubName("a" + strings.Repeat("b", 255)))
	a.Error(validatePubSubName("GOOGtopic"))
}

func TestSameDestination(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"-", "-", true},
		{"file:///tmp/out.txt", "file:///tmp/out.txt", true},
		{"file:///tmp/out.txt", "file:///tmp/./x/../out.txt", true},
		{"file:///tmp/out.txt", "file:///tmp/dead.txt", false},
		{"file:///tmp/out.txt", "-", false},
		{"projects/p/topics/records", "projects/p/topics/records", true},
		{"projects/p/topics/records", "projects/q/topics/records", false},
		{"kafka://a:9092,b:9092/records", "kafka://b:9092/records", true},
		{"kafka://a:9092/records", "kafka://c:9092/records", false},
		{"kafka://a:9092/records", "kafka://a:9092/dead", false},
		{"kafka://a:9092/records", "projects/p/topics/records", false},
	}
	for _, tt := range tests {
		t.Run(tt.a+" "+tt.b, func(t *testing.T) {
			r := require.New(t)
			a, err := ParseTopic(tt.a)
			r.NoError(err)
			b, err := ParseTopic(tt.b)
			r.NoError(err)
			r.Equal(tt.want, a.SameDestination(b))
			r.Equal(tt.want, b.SameDestination(a))
		})
	}
}

func TestKindString(t *testing.T) {
	a := assert.New(t)
	a.Equal("unknown", KindUnknown.String())
	a.Equal("pubsub", KindPubSub.String())
	a.Equal("kafka", KindKafka.String())
	a.Equal("file", KindFile.String())
	a.Equal("Kind(9)", Kind(9).String())
}
