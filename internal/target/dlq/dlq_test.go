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
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/mcslender97/textjson/internal/flatten"
	"github.com/mcslender97/textjson/internal/target/publish"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memPublisher struct {
	fail error

	mu   sync.Mutex
	msgs []publish.Message
}

func (p *memPublisher) Publish(_ context.Context, msg publish.Message) error {
	if p.fail != nil {
		return p.fail
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return nil
}
func (p *memPublisher) Flush(context.Context) error { return p.fail }
func (p *memPublisher) Close() error                { return nil }

func parseError(t *testing.T, line string) *flatten.ParseError {
	t.Helper()
	_, err := flatten.Flatten([]byte(line))
	perr, ok := flatten.IsParseError(err)
	require.True(t, ok)
	return perr
}

func TestSkip(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)
	ctx := context.Background()

	router := New(nil, "run")
	a.False(router.Routing())
	r.NoError(router.Route(ctx, &Entry{Err: parseError(t, "nope"), File: "a.json", Line: 1}))
	r.NoError(router.Route(ctx, &Entry{Err: parseError(t, "[]"), File: "a.json", Line: 2}))
	r.NoError(router.Route(ctx, &Entry{Err: parseError(t, "{"), File: "a.json", Line: 3}))
	r.NoError(router.Flush(ctx))

	a.Equal(map[flatten.Kind]int64{
		flatten.KindMalformed: 2,
		flatten.KindNotObject: 1,
	}, router.Counts())
}

func TestRoute(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)
	ctx := context.Background()

	pub := &memPublisher{}
	router := New(pub, "run-1")
	a.True(router.Routing())
	a.Equal("run-1", router.RunID())

	perr := parseError(t, "[1]")
	r.NoError(router.Route(ctx, &Entry{Err: perr, File: "/data/a.json", Line: 7, Text: []byte("[1]")}))
	r.NoError(router.Flush(ctx))

	r.Len(pub.msgs, 1)
	msg := pub.msgs[0]
	a.Equal("[1]", string(msg.Data))
	a.Equal(map[string]string{
		AttrError:     perr.Error(),
		AttrErrorKind: "not_object",
		AttrFile:      "/data/a.json",
		AttrLine:      "7",
		AttrRunID:     "run-1",
	}, msg.Attributes)
	a.Equal(int64(1), router.Counts()[flatten.KindNotObject])
}

func TestRouteFailure(t *testing.T) {
	r := require.New(t)
	boom := errors.New("boom")
	router := New(&memPublisher{fail: boom}, "run")

	err := router.Route(context.Background(),
		&Entry{Err: parseError(t, "x"), File: "a.json", Line: 3, Text: []byte("x")})
	r.ErrorIs(err, boom)
	r.ErrorContains(err, "a.json:3")
}

func TestConfig(t *testing.T) {
	r := require.New(t)
	r.NoError((&Config{}).Preflight())
	r.NoError((&Config{DeadLetterTopic: "projects/p/topics/dead-letters"}).Preflight())
	r.Error((&Config{DeadLetterTopic: "dead-letters"}).Preflight())
}

func TestProvideRouter(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)
	ctx := stopper.WithContext(context.Background())
	defer func() {
		ctx.Stop(time.Second)
		r.NoError(ctx.Wait())
	}()

	pubCfg := &publish.Config{OutputTopic: "-"}
	r.NoError(pubCfg.Preflight())

	skip, err := ProvideRouter(ctx, &Config{}, pubCfg)
	r.NoError(err)
	a.False(skip.Routing())
	a.Len(skip.RunID(), 36)

	route, err := ProvideRouter(ctx, &Config{DeadLetterTopic: "-"}, pubCfg)
	r.NoError(err)
	a.True(route.Routing())
	a.NotEqual(skip.RunID(), route.RunID())
}
