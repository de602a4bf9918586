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

package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/mcslender97/textjson/internal/source/textio"
	"github.com/mcslender97/textjson/internal/target/dlq"
	"github.com/mcslender97/textjson/internal/target/publish"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture holds a directory of input files and the location of the
// output file.
type fixture struct {
	ctx *stopper.Context
	dir string
	out string
}

func newFixture(t *testing.T, files map[string]string) *fixture {
	t.Helper()
	r := require.New(t)
	dir := t.TempDir()
	for name, content := range files {
		r.NoError(os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	ctx := stopper.WithContext(context.Background())
	t.Cleanup(func() {
		ctx.Stop(time.Second)
		_ = ctx.Wait()
	})
	return &fixture{
		ctx: ctx,
		dir: dir,
		out: filepath.Join(t.TempDir(), "out.txt"),
	}
}

func (f *fixture) config(pattern string) *Config {
	return &Config{
		Delimiter: ",",
		Publish: publish.Config{
			OutputTopic: "file://" + filepath.ToSlash(f.out),
		},
		Source: textio.Config{
			InputFilePattern: filepath.Join(f.dir, pattern),
		},
		Workers: 4,
	}
}

func (f *fixture) run(t *testing.T, cfg *Config) (*Summary, error) {
	t.Helper()
	require.NoError(t, cfg.Preflight())
	p, err := Start(f.ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, p.Diagnostics())
	return p.Run(f.ctx)
}

func readLines(t *testing.T, name string) []string {
	t.Helper()
	data, err := os.ReadFile(name)
	require.NoError(t, err)
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func TestRun(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)
	f := newFixture(t, map[string]string{
		"a.json":  "{\"a\":\"1\",\"b\":\"2\"}\n\n{\"c\":3}\r\n",
		"b.json":  "{\"d\":null,\"e\":{\"f\":[1, 2]}}\nnot json\n[1,2]\n   \n{}\n",
		"c.txt":   "{\"ignored\":true}\n",
		"d.json":  "",
		"e.json":  "\xEF\xBB\xBF{\"bom\":true}",
		"ff.json": "{\"g\":\"x,y\"}",
	})

	summary, err := f.run(t, f.config("*.json"))
	r.NoError(err)

	got := readLines(t, f.out)
	sort.Strings(got)
	a.Equal([]string{
		"a,1",
		"b,2",
		"bom,true",
		"c,3",
		"d,",
		`e,{"f":[1,2]}`,
		"g,x,y",
	}, got)

	a.Equal(5, summary.FilesTotal)
	a.Equal(int64(5), summary.Files)
	a.Equal(int64(10), summary.Lines)
	a.Equal(int64(2), summary.BlankLines)
	a.Equal(int64(7), summary.Published)
	a.Equal(map[string]int64{"malformed": 1, "not_object": 1}, summary.ParseErrors)
	a.Equal(int64(2), summary.Rejected())
	a.False(summary.Routed)
	a.Len(summary.RunID, 36)
	a.Contains(summary.String(), "skipped 2 lines (malformed=1 not_object=1)")
}

// Lines within a file are published in order.
func TestRunOrder(t *testing.T) {
	r := require.New(t)
	var sb strings.Builder
	var want []string
	for i := 0; i < 500; i++ {
		key := "k" + strings.Repeat("x", i%7)
		value := strings.Repeat("1", i%5+1)
		sb.WriteString(`{"` + key + `":` + value + "}\n")
		want = append(want, key+","+value)
	}
	f := newFixture(t, map[string]string{"in.json": sb.String()})

	summary, err := f.run(t, f.config("in.json"))
	r.NoError(err)
	r.Equal(int64(500), summary.Published)
	r.Equal(want, readLines(t, f.out))
}

func TestRunOptions(t *testing.T) {
	r := require.New(t)
	f := newFixture(t, map[string]string{
		"in.json": `{"a":{"b":1.50,"c":[null]}}`,
	})
	cfg := f.config("in.json")
	cfg.CanonicalNumbers = true
	cfg.Delimiter = "="
	cfg.Nested = "flatten"
	cfg.NullText = "NULL"
	cfg.Separator = "/"

	_, err := f.run(t, cfg)
	r.NoError(err)
	r.Equal([]string{"a/b=1.5", "a/c/0=NULL"}, readLines(t, f.out))
}

func TestRunDeadLetters(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)
	f := newFixture(t, map[string]string{
		"in.json": "{\"a\":\"1\"}\n\"text\"\n{broken\n",
	})
	deadLetters := filepath.Join(t.TempDir(), "dlq.txt")
	cfg := f.config("in.json")
	cfg.DLQ.DeadLetterTopic = "file://" + filepath.ToSlash(deadLetters)

	summary, err := f.run(t, cfg)
	r.NoError(err)
	a.True(summary.Routed)
	a.Contains(summary.String(), "dead-lettered 2 lines")
	a.Equal([]string{"a,1"}, readLines(t, f.out))

	lines := readLines(t, deadLetters)
	r.Len(lines, 2)
	type entry struct {
		Attributes map[string]string `json:"attributes"`
		Data       string            `json:"data"`
	}
	var first, second entry
	r.NoError(json.Unmarshal([]byte(lines[0]), &first))
	r.NoError(json.Unmarshal([]byte(lines[1]), &second))

	a.Equal(`"text"`, first.Data)
	a.Equal("not_object", first.Attributes[dlq.AttrErrorKind])
	a.Equal("2", first.Attributes[dlq.AttrLine])
	a.Equal(summary.RunID, first.Attributes[dlq.AttrRunID])
	a.True(strings.HasSuffix(first.Attributes[dlq.AttrFile], "/in.json"))

	a.Equal("{broken", second.Data)
	a.Equal("malformed", second.Attributes[dlq.AttrErrorKind])
	a.Equal("3", second.Attributes[dlq.AttrLine])
	a.Contains(second.Attributes[dlq.AttrError], "cannot flatten line: malformed")
}

func TestRunNoMatch(t *testing.T) {
	r := require.New(t)
	f := newFixture(t, map[string]string{"a.txt": "{}"})
	summary, err := f.run(t, f.config("*.json"))
	r.ErrorIs(err, textio.ErrNoMatch)
	r.NotNil(summary)
	r.Zero(summary.Published)
}

// An overlong line is a parse error for that line only.
func TestRunLineTooLong(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)
	long := `{"long":"` + strings.Repeat("x", 4096) + `"}`
	f := newFixture(t, map[string]string{
		"a.json": "{\"a\":\"1\"}\n" + long + "\n{\"b\":\"2\"}\n",
		"b.json": "{\"c\":\"3\"}\n",
	})
	cfg := f.config("*.json")
	cfg.Source.BufferSize = 1024

	summary, err := f.run(t, cfg)
	r.NoError(err)
	got := readLines(t, f.out)
	sort.Strings(got)
	a.Equal([]string{"a,1", "b,2", "c,3"}, got)
	a.Equal(int64(3), summary.Published)
	a.Equal(int64(2), summary.Files)
	a.Equal(map[string]int64{"too_long": 1}, summary.ParseErrors)
}

func TestRunLineTooLongRouted(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)
	f := newFixture(t, map[string]string{
		"in.json": `{"a":"` + strings.Repeat("x", 100) + "\"}\n{\"b\":\"2\"}\n",
	})
	dead := filepath.Join(t.TempDir(), "dead.txt")
	cfg := f.config("in.json")
	cfg.Source.BufferSize = 16
	cfg.DLQ.DeadLetterTopic = "file://" + filepath.ToSlash(dead)

	_, err := f.run(t, cfg)
	r.NoError(err)
	a.Equal([]string{"b,2"}, readLines(t, f.out))

	lines := readLines(t, dead)
	r.Len(lines, 1)
	var msg struct {
		Attributes map[string]string `json:"attributes"`
		Data       string            `json:"data"`
	}
	r.NoError(json.Unmarshal([]byte(lines[0]), &msg))
	a.Equal(`{"a":"xxxxxxxxxx`, msg.Data)
	a.Equal("too_long", msg.Attributes[dlq.AttrErrorKind])
	a.Equal("1", msg.Attributes[dlq.AttrLine])
	a.Contains(msg.Attributes[dlq.AttrError], "line of 109 bytes exceeds the buffer size of 16")
}

// Without a buffer size, lines of any length are flattened.
func TestRunUnlimitedLines(t *testing.T) {
	r := require.New(t)
	value := strings.Repeat("y", 200_000)
	f := newFixture(t, map[string]string{"in.json": `{"a":"` + value + `"}`})
	summary, err := f.run(t, f.config("in.json"))
	r.NoError(err)
	r.Equal(int64(1), summary.Published)
	r.Equal([]string{"a," + value}, readLines(t, f.out))
}

func TestRunStopped(t *testing.T) {
	r := require.New(t)
	f := newFixture(t, map[string]string{"in.json": `{"a":"1"}`})
	cfg := f.config("in.json")
	r.NoError(cfg.Preflight())
	p, err := Start(f.ctx, cfg)
	r.NoError(err)

	f.ctx.Stop(time.Minute)
	_, err = p.Run(f.ctx)
	r.ErrorIs(err, context.Canceled)
}

// failing is a Publisher which rejects every message.
type failing struct {
	err error
}

func (p *failing) Publish(context.Context, publish.Message) error { return p.err }
func (p *failing) Flush(context.Context) error                    { return nil }
func (p *failing) Close() error                                   { return nil }

func TestRunPublishError(t *testing.T) {
	r := require.New(t)
	f := newFixture(t, map[string]string{"in.json": "{\"a\":\"1\"}\n{\"b\":\"2\"}\n"})
	cfg := f.config("in.json")
	r.NoError(cfg.Preflight())

	source, err := StartSource(cfg)
	r.NoError(err)
	boom := errors.New("boom")
	p := ProvidePipeline(cfg, nil, ProvideFlattener(cfg), &failing{err: boom}, dlq.New(nil, "run"), source)

	summary, err := p.Run(f.ctx)
	r.ErrorIs(err, boom)
	r.ErrorContains(err, "in.json:1")
	r.Zero(summary.Files)
}

func TestPreflight(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "missing input",
			cfg:     Config{Delimiter: ",", Publish: publish.Config{OutputTopic: "-"}},
			wantErr: "inputFilePattern must be set",
		},
		{
			name:    "missing topic",
			cfg:     Config{Delimiter: ",", Source: textio.Config{InputFilePattern: "/data/*.json"}},
			wantErr: "outputTopic must be set",
		},
		{
			name: "bad nested",
			cfg: Config{
				Delimiter: ",",
				Nested:    "deep",
				Publish:   publish.Config{OutputTopic: "-"},
				Source:    textio.Config{InputFilePattern: "/data/*.json"},
			},
			wantErr: "unknown nested policy",
		},
		{
			name: "bad dead letter topic",
			cfg: Config{
				Delimiter: ",",
				DLQ:       dlq.Config{DeadLetterTopic: "nowhere"},
				Publish:   publish.Config{OutputTopic: "-"},
				Source:    textio.Config{InputFilePattern: "/data/*.json"},
			},
			wantErr: "unknown topic",
		},
		{
			name: "dead letters to the output file",
			cfg: Config{
				Delimiter: ",",
				DLQ:       dlq.Config{DeadLetterTopic: "file:///tmp/out/../records.txt"},
				Publish:   publish.Config{OutputTopic: "file:///tmp/records.txt"},
				Source:    textio.Config{InputFilePattern: "/data/*.json"},
			},
			wantErr: "must not be the same destination as outputTopic",
		},
		{
			name: "dead letters to stdout",
			cfg: Config{
				Delimiter: ",",
				DLQ:       dlq.Config{DeadLetterTopic: "-"},
				Publish:   publish.Config{OutputTopic: "-"},
				Source:    textio.Config{InputFilePattern: "/data/*.json"},
			},
			wantErr: "must not be the same destination as outputTopic",
		},
		{
			name: "dead letters to another file",
			cfg: Config{
				Delimiter: ",",
				DLQ:       dlq.Config{DeadLetterTopic: "file:///tmp/dead.txt"},
				Publish:   publish.Config{OutputTopic: "file:///tmp/records.txt"},
				Source:    textio.Config{InputFilePattern: "/data/*.json"},
			},
		},
		{
			name: "empty delimiter",
			cfg: Config{
				Publish: publish.Config{OutputTopic: "-"},
				Source:  textio.Config{InputFilePattern: "/data/*.json"},
			},
			wantErr: "delimiter must not be empty",
		},
		{
			name: "ok",
			cfg: Config{
				Delimiter: ",",
				Publish:   publish.Config{OutputTopic: "-"},
				Source:    textio.Config{InputFilePattern: "/data/*.json"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := require.New(t)
			cfg := tt.cfg
			err := cfg.Preflight()
			if tt.wantErr != "" {
				r.ErrorContains(err, tt.wantErr)
				return
			}
			r.NoError(err)
			r.Positive(cfg.Workers)
		})
	}
}
