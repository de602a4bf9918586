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

package stdbatch

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

type jobFn func(ctx *stopper.Context) error

func (fn jobFn) Run(ctx *stopper.Context) error { return fn(ctx) }

type testConfig struct {
	name string
}

func (c *testConfig) Bind(f *pflag.FlagSet) {
	f.StringVar(&c.name, "name", "", "a required name")
}

func (c *testConfig) Preflight() error {
	if c.name == "" {
		return errors.New("name must be set")
	}
	return nil
}

func TestSmoke(t *testing.T) {
	r := require.New(t)

	ctx := stopper.WithContext(context.Background())
	defer ctx.Stop(time.Second)

	ready := make(chan struct{})
	release := make(chan struct{})

	cmd := New(&Template{
		Config:  &testConfig{},
		Metrics: "127.0.0.1:13013",
		Start: func(*stopper.Context, *cobra.Command) (Job, error) {
			return jobFn(func(*stopper.Context) error {
				<-release
				return nil
			}), nil
		},
		Use: "test",
		testCallback: func() {
			close(ready)
		},
	})
	cmd.SetArgs([]string{"--name", "job"})

	done := make(chan error, 1)
	go func() {
		done <- cmd.ExecuteContext(ctx)
	}()

	select {
	case <-time.After(5 * time.Second):
		r.Fail("timed out waiting for job")
	case <-ready:
	}

	for _, path := range []string{"/_/diag", "/_/varz", "/_/healthz"} {
		resp, err := http.Get("http://127.0.0.1:13013" + path)
		r.NoError(err)
		r.Equal(http.StatusOK, resp.StatusCode, path)
		count, err := io.Copy(io.Discard, resp.Body)
		r.NoError(err)
		r.NotZero(count)
		r.NoError(resp.Body.Close())
	}

	close(release)
	r.NoError(<-done)
}

func TestPreflightFailsFirst(t *testing.T) {
	r := require.New(t)
	ctx := stopper.WithContext(context.Background())
	defer ctx.Stop(time.Second)

	started := false
	cmd := New(&Template{
		Config: &testConfig{},
		Start: func(*stopper.Context, *cobra.Command) (Job, error) {
			started = true
			return nil, nil
		},
		Use: "test",
	})
	cmd.SetArgs([]string{})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	r.ErrorContains(cmd.ExecuteContext(ctx), "name must be set")
	r.False(started)
}

func TestJobError(t *testing.T) {
	r := require.New(t)
	ctx := stopper.WithContext(context.Background())
	defer ctx.Stop(time.Second)

	boom := errors.New("boom")
	cmd := New(&Template{
		Start: func(*stopper.Context, *cobra.Command) (Job, error) {
			return jobFn(func(*stopper.Context) error { return boom }), nil
		},
		Use: "test",
	})
	cmd.SetArgs([]string{})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	r.ErrorIs(cmd.ExecuteContext(ctx), boom)
}
