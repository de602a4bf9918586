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

package start

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/mcslender97/textjson/internal/source/textio"
	"github.com/stretchr/testify/require"
)

func TestStart(t *testing.T) {
	r := require.New(t)
	ctx := stopper.WithContext(context.Background())
	defer ctx.Stop(time.Second)

	in := t.TempDir()
	r.NoError(os.WriteFile(filepath.Join(in, "a.json"), []byte("{\"a\":\"1\",\"b\":true}\nbad\n"), 0644))
	out := filepath.Join(t.TempDir(), "out.txt")

	cmd := Command()
	cmd.SetArgs([]string{
		"--inputFilePattern", filepath.Join(in, "*.json"),
		"--outputTopic", "file://" + filepath.ToSlash(out),
		"--workers", "1",
	})
	r.NoError(cmd.ExecuteContext(ctx))

	data, err := os.ReadFile(out)
	r.NoError(err)
	r.Equal("a,1\nb,true\n", string(data))
}

func TestStartMissingFlags(t *testing.T) {
	r := require.New(t)
	ctx := stopper.WithContext(context.Background())
	defer ctx.Stop(time.Second)

	cmd := Command()
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	cmd.SetArgs([]string{"--outputTopic", "-"})
	r.ErrorContains(cmd.ExecuteContext(ctx), "inputFilePattern must be set")

	cmd = Command()
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	cmd.SetArgs([]string{"--inputFilePattern", "/data/*.json"})
	r.ErrorContains(cmd.ExecuteContext(ctx), "outputTopic must be set")
}

func TestStartNoMatch(t *testing.T) {
	r := require.New(t)
	ctx := stopper.WithContext(context.Background())
	defer ctx.Stop(time.Second)

	cmd := Command()
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	cmd.SetArgs([]string{
		"--inputFilePattern", filepath.Join(t.TempDir(), "*.json"),
		"--outputTopic", "file://" + filepath.ToSlash(filepath.Join(t.TempDir(), "out.txt")),
	})
	r.ErrorIs(cmd.ExecuteContext(ctx), textio.ErrNoMatch)
}
