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

package licenses

import (
	"bytes"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestPrint(t *testing.T) {
	r := require.New(t)
	fsys := fstest.MapFS{
		"data/licenses/github.com/pkg/errors/LICENSE":  {Data: []byte("BSD\n")},
		"data/licenses/github.com/spf13/cobra/LICENSE": {Data: []byte("Apache\n")},
	}
	var buf bytes.Buffer
	r.NoError(Print(fsys, &buf))
	r.Equal("Module github.com/pkg/errors:\n\nBSD\n--------\n\n"+
		"Module github.com/spf13/cobra:\n\nApache\n--------\n\n", buf.String())
}

func TestPrintDevelopment(t *testing.T) {
	r := require.New(t)
	var buf bytes.Buffer
	r.ErrorIs(Print(fstest.MapFS{}, &buf), ErrDevelopment)
	r.Empty(buf.String())
}
