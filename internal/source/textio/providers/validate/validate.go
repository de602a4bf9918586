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

// Package validate defines the tests that the providers must pass.
package validate

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/mcslender97/textjson/internal/source/textio/bucket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Errors defines the errors we expect from the tests.
type Errors int

// The error messages that we expect in the tests.
const (
	NoSuchBucket Errors = iota
	NoSuchKey
)

// Writer allows the validator to add objects to the bucket.
type Writer interface {
	// Store writes the content to the bucket.
	Store(ctx context.Context, name string, buf []byte) error
}

// Validator verifies that the providers for bucket.Reader can
// read and list objects from a bucket.
type Validator struct {
	Errors map[Errors]error
	Reader bucket.Reader
	Writer Writer
}

// Get validates bucket.Reader.Get
func (v *Validator) Get(t *testing.T) {
	r := require.New(t)
	tests := []struct {
		name    string
		file    string
		want    []byte
		wantErr string
	}{
		{"found", "test.json", []byte(`{"a":"1"}`), ""},
		{"nested", "dir/test.json", []byte(`{"b":"2"}`), ""},
		{"notfound", "nothere.json", nil, v.Errors[NoSuchKey].Error()},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.NoError(v.Writer.Store(ctx, "test.json", []byte(`{"a":"1"}`)))
	r.NoError(v.Writer.Store(ctx, "dir/test.json", []byte(`{"b":"2"}`)))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := assert.New(t)
			r := require.New(t)
			got, err := v.Reader.Get(ctx, tt.file)
			if tt.wantErr != "" {
				a.ErrorContains(err, tt.wantErr)
				return
			}
			r.NoError(err)
			defer got.Close()
			res, err := io.ReadAll(got)
			r.NoError(err)
			a.Equal(tt.want, res)
		})
	}
}

// Iter validates bucket.Reader.Iter
func (v *Validator) Iter(t *testing.T) {
	r := require.New(t)
	tests := []struct {
		name      string
		dir       string
		recursive bool
		want      []string
	}{
		{"root", "", false, []string{
			"a.json",
			"b.json",
		}},
		{"recursive", "", true, []string{
			"000/000.json",
			"000/001.json",
			"001/000.json",
			"001/sub/000.json",
			"a.json",
			"b.json",
		}},
		{"dir", "001", false, []string{
			"001/000.json",
		}},
		{"dir recursive", "001", true, []string{
			"001/000.json",
			"001/sub/000.json",
		}},
		{"trailing slash", "000/", false, []string{
			"000/000.json",
			"000/001.json",
		}},
		{"none", "002", true, []string{}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, name := range []string{
		"001/sub/000.json",
		"b.json",
		"000/001.json",
		"a.json",
		"001/000.json",
		"000/000.json",
	} {
		r.NoError(v.Writer.Store(ctx, name, []byte("{}")))
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := assert.New(t)
			r := require.New(t)
			res := make([]string, 0)
			err := v.Reader.Iter(ctx, tt.dir, func(s string) error {
				res = append(res, s)
				return nil
			}, bucket.IterOptions{Recursive: tt.recursive})
			r.NoError(err)
			a.Equal(tt.want, res)
		})
	}
}
