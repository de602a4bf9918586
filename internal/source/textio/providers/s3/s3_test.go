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

package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/mcslender97/textjson/internal/source/textio/bucket"
	"github.com/mcslender97/textjson/internal/source/textio/providers/validate"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
)

var (
	Errors = map[validate.Errors]error{
		validate.NoSuchBucket: errors.New("bucket not found"),
		validate.NoSuchKey:    errors.New("key not found"),
	}
)

// mockS3 is in memory S3 bucket.
type mockS3 struct {
	bucketName string
	files      sync.Map
}

var _ s3Access = &mockS3{}
var _ validate.Writer = &mockS3{}

// GetObject implements s3Access.
func (m *mockS3) GetObject(
	_ context.Context, bucketName string, objectName string, _ minio.GetObjectOptions,
) (io.ReadCloser, error) {
	if bucketName != m.bucketName {
		return nil, Errors[validate.NoSuchBucket]
	}
	file, ok := m.files.Load(objectName)
	if !ok {
		return nil, Errors[validate.NoSuchKey]
	}
	return io.NopCloser(bytes.NewReader(file.([]byte))), nil
}

// ListObjects implements s3Access. Non-recursive listings report
// common prefixes the same way S3 does, as keys ending in a slash.
func (m *mockS3) ListObjects(
	_ context.Context, bucketName string, opts minio.ListObjectsOptions,
) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo)
	go func() {
		defer close(ch)

		if bucketName != m.bucketName {
			ch <- minio.ObjectInfo{
				Err: Errors[validate.NoSuchBucket],
			}
			return
		}
		files := make([]string, 0, 10)
		m.files.Range(func(key any, value any) bool {
			files = append(files, key.(string))
			return true
		})
		sort.Strings(files)
		seen := make(map[string]bool)
		for _, f := range files {
			if !strings.HasPrefix(f, opts.Prefix) {
				continue
			}
			key := f
			if !opts.Recursive {
				rest := strings.TrimPrefix(f, opts.Prefix)
				if idx := strings.Index(rest, DirDelim); idx >= 0 {
					key = opts.Prefix + rest[:idx+1]
				}
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			ch <- minio.ObjectInfo{
				Key: key,
			}
		}
	}()
	return ch
}

// Store implements validate.Writer.
func (m *mockS3) Store(_ context.Context, name string, buf []byte) error {
	m.files.Store(name, buf)
	return nil
}

func TestGet(t *testing.T) {
	suite().Get(t)
}

func TestIter(t *testing.T) {
	suite().Iter(t)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
	}{
		{"nil", nil, false},
		{"not found", minio.ErrorResponse{StatusCode: http.StatusNotFound, Code: "NoSuchKey"}, false},
		{"forbidden", minio.ErrorResponse{StatusCode: http.StatusForbidden, Code: "AccessDenied"}, false},
		{"server", minio.ErrorResponse{StatusCode: http.StatusServiceUnavailable}, true},
		{"throttled", minio.ErrorResponse{StatusCode: http.StatusTooManyRequests}, true},
		{"slow down", minio.ErrorResponse{Code: "SlowDown"}, true},
		{"other", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := assert.New(t)
			got := classify(tt.err)
			if tt.err == nil {
				a.NoError(got)
				return
			}
			a.Equal(tt.transient, errors.Is(got, bucket.ErrTransient))
		})
	}
}

func TestMissingBucket(t *testing.T) {
	a := assert.New(t)
	b := &s3Bucket{
		client: &mockS3{bucketName: "test"},
		bucket: "other",
	}
	err := b.Iter(context.Background(), "", func(string) error { return nil },
		bucket.IterOptions{Recursive: true})
	a.ErrorContains(err, "bucket not found")
}

func suite() *validate.Validator {
	mockS3 := &mockS3{
		bucketName: "test",
	}
	return &validate.Validator{
		Errors: Errors,
		Reader: &s3Bucket{
			client: mockS3,
			bucket: "test",
		},
		Writer: mockS3,
	}
}
