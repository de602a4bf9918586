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

// Package bucket defines the interface that the providers must implement
// to list and read input files.
package bucket

import (
	"context"
	"io"

	"github.com/pkg/errors"
)

// ErrTransient is matched by errors that may succeed if retried.
var ErrTransient = errors.New("transient error")

// IterOptions are the configuration options used by the iterators.
type IterOptions struct {
	Recursive bool // Enable recursive descend.
}

// Reader provides read access to a bucket of input files.
type Reader interface {
	// Iter calls f for each file in the given directory. The argument
	// to f is the full object name including the prefix of the
	// inspected directory. Entries are passed to the function in
	// sorted order.
	Iter(ctx context.Context, dir string, f func(string) error, options IterOptions) error

	// Get returns a reader for the given object name.
	Get(ctx context.Context, name string) (io.ReadCloser, error)
}

// Transient marks the error as retryable. A nil error is returned
// unchanged.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{cause: err}
}

type transientError struct {
	cause error
}

func (e *transientError) Error() string { return e.cause.Error() }

func (e *transientError) Is(target error) bool { return target == ErrTransient }

func (e *transientError) Unwrap() error { return e.cause }
