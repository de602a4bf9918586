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

package flatten

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies the reason a line could not be flattened. The
// string form is used for metric labels and dead-letter attributes.
//
//go:generate go run golang.org/x/tools/cmd/stringer -type=Kind -linecomment
type Kind int

const (
	// KindMalformed indicates that the line is not valid JSON, or that
	// the JSON value is followed by trailing data.
	KindMalformed Kind = iota + 1 // malformed
	// KindNotObject indicates valid JSON whose top-level value is not
	// an object.
	KindNotObject // not_object
	// KindEmpty indicates a line with no content.
	KindEmpty // empty
	// KindTooLong indicates a line longer than the reader's limit. It
	// is reported by line readers, never by a Flattener.
	KindTooLong // too_long
)

// ParseError is returned when a line cannot be flattened. No records
// are ever produced alongside a ParseError.
type ParseError struct {
	Kind  Kind
	Cause error // May be nil.
}

var _ error = (*ParseError)(nil)

// Error implements error.
func (e *ParseError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("cannot flatten line: %s", e.Kind)
	}
	return fmt.Sprintf("cannot flatten line: %s: %v", e.Kind, e.Cause)
}

// Unwrap returns the underlying decoder error, if any.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// IsParseError reports whether the error, or any error it wraps, is a
// ParseError. The error is returned for further inspection.
func IsParseError(err error) (*ParseError, bool) {
	var perr *ParseError
	if errors.As(err, &perr) {
		return perr, true
	}
	return nil, false
}

func malformed(cause error) *ParseError {
	return &ParseError{Kind: KindMalformed, Cause: cause}
}
