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

// Package ndjson provides utilities to read newline-delimited records.
package ndjson

import (
	"bufio"
	"bytes"
	"io"

	"github.com/pkg/errors"
)

// readSize is the size of the underlying read buffer. Lines may be
// longer than this.
const readSize = 64 * 1024

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// A Scanner splits a stream into lines, tracking the 1-based line
// number of the most recent line. Line terminators, including a
// trailing carriage return, are removed.
//
// When a limit is set, a longer line does not stop the scan. The rest
// of the line is discarded, TooLong reports true and Bytes returns the
// first limit bytes of the line.
type Scanner struct {
	buf     []byte
	done    bool
	err     error
	length  int // Bytes read for the current line, with terminator.
	limit   int
	line    int
	reader  *bufio.Reader
	tooLong bool
}

// NewScanner returns a Scanner over the reader. A positive limit is the
// maximum number of bytes retained for a line; zero disables the
// limit.
func NewScanner(r io.Reader, limit int) *Scanner {
	if limit < 0 {
		limit = 0
	}
	return &Scanner{limit: limit, reader: bufio.NewReaderSize(r, readSize)}
}

// Scan advances to the next line, returning false at the end of the
// stream or on error.
func (s *Scanner) Scan() bool {
	if s.done {
		return false
	}
	s.buf = s.buf[:0]
	s.length = 0
	s.tooLong = false
	for {
		chunk, err := s.reader.ReadSlice('\n')
		s.keep(chunk)
		switch {
		case err == nil:
			s.finish()
			return true
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			s.done = true
			if s.length == 0 {
				return false
			}
			s.finish()
			return true
		default:
			s.done = true
			s.err = errors.Wrapf(err, "reading line %d", s.line+1)
			return false
		}
	}
}

// keep retains as much of the chunk as the limit allows. Room is left
// for a CRLF terminator so that a line of exactly limit bytes is not
// reported as too long.
func (s *Scanner) keep(chunk []byte) {
	s.length += len(chunk)
	if s.limit > 0 {
		room := s.limit + 2 - len(s.buf)
		if room <= 0 {
			return
		}
		if len(chunk) > room {
			chunk = chunk[:room]
		}
	}
	s.buf = append(s.buf, chunk...)
}

func (s *Scanner) finish() {
	s.line++
	s.buf = bytes.TrimSuffix(s.buf, []byte{'\n'})
	s.buf = bytes.TrimSuffix(s.buf, []byte{'\r'})
	if s.limit > 0 && len(s.buf) > s.limit {
		s.buf = s.buf[:s.limit]
		s.tooLong = true
	}
}

// Bytes returns the current line. The slice is only valid until the
// next call to Scan. A byte-order mark at the start of the stream is
// removed.
func (s *Scanner) Bytes() []byte {
	buf := s.buf
	if s.line == 1 {
		buf = bytes.TrimPrefix(buf, utf8BOM)
	}
	return buf
}

// Err returns the first non-EOF error encountered.
func (s *Scanner) Err() error {
	return s.err
}

// Length returns the number of bytes read for the current line,
// including its terminator.
func (s *Scanner) Length() int {
	return s.length
}

// Limit returns the maximum length of a line, or zero if unlimited.
func (s *Scanner) Limit() int {
	return s.limit
}

// Line returns the 1-based number of the current line.
func (s *Scanner) Line() int {
	return s.line
}

// TooLong returns true if the current line was longer than the limit
// and has been truncated.
func (s *Scanner) TooLong() bool {
	return s.tooLong
}

// IsBlank returns true if the line contains only whitespace.
func IsBlank(line []byte) bool {
	return len(bytes.TrimSpace(line)) == 0
}
