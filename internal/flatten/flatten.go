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

// Package flatten converts one line of JSON text into independent
// key,value string records.
//
// A line must hold exactly one JSON object. Each member of the object
// produces one record, in the order the members appear in the line.
// Member values are stringified by a total coercion policy: strings
// are unquoted, numbers keep the text they were written with, booleans
// become true or false, null becomes a configurable text and nested
// objects or arrays are either emitted as compact JSON or expanded into
// path-qualified keys.
//
// Path-qualified keys join the member names with a separator, which
// is not escaped. A member name containing the separator can therefore
// produce the same key as a nested member: {"a.b":1,"a":{"b":2}}
// yields a.b,1 and a.b,2. Both records are emitted.
//
// Lines that do not hold a JSON object produce a [ParseError] and no
// records. A Flattener has no mutable state and may be shared between
// goroutines.
package flatten

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Defaults applied by New.
const (
	DefaultDelimiter = ","
	DefaultSeparator = "."
)

// Options configure a Flattener. The zero value is usable.
type Options struct {
	// CanonicalNumbers reduces numeric values to a canonical decimal
	// form instead of echoing the input text.
	CanonicalNumbers bool
	// Delimiter is placed between the key and the value.
	Delimiter string
	// Nested selects the stringification of objects and arrays.
	Nested Nested
	// NullText is emitted for JSON null values.
	NullText string
	// Separator joins path elements when Nested is NestedFlatten.
	Separator string
}

// A Flattener converts lines to records.
type Flattener struct {
	opts Options
}

// New constructs a Flattener, filling in defaults for unset options.
func New(opts Options) *Flattener {
	if opts.Delimiter == "" {
		opts.Delimiter = DefaultDelimiter
	}
	if opts.Separator == "" {
		opts.Separator = DefaultSeparator
	}
	return &Flattener{opts: opts}
}

var std = New(Options{})

// Flatten converts the line using the default options.
func Flatten(line []byte) ([]string, error) {
	return std.Flatten(line)
}

// Result holds the outcome of flattening one line. Exactly one of
// Records or Err is meaningful; Records is empty whenever Err is set.
type Result struct {
	Records []string
	Err     error
}

// OK returns true if the line was flattened.
func (r Result) OK() bool {
	return r.Err == nil
}

// Result flattens the line and packages the outcome.
func (f *Flattener) Result(line []byte) Result {
	records, err := f.Flatten(line)
	return Result{Records: records, Err: err}
}

// Flatten converts the line into records. An empty, non-nil slice is
// returned for an empty object. Any error is a *ParseError.
func (f *Flattener) Flatten(line []byte) ([]string, error) {
	line = bytes.TrimPrefix(line, utf8BOM)
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, &ParseError{Kind: KindEmpty}
	}
	// Unmarshal validates the entire input, including trailing data,
	// before decoding anything.
	var probe json.RawMessage
	if err := json.Unmarshal(line, &probe); err != nil {
		return nil, malformed(err)
	}
	if line[0] != '{' {
		return nil, &ParseError{Kind: KindNotObject}
	}

	w := &walker{opts: &f.opts, out: make([]string, 0, 8)}
	if err := members(line, func(key string, value json.RawMessage) error {
		return w.value(key, value)
	}); err != nil {
		return nil, malformed(err)
	}
	return w.out, nil
}

// walker accumulates the records for a single line.
type walker struct {
	opts *Options
	out  []string
}

func (w *walker) emit(key, value string) {
	w.out = append(w.out, key+w.opts.Delimiter+value)
}

func (w *walker) join(prefix, key string) string {
	return prefix + w.opts.Separator + key
}

// value stringifies a single member value, recursing into containers
// when configured to do so.
func (w *walker) value(key string, raw json.RawMessage) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return errors.Errorf("missing value for key %q", key)
	}
	switch raw[0] {
	case '{':
		if w.opts.Nested == NestedFlatten {
			count := 0
			if err := members(raw, func(k string, v json.RawMessage) error {
				count++
				return w.value(w.join(key, k), v)
			}); err != nil {
				return err
			}
			if count > 0 {
				return nil
			}
		}
		return w.compact(key, raw)

	case '[':
		if w.opts.Nested == NestedFlatten {
			count := 0
			if err := elements(raw, func(idx int, v json.RawMessage) error {
				count++
				return w.value(w.join(key, strconv.Itoa(idx)), v)
			}); err != nil {
				return err
			}
			if count > 0 {
				return nil
			}
		}
		return w.compact(key, raw)

	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return errors.Wrapf(err, "decoding string for key %q", key)
		}
		w.emit(key, s)

	case 't', 'f':
		w.emit(key, string(raw))

	case 'n':
		w.emit(key, w.opts.NullText)

	default:
		w.emit(key, number(string(raw), w.opts.CanonicalNumbers))
	}
	return nil
}

func (w *walker) compact(key string, raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return errors.Wrapf(err, "compacting value for key %q", key)
	}
	w.emit(key, buf.String())
	return nil
}

// members calls fn for each member of the JSON object, in order.
func members(raw []byte, fn func(key string, value json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return errors.WithStack(err)
		}
		key, ok := tok.(string)
		if !ok {
			return errors.Errorf("unexpected object key %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return errors.Wrapf(err, "decoding value for key %q", key)
		}
		if err := fn(key, value); err != nil {
			return err
		}
	}
	return expectDelim(dec, '}')
}

// elements calls fn for each element of the JSON array, in order.
func elements(raw []byte, fn func(idx int, value json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := expectDelim(dec, '['); err != nil {
		return err
	}
	for idx := 0; dec.More(); idx++ {
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return errors.Wrapf(err, "decoding element %d", idx)
		}
		if err := fn(idx, value); err != nil {
			return err
		}
	}
	return expectDelim(dec, ']')
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return errors.WithStack(err)
	}
	if got, ok := tok.(json.Delim); !ok || got != want {
		return errors.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}
