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
	"strings"

	"github.com/cockroachdb/apd"
	"github.com/pkg/errors"
)

// Nested selects how object and array values are stringified.
type Nested int

const (
	// NestedOpaque emits objects and arrays as compact JSON text.
	NestedOpaque Nested = iota
	// NestedFlatten expands objects and arrays into one record per
	// leaf, using path-qualified keys.
	NestedFlatten
)

// ParseNested converts a command-line value into a Nested policy.
func ParseNested(s string) (Nested, error) {
	switch strings.ToLower(s) {
	case "", "opaque":
		return NestedOpaque, nil
	case "flatten":
		return NestedFlatten, nil
	default:
		return 0, errors.Errorf("unknown nested policy %q; must be one of opaque, flatten", s)
	}
}

func (n Nested) String() string {
	if n == NestedFlatten {
		return "flatten"
	}
	return "opaque"
}

// Numbers whose exponent is outside of this range keep their input
// text in canonical mode, rather than expanding to a very long string.
const maxPlainExponent = 100

// number stringifies a JSON number literal. The literal has already
// been validated by the JSON decoder.
func number(text string, canonical bool) string {
	if !canonical {
		return text
	}
	d, _, err := apd.NewFromString(text)
	if err != nil {
		return text
	}
	if d.Sign() == 0 {
		return "0"
	}
	if d.Exponent > maxPlainExponent || d.Exponent < -maxPlainExponent {
		return text
	}
	ret := d.Text('f')
	if strings.IndexByte(ret, '.') >= 0 {
		ret = strings.TrimRight(ret, "0")
		ret = strings.TrimSuffix(ret, ".")
	}
	return ret
}
