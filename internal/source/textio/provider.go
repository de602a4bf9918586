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

package textio

import (
	"github.com/google/wire"
	"github.com/mcslender97/textjson/internal/source/textio/bucket"
	"github.com/mcslender97/textjson/internal/source/textio/providers/local"
	"github.com/mcslender97/textjson/internal/source/textio/providers/s3"
	"github.com/pkg/errors"
)

// Set is used by Wire.
var Set = wire.NewSet(
	ProvideBucket,
	ProvideSource,
)

// ProvideBucket is called by Wire to construct the storage reader
// selected by the input file pattern. Preflight must have been called
// on the configuration.
func ProvideBucket(config *Config) (bucket.Reader, error) {
	switch {
	case config.local != nil:
		return local.New(config.local)
	case config.s3 != nil:
		return s3.New(config.s3)
	default:
		return nil, errors.New("invalid configuration: no storage provider")
	}
}

// ProvideSource is called by Wire.
func ProvideSource(config *Config, reader bucket.Reader) *Source {
	return New(config, reader)
}
