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

package pipeline

import (
	"github.com/google/wire"
	"github.com/mcslender97/textjson/internal/flatten"
	"github.com/mcslender97/textjson/internal/source/textio"
	"github.com/mcslender97/textjson/internal/target/dlq"
	"github.com/mcslender97/textjson/internal/target/publish"
	"github.com/mcslender97/textjson/internal/util/diag"
)

// Set is used by Wire.
var Set = wire.NewSet(
	ProvideFlattener,
	ProvidePipeline,
	wire.FieldsOf(new(*Config), "DLQ", "Publish", "Source"),
)

// ProvideFlattener is called by Wire. Preflight must have been called
// on the configuration.
func ProvideFlattener(config *Config) *flatten.Flattener {
	return flatten.New(config.flatten)
}

// ProvidePipeline is called by Wire.
func ProvidePipeline(
	config *Config,
	diags *diag.Diagnostics,
	flattener *flatten.Flattener,
	publisher publish.Publisher,
	router *dlq.Router,
	source *textio.Source,
) *Pipeline {
	return &Pipeline{
		config:    config,
		diags:     diags,
		flattener: flattener,
		publisher: publisher,
		router:    router,
		source:    source,
	}
}
