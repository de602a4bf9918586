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

//go:build wireinject
// +build wireinject

package pipeline

import (
	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/google/wire"
	"github.com/mcslender97/textjson/internal/source/textio"
	"github.com/mcslender97/textjson/internal/target/dlq"
	"github.com/mcslender97/textjson/internal/target/publish"
	"github.com/mcslender97/textjson/internal/util/diag"
)

// Start creates a Pipeline using the provided configuration, which
// must already be preflighted. The topics are closed when the stopper
// has stopped.
func Start(ctx *stopper.Context, config *Config) (*Pipeline, error) {
	panic(wire.Build(
		Set,
		diag.New,
		dlq.Set,
		publish.Set,
		textio.Set,
	))
}

// StartSource creates only the input side of a pipeline, for use by
// commands which must not publish.
func StartSource(config *Config) (*textio.Source, error) {
	panic(wire.Build(
		wire.FieldsOf(new(*Config), "Source"),
		textio.Set,
	))
}
