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

package dlq

import (
	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/google/uuid"
	"github.com/google/wire"
	"github.com/mcslender97/textjson/internal/target/publish"
	log "github.com/sirupsen/logrus"
)

// Set is used by Wire.
var Set = wire.NewSet(
	ProvideRouter,
)

// ProvideRouter is called by Wire. A new run identifier is generated
// for each Router. The dead-letter publisher, if any, is closed when
// the stopper has stopped.
func ProvideRouter(
	ctx *stopper.Context, config *Config, pubConfig *publish.Config,
) (*Router, error) {
	runID := uuid.New().String()
	if config.DeadLetterTopic == "" {
		return New(nil, runID), nil
	}
	pub, err := pubConfig.Open(ctx, config.DeadLetterTopic)
	if err != nil {
		return nil, err
	}
	ctx.Defer(func() {
		if err := pub.Close(); err != nil {
			log.WithError(err).Warnf("could not close publisher for %s", config.DeadLetterTopic)
		}
	})
	return New(pub, runID), nil
}
