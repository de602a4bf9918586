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
	"github.com/mcslender97/textjson/internal/target/publish"
	"github.com/spf13/pflag"
)

// Config controls the handling of lines that cannot be flattened.
type Config struct {
	// DeadLetterTopic receives the original text of each rejected line.
	// If empty, rejected lines are skipped and counted.
	DeadLetterTopic string
}

// Bind adds configuration flags to the set.
func (c *Config) Bind(f *pflag.FlagSet) {
	f.StringVar(&c.DeadLetterTopic, "deadLetterTopic", "",
		"a topic to receive lines that cannot be flattened, in any format accepted by outputTopic "+
			"other than the outputTopic itself; if unset, such lines are logged and skipped")
}

// Preflight validates the configuration.
func (c *Config) Preflight() error {
	if c.DeadLetterTopic == "" {
		return nil
	}
	_, err := publish.ParseTopic(c.DeadLetterTopic)
	return err
}
