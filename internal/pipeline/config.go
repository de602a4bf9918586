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
	"runtime"

	"github.com/mcslender97/textjson/internal/flatten"
	"github.com/mcslender97/textjson/internal/source/textio"
	"github.com/mcslender97/textjson/internal/target/dlq"
	"github.com/mcslender97/textjson/internal/target/publish"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// Config contains the configuration of a pipeline run.
type Config struct {
	DLQ     dlq.Config
	Publish publish.Config
	Source  textio.Config

	CanonicalNumbers bool   // Reduce numbers to a canonical form.
	Delimiter        string // Placed between the key and value.
	Nested           string // The policy for object and array values.
	NullText         string // Emitted for JSON null.
	Separator        string // Joins path elements of nested keys.
	Workers          int    // The number of files to process concurrently.

	// Computed by Preflight.
	flatten flatten.Options
}

// Bind adds flags to the set.
func (c *Config) Bind(f *pflag.FlagSet) {
	c.DLQ.Bind(f)
	c.Publish.Bind(f)
	c.Source.Bind(f)

	f.BoolVar(&c.CanonicalNumbers, "canonicalNumbers", false,
		"reduce numeric values to a canonical decimal form (1.50 becomes 1.5) "+
			"instead of emitting them as written")
	f.StringVar(&c.Delimiter, "delimiter", flatten.DefaultDelimiter,
		"the text placed between the key and the value of each record")
	f.StringVar(&c.Nested, "nested", flatten.NestedOpaque.String(),
		"how to emit object and array values; opaque emits compact JSON, "+
			"flatten emits one record per leaf value with a path-qualified key")
	f.StringVar(&c.NullText, "nullText", "",
		"the text emitted for JSON null values")
	f.StringVar(&c.Separator, "separator", flatten.DefaultSeparator,
		"joins the path elements of keys when nested is flatten; it is not escaped, "+
			"so a key containing the separator may repeat a nested key")
	f.IntVar(&c.Workers, "workers", runtime.GOMAXPROCS(0),
		"the number of input files to process concurrently")
}

// Preflight updates the configuration with sane defaults or returns an
// error if there are missing options for which a default cannot be
// provided. No storage or topic is accessed.
func (c *Config) Preflight() error {
	if err := c.Source.Preflight(); err != nil {
		return err
	}
	if err := c.Publish.Preflight(); err != nil {
		return err
	}
	if err := c.DLQ.Preflight(); err != nil {
		return err
	}
	if c.DLQ.DeadLetterTopic != "" {
		dead, err := publish.ParseTopic(c.DLQ.DeadLetterTopic)
		if err != nil {
			return err
		}
		// Two publishers writing to one file would clobber each other.
		if dead.SameDestination(c.Publish.Topic()) {
			return errors.Errorf("deadLetterTopic %s must not be the same destination as outputTopic %s",
				c.DLQ.DeadLetterTopic, c.Publish.OutputTopic)
		}
	}
	nested, err := flatten.ParseNested(c.Nested)
	if err != nil {
		return err
	}
	if c.Delimiter == "" {
		return errors.New("delimiter must not be empty")
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	c.flatten = flatten.Options{
		CanonicalNumbers: c.CanonicalNumbers,
		Delimiter:        c.Delimiter,
		Nested:           nested,
		NullText:         c.NullText,
		Separator:        c.Separator,
	}
	return nil
}
