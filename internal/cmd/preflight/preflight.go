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

// Package preflight contains a command to validate the configuration
// and list the input files without publishing anything.
package preflight

import (
	"fmt"

	"github.com/mcslender97/textjson/internal/pipeline"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Command returns a command to validate a pipeline configuration.
func Command() *cobra.Command {
	var cfg pipeline.Config
	cmd := &cobra.Command{
		Args:  cobra.NoArgs,
		Short: "validate the configuration and list the matching input files",
		Use:   "preflight",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Preflight(); err != nil {
				return err
			}
			log.WithFields(log.Fields{
				"backend": cfg.Publish.Topic().Kind,
				"topic":   cfg.Publish.OutputTopic,
			}).Info("output topic is valid")

			source, err := pipeline.StartSource(&cfg)
			if err != nil {
				return err
			}
			files, err := source.Match(cmd.Context())
			if err != nil {
				return err
			}
			for _, file := range files {
				fmt.Fprintln(cmd.OutOrStdout(), source.Location(file))
			}
			log.Infof("%d files match %s", len(files), cfg.Source.InputFilePattern)
			return nil
		},
	}
	cfg.Bind(cmd.Flags())
	return cmd
}
