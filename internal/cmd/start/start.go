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

// Package start contains the command to run the pipeline.
package start

import (
	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/mcslender97/textjson/internal/pipeline"
	"github.com/mcslender97/textjson/internal/util/diag"
	"github.com/mcslender97/textjson/internal/util/stdbatch"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Command returns the command to run the pipeline.
func Command() *cobra.Command {
	var cfg pipeline.Config
	return stdbatch.New(&stdbatch.Template{
		Config: &cfg,
		Short:  "publish the fields of newline-delimited JSON files as key,value records",
		Start: func(ctx *stopper.Context, _ *cobra.Command) (stdbatch.Job, error) {
			p, err := pipeline.Start(ctx, &cfg)
			if err != nil {
				return nil, err
			}
			return &job{p}, nil
		},
		Use: "start",
	})
}

type job struct {
	pipeline *pipeline.Pipeline
}

var _ stdbatch.HasDiagnostics = (*job)(nil)

// GetDiagnostics implements [stdbatch.HasDiagnostics].
func (j *job) GetDiagnostics() *diag.Diagnostics {
	return j.pipeline.Diagnostics()
}

// Run implements [stdbatch.Job].
func (j *job) Run(ctx *stopper.Context) error {
	summary, err := j.pipeline.Run(ctx)
	if summary != nil {
		entry := log.WithFields(log.Fields{
			"blankLines": summary.BlankLines,
			"files":      summary.Files,
			"lines":      summary.Lines,
			"published":  summary.Published,
			"rejected":   summary.Rejected(),
			"runId":      summary.RunID,
		})
		if err != nil {
			entry.Warn(summary)
		} else {
			entry.Info(summary)
		}
	}
	return err
}
